// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/notify"
	"github.com/salamnest/salamnest/internal/ratelimit"
	"github.com/salamnest/salamnest/pkg/errutil"
)

// Reset flow defaults.
const (
	DefaultResetCodeTTL     = 15 * time.Minute
	DefaultResetTokenTTL    = time.Hour
	DefaultResetCallTimeout = 7 * time.Second
	DefaultMaxPendingCodes  = 64
)

// Values of the "transition" log attribute.
const (
	transitionCodeRequested = "code_requested"
	transitionCodeVerified  = "code_verified"
	transitionCompleted     = "completed"
)

// ResetConfig configures the reset flow.
type ResetConfig struct {
	// CodeTTL is how long an emailed code stays valid.
	CodeTTL time.Duration
	// TokenTTL is how long a reset token stays valid after a code is verified.
	TokenTTL time.Duration
	// CallTimeout bounds the user lookup and code storage of RequestCode.
	CallTimeout time.Duration
	// VerifyTimeout bounds each store call of VerifyCode and ResetPassword.
	VerifyTimeout time.Duration
	// MaxPendingCodes caps codes being issued in the background. Requests
	// over the cap are dropped and logged.
	MaxPendingCodes int
}

func (c *ResetConfig) applyDefaults() {
	if c.CodeTTL <= 0 {
		c.CodeTTL = DefaultResetCodeTTL
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultResetTokenTTL
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = DefaultResetCallTimeout
	}
	if c.MaxPendingCodes <= 0 {
		c.MaxPendingCodes = DefaultMaxPendingCodes
	}
}

// PasswordResetService runs the forgot-password flow.
type PasswordResetService struct {
	store    IdentityStore
	notifier notify.Notifier
	cfg      ResetConfig
	logger   *slog.Logger
	metrics  *Metrics
	requests ratelimit.Limiter
	verifies ratelimit.Limiter
	newCode  Generator
	newToken Generator
	now      func() time.Time

	pending chan struct{}
	wg      sync.WaitGroup
}

// ResetOption configures a PasswordResetService.
type ResetOption func(*PasswordResetService)

// WithCodeGenerator replaces GenerateResetCode.
func WithCodeGenerator(g Generator) ResetOption {
	return func(s *PasswordResetService) { s.newCode = g }
}

// WithTokenGenerator replaces GenerateResetToken.
func WithTokenGenerator(g Generator) ResetOption {
	return func(s *PasswordResetService) { s.newToken = g }
}

// WithResetClock overrides the time source for expiries.
func WithResetClock(now func() time.Time) ResetOption {
	return func(s *PasswordResetService) { s.now = now }
}

// WithRequestLimiter throttles RequestCode per email.
func WithRequestLimiter(l ratelimit.Limiter) ResetOption {
	return func(s *PasswordResetService) { s.requests = l }
}

// WithVerifyLimiter throttles VerifyCode per email.
func WithVerifyLimiter(l ratelimit.Limiter) ResetOption {
	return func(s *PasswordResetService) { s.verifies = l }
}

// WithResetMetrics records reset steps in m.
func WithResetMetrics(m *Metrics) ResetOption {
	return func(s *PasswordResetService) { s.metrics = m }
}

// NewPasswordResetService creates a PasswordResetService that logs to slog.Default.
func NewPasswordResetService(store IdentityStore, notifier notify.Notifier, cfg ResetConfig, opts ...ResetOption) (*PasswordResetService, error) {
	return NewPasswordResetServiceWithLogger(store, notifier, cfg, slog.Default(), opts...)
}

// NewPasswordResetServiceWithLogger creates a PasswordResetService with an explicit logger.
func NewPasswordResetServiceWithLogger(
	store IdentityStore,
	notifier notify.Notifier,
	cfg ResetConfig,
	logger *slog.Logger,
	opts ...ResetOption,
) (*PasswordResetService, error) {
	if store == nil {
		return nil, oops.Errorf("identity store is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	cfg.applyDefaults()
	s := &PasswordResetService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		requests: ratelimit.Unlimited{},
		verifies: ratelimit.Unlimited{},
		newCode:  GenerateResetCode,
		newToken: GenerateResetToken,
		now:      time.Now,
		pending:  make(chan struct{}, cfg.MaxPendingCodes),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RequestCode moves Idle -> CodeRequested. If email belongs to a user and the
// request is not throttled, a fresh code is issued in the background: it
// replaces any earlier code and is sent to the user. The response is the
// same in every case and does not wait for delivery.
func (s *PasswordResetService) RequestCode(ctx context.Context, email string) *ResetResponse {
	outcome := s.requestCode(ctx, identity.NormalizeEmail(email))
	s.metrics.record(CmdForgotPassword, outcome)
	return &ResetResponse{Success: true, Message: MsgResetCodeSent}
}

// Wait blocks until codes issued in the background have been stored and
// handed to the notifier.
func (s *PasswordResetService) Wait() {
	s.wg.Wait()
}

func (s *PasswordResetService) requestCode(ctx context.Context, email string) string {
	log := s.logger.With("email", email, "transition", transitionCodeRequested)

	if err := identity.ValidateEmail(email); err != nil {
		log.DebugContext(ctx, "reset requested for malformed email")
		return outcomeRejected
	}

	allowed, err := s.requests.Allow(ctx, email)
	if err != nil {
		errutil.LogError(log, "reset request throttle unavailable", err)
		return outcomeError
	}
	if !allowed {
		log.InfoContext(ctx, "reset request throttled")
		return outcomeThrottled
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	user, err := s.store.FindByEmail(callCtx, email)
	cancel()
	if err != nil {
		if errutil.Is(err, errutil.KindNotFound) {
			log.DebugContext(ctx, "reset requested for unknown email")
			return outcomeRejected
		}
		errutil.LogError(log, "reset request lookup failed", err)
		return outcomeError
	}

	select {
	case s.pending <- struct{}{}:
	default:
		log.WarnContext(ctx, "reset code dropped, too many pending deliveries", "user_id", user.ID.String())
		s.metrics.codeSent(outcomeThrottled)
		return outcomeThrottled
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.pending }()
		s.issueCode(context.WithoutCancel(ctx), log, user, email)
	}()
	return outcomeSuccess
}

// issueCode stores a fresh code for user and sends it. It runs detached from
// the request so a known email answers as fast as an unknown one.
func (s *PasswordResetService) issueCode(ctx context.Context, log *slog.Logger, user *identity.UserView, email string) {
	code, err := s.newCode()
	if err != nil {
		errutil.LogError(log, "reset code generation failed", err)
		s.metrics.codeSent(outcomeError)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	err = s.store.CreateResetCode(callCtx, identity.ResetCodeInput{
		UserID:    user.ID,
		Email:     email,
		CodeHash:  identity.HashSecret(code),
		ExpiresAt: s.now().Add(s.cfg.CodeTTL),
	})
	cancel()
	if err != nil {
		errutil.LogError(log, "reset code storage failed", err)
		s.metrics.codeSent(outcomeError)
		return
	}

	callCtx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
	err = s.notifier.SendResetCode(callCtx, notify.ResetCode{
		Email:     email,
		Code:      code,
		ExpiresIn: s.cfg.CodeTTL,
	})
	cancel()
	if err != nil {
		errutil.LogError(log, "reset code delivery failed", err)
		s.metrics.codeSent(outcomeError)
		return
	}

	s.metrics.codeSent(outcomeSuccess)
	log.InfoContext(ctx, "reset code sent", "user_id", user.ID.String())
}

// VerifyCode moves CodeRequested -> CodeVerified. A code is consumed by its
// first successful verification. Malformed, throttled, expired and unknown
// codes all fail with the same error. On success the raw reset token is
// returned; this is the only place it is exposed.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) (*ResetResponse, error) {
	resp, err := s.verifyCode(ctx, identity.NormalizeEmail(email), strings.TrimSpace(code))
	s.metrics.record(CmdVerifyResetCode, outcomeOf(err))
	return resp, err
}

func (s *PasswordResetService) verifyCode(ctx context.Context, email, code string) (*ResetResponse, error) {
	log := s.logger.With("email", email, "transition", transitionCodeVerified)

	if email == "" || !isResetCode(code) {
		return nil, errInvalidResetCode()
	}

	allowed, err := s.verifies.Allow(ctx, email)
	if err != nil {
		errutil.LogError(log, "reset verify throttle unavailable", err)
		return nil, errInvalidResetCode()
	}
	if !allowed {
		log.InfoContext(ctx, "reset verify throttled")
		return nil, errInvalidResetCode()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	result, err := s.store.VerifyResetCode(callCtx, email, identity.HashSecret(code))
	cancel()
	if err != nil {
		errutil.LogError(log, "reset code verification failed", err)
		return nil, errInvalidResetCode()
	}
	if !result.Success {
		log.InfoContext(ctx, "reset code rejected", "reason", result.Reason)
		return nil, errInvalidResetCode()
	}

	raw, err := s.newToken()
	if err != nil {
		errutil.LogError(log, "reset token generation failed", err)
		return nil, internalError("RESET_VERIFY_FAILED", "generate reset token", err)
	}

	callCtx, cancel = context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	err = s.store.CreatePasswordReset(callCtx, identity.ResetTokenInput{
		UserID:    result.UserID,
		Email:     email,
		TokenHash: identity.HashSecret(raw),
		ExpiresAt: s.now().Add(s.cfg.TokenTTL),
	})
	cancel()
	if err != nil {
		wrapped := internalError("RESET_VERIFY_FAILED", "store reset token", err)
		errutil.LogError(log, "reset token storage failed", wrapped)
		return nil, wrapped
	}

	if err := s.verifies.Reset(ctx, email); err != nil {
		log.WarnContext(ctx, "reset verify throttle not cleared", "error", err)
	}

	log.InfoContext(ctx, "reset code verified", "user_id", result.UserID.String())
	return &ResetResponse{Success: true, Message: MsgResetCodeVerified, ResetToken: raw}, nil
}

// ResetPassword moves CodeVerified -> Completed. The token is single use.
// On success the user's refresh token is cleared so every session has to
// sign in again.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) (*ResetResponse, error) {
	resp, err := s.resetPassword(ctx, strings.TrimSpace(rawToken), newPassword)
	s.metrics.record(CmdResetPassword, outcomeOf(err))
	return resp, err
}

func (s *PasswordResetService) resetPassword(ctx context.Context, rawToken, newPassword string) (*ResetResponse, error) {
	log := s.logger.With("transition", transitionCompleted)

	if err := identity.ValidatePassword(newPassword); err != nil {
		return nil, err
	}
	if rawToken == "" {
		return nil, errInvalidResetToken()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	result, err := s.store.ResetPasswordWithToken(callCtx, identity.HashSecret(rawToken), newPassword)
	cancel()
	if err != nil {
		errutil.LogError(log, "password reset failed", err)
		return nil, errInvalidResetToken()
	}
	if !result.Success {
		log.InfoContext(ctx, "reset token rejected", "reason", result.Reason)
		return nil, errInvalidResetToken()
	}

	callCtx, cancel = context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	if err := s.store.ClearRefreshToken(callCtx, result.UserID); err != nil {
		log.WarnContext(ctx, "refresh token not cleared after password reset",
			"user_id", result.UserID.String(),
			"error", err)
	}
	cancel()

	log.InfoContext(ctx, "password reset", "user_id", result.UserID.String())
	return &ResetResponse{Success: true, Message: MsgPasswordResetSuccess}, nil
}
