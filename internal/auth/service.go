// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/salamnest/salamnest/internal/identity"
	"github.com/salamnest/salamnest/internal/token"
	"github.com/salamnest/salamnest/pkg/errutil"
)

// DefaultCallTimeout bounds each identity store call.
const DefaultCallTimeout = 5 * time.Second

// Config is the orchestrator configuration.
type Config struct {
	// AutoLogin signs users in as part of registration.
	AutoLogin bool
	// CallTimeout bounds each identity store call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
}

// Service signs users in and out.
type Service struct {
	store   IdentityStore
	tokens  *token.Issuer
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics records operations in m.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service that logs to slog.Default.
func NewService(store IdentityStore, tokens *token.Issuer, cfg Config, opts ...ServiceOption) (*Service, error) {
	return NewServiceWithLogger(store, tokens, cfg, slog.Default(), opts...)
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(store IdentityStore, tokens *token.Issuer, cfg Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("identity store is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	s := &Service{store: store, tokens: tokens, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

// Login checks credentials and issues a token pair. The refresh token
// replaces whatever the user's slot held before.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	resp, err := s.login(ctx, req)
	s.metrics.record(CmdLogin, outcomeOf(err))
	return resp, err
}

func (s *Service) login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := identity.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, errutil.Validation("AUTH_CREDENTIALS_REQUIRED").Errorf("email and password are required")
	}

	callCtx, cancel := s.call(ctx)
	principal, err := s.store.ValidateCredentials(callCtx, email, req.Password)
	cancel()
	if err != nil {
		if errutil.Is(err, errutil.KindNotFound) {
			s.logger.InfoContext(ctx, "login rejected", "email", email)
			return nil, errInvalidCredentials()
		}
		return nil, s.fail(internalError("AUTH_LOGIN_FAILED", "validate credentials", err))
	}

	role, err := identity.NormalizeRole(principal.Role)
	if err != nil {
		return nil, s.fail(err)
	}

	// A selected role outside the known set is just another mismatch.
	if req.Role != "" {
		if selected, err := identity.ParseRole(req.Role); err != nil || selected != role {
			s.logger.InfoContext(ctx, "login role mismatch",
				"user_id", principal.ID.String(),
				"selected", req.Role,
				"actual", string(role))
			return nil, errutil.Authorization("AUTH_ROLE_MISMATCH").
				With("selected", req.Role).
				Errorf("role mismatch")
		}
	}

	pair, err := s.issue(ctx, principal.ID, role)
	if err != nil {
		return nil, s.fail(internalError("AUTH_LOGIN_FAILED", "issue tokens", err))
	}

	s.logger.InfoContext(ctx, "login succeeded", "user_id", principal.ID.String(), "role", string(role))
	return &AuthResponse{
		ID:           principal.ID,
		Email:        email,
		Role:         role,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Message:      MsgLoginSuccessful,
	}, nil
}

// issue signs a token pair and stores the refresh token in the user's slot.
func (s *Service) issue(ctx context.Context, id ulid.ULID, role identity.Role) (token.Pair, error) {
	pair, err := s.tokens.IssuePair(token.Payload{UserID: id.String(), Role: string(role)})
	if err != nil {
		return token.Pair{}, err
	}
	callCtx, cancel := s.call(ctx)
	defer cancel()
	if err := s.store.SetRefreshToken(callCtx, id, pair.RefreshToken); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

// Register creates a user and, when auto-login is on, signs them in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	resp, err := s.register(ctx, req)
	outcome := outcomeOf(err)
	if err == nil && resp.Message == MsgRegisteredDegraded {
		outcome = outcomeDegraded
	}
	s.metrics.record(CmdRegister, outcome)
	return resp, err
}

func (s *Service) register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := identity.NormalizeEmail(req.Email)
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := identity.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	callCtx, cancel := s.call(ctx)
	exists, err := s.store.ExistsByEmail(callCtx, email)
	cancel()
	if err != nil {
		return nil, s.fail(internalError("AUTH_REGISTER_FAILED", "check email", err))
	}
	if exists {
		return nil, errutil.Conflict("AUTH_EMAIL_TAKEN").Errorf("email is already registered")
	}

	callCtx, cancel = s.call(ctx)
	user, err := s.store.CreateUser(callCtx, identity.NewUser{
		Email:     email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	cancel()
	if err != nil {
		switch errutil.KindOf(err) {
		case errutil.KindConflict, errutil.KindValidation:
			return nil, err
		}
		return nil, s.fail(internalError("AUTH_REGISTER_FAILED", "create user", err))
	}

	role, err := identity.NormalizeRole(user.Role)
	if err != nil {
		return nil, s.fail(err)
	}
	resp := &AuthResponse{ID: user.ID, Email: user.Email, Role: role}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String(), "role", string(role))

	if !s.cfg.AutoLogin {
		resp.Message = MsgRegisteredPleaseLog
		return resp, nil
	}

	pair, err := s.issue(ctx, user.ID, role)
	if err != nil {
		s.logger.WarnContext(ctx, "register auto-login failed", "user_id", user.ID.String(), "error", err)
		resp.Message = MsgRegisteredDegraded
		return resp, nil
	}
	resp.AccessToken = pair.AccessToken
	resp.RefreshToken = pair.RefreshToken
	resp.Message = MsgRegistered
	return resp, nil
}

// Refresh signs a new access token for a payload whose refresh token was
// already checked by ValidateRefreshToken. The refresh token is not rotated.
func (s *Service) Refresh(ctx context.Context, p token.Payload) (*RefreshResponse, error) {
	if _, err := ulid.Parse(p.UserID); err != nil {
		s.metrics.record(CmdRefresh, outcomeRejected)
		return nil, errInvalidRefreshToken()
	}
	if _, err := identity.ParseRole(p.Role); err != nil {
		s.metrics.record(CmdRefresh, outcomeRejected)
		return nil, errInvalidRefreshToken()
	}
	access, err := s.tokens.IssueAccess(p)
	if err != nil {
		s.metrics.record(CmdRefresh, outcomeError)
		return nil, s.fail(internalError("AUTH_REFRESH_FAILED", "issue access token", err))
	}
	s.metrics.record(CmdRefresh, outcomeSuccess)
	return &RefreshResponse{AccessToken: access}, nil
}

// ValidateRefreshToken checks a raw refresh token's signature and expiry and
// that it is the one in the user's slot. Every failure reads the same.
func (s *Service) ValidateRefreshToken(ctx context.Context, raw string) (token.Payload, error) {
	p, err := s.validateRefreshToken(ctx, raw)
	s.metrics.record(CmdValidateRefreshToken, outcomeOf(err))
	return p, err
}

func (s *Service) validateRefreshToken(ctx context.Context, raw string) (token.Payload, error) {
	claims, err := s.tokens.VerifyRefresh(raw)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh token rejected", "error", err)
		return token.Payload{}, errInvalidRefreshToken()
	}
	id, err := ulid.Parse(claims.UserID)
	if err != nil {
		return token.Payload{}, errInvalidRefreshToken()
	}

	callCtx, cancel := s.call(ctx)
	defer cancel()
	if _, err := s.store.MatchRefreshToken(callCtx, id, raw); err != nil {
		if !errutil.Is(err, errutil.KindNotFound) {
			errutil.LogError(s.logger, "refresh token check failed", err)
		}
		return token.Payload{}, errInvalidRefreshToken()
	}
	return claims.Payload(), nil
}

// Logout empties the user's refresh-token slot. It always succeeds.
func (s *Service) Logout(ctx context.Context, p token.Payload) *MessageResponse {
	id, err := ulid.Parse(p.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "logout with malformed user id", "user_id", p.UserID)
		s.metrics.record(CmdLogout, outcomeRejected)
		return &MessageResponse{Message: MsgLoggedOut}
	}

	callCtx, cancel := s.call(ctx)
	defer cancel()
	if err := s.store.ClearRefreshToken(callCtx, id); err != nil {
		errutil.LogError(s.logger, "logout failed to clear refresh token", err)
		s.metrics.record(CmdLogout, outcomeError)
		return &MessageResponse{Message: MsgLoggedOut}
	}
	s.logger.InfoContext(ctx, "logged out", "user_id", id.String())
	s.metrics.record(CmdLogout, outcomeSuccess)
	return &MessageResponse{Message: MsgLoggedOut}
}

func (s *Service) fail(err error) error {
	errutil.LogError(s.logger, "auth operation failed", err)
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errutil.Is(err, errutil.KindInternal):
		return outcomeError
	default:
		return outcomeRejected
	}
}
