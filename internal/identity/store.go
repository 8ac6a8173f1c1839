// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// dummyPasswordHash is verified when no user matches so both miss paths do
// the same work. It is replaced by a hash made with the configured parameters
// on first use.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store owns users, refresh-token slots and reset artifacts.
type Store struct {
	users  UserRepository
	codes  ResetCodeRepository
	tokens ResetTokenRepository
	hasher SecretHasher
	logger *slog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewStore creates a Store that logs to slog.Default.
func NewStore(users UserRepository, codes ResetCodeRepository, tokens ResetTokenRepository, hasher SecretHasher, opts ...StoreOption) (*Store, error) {
	return NewStoreWithLogger(users, codes, tokens, hasher, slog.Default(), opts...)
}

// NewStoreWithLogger creates a Store with an explicit logger.
func NewStoreWithLogger(
	users UserRepository,
	codes ResetCodeRepository,
	tokens ResetTokenRepository,
	hasher SecretHasher,
	logger *slog.Logger,
	opts ...StoreOption,
) (*Store, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if codes == nil {
		return nil, oops.Errorf("reset code repository is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("reset token repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("secret hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	s := &Store{
		users:  users,
		codes:  codes,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func errCredentialsNotFound() error {
	return errutil.NotFound("CREDENTIALS_NOT_FOUND").Errorf("no user matches these credentials")
}

func errUserNotFound(id ulid.ULID) error {
	return errutil.NotFound("USER_NOT_FOUND").With("user_id", id.String()).Errorf("user not found")
}

func errStore(code, operation string, err error) error {
	return errutil.Internal(code).With("operation", operation).Wrap(err)
}

func (s *Store) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = dummyPasswordHash
		if h, err := s.hasher.Hash(ulid.Make().String()); err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// ValidateCredentials resolves an email and password to a principal.
// Unknown email and wrong password produce the same CREDENTIALS_NOT_FOUND error.
func (s *Store) ValidateCredentials(ctx context.Context, email, password string) (Principal, error) {
	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(email))

	var targetHash string
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.dummy()
	default:
		return Principal{}, errStore("CREDENTIALS_LOOKUP_FAILED", "get user by email", lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return Principal{}, errCredentialsNotFound()
		}
		return Principal{}, errStore("CREDENTIALS_VERIFY_FAILED", "verify password", verifyErr)
	}
	if !userExists || !valid {
		return Principal{}, errCredentialsNotFound()
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradePasswordHash(ctx, user.ID, password)
	}

	return Principal{ID: user.ID, Role: string(user.Role)}, nil
}

// upgradePasswordHash re-hashes a legacy password. Login succeeds regardless.
func (s *Store) upgradePasswordHash(ctx context.Context, id ulid.ULID, password string) {
	newHash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, id, newHash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade failed", "user_id", id.String(), "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", id.String())
}

// SetRefreshToken hashes raw and overwrites the user's refresh-token slot.
func (s *Store) SetRefreshToken(ctx context.Context, id ulid.ULID, raw string) error {
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return errStore("REFRESH_TOKEN_HASH_FAILED", "hash refresh token", err)
	}
	if err := s.users.SetRefreshTokenHash(ctx, id, &hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errUserNotFound(id)
		}
		return errStore("REFRESH_TOKEN_SET_FAILED", "set refresh token hash", err)
	}
	return nil
}

// ClearRefreshToken empties the user's refresh-token slot. Unknown users are
// treated as already cleared.
func (s *Store) ClearRefreshToken(ctx context.Context, id ulid.ULID) error {
	if err := s.users.SetRefreshTokenHash(ctx, id, nil); err != nil && !errors.Is(err, ErrNotFound) {
		return errStore("REFRESH_TOKEN_CLEAR_FAILED", "clear refresh token hash", err)
	}
	return nil
}

// MatchRefreshToken checks raw against the user's refresh-token slot.
func (s *Store) MatchRefreshToken(ctx context.Context, id ulid.ULID, raw string) (Principal, error) {
	mismatch := errutil.NotFound("REFRESH_TOKEN_MISMATCH").
		With("user_id", id.String()).
		Errorf("refresh token does not match")

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, mismatch
		}
		return Principal{}, errStore("REFRESH_TOKEN_LOOKUP_FAILED", "get user by id", err)
	}
	if user.RefreshTokenHash == nil || raw == "" {
		return Principal{}, mismatch
	}
	ok, err := s.hasher.Verify(raw, *user.RefreshTokenHash)
	if err != nil {
		return Principal{}, errStore("REFRESH_TOKEN_VERIFY_FAILED", "verify refresh token", err)
	}
	if !ok {
		return Principal{}, mismatch
	}
	return Principal{ID: user.ID, Role: string(user.Role)}, nil
}

// CreateUser validates and stores a new user, hashing the password.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*UserView, error) {
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	role := DefaultRole
	if in.Role != "" {
		r, err := ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, errStore("USER_CREATE_FAILED", "hash password", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           ulid.Make(),
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, errEmailTaken(email)
		}
		return nil, errStore("USER_CREATE_FAILED", "insert user", err)
	}
	return user.View(), nil
}

func errEmailTaken(email string) error {
	return errutil.Conflict("USER_EMAIL_TAKEN").With("email", email).Errorf("email already registered")
}

// FindByEmail returns the user with email, ignoring case.
func (s *Store) FindByEmail(ctx context.Context, email string) (*UserView, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errutil.NotFound("USER_NOT_FOUND").Errorf("user not found")
		}
		return nil, errStore("USER_LOOKUP_FAILED", "get user by email", err)
	}
	return user.View(), nil
}

// ExistsByEmail reports whether a user has email, ignoring case.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.ExistsByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return false, errStore("USER_LOOKUP_FAILED", "exists by email", err)
	}
	return exists, nil
}

// GetByID returns the user with id.
func (s *Store) GetByID(ctx context.Context, id ulid.ULID) (*UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errUserNotFound(id)
		}
		return nil, errStore("USER_LOOKUP_FAILED", "get user by id", err)
	}
	return user.View(), nil
}

// UpdateByID applies patch to the user. Passwords cannot be changed here.
func (s *Store) UpdateByID(ctx context.Context, id ulid.ULID, patch UserPatch) (*UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errUserNotFound(id)
		}
		return nil, errStore("USER_UPDATE_FAILED", "get user by id", err)
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if patch.Role != nil {
		role, err := ParseRole(*patch.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		user.Phone = patch.Phone
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = patch.AvatarURL
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return nil, errEmailTaken(user.Email)
		case errors.Is(err, ErrNotFound):
			return nil, errUserNotFound(id)
		}
		return nil, errStore("USER_UPDATE_FAILED", "update user", err)
	}
	return user.View(), nil
}

// DeleteByID removes the user with id.
func (s *Store) DeleteByID(ctx context.Context, id ulid.ULID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errUserNotFound(id)
		}
		return errStore("USER_DELETE_FAILED", "delete user", err)
	}
	return nil
}

// CreateResetCode stores a hashed reset code, replacing prior codes for the
// same user or email.
func (s *Store) CreateResetCode(ctx context.Context, in ResetCodeInput) error {
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errUserNotFound(in.UserID)
		}
		return errStore("RESET_CODE_CREATE_FAILED", "get user by id", err)
	}
	code := &ResetCode{
		ID:        ulid.Make(),
		UserID:    in.UserID,
		Email:     NormalizeEmail(in.Email),
		CodeHash:  in.CodeHash,
		ExpiresAt: in.ExpiresAt.UTC(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.codes.Replace(ctx, code); err != nil {
		return errStore("RESET_CODE_CREATE_FAILED", "replace reset code", err)
	}
	return nil
}

// VerifyResetCode consumes the newest unused code matching email and hash.
// Expired codes are deleted. Every failure reports the same reason.
func (s *Store) VerifyResetCode(ctx context.Context, email, codeHash string) (ResetResult, error) {
	code, err := s.codes.LatestUnused(ctx, NormalizeEmail(email), codeHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return resetFailed(), nil
		}
		return ResetResult{}, errStore("RESET_CODE_VERIFY_FAILED", "find reset code", err)
	}

	now := s.now().UTC()
	if code.IsExpired(now) {
		if err := s.codes.Delete(ctx, code.ID); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "expired reset code cleanup failed", "code_id", code.ID.String(), "error", err)
		}
		return resetFailed(), nil
	}

	used, err := s.codes.MarkUsed(ctx, code.ID, now)
	if err != nil {
		return ResetResult{}, errStore("RESET_CODE_VERIFY_FAILED", "mark reset code used", err)
	}
	if !used {
		return resetFailed(), nil
	}
	return ResetResult{Success: true, UserID: code.UserID}, nil
}

// CreatePasswordReset stores a hashed reset token, replacing prior tokens for
// the same user or email.
func (s *Store) CreatePasswordReset(ctx context.Context, in ResetTokenInput) error {
	token := &ResetToken{
		ID:        ulid.Make(),
		UserID:    in.UserID,
		Email:     NormalizeEmail(in.Email),
		TokenHash: in.TokenHash,
		ExpiresAt: in.ExpiresAt.UTC(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return errStore("RESET_TOKEN_CREATE_FAILED", "replace reset token", err)
	}
	return nil
}

// ResetPasswordWithToken consumes the token with tokenHash and sets a new
// password for its user. The token is claimed before anything else so it can
// only ever be used once.
func (s *Store) ResetPasswordWithToken(ctx context.Context, tokenHash, newPassword string) (ResetResult, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return ResetResult{}, err
	}

	token, err := s.tokens.Claim(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return resetFailed(), nil
		}
		return ResetResult{}, errStore("PASSWORD_RESET_FAILED", "claim reset token", err)
	}
	if token.IsExpired(s.now().UTC()) {
		return resetFailed(), nil
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return ResetResult{}, errStore("PASSWORD_RESET_FAILED", "hash password", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, token.UserID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return resetFailed(), nil
		}
		return ResetResult{}, errStore("PASSWORD_RESET_FAILED", "update password hash", err)
	}
	return ResetResult{Success: true, UserID: token.UserID}, nil
}

// PurgeExpired deletes expired reset codes and tokens.
func (s *Store) PurgeExpired(ctx context.Context) (codes, tokens int64, err error) {
	now := s.now().UTC()
	codes, err = s.codes.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, errStore("RESET_PURGE_FAILED", "delete expired codes", err)
	}
	tokens, err = s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return codes, 0, errStore("RESET_PURGE_FAILED", "delete expired tokens", err)
	}
	return codes, tokens, nil
}
