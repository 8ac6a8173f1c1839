// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package memory provides in-process identity repositories for development
// and tests. Data is lost when the process exits.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/salamnest/salamnest/internal/identity"
)

// UserRepository is an in-memory identity.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[ulid.ULID]identity.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[ulid.ULID]identity.User)}
}

func (r *UserRepository) emailTaken(email string, except ulid.ULID) bool {
	for id, u := range r.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, user.ID) {
		return identity.ErrEmailTaken
	}
	r.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return &u, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, identity.ErrNotFound
}

// ExistsByEmail reports whether a user has email.
func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emailTaken(email, ulid.ULID{}), nil
}

// Update stores profile fields and role.
func (r *UserRepository) Update(_ context.Context, user *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[user.ID]
	if !ok {
		return identity.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return identity.ErrEmailTaken
	}
	cur.Email = user.Email
	cur.FirstName = user.FirstName
	cur.LastName = user.LastName
	cur.Phone = user.Phone
	cur.AvatarURL = user.AvatarURL
	cur.Role = user.Role
	cur.UpdatedAt = user.UpdatedAt
	r.users[user.ID] = cur
	return nil
}

// UpdatePasswordHash replaces the password hash.
func (r *UserRepository) UpdatePasswordHash(_ context.Context, id ulid.ULID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

// SetRefreshTokenHash overwrites the refresh-token slot.
func (r *UserRepository) SetRefreshTokenHash(_ context.Context, id ulid.ULID, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.RefreshTokenHash = hash
	r.users[id] = u
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return identity.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// ResetCodeRepository is an in-memory identity.ResetCodeRepository.
type ResetCodeRepository struct {
	mu    sync.Mutex
	codes map[ulid.ULID]identity.ResetCode
}

// NewResetCodeRepository creates an empty ResetCodeRepository.
func NewResetCodeRepository() *ResetCodeRepository {
	return &ResetCodeRepository{codes: make(map[ulid.ULID]identity.ResetCode)}
}

// Replace deletes prior codes for the user or email and stores code.
func (r *ResetCodeRepository) Replace(_ context.Context, code *identity.ResetCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.UserID == code.UserID || c.Email == code.Email {
			delete(r.codes, id)
		}
	}
	r.codes[code.ID] = *code
	return nil
}

// LatestUnused returns the newest unused code for email and hash.
func (r *ResetCodeRepository) LatestUnused(_ context.Context, email, codeHash string) (*identity.ResetCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *identity.ResetCode
	for _, c := range r.codes {
		if c.Email != email || c.CodeHash != codeHash || c.UsedAt != nil {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) ||
			(c.CreatedAt.Equal(latest.CreatedAt) && c.ID.Compare(latest.ID) > 0) {
			latest = &c
		}
	}
	if latest == nil {
		return nil, identity.ErrNotFound
	}
	return latest, nil
}

// MarkUsed sets used_at if it is still empty.
func (r *ResetCodeRepository) MarkUsed(_ context.Context, id ulid.ULID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[id]
	if !ok || c.UsedAt != nil {
		return false, nil
	}
	c.UsedAt = &at
	r.codes[id] = c
	return true, nil
}

// Delete removes a code.
func (r *ResetCodeRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[id]; !ok {
		return identity.ErrNotFound
	}
	delete(r.codes, id)
	return nil
}

// DeleteExpired removes codes whose expiry is at or before now.
func (r *ResetCodeRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.codes {
		if c.IsExpired(now) {
			delete(r.codes, id)
			n++
		}
	}
	return n, nil
}

// ResetTokenRepository is an in-memory identity.ResetTokenRepository.
type ResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]identity.ResetToken
}

// NewResetTokenRepository creates an empty ResetTokenRepository.
func NewResetTokenRepository() *ResetTokenRepository {
	return &ResetTokenRepository{tokens: make(map[string]identity.ResetToken)}
}

// Replace deletes prior tokens for the user or email and stores token.
func (r *ResetTokenRepository) Replace(_ context.Context, token *identity.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.tokens {
		if t.UserID == token.UserID || t.Email == token.Email {
			delete(r.tokens, hash)
		}
	}
	r.tokens[token.TokenHash] = *token
	return nil
}

// Claim deletes and returns the token with hash.
func (r *ResetTokenRepository) Claim(_ context.Context, tokenHash string) (*identity.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, identity.ErrNotFound
	}
	delete(r.tokens, tokenHash)
	return &t, nil
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (r *ResetTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.tokens {
		if t.IsExpired(now) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}
