// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package token issues and verifies the signed access and refresh tokens
// handed to clients after login.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/salamnest/salamnest/pkg/errutil"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "salamnest"
)

// Payload is the identity carried by every token.
type Payload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Claims is the JWT body.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Payload returns the identity part of the claims.
func (c *Claims) Payload() Payload {
	return Payload{UserID: c.UserID, Role: c.Role}
}

// Config holds signing material. Access and refresh secrets must differ.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer signs and verifies tokens with HS256.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewIssuer validates cfg and returns an Issuer. Zero TTLs and issuer take defaults.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("token lifetimes must be positive")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	i := &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Pair is an access token and a refresh token issued together.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// IssuePair signs a fresh access and refresh token for p.
func (i *Issuer) IssuePair(p Payload) (Pair, error) {
	access, err := i.IssueAccess(p)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(p, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs an access token for p.
func (i *Issuer) IssueAccess(p Payload) (string, error) {
	return i.sign(p, i.accessSecret, i.accessTTL)
}

func (i *Issuer) sign(p Payload, secret []byte, ttl time.Duration) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        ulid.Make().String(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errutil.Internal("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// VerifyAccess checks an access token and returns its claims.
func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.verify(raw, i.accessSecret, "ACCESS_TOKEN_INVALID")
}

// VerifyRefresh checks a refresh token and returns its claims.
func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, i.refreshSecret, "REFRESH_TOKEN_INVALID")
}

func (i *Issuer) verify(raw string, secret []byte, code string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, errutil.Authentication(code).With("cause", err.Error()).Errorf("invalid token")
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, errutil.Authentication(code).Errorf("invalid token")
	}
	return claims, nil
}
