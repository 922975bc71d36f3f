// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package tokens issues and verifies HS256 JSON Web Tokens.
package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authflow/pkg/authflow"
)

// MinSecretLength is the minimum HMAC secret size in bytes.
const MinSecretLength = 32

// DefaultExpiry is the token lifetime used when none is configured.
const DefaultExpiry = time.Hour

// Registered claim names set by Manager.
const (
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimID        = "jti"
	claimIssuer    = "iss"
)

// Reasons attached to verification failures under the "reason" context key.
const (
	ReasonExpired   = "expired"
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonClaims    = "claims"
)

// Manager implements authflow.TokenManager with HS256 JWTs.
type Manager struct {
	secret []byte
	issuer string
	expiry time.Duration
	leeway time.Duration
	now    func() time.Time
}

var _ authflow.TokenManager = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithIssuer sets the iss claim on issued tokens and requires it on verify.
func WithIssuer(issuer string) Option {
	return func(m *Manager) { m.issuer = issuer }
}

// WithDefaultExpiry sets the lifetime of tokens issued without an explicit
// ExpiresIn. A negative value issues tokens without exp.
func WithDefaultExpiry(d time.Duration) Option {
	return func(m *Manager) { m.expiry = d }
}

// WithLeeway tolerates clock skew when checking exp.
func WithLeeway(d time.Duration) Option {
	return func(m *Manager) { m.leeway = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager signing with secret.
func NewManager(secret []byte, opts ...Option) (*Manager, error) {
	if len(secret) < MinSecretLength {
		return nil, oops.Code("TOKEN_SECRET_TOO_SHORT").
			With("min_length", MinSecretLength).
			Errorf("token secret must be at least %d bytes", MinSecretLength)
	}

	m := &Manager{
		secret: append([]byte(nil), secret...),
		expiry: DefaultExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs claims into a token. iat, jti, and iss (when configured) are
// always set by the manager; exp is set unless the lifetime is negative.
func (m *Manager) Issue(_ context.Context, claims authflow.Claims, opts authflow.IssueOptions) (string, error) {
	now := m.now()

	mc := make(jwt.MapClaims, len(claims)+4)
	for k, v := range claims {
		mc[k] = v
	}
	mc[claimIssuedAt] = now.Unix()
	mc[claimID] = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	if m.issuer != "" {
		mc[claimIssuer] = m.issuer
	}

	expiry := m.expiry
	if opts.ExpiresIn != 0 {
		expiry = opts.ExpiresIn
	}
	if expiry > 0 {
		mc[claimExpiresAt] = now.Add(expiry).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(m.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("operation", "sign token").Wrap(err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and issuer. Every failure is a
// TOKEN_INVALID error carrying a reason.
func (m *Manager) Verify(_ context.Context, raw string) (*authflow.VerifiedToken, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithLeeway(m.leeway),
	}
	if m.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.NewParser(parserOpts...).Parse(raw, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, invalid(reasonFor(err), err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, invalid(ReasonClaims, errors.New("unexpected claims type"))
	}

	verified := &authflow.VerifiedToken{Claims: authflow.Claims{}}
	for k, v := range mc {
		verified.Claims[k] = v
	}
	if id, ok := mc[claimID].(string); ok {
		verified.ID = id
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return nil, invalid(ReasonClaims, err)
	}
	if exp != nil {
		verified.ExpiresAt = exp.Time
	}
	return verified, nil
}

func invalid(reason string, cause error) error {
	return oops.With("reason", reason).Wrap(authflow.NewError(authflow.KindTokenInvalid, cause))
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	default:
		return ReasonClaims
	}
}
