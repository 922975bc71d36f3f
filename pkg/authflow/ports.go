// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// ClaimSubject is the mandatory claim holding the user's id.
const ClaimSubject = "sub"

// Claims is the payload carried by a token.
type Claims map[string]any

// Subject returns the sub claim coerced to a string, or "" when absent.
func (c Claims) Subject() string {
	switch v := c[ClaimSubject].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON decoders yield float64 for numbers; print them without an exponent.
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// RegisterInput is the input to Register.
type RegisterInput struct {
	Email    string
	Password string
	// Attributes are passed through to UserAdapter.BuildUser untouched.
	Attributes map[string]any
}

// LoginInput is the input to Login.
type LoginInput struct {
	Email    string
	Password string
}

// IssueOptions tunes a single token issuance.
type IssueOptions struct {
	// ExpiresIn overrides the manager's default lifetime when non-zero.
	ExpiresIn time.Duration
}

// VerifiedToken is the result of a successful TokenManager.Verify.
type VerifiedToken struct {
	Claims Claims
	// ID is the token identifier (jti); empty when the token carries none.
	ID string
	// ExpiresAt is the token expiry (exp); zero when the token never expires.
	ExpiresAt time.Time
}

// UserStore persists users of type U.
type UserStore[U any] interface {
	// FindByEmail returns ErrNotFound (possibly wrapped) when no user matches.
	FindByEmail(ctx context.Context, email string) (U, error)

	// FindByID returns ErrNotFound (possibly wrapped) when no user matches.
	FindByID(ctx context.Context, id string) (U, error)

	// Create persists a new user and returns the stored entity.
	Create(ctx context.Context, user U) (U, error)

	// Update persists changes to an existing user.
	Update(ctx context.Context, user U) (U, error)
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Compare returns (false, nil) on mismatch and an error only when the
	// comparison itself could not be performed.
	Compare(password, hash string) (bool, error)
}

// TokenManager issues and verifies tokens.
type TokenManager interface {
	Issue(ctx context.Context, claims Claims, opts IssueOptions) (string, error)

	// Verify fails for any malformed, expired or otherwise rejected token.
	Verify(ctx context.Context, token string) (*VerifiedToken, error)
}

// RevocationCache stores revocation markers.
type RevocationCache interface {
	// Get reports whether key is present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A zero ttl means the entry never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Del(ctx context.Context, key string) error
}

// UserAdapter gives the Service access to the parts of U it needs.
type UserAdapter[U any] interface {
	// BuildUser creates a new user from registration input and the hashed
	// password. The plaintext password must not be stored.
	BuildUser(input RegisterInput, passwordHash string) U

	UserID(user U) string

	PasswordHash(user U) string
}

// ClaimsBuilder derives extra token claims for a user. The sub claim is
// always overwritten with the user's id.
type ClaimsBuilder[U any] interface {
	BuildClaims(user U) Claims
}

// AdapterFuncs implements UserAdapter and ClaimsBuilder from plain functions.
// Build, ID and Hash are required; Claims may be nil.
type AdapterFuncs[U any] struct {
	Build  func(input RegisterInput, passwordHash string) U
	ID     func(user U) string
	Hash   func(user U) string
	Claims func(user U) Claims
}

func (f AdapterFuncs[U]) validate() error {
	switch {
	case f.Build == nil:
		return oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("adapter Build func is required")
	case f.ID == nil:
		return oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("adapter ID func is required")
	case f.Hash == nil:
		return oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("adapter Hash func is required")
	}
	return nil
}

// BuildUser calls f.Build.
func (f AdapterFuncs[U]) BuildUser(input RegisterInput, passwordHash string) U {
	return f.Build(input, passwordHash)
}

// UserID calls f.ID.
func (f AdapterFuncs[U]) UserID(user U) string { return f.ID(user) }

// PasswordHash calls f.Hash.
func (f AdapterFuncs[U]) PasswordHash(user U) string { return f.Hash(user) }

// BuildClaims calls f.Claims, returning nil when it is unset.
func (f AdapterFuncs[U]) BuildClaims(user U) Claims {
	if f.Claims == nil {
		return nil
	}
	return f.Claims(user)
}
