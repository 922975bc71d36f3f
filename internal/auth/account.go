// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/authflow/pkg/authflow"
)

// Claim names added to tokens by AccountAdapter.
const (
	ClaimEmail = "email"
	ClaimRoles = "roles"
)

// attrRoles is the registration attribute copied into the roles claim.
const attrRoles = "roles"

// Account represents a registered account.
type Account struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	Attributes   map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an Account with a fresh ID. The email is normalized.
func NewAccount(email, passwordHash string, attributes map[string]any, now time.Time) *Account {
	if attributes == nil {
		attributes = map[string]any{}
	}
	return &Account{
		ID:           ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Attributes:   attributes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail returns the lookup form of an email address.
// No format validation is done.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Roles returns the roles attribute as a string slice.
func (a *Account) Roles() []string {
	switch v := a.Attributes[attrRoles].(type) {
	case []string:
		return v
	case []any:
		roles := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
		return roles
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// AccountAdapter plugs Account into authflow.Service.
type AccountAdapter struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

var (
	_ authflow.UserAdapter[*Account]   = AccountAdapter{}
	_ authflow.ClaimsBuilder[*Account] = AccountAdapter{}
)

// BuildUser creates an Account from registration input.
func (a AccountAdapter) BuildUser(input authflow.RegisterInput, passwordHash string) *Account {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return NewAccount(input.Email, passwordHash, input.Attributes, now().UTC())
}

// UserID returns the account ID in its canonical string form.
func (AccountAdapter) UserID(account *Account) string {
	return account.ID.String()
}

// PasswordHash returns the stored hash.
func (AccountAdapter) PasswordHash(account *Account) string {
	return account.PasswordHash
}

// BuildClaims adds the email and, when set, the roles of the account.
func (AccountAdapter) BuildClaims(account *Account) authflow.Claims {
	claims := authflow.Claims{ClaimEmail: account.Email}
	if roles := account.Roles(); len(roles) > 0 {
		claims[ClaimRoles] = roles
	}
	return claims
}
