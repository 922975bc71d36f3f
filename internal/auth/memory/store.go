// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides an in-process account store.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/pkg/authflow"
)

// AccountStore keeps accounts in memory. Email uniqueness is enforced.
// Safe for concurrent use.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.Account
	byEmail map[string]ulid.ULID
}

var _ authflow.UserStore[*auth.Account] = (*AccountStore)(nil)

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[ulid.ULID]*auth.Account),
		byEmail: make(map[string]ulid.ULID),
	}
}

// FindByEmail retrieves an account by email (case-insensitive).
func (s *AccountStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	return clone(s.byID[id]), nil
}

// FindByID retrieves an account by its ULID string.
func (s *AccountStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[parsed]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return clone(account), nil
}

// Create stores a new account.
func (s *AccountStore) Create(_ context.Context, account *auth.Account) (*auth.Account, error) {
	email := auth.NormalizeEmail(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").
			With("email", email).
			Errorf("email already registered")
	}
	if _, exists := s.byID[account.ID]; exists {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("id", account.ID.String()).
			Errorf("duplicate account id")
	}

	stored := clone(account)
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return clone(stored), nil
}

// Update replaces an existing account.
func (s *AccountStore) Update(_ context.Context, account *auth.Account) (*auth.Account, error) {
	email := auth.NormalizeEmail(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[account.ID]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	if owner, taken := s.byEmail[email]; taken && owner != account.ID {
		return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").
			With("email", email).
			Errorf("email already registered")
	}

	delete(s.byEmail, current.Email)
	stored := clone(account)
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return clone(stored), nil
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func clone(a *auth.Account) *auth.Account {
	c := *a
	c.Attributes = maps.Clone(a.Attributes)
	return &c
}
