// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the authflow collaborator
// interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authflow/pkg/authflow"
)

// MockUserStore is a mock authflow.UserStore.
type MockUserStore[U any] struct {
	mock.Mock
}

// NewMockUserStore creates a MockUserStore whose expectations are asserted
// when the test ends.
func NewMockUserStore[U any](t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserStore[U] {
	m := &MockUserStore[U]{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserStore[U]) userResult(ret mock.Arguments) (U, error) {
	var r0 U
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(U)
	}
	return r0, ret.Error(1)
}

// FindByEmail provides a mock function.
func (m *MockUserStore[U]) FindByEmail(ctx context.Context, email string) (U, error) {
	return m.userResult(m.Called(ctx, email))
}

// FindByID provides a mock function.
func (m *MockUserStore[U]) FindByID(ctx context.Context, id string) (U, error) {
	return m.userResult(m.Called(ctx, id))
}

// Create provides a mock function.
func (m *MockUserStore[U]) Create(ctx context.Context, user U) (U, error) {
	return m.userResult(m.Called(ctx, user))
}

// Update provides a mock function.
func (m *MockUserStore[U]) Update(ctx context.Context, user U) (U, error) {
	return m.userResult(m.Called(ctx, user))
}

// MockPasswordHasher is a mock authflow.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test ends.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Compare provides a mock function.
func (m *MockPasswordHasher) Compare(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

// MockTokenManager is a mock authflow.TokenManager.
type MockTokenManager struct {
	mock.Mock
}

// NewMockTokenManager creates a MockTokenManager whose expectations are
// asserted when the test ends.
func NewMockTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenManager {
	m := &MockTokenManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue provides a mock function.
func (m *MockTokenManager) Issue(ctx context.Context, claims authflow.Claims, opts authflow.IssueOptions) (string, error) {
	ret := m.Called(ctx, claims, opts)
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function.
func (m *MockTokenManager) Verify(ctx context.Context, token string) (*authflow.VerifiedToken, error) {
	ret := m.Called(ctx, token)
	var r0 *authflow.VerifiedToken
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*authflow.VerifiedToken)
	}
	return r0, ret.Error(1)
}

// MockRevocationCache is a mock authflow.RevocationCache.
type MockRevocationCache struct {
	mock.Mock
}

// NewMockRevocationCache creates a MockRevocationCache whose expectations
// are asserted when the test ends.
func NewMockRevocationCache(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockRevocationCache {
	m := &MockRevocationCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Get provides a mock function.
func (m *MockRevocationCache) Get(ctx context.Context, key string) (string, bool, error) {
	ret := m.Called(ctx, key)
	return ret.String(0), ret.Bool(1), ret.Error(2)
}

// Set provides a mock function.
func (m *MockRevocationCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ret := m.Called(ctx, key, value, ttl)
	return ret.Error(0)
}

// Del provides a mock function.
func (m *MockRevocationCache) Del(ctx context.Context, key string) error {
	ret := m.Called(ctx, key)
	return ret.Error(0)
}

var (
	_ authflow.UserStore[any]  = (*MockUserStore[any])(nil)
	_ authflow.PasswordHasher  = (*MockPasswordHasher)(nil)
	_ authflow.TokenManager    = (*MockTokenManager)(nil)
	_ authflow.RevocationCache = (*MockRevocationCache)(nil)
)
