// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error whose deepest code is code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertSameError asserts that two oops errors cannot be told apart by a
// caller: same code, same message, same context.
func AssertSameError(t *testing.T, want, got error) {
	t.Helper()
	wantErr, ok := oops.AsOops(want)
	require.True(t, ok, "expected oops error, got %T", want)
	gotErr, ok := oops.AsOops(got)
	require.True(t, ok, "expected oops error, got %T", got)

	assert.Equal(t, wantErr.Code(), gotErr.Code(), "code")
	assert.Equal(t, want.Error(), got.Error(), "message")
	assert.Equal(t, wantErr.Context(), gotErr.Context(), "context")
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
