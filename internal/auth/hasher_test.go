// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/pkg/errutil"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})
}

func TestArgon2idHasher_Compare(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password matches", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Compare("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password does not match", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Compare("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("legacy bcrypt hash is accepted", func(t *testing.T) {
		legacy, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
		require.NoError(t, err)

		ok, err := hasher.Compare("oldpassword", string(legacy))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Compare("other", string(legacy))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	invalid := []struct {
		name     string
		hash     string
		contains string
	}{
		{"invalid hash format", "not-a-valid-hash", "invalid hash format"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", "unsupported hash algorithm"},
		{"invalid version format", "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA", ""},
		{"unsupported version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA", "unsupported argon2 version"},
		{"invalid parameters format", "$argon2id$v=19$invalid$c2FsdA$aGFzaA", ""},
		{"invalid salt base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA", ""},
		{"invalid hash base64", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!", ""},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA", "threads value"},
		{"zero threads", "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$aGFzaA", "threads value"},
	}
	for _, tt := range invalid {
		t.Run(tt.name+" returns error", func(t *testing.T) {
			ok, err := hasher.Compare("password", tt.hash)
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("hunter2")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$04$"))

		ok, err := hasher.Compare("hunter2", hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Compare("hunter3", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})

	t.Run("malformed hash returns error", func(t *testing.T) {
		_, err := hasher.Compare("x", "$2a$short")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("cost out of range is rejected", func(t *testing.T) {
		_, err := auth.NewBcryptHasher(bcrypt.MaxCost + 1)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_BCRYPT_COST")
	})
}

func TestNewHasher(t *testing.T) {
	tests := []struct {
		algorithm string
		prefix    string
	}{
		{"", "$argon2id$"},
		{auth.AlgorithmArgon2id, "$argon2id$"},
		{auth.AlgorithmBcrypt, "$2a$"},
	}
	for _, tt := range tests {
		t.Run("algorithm "+tt.algorithm, func(t *testing.T) {
			hasher, err := auth.NewHasher(tt.algorithm, bcrypt.MinCost)
			require.NoError(t, err)

			hash, err := hasher.Hash("pw")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, tt.prefix), hash)
		})
	}

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := auth.NewHasher("md5", 0)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_HASHER")
	})
}
