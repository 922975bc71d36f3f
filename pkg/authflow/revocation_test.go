// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/authflow/pkg/authflow"
)

func TestRevocationTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      time.Duration
	}{
		{"no expiry means no ttl", time.Time{}, 0},
		{"whole seconds until expiry", now.Add(time.Hour), time.Hour},
		{"fraction is floored", now.Add(2*time.Second + 999*time.Millisecond), 2 * time.Second},
		{"within current second clamps to one", now.Add(400 * time.Millisecond), time.Second},
		{"exactly now clamps to one", now, time.Second},
		{"already expired clamps to one", now.Add(-time.Hour), time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authflow.RevocationTTL(tt.expiresAt, now))
		})
	}
}

func TestRevocationKey(t *testing.T) {
	t.Run("uses token id when present", func(t *testing.T) {
		key := authflow.RevocationKey(&authflow.VerifiedToken{ID: "01HX"}, "raw")
		assert.Equal(t, "revoked:jti:01HX", key)
	})

	t.Run("falls back to hash of raw token", func(t *testing.T) {
		key := authflow.RevocationKey(&authflow.VerifiedToken{}, "raw")
		assert.True(t, strings.HasPrefix(key, authflow.RevocationKeyPrefix))
		assert.NotContains(t, key, "raw")
		assert.Len(t, key, len("revoked:tok:")+64)
	})

	t.Run("fallback is deterministic per token", func(t *testing.T) {
		a := authflow.RevocationKey(nil, "token-a")
		assert.Equal(t, a, authflow.RevocationKey(nil, "token-a"))
		assert.NotEqual(t, a, authflow.RevocationKey(nil, "token-b"))
	})
}
