// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Revocation key layout.
const (
	RevocationKeyPrefix = "revoked:"
	revokedByID         = RevocationKeyPrefix + "jti:"
	revokedByToken      = RevocationKeyPrefix + "tok:"
)

// revocationMarker is the value written for a revoked token. Only the
// presence of the key matters.
const revocationMarker = "1"

// minRevocationTTL is the shortest lifetime given to a marker for a token
// that carries an expiry.
const minRevocationTTL = time.Second

// RevocationKey derives the cache key for a verified token. Tokens with an
// identifier are keyed by it; others by the SHA256 of the raw token string.
func RevocationKey(verified *VerifiedToken, rawToken string) string {
	if verified != nil && verified.ID != "" {
		return revokedByID + verified.ID
	}
	h := sha256.Sum256([]byte(rawToken))
	return revokedByToken + hex.EncodeToString(h[:])
}

// RevocationTTL returns the lifetime of a revocation marker for a token
// expiring at expiresAt. A zero expiresAt yields 0 (no expiry). Otherwise
// the whole seconds until expiry are returned, never less than one second.
func RevocationTTL(expiresAt, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	secs := expiresAt.Sub(now) / time.Second
	ttl := secs * time.Second
	if ttl < minRevocationTTL {
		return minRevocationTTL
	}
	return ttl
}
