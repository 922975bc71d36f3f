// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned by a UserStore when no user matches a lookup.
// Stores may wrap it; the Service matches it with errors.Is.
var ErrNotFound = errors.New("not found")

// Kind identifies an error raised by the Service itself.
type Kind int

// The closed set of error kinds.
const (
	// KindUserExists means registration was attempted for an email already on record.
	KindUserExists Kind = iota + 1
	// KindInvalidCredentials means the email is unknown or the password did not match.
	KindInvalidCredentials
	// KindTokenInvalid means a token failed verification.
	KindTokenInvalid
	// KindTokenBlacklisted means a token matched a revocation marker.
	KindTokenBlacklisted
)

var kindCodes = map[Kind]string{
	KindUserExists:         "USER_EXISTS",
	KindInvalidCredentials: "INVALID_CREDENTIALS",
	KindTokenInvalid:       "TOKEN_INVALID",
	KindTokenBlacklisted:   "TOKEN_BLACKLISTED",
}

var kindMessages = map[Kind]string{
	KindUserExists:         "user already exists",
	KindInvalidCredentials: "invalid email or password",
	KindTokenInvalid:       "token is invalid",
	KindTokenBlacklisted:   "token has been revoked",
}

// String returns the error code for k, e.g. "USER_EXISTS".
func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// Message returns the client-safe description of k.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "unknown error"
}

// ParseKind maps an error code back to its Kind.
func ParseKind(code string) (Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return 0, false
}

// NewError builds an error of the given kind. The cause may be nil.
// The cause should not itself carry an oops code, or KindOf will report
// the cause's code instead.
func NewError(kind Kind, cause error) error {
	b := oops.Code(kind.String())
	if cause == nil {
		return b.Errorf("%s", kind.Message())
	}
	return b.Wrapf(cause, "%s", kind.Message())
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return 0, false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return 0, false
	}
	return ParseKind(fmt.Sprint(oopsErr.Code()))
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
