// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authflow orchestrates registration, login, token validation and
// logout on top of collaborators supplied by the caller.
//
// # Collaborators
//
// The package owns no storage, cryptography or transport. A Service is built
// from narrow capability interfaces:
//   - UserStore - finds, creates and updates users
//   - PasswordHasher - hashes and compares passwords
//   - TokenManager - issues and verifies tokens
//   - RevocationCache - optional; stores revocation markers with a TTL
//
// The user type is opaque. A UserAdapter tells the Service how to build a
// user from registration input and how to read its id and password hash.
// An optional ClaimsBuilder adds caller-defined claims to issued tokens.
//
// # Errors
//
// Operations fail with one of four error kinds (see Kind) or with the
// collaborator's own error, returned unchanged. Validate never returns an
// error: every failure collapses into ValidationResult.Valid == false.
//
// # Concurrency
//
// A Service holds no mutable state and may be shared between goroutines.
// Register checks for an existing email and then creates the user; the two
// steps are not atomic, so stores should enforce email uniqueness themselves.
package authflow
