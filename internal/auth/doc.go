// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the account model and password hashers used by authd.
//
// # Domain Types
//
// Accounts should be created with NewAccount, or through AccountAdapter when
// registering via authflow.Service. Email addresses are stored normalized
// (see NormalizeEmail).
//
// # Hashers
//
//   - Argon2idHasher - PHC-encoded argon2id, also verifies legacy bcrypt hashes
//   - BcryptHasher - bcrypt with a configurable cost
//
// NewHasher selects one by name. Both implement authflow.PasswordHasher.
//
// Storage lives in the memory and postgres subpackages.
package auth
