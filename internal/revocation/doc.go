// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package revocation provides authflow.RevocationCache implementations:
// RedisCache for shared deployments and MemoryCache for a single process.
package revocation
