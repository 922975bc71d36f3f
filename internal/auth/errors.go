// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "github.com/holomush/authflow/pkg/authflow"

// ErrNotFound is returned when a requested account does not exist.
// It is the sentinel authflow.Service matches on.
var ErrNotFound = authflow.ErrNotFound
