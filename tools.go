// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build tools

// Package main records test dependencies that are only imported behind
// build tags, keeping them pinned in go.mod.
package main

import (
	// e2e suite under test/integration (build tag integration).
	_ "github.com/onsi/ginkgo/v2"
	_ "github.com/onsi/gomega"

	// Unit test helpers shared by pkg/authflow/mocks and pkg/errutil.
	_ "github.com/stretchr/testify/mock"
	_ "github.com/stretchr/testify/require"
	_ "go.uber.org/goleak"
)
