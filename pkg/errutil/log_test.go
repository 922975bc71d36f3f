// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authflow/pkg/errutil"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("ACCOUNT_CREATE_FAILED").
		With("email", "a@example.com").
		Errorf("insert failed")

	errutil.LogError(logger, "register failed", err)

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "register failed", entry["msg"])
	assert.Equal(t, "ACCOUNT_CREATE_FAILED", entry["code"])
	assert.Equal(t, map[string]any{"email": "a@example.com"}, entry["context"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "register failed", errors.New("standard error"))

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

func TestLogErrorContext_UsesContext(t *testing.T) {
	type key struct{}
	var seen any
	handler := &ctxHandler{Handler: slog.NewJSONHandler(&bytes.Buffer{}, nil), key: key{}, seen: &seen}

	ctx := context.WithValue(context.Background(), key{}, "req-1")
	errutil.LogErrorContext(ctx, slog.New(handler), "boom", errors.New("x"))

	assert.Equal(t, "req-1", seen)
}

func TestAttrs_OopsWithoutContext(t *testing.T) {
	attrs := errutil.Attrs(oops.Code("X").Errorf("y"))
	assert.Equal(t, []any{"error", "y", "code", "X"}, attrs)
}

type ctxHandler struct {
	slog.Handler
	key  any
	seen *any
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	*h.seen = ctx.Value(h.key)
	return h.Handler.Handle(ctx, r)
}
