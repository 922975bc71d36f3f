// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/authflow/internal/observability"
	"github.com/holomush/authflow/pkg/authflow"
	"github.com/holomush/authflow/pkg/errutil"
)

// operation tracks one handler invocation for its span and metrics.
type operation struct {
	s       *Server
	name    string
	ctx     context.Context
	span    trace.Span
	start   time.Time
	outcome string
}

func (s *Server) begin(c echo.Context, name string) *operation {
	ctx, span := s.tracer.Start(c.Request().Context(), "authflow."+name,
		trace.WithSpanKind(trace.SpanKindServer))
	return &operation{
		s:       s,
		name:    name,
		ctx:     ctx,
		span:    span,
		start:   time.Now(),
		outcome: observability.OutcomeError,
	}
}

func (op *operation) end() {
	op.span.SetAttributes(attribute.String("authflow.outcome", op.outcome))
	op.span.End()
	op.s.metrics.Observe(op.name, op.outcome, time.Since(op.start))
}

func (op *operation) succeed() {
	op.outcome = observability.OutcomeSuccess
	op.span.SetStatus(codes.Ok, "")
}

func (op *operation) badRequest(c echo.Context, message string) error {
	op.outcome = observability.OutcomeBadRequest
	op.span.SetStatus(codes.Error, message)
	return writeError(c, http.StatusBadRequest, CodeInvalidRequest, message)
}

// fail maps err to a response. Errors carrying an authflow kind are client
// errors; anything else is logged and hidden behind a 500.
func (op *operation) fail(c echo.Context, err error) error {
	if kind, ok := authflow.KindOf(err); ok {
		op.outcome = strings.ToLower(kind.String())
		op.span.SetStatus(codes.Error, kind.String())
		return writeError(c, statusForKind(kind), kind.String(), kind.Message())
	}

	op.outcome = observability.OutcomeError
	op.span.RecordError(err)
	op.span.SetStatus(codes.Error, "internal error")
	errutil.LogErrorContext(op.ctx, op.s.logger, op.name+" failed", err)
	return writeError(c, http.StatusInternalServerError, CodeInternal, "internal error")
}
