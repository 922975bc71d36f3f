// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/holomush/authflow/pkg/authflow"
	"github.com/holomush/authflow/pkg/errutil"
)

// Error codes produced by the API itself.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternal       = "INTERNAL_ERROR"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func statusForKind(k authflow.Kind) int {
	switch k {
	case authflow.KindUserExists:
		return http.StatusConflict
	case authflow.KindInvalidCredentials, authflow.KindTokenInvalid, authflow.KindTokenBlacklisted:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// handleHTTPError renders errors that escape the handlers: unknown routes,
// wrong methods and recovered panics.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
	}

	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(c.Request().Context(), s.logger, "unhandled request error", err)
		_ = writeError(c, status, CodeInternal, "internal error")
		return
	}

	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	_ = writeError(c, status, code, strings.ToLower(http.StatusText(status)))
}
