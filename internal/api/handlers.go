// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/observability"
	"github.com/holomush/authflow/pkg/authflow"
)

type registerRequest struct {
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	Attributes map[string]any `json:"attributes"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type accountView struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type validateResponse struct {
	Valid  bool            `json:"valid"`
	Claims authflow.Claims `json:"claims,omitempty"`
	User   *accountView    `json:"user,omitempty"`
}

func viewOf(a *auth.Account) *accountView {
	return &accountView{
		ID:         a.ID.String(),
		Email:      a.Email,
		Attributes: a.Attributes,
		CreatedAt:  a.CreatedAt,
	}
}

func (s *Server) handleRegister(c echo.Context) error {
	op := s.begin(c, observability.OpRegister)
	defer op.end()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return op.badRequest(c, "malformed request body")
	}
	if req.Email == "" || req.Password == "" {
		return op.badRequest(c, "email and password are required")
	}

	account, err := s.auth.Register(op.ctx, authflow.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Attributes: req.Attributes,
	})
	if err != nil {
		return op.fail(c, err)
	}

	op.succeed()
	return c.JSON(http.StatusCreated, registerResponse{ID: account.ID.String(), Email: account.Email})
}

func (s *Server) handleLogin(c echo.Context) error {
	op := s.begin(c, observability.OpLogin)
	defer op.end()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return op.badRequest(c, "malformed request body")
	}

	result, err := s.auth.Login(op.ctx, authflow.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return op.fail(c, err)
	}

	op.succeed()
	return c.JSON(http.StatusOK, loginResponse{ID: result.User.ID.String(), Token: result.Token})
}

// handleValidate answers 200 for every token; only a malformed body is an error.
func (s *Server) handleValidate(c echo.Context) error {
	op := s.begin(c, observability.OpValidate)
	defer op.end()

	token, err := tokenFrom(c)
	if err != nil {
		return op.badRequest(c, "malformed request body")
	}

	result := s.auth.Validate(op.ctx, token)
	if !result.Valid {
		op.outcome = observability.OutcomeInvalid
		return c.JSON(http.StatusOK, validateResponse{Valid: false})
	}

	resp := validateResponse{Valid: true, Claims: result.Claims}
	if result.HasUser {
		resp.User = viewOf(result.User)
	}
	op.succeed()
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLogout(c echo.Context) error {
	op := s.begin(c, observability.OpLogout)
	defer op.end()

	token, err := tokenFrom(c)
	if err != nil {
		return op.badRequest(c, "malformed request body")
	}

	if err := s.auth.Logout(op.ctx, token); err != nil {
		return op.fail(c, err)
	}

	op.succeed()
	return c.NoContent(http.StatusNoContent)
}

// tokenFrom reads a bearer token from the Authorization header, falling
// back to a {"token": ...} body.
func tokenFrom(c echo.Context) (string, error) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), nil
		}
	}

	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return "", err
	}
	return req.Token, nil
}
