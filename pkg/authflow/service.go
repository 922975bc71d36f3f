// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Config supplies the collaborators of a Service.
type Config[U any] struct {
	Users   UserStore[U]
	Hasher  PasswordHasher
	Tokens  TokenManager
	Adapter UserAdapter[U]

	// Revocations is optional. When nil, Validate skips the revocation
	// check and Logout does nothing.
	Revocations RevocationCache

	// Claims is optional. When nil and Adapter implements ClaimsBuilder,
	// the adapter is used.
	Claims ClaimsBuilder[U]

	// TokenExpiry is passed to TokenManager.Issue; zero keeps the
	// manager's default.
	TokenExpiry time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs the register, login, validate and logout use cases.
type Service[U any] struct {
	users       UserStore[U]
	hasher      PasswordHasher
	tokens      TokenManager
	revocations RevocationCache
	adapter     UserAdapter[U]
	claims      ClaimsBuilder[U]
	tokenExpiry time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// LoginResult is returned by a successful Login.
type LoginResult[U any] struct {
	User  U
	Token string
}

// ValidationResult is returned by Validate. Claims and User are only set
// when Valid is true. HasUser is false when the token's subject no longer
// exists in the store.
type ValidationResult[U any] struct {
	Valid   bool
	Claims  Claims
	User    U
	HasUser bool
}

// New creates a Service, validating that required collaborators are set.
func New[U any](cfg Config[U]) (*Service[U], error) {
	if cfg.Users == nil {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("user store is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if cfg.Tokens == nil {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("token manager is required")
	}
	if cfg.Adapter == nil {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").Errorf("user adapter is required")
	}
	if v, ok := cfg.Adapter.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	if cfg.TokenExpiry < 0 {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").
			With("token_expiry", cfg.TokenExpiry).
			Errorf("token expiry cannot be negative")
	}

	claims := cfg.Claims
	if claims == nil {
		if cb, ok := cfg.Adapter.(ClaimsBuilder[U]); ok {
			claims = cb
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service[U]{
		users:       cfg.Users,
		hasher:      cfg.Hasher,
		tokens:      cfg.Tokens,
		revocations: cfg.Revocations,
		adapter:     cfg.Adapter,
		claims:      claims,
		tokenExpiry: cfg.TokenExpiry,
		logger:      logger,
		now:         now,
	}, nil
}

// RevocationEnabled reports whether a revocation cache is configured.
func (s *Service[U]) RevocationEnabled() bool {
	return s.revocations != nil
}

// Register creates a user for an email that is not yet on record.
// Returns a KindUserExists error if the email is taken. Store and hasher
// errors are returned unchanged.
func (s *Service[U]) Register(ctx context.Context, input RegisterInput) (U, error) {
	var zero U

	_, err := s.users.FindByEmail(ctx, input.Email)
	if err == nil {
		return zero, NewError(KindUserExists, nil)
	}
	if !errors.Is(err, ErrNotFound) {
		return zero, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return zero, err
	}

	created, err := s.users.Create(ctx, s.adapter.BuildUser(input, hash))
	if err != nil {
		return zero, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", s.adapter.UserID(created))
	return created, nil
}

// Login checks the credentials and issues a token for the user.
// An unknown email and a wrong password both fail with the same
// KindInvalidCredentials error.
func (s *Service[U]) Login(ctx context.Context, input LoginInput) (LoginResult[U], error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult[U]{}, NewError(KindInvalidCredentials, nil)
		}
		return LoginResult[U]{}, err
	}

	match, err := s.hasher.Compare(input.Password, s.adapter.PasswordHash(user))
	if err != nil {
		return LoginResult[U]{}, err
	}
	if !match {
		return LoginResult[U]{}, NewError(KindInvalidCredentials, nil)
	}

	token, err := s.tokens.Issue(ctx, s.claimsFor(user), IssueOptions{ExpiresIn: s.tokenExpiry})
	if err != nil {
		return LoginResult[U]{}, err
	}

	return LoginResult[U]{User: user, Token: token}, nil
}

// claimsFor merges the caller's extra claims with sub. sub is set last.
func (s *Service[U]) claimsFor(user U) Claims {
	claims := Claims{}
	if s.claims != nil {
		for k, v := range s.claims.BuildClaims(user) {
			claims[k] = v
		}
	}
	claims[ClaimSubject] = s.adapter.UserID(user)
	return claims
}

// Validate verifies a token, checks it against the revocation cache and
// loads its subject. Every failure, whatever the cause, yields a result
// with Valid == false and nothing else set. The cause is only logged.
func (s *Service[U]) Validate(ctx context.Context, token string) ValidationResult[U] {
	result, err := s.validate(ctx, token)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", "error", err)
		return ValidationResult[U]{}
	}
	return result
}

func (s *Service[U]) validate(ctx context.Context, token string) (ValidationResult[U], error) {
	verified, err := s.verify(ctx, token)
	if err != nil {
		return ValidationResult[U]{}, err
	}

	if s.revocations != nil {
		_, revoked, err := s.revocations.Get(ctx, RevocationKey(verified, token))
		if err != nil {
			return ValidationResult[U]{}, err
		}
		if revoked {
			return ValidationResult[U]{}, NewError(KindTokenBlacklisted, nil)
		}
	}

	result := ValidationResult[U]{Valid: true, Claims: verified.Claims}

	subject := verified.Claims.Subject()
	if subject == "" {
		return result, nil
	}

	user, err := s.users.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return result, nil
		}
		return ValidationResult[U]{}, err
	}

	result.User = user
	result.HasUser = true
	return result, nil
}

// Logout revokes a token until it expires. Without a revocation cache it
// does nothing. Verification and cache errors are returned unchanged.
func (s *Service[U]) Logout(ctx context.Context, token string) error {
	if s.revocations == nil {
		return nil
	}

	verified, err := s.verify(ctx, token)
	if err != nil {
		return err
	}

	key := RevocationKey(verified, token)
	ttl := RevocationTTL(verified.ExpiresAt, s.now())
	if err := s.revocations.Set(ctx, key, revocationMarker, ttl); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "token revoked", "subject", verified.Claims.Subject(), "ttl", ttl)
	return nil
}

func (s *Service[U]) verify(ctx context.Context, token string) (*VerifiedToken, error) {
	verified, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if verified == nil {
		return nil, NewError(KindTokenInvalid, nil)
	}
	return verified, nil
}
