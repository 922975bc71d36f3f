// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides the PostgreSQL account store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/store"
	"github.com/holomush/authflow/pkg/authflow"
)

const selectAccount = `
	SELECT id, email, password_hash, attributes, created_at, updated_at
	FROM accounts`

// AccountRepository implements authflow.UserStore for accounts.
type AccountRepository struct {
	pool store.Pool
}

var _ authflow.UserStore[*auth.Account] = (*AccountRepository)(nil)

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool store.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// FindByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+`
		WHERE lower(email) = $1
	`, auth.NormalizeEmail(email))

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// FindByID retrieves an account by its ULID string. An id that is not a
// ULID cannot match any account.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*auth.Account, error) {
	if _, err := ulid.Parse(id); err != nil {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}

	row := r.pool.QueryRow(ctx, selectAccount+`
		WHERE id = $1
	`, id)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return account, nil
}

// Create stores a new account. A taken email fails with ACCOUNT_EMAIL_TAKEN.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) (*auth.Account, error) {
	attrs, err := marshalAttributes(account.Attributes)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "marshal attributes").
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		account.ID.String(),
		auth.NormalizeEmail(account.Email),
		account.PasswordHash,
		attrs,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").
			With("email", account.Email).
			Wrap(err)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	return account, nil
}

// Update persists changes to an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) (*auth.Account, error) {
	attrs, err := marshalAttributes(account.Attributes)
	if err != nil {
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "marshal attributes").
			Wrap(err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			email = $2,
			password_hash = $3,
			attributes = $4,
			updated_at = $5
		WHERE id = $1
	`,
		account.ID.String(),
		auth.NormalizeEmail(account.Email),
		account.PasswordHash,
		attrs,
		account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").
			With("email", account.Email).
			Wrap(err)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		account auth.Account
		idStr   string
		attrs   []byte
	)
	if err := row.Scan(
		&idStr,
		&account.Email,
		&account.PasswordHash,
		&attrs,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse account id").With("id", idStr).Wrap(err)
	}
	account.ID = id

	account.Attributes = map[string]any{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &account.Attributes); err != nil {
			return nil, oops.With("operation", "unmarshal attributes").With("id", idStr).Wrap(err)
		}
	}
	return &account, nil
}

func marshalAttributes(attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(attrs)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
