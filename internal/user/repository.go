// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/buildmc/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Profile(ctx context.Context, id string) (*User, error)
	Rename(ctx context.Context, id, fullName string) (time.Time, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	BumpTokenVersion(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const accountSelect = `
	SELECT u.id, u.email, u.password_hash, u.full_name, u.token_version,
	       u.created_at, u.updated_at, u.deleted_at
	FROM users u`

// profileSelect adds order stats for the account page.
const profileSelect = `
	SELECT u.id, u.email, u.password_hash, u.full_name, u.token_version,
	       u.created_at, u.updated_at, u.deleted_at,
	       o.order_count, o.last_order_at
	FROM users u
	CROSS JOIN LATERAL (
		SELECT COUNT(*) AS order_count, MAX(created_at) AS last_order_at
		FROM orders
		WHERE user_id = u.id
	) o`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING token_version, created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID, user.Email, user.PasswordHash, user.FullName)
	switch {
	case core.IsDuplicateKeyError(err):
		return fmt.Errorf("create account %s: %w", user.Email, core.ErrDuplicateKey)
	case err != nil:
		return fmt.Errorf("create account %s: %w", user.Email, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, "account by id",
		accountSelect+` WHERE u.id = $1 AND u.deleted_at IS NULL`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, "account by email",
		accountSelect+` WHERE LOWER(u.email) = LOWER($1) AND u.deleted_at IS NULL`, email)
}

func (r *repository) Profile(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, "profile",
		profileSelect+` WHERE u.id = $1 AND u.deleted_at IS NULL`, id)
}

func (r *repository) one(ctx context.Context, op, query string, arg any) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

func (r *repository) Rename(ctx context.Context, id, fullName string) (time.Time, error) {
	query := `
		UPDATE users SET full_name = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	var updated time.Time
	err := r.db.GetContext(ctx, &updated, query, id, fullName)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("rename account: %w", core.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("rename account: %w", err)
	}
	return updated, nil
}

func (r *repository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.touch(ctx, "set password", `password_hash = $2`, id, passwordHash)
}

func (r *repository) BumpTokenVersion(ctx context.Context, id string) error {
	return r.touch(ctx, "bump token version", `token_version = token_version + 1`, id)
}

// Close soft-deletes the account and bumps the token version in the same
// statement, so outstanding access tokens stop verifying at once.
func (r *repository) Close(ctx context.Context, id string) error {
	return r.touch(ctx, "close account",
		`deleted_at = NOW(), token_version = token_version + 1`, id)
}

// touch updates one live account row; set is a fixed SQL fragment, never
// caller input.
func (r *repository) touch(ctx context.Context, op, set string, args ...any) error {
	query := `UPDATE users SET ` + set + `, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
