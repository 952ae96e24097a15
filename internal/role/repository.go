// AngelaMos | 2026
// repository.go

package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildmc/storefront/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]Assignment, error)
	GetByID(ctx context.Context, id string) (*UserRole, error)
	FindByUser(ctx context.Context, userID string) (*UserRole, error)
	Create(ctx context.Context, r *UserRole) error
	UpdateRole(ctx context.Context, id, role string) (*UserRole, error)
	Delete(ctx context.Context, id string) (*UserRole, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Assignment, error) {
	query := `
		SELECT
			ur.id, ur.user_id, ur.role, ur.created_at,
			COALESCE(u.email, '') AS email,
			COALESCE(u.full_name, '') AS full_name
		FROM user_roles ur
		LEFT JOIN users u ON u.id = ur.user_id AND u.deleted_at IS NULL
		ORDER BY ur.role ASC, ur.created_at ASC`

	var rows []Assignment
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return rows, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*UserRole, error) {
	query := `SELECT id, user_id, role, created_at FROM user_roles WHERE id = $1`

	var ur UserRole
	err := r.db.GetContext(ctx, &ur, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &ur, nil
}

func (r *repository) FindByUser(ctx context.Context, userID string) (*UserRole, error) {
	query := `SELECT id, user_id, role, created_at FROM user_roles WHERE user_id = $1`

	var ur UserRole
	err := r.db.GetContext(ctx, &ur, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}

	return &ur, nil
}

func (r *repository) Create(ctx context.Context, ur *UserRole) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, ur.UserID, ur.Role).
		Scan(&ur.ID, &ur.CreatedAt)
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) (*UserRole, error) {
	query := `
		UPDATE user_roles
		SET role = $2
		WHERE id = $1
		RETURNING id, user_id, role, created_at`

	var ur UserRole
	err := r.db.GetContext(ctx, &ur, query, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return &ur, nil
}

func (r *repository) Delete(ctx context.Context, id string) (*UserRole, error) {
	query := `
		DELETE FROM user_roles
		WHERE id = $1
		RETURNING id, user_id, role, created_at`

	var ur UserRole
	err := r.db.GetContext(ctx, &ur, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delete role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete role: %w", err)
	}

	return &ur, nil
}

func (r *repository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, userID, role); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}

	return ok, nil
}
