// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildmc/storefront/internal/core"
)

// Summary aggregates the order table for the admin dashboard. Revenue only
// counts completed orders; Pending is every order not yet completed.
type Summary struct {
	Total   int     `db:"total"   json:"total_orders"`
	Revenue float64 `db:"revenue" json:"revenue"`
	Pending int     `db:"pending" json:"pending_orders"`
}

type Repository interface {
	ListForUser(ctx context.Context, userID string) ([]WithProduct, error)
	ListAll(ctx context.Context) ([]WithProduct, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*Order, error)
	Delete(ctx context.Context, id string) error
	Summarize(ctx context.Context) (Summary, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const orderColumns = `o.id, o.user_id, o.product_id, o.customer_real_name,
		       o.minecraft_name, o.customer_phone, o.customer_email,
		       o.payment_method, o.total_price, o.status, o.created_at, o.updated_at`

const withProductQuery = `SELECT ` + orderColumns + `,
		       p.name AS product_name, p.description AS product_description
		FROM orders o
		LEFT JOIN products p ON p.id = o.product_id`

func (r *repository) ListForUser(ctx context.Context, userID string) ([]WithProduct, error) {
	query := withProductQuery + `
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`

	orders := []WithProduct{}
	if err := r.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context) ([]WithProduct, error) {
	query := withProductQuery + `
		ORDER BY o.created_at DESC`

	orders := []WithProduct{}
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.id = $1`

	var o Order
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	query := `
		UPDATE orders o
		SET status = $2, updated_at = NOW()
		WHERE o.id = $1
		RETURNING ` + orderColumns

	var o Order
	err := r.db.GetContext(ctx, &o, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update order status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &o, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete order: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) Summarize(ctx context.Context) (Summary, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(total_price) FILTER (WHERE status = 'completed'), 0) AS revenue,
		       COUNT(*) FILTER (WHERE status <> 'completed') AS pending
		FROM orders`

	var s Summary
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return Summary{}, fmt.Errorf("summarize orders: %w", err)
	}
	return s, nil
}
