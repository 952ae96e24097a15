// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildmc/storefront/internal/core"
)

type Repository interface {
	ListProducts(ctx context.Context, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*Category, error)
	UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CountProducts(ctx context.Context) (int, error)
	CountCategories(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, description, price, image_url, stock,
		       category_id, created_at, updated_at`

func (r *repository) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY name ASC`

	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (r *repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	var p Product
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

func (r *repository) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	query := `
		INSERT INTO products (name, description, price, image_url, stock, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	var p Product
	err := r.db.GetContext(ctx, &p, query,
		in.Name,
		in.Description,
		in.Price,
		in.ImageURL,
		in.Stock,
		in.CategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return &p, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5,
		    stock = $6, category_id = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var p Product
	err := r.db.GetContext(ctx, &p, query,
		id,
		in.Name,
		in.Description,
		in.Price,
		in.ImageURL,
		in.Stock,
		in.CategoryID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return &p, nil
}

func (r *repository) DeleteProduct(ctx context.Context, id string) error {
	return r.deleteOne(ctx, "delete product", `DELETE FROM products WHERE id = $1`, id)
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, description, created_at
		FROM categories
		ORDER BY name ASC`

	categories := []Category{}
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

func (r *repository) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at`

	var c Category
	if err := r.db.GetContext(ctx, &c, query, in.Name, in.Description); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return &c, nil
}

func (r *repository) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	query := `
		UPDATE categories
		SET name = $2, description = $3
		WHERE id = $1
		RETURNING id, name, description, created_at`

	var c Category
	err := r.db.GetContext(ctx, &c, query, id, in.Name, in.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	return &c, nil
}

// DeleteCategory does not cascade; a category still referenced by products
// fails with the store's foreign-key error.
func (r *repository) DeleteCategory(ctx context.Context, id string) error {
	return r.deleteOne(ctx, "delete category", `DELETE FROM categories WHERE id = $1`, id)
}

func (r *repository) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *repository) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func (r *repository) deleteOne(ctx context.Context, op, query, id string) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
