// AngelaMos | 2026
// repository.go

package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/order"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db}
}

func (r *repository) PlaceOrder(ctx context.Context, p Placement) (*order.Order, error) {
	var placed order.Order

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var product struct {
			Price float64 `db:"price"`
			Stock int     `db:"stock"`
		}
		err := tx.GetContext(ctx, &product,
			`SELECT price, stock FROM products WHERE id = $1 FOR UPDATE`,
			p.ProductID,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("place order: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read product: %w", err)
		}

		if product.Stock <= 0 {
			return ErrOutOfStock
		}

		columns := `user_id, product_id, customer_real_name, minecraft_name,
			customer_phone, customer_email, payment_method, total_price`
		values := `$1, $2, $3, $4, $5, $6, $7, $8`
		args := []any{
			p.UserID,
			p.ProductID,
			p.Form.CustomerRealName,
			p.Form.MinecraftName,
			p.Form.CustomerPhone,
			p.Form.CustomerEmail,
			p.Form.PaymentMethod,
			product.Price,
		}
		if p.Status != "" {
			columns += `, status`
			values += `, $9`
			args = append(args, p.Status)
		}

		query := `INSERT INTO orders (` + columns + `)
			VALUES (` + values + `)
			RETURNING id, user_id, product_id, customer_real_name, minecraft_name,
			          customer_phone, customer_email, payment_method, total_price,
			          status, created_at, updated_at`

		if err := tx.GetContext(ctx, &placed, query, args...); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &placed, nil
}
