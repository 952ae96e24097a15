// AngelaMos | 2026
// repository.go

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/buildmc/storefront/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]Setting, error)
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, values []Setting) error
	Delete(ctx context.Context, key string) error

	QuickLinks(ctx context.Context) ([]QuickLink, error)
	SaveQuickLinks(ctx context.Context, incoming []QuickLink) ([]Dropped, error)

	StatBoxes(ctx context.Context) ([]StatBox, error)
	SaveStatBoxes(ctx context.Context, incoming []StatBox) ([]Dropped, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Setting, error) {
	query := `
		SELECT id, setting_key, setting_value, updated_at
		FROM site_settings
		ORDER BY setting_key`

	out := []Setting{}
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value,
		`SELECT setting_value FROM site_settings WHERE setting_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *repository) Upsert(ctx context.Context, values []Setting) error {
	query := `
		INSERT INTO site_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key)
		DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = NOW()`

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, s := range values {
			if _, err := tx.ExecContext(ctx, query, s.Key, s.Value); err != nil {
				return fmt.Errorf("upsert setting %s: %w", s.Key, err)
			}
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM site_settings WHERE setting_key = $1`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

func (r *repository) QuickLinks(ctx context.Context) ([]QuickLink, error) {
	query := `
		SELECT id, title, url, quick_text, is_text_only, display_order, created_at
		FROM quick_links
		ORDER BY display_order, created_at`

	out := []QuickLink{}
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list quick links: %w", err)
	}
	return out, nil
}

func (r *repository) SaveQuickLinks(ctx context.Context, incoming []QuickLink) ([]Dropped, error) {
	var plan Plan[QuickLink]

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stored, err := lockedIDs(ctx, tx, "quick_links")
		if err != nil {
			return err
		}
		plan = Reconcile(stored, incoming, droppedReason("quick_link"))

		if err := deleteIDs(ctx, tx, "quick_links", plan.Delete); err != nil {
			return err
		}
		for _, q := range plan.Update {
			if _, err := tx.ExecContext(ctx, `
				UPDATE quick_links
				SET title = $2, url = $3, quick_text = $4, is_text_only = $5, display_order = $6
				WHERE id = $1`,
				q.ID, q.Title, q.URL, q.QuickText, q.IsTextOnly, q.DisplayOrder,
			); err != nil {
				return fmt.Errorf("update quick link: %w", err)
			}
		}
		for _, q := range plan.Insert {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO quick_links (title, url, quick_text, is_text_only, display_order)
				VALUES ($1, $2, $3, $4, $5)`,
				q.Title, q.URL, q.QuickText, q.IsTextOnly, q.DisplayOrder,
			); err != nil {
				return fmt.Errorf("insert quick link: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan.Dropped, nil
}

func (r *repository) StatBoxes(ctx context.Context) ([]StatBox, error) {
	query := `
		SELECT id, icon, label, value, display_order, created_at
		FROM stat_boxes
		ORDER BY display_order, created_at`

	out := []StatBox{}
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list stat boxes: %w", err)
	}
	return out, nil
}

func (r *repository) SaveStatBoxes(ctx context.Context, incoming []StatBox) ([]Dropped, error) {
	var plan Plan[StatBox]

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stored, err := lockedIDs(ctx, tx, "stat_boxes")
		if err != nil {
			return err
		}
		plan = Reconcile(stored, incoming, droppedReason("stat_box"))

		if err := deleteIDs(ctx, tx, "stat_boxes", plan.Delete); err != nil {
			return err
		}
		for _, s := range plan.Update {
			if _, err := tx.ExecContext(ctx, `
				UPDATE stat_boxes
				SET icon = $2, label = $3, value = $4, display_order = $5
				WHERE id = $1`,
				s.ID, s.Icon, s.Label, s.Value, s.DisplayOrder,
			); err != nil {
				return fmt.Errorf("update stat box: %w", err)
			}
		}
		for _, s := range plan.Insert {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO stat_boxes (icon, label, value, display_order)
				VALUES ($1, $2, $3, $4)`,
				s.Icon, s.Label, s.Value, s.DisplayOrder,
			); err != nil {
				return fmt.Errorf("insert stat box: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan.Dropped, nil
}

// lockedIDs reads a collection's ids and holds their row locks until the
// transaction ends. table is always a package constant.
func lockedIDs(ctx context.Context, tx *sqlx.Tx, table string) ([]string, error) {
	ids := []string{}
	if err := tx.SelectContext(ctx, &ids,
		`SELECT id FROM `+table+` ORDER BY display_order FOR UPDATE`); err != nil {
		return nil, fmt.Errorf("lock %s: %w", table, err)
	}
	return ids, nil
}

func deleteIDs(ctx context.Context, tx *sqlx.Tx, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build %s delete: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}
