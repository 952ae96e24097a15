// AngelaMos | 2026
// migrate.go

package core

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/jmoiron/sqlx"
)

const migrationLedger = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Migrate applies the *.sql files of dir in name order, skipping those
// already in schema_migrations. A file and its ledger row commit together.
func (d *Database) Migrate(ctx context.Context, dir fs.FS) ([]string, error) {
	if _, err := d.DB.ExecContext(ctx, migrationLedger); err != nil {
		return nil, fmt.Errorf("create migration ledger: %w", err)
	}

	pending, err := d.pendingMigrations(ctx, dir)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(pending))
	for _, name := range pending {
		body, err := fs.ReadFile(dir, name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}

		slog.Info("applying migration", "file", name)
		err = InTx(ctx, d.DB, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", name, err)
		}
		applied = append(applied, name)
	}

	return applied, nil
}

func (d *Database) pendingMigrations(ctx context.Context, dir fs.FS) ([]string, error) {
	files, err := fs.Glob(dir, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(files)

	var done []string
	if err := d.DB.SelectContext(ctx, &done, `SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}

	return slices.DeleteFunc(files, func(name string) bool {
		return slices.Contains(done, name)
	}), nil
}
