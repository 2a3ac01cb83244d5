package postgres

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scalpr/scalp/internal/infrastructure/persistence"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the bundled schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return persistence.ApplyMigrations(migrationsFS, "migrations/*.sql", func(content string) error {
		for _, stmt := range persistence.SplitStatements(content) {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
