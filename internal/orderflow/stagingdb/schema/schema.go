package schema

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/orderflow/internal/common/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the pipeline schema migrations in application order.
func Migrations() ([]database.Migration, error) {
	return database.ReadMigrations(migrationsFS, "migrations")
}

// Migrate brings the pipeline database up to the latest schema version,
// including the seeded reference tables. Running it repeatedly is safe.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}
	return database.UpdateDatabase(ctx, db, migrations)
}
