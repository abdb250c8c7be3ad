package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ErrTestDbUnavailable is returned when no local postgres instance can be
// reached. Tests use it to skip rather than fail.
var ErrTestDbUnavailable = errors.New("no postgres instance reachable for tests")

// WithTestDb creates a dedicated database on the local postgres instance,
// applies the given migrations and hands the pool to the action callback.
// The database is dropped afterwards.
func WithTestDb(migrations []Migration, action func(db *pgxpool.Pool) error) error {
	ctx := context.Background()

	connectionString := "host=localhost port=5432 user=postgres password=psw sslmode=disable"
	db, err := pgx.Connect(ctx, connectionString)
	if err != nil {
		return errors.WithMessagef(ErrTestDbUnavailable, "%v", err)
	}
	defer db.Close(ctx)

	dbName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := db.Exec(ctx, "CREATE DATABASE "+dbName); err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		// disconnect any stragglers before dropping
		_, err := db.Exec(ctx,
			`SELECT pg_terminate_backend(pg_stat_activity.pid)
			 FROM pg_stat_activity WHERE pg_stat_activity.datname = '`+dbName+`'`)
		if err != nil {
			fmt.Println("Failed to disconnect test database users")
		}
		if _, err := db.Exec(ctx, "DROP DATABASE "+dbName); err != nil {
			fmt.Println("Failed to drop test database")
		}
	}()

	testDbPool, err := pgxpool.New(ctx, connectionString+" dbname="+dbName)
	if err != nil {
		return errors.WithStack(err)
	}
	defer testDbPool.Close()

	if err := UpdateDatabase(ctx, testDbPool, migrations); err != nil {
		return errors.WithStack(err)
	}
	return action(testDbPool)
}
