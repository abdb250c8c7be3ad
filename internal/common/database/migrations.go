package database

import (
	"context"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

type Migration struct {
	id   int
	name string
	sql  string
}

// ReadMigrations loads numbered sql files from the given directory. File names
// must start with a numeric id followed by an underscore, e.g.
// 001_initial_schema.sql; migrations are applied in id order.
func ReadMigrations(f fs.FS, path string) ([]Migration, error) {
	entries, err := fs.ReadDir(f, path)
	if err != nil {
		return nil, errors.WithMessage(err, "error reading migrations directory")
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) bool { return a.Name() < b.Name() })

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		id, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid migration file name %s", name)
		}
		content, err := fs.ReadFile(f, path+"/"+name)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, Migration{id: id, name: name, sql: string(content)})
	}
	return migrations, nil
}

// UpdateDatabase applies all migrations with an id greater than the database's
// current version. Already applied migrations are skipped, so running this
// against an up-to-date database is a no-op.
func UpdateDatabase(ctx context.Context, db *pgxpool.Pool, migrations []Migration) error {
	version, err := readVersion(ctx, db)
	if err != nil {
		return err
	}
	log.Infof("Database is at version %d", version)

	for _, m := range migrations {
		if m.id <= version {
			continue
		}
		log.Infof("Applying migration %s", m.name)
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return errors.WithMessagef(err, "error applying migration %s", m.name)
		}
		version = m.id
		if err := setVersion(ctx, db, version); err != nil {
			return err
		}
	}
	return nil
}

func readVersion(ctx context.Context, db *pgxpool.Pool) (int, error) {
	_, err := db.Exec(ctx,
		`CREATE SEQUENCE IF NOT EXISTS database_version START WITH 0 MINVALUE 0`)
	if err != nil {
		return 0, err
	}
	var version int
	err = db.QueryRow(ctx, `SELECT last_value FROM database_version`).Scan(&version)
	return version, err
}

func setVersion(ctx context.Context, db *pgxpool.Pool, version int) error {
	_, err := db.Exec(ctx, `SELECT setval('database_version', $1)`, version)
	return err
}
