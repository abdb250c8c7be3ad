package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrationsOrdersById(t *testing.T) {
	mockFS := fstest.MapFS{
		"migrations/002_second.sql":  {Data: []byte("SELECT 2")},
		"migrations/001_initial.sql": {Data: []byte("SELECT 1")},
		"migrations/010_tenth.sql":   {Data: []byte("SELECT 10")},
		"migrations/README.md":       {Data: []byte("not a migration")},
	}

	migrations, err := ReadMigrations(mockFS, "migrations")
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, Migration{id: 1, name: "001_initial.sql", sql: "SELECT 1"}, migrations[0])
	assert.Equal(t, Migration{id: 2, name: "002_second.sql", sql: "SELECT 2"}, migrations[1])
	assert.Equal(t, Migration{id: 10, name: "010_tenth.sql", sql: "SELECT 10"}, migrations[2])
}

func TestReadMigrationsRejectsUnnumberedFiles(t *testing.T) {
	mockFS := fstest.MapFS{
		"migrations/initial.sql": {Data: []byte("SELECT 1")},
	}

	_, err := ReadMigrations(mockFS, "migrations")
	assert.Error(t, err)
}
