package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Open already ran the migrations; running again is a no-op.
	require.NoError(t, db.Migrate(ctx))

	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM migrations`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tables := []string{
		"security_policies",
		"suppression_rules",
		"scan_history",
		"scan_baselines",
		"usage_tracking",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].version, migrations[i].version)
	}
	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, "initial", migrations[0].name)
}
