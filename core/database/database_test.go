package database

import (
	"path/filepath"
	"testing"

	"blog/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBSqlite(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "nested", "blog.db"),
	}

	db, err := InitDB(cfg)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.DB.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestInitDBRequiresURLForServerDrivers(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		_, err := InitDB(&config.Config{DBDriver: driver})
		assert.ErrorContains(t, err, "DB_URL is required", driver)
	}
}
