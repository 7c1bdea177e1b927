package search

import (
	"testing"

	"blog/core/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type article struct {
	Id        uint
	Title     string
	Body      string
	DeletedAt gorm.DeletedAt
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&article{}))
	require.NoError(t, db.Create(&[]article{
		{Title: "Go Generics", Body: "type parameters"},
		{Title: "Channels", Body: "Go concurrency patterns"},
		{Title: "Gardening", Body: "tomatoes"},
	}).Error)
	require.NoError(t, db.Delete(&article{}, 1).Error)
	return db
}

func TestGlobalSearchDefaultLike(t *testing.T) {
	db := newTestDB(t)
	registry := NewSearchRegistry()
	registry.RegisterSimple("articles", SimpleSearchConfig{
		Table:      "articles",
		Fields:     []string{"title", "body"},
		SoftDelete: true,
	})
	service := NewSearchService(db, logger.NewNop(), registry)

	resp, err := service.GlobalSearch("GO", "", 10)
	require.NoError(t, err)

	require.Equal(t, 1, resp.Total)
	got := resp.Results["articles"][0]
	assert.Equal(t, uint(2), got.Id)
	assert.Equal(t, "Channels", got.Title)
	assert.Equal(t, "Go concurrency patterns", got.Subtitle)
	assert.Equal(t, "/admin/articles/2", got.URL)
	assert.Equal(t, []string{"articles"}, resp.Modules)
}

func TestGlobalSearchCustomAndUnknownModules(t *testing.T) {
	db := newTestDB(t)
	registry := NewSearchRegistry()
	registry.RegisterWithCustomSearch("custom", "thing", func(_ *gorm.DB, query string, limit int) ([]SearchResult, error) {
		return []SearchResult{{Id: 9, Type: "thing", Title: query}}, nil
	})
	service := NewSearchService(db, logger.NewNop(), registry)

	resp, err := service.GlobalSearch("anything", "custom, missing", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "anything", resp.Results["custom"][0].Title)
}
