package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type page struct {
	Number int      `json:"number"`
	Titles []string `json:"titles"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func stores(t *testing.T) map[string]Store {
	dbStore, err := NewDatabaseStore(newTestDB(t))
	require.NoError(t, err)
	return map[string]Store{
		"memory":   NewMemoryStore(),
		"database": dbStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var got page
			hit, err := store.Get(ctx, "posts_page_1", &got)
			require.NoError(t, err)
			assert.False(t, hit)

			want := page{Number: 1, Titles: []string{"First", "Second"}}
			require.NoError(t, store.Set(ctx, "posts_page_1", want, 5*time.Minute))

			hit, err = store.Get(ctx, "posts_page_1", &got)
			require.NoError(t, err)
			assert.True(t, hit)
			assert.Equal(t, want, got)

			// overwrite keeps a single entry
			want.Titles = []string{"Only"}
			require.NoError(t, store.Set(ctx, "posts_page_1", want, 5*time.Minute))
			got = page{}
			_, err = store.Get(ctx, "posts_page_1", &got)
			require.NoError(t, err)
			assert.Equal(t, []string{"Only"}, got.Titles)

			require.NoError(t, store.Delete(ctx, "posts_page_1"))
			hit, err = store.Get(ctx, "posts_page_1", &got)
			require.NoError(t, err)
			assert.False(t, hit)
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "related_1", []int{2, 3}, time.Hour))

	var ids []int
	hit, _ := store.Get(ctx, "related_1", &ids)
	assert.True(t, hit)

	now = now.Add(time.Hour)
	hit, _ = store.Get(ctx, "related_1", &ids)
	assert.False(t, hit, "entry expires exactly at its ttl")
}

func TestMemoryStoreKeepsEntryRefreshedAfterExpiredRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "posts_page_1", "stale", time.Minute))
	now = now.Add(time.Minute)

	// a reader saw the expired entry, then a writer refreshed the key before
	// the reader took the write lock
	require.NoError(t, store.Set(ctx, "posts_page_1", "fresh", time.Minute))
	store.deleteIfExpired("posts_page_1")

	var got string
	hit, err := store.Get(ctx, "posts_page_1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "fresh", got)

	now = now.Add(time.Minute)
	store.deleteIfExpired("posts_page_1")
	store.mu.RLock()
	_, ok := store.entries["posts_page_1"]
	store.mu.RUnlock()
	assert.False(t, ok)
}

func TestDatabaseStoreExpiryAndPurge(t *testing.T) {
	ctx := context.Background()
	store, err := NewDatabaseStore(newTestDB(t))
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", 1, time.Minute))
	require.NoError(t, store.Set(ctx, "long", 2, time.Hour))
	require.NoError(t, store.Set(ctx, "forever", 3, 0))

	now = now.Add(30 * time.Minute)
	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var v int
	hit, err := store.Get(ctx, "long", &v)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, v)

	require.NoError(t, store.Clear(ctx))
	hit, _ = store.Get(ctx, "forever", &v)
	assert.False(t, hit)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New("memory", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = New("database", nil)
	assert.Error(t, err)

	_, err = New("redis", nil)
	assert.ErrorContains(t, err, "unsupported cache backend")
}
