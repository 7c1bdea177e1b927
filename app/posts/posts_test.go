package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"blog/app/models"
	"blog/app/search"
	"blog/core/app/activities"
	"blog/core/cache"
	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/module"
	"blog/core/router"
	"blog/core/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db      *gorm.DB
	index   *search.Index
	cache   *cache.MemoryStore
	module  *Module
	history *activities.ActivityService
	router  *router.Router
	logs    *observer.ObservedLogs
	storage *storage.ActiveStorage
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

func newObservedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log, logs := newObservedLogger()

	provider, err := storage.NewLocalProvider(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/storage"})
	require.NoError(t, err)
	activeStorage, err := storage.NewWithProvider(db, provider)
	require.NoError(t, err)

	index, err := search.OpenIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	store := cache.NewMemoryStore()
	deps := module.Dependencies{
		DB:      db,
		Logger:  log,
		Emitter: emitter.New(),
		Storage: activeStorage,
		Cache:   store,
	}

	require.NoError(t, db.AutoMigrate(&activities.Activity{}))
	history := activities.NewActivityService(db, log)

	mod, err := Init(deps, search.NewSearchService(db, index, log, 0), history)
	require.NoError(t, err)
	require.NoError(t, mod.Migrate())
	require.NoError(t, mod.Init())

	r := router.New()
	mod.Routes(r.Group(""))
	mod.AdminRoutes(r.Group("/admin"))

	return &testEnv{
		db:      db,
		index:   index,
		cache:   store,
		module:  mod,
		history: history,
		router:  r,
		logs:    logs,
		storage: activeStorage,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// createPost saves a post through the service so the save event fires
func (e *testEnv) createPost(t *testing.T, title string, status models.PostStatus, publish time.Time) *models.Post {
	t.Helper()
	req := &models.CreatePostRequest{
		Title:  title,
		Intro:  "About " + title,
		Body:   "<p>" + title + " body</p>",
		Status: status,
	}
	if !publish.IsZero() {
		req.Publish = &publish
	}
	post, err := e.module.Service.Create(context.Background(), req)
	require.NoError(t, err)
	return post
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
}

