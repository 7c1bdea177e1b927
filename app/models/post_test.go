package models

import (
	"strings"
	"testing"
	"time"

	"blog/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&storage.Attachment{}, &Post{}))
	return db
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello, World!"))
	assert.Equal(t, "creme-brulee-recipes", Slugify("  Crème Brûlée -- Recipes "))
	assert.Len(t, Slugify(strings.Repeat("a", 300)), 255)
}

func TestSlugComputedOnlyWhenEmpty(t *testing.T) {
	db := newTestDB(t)

	post := &Post{Title: "First Post", Intro: "i", Body: "b"}
	require.NoError(t, db.Create(post).Error)
	assert.Equal(t, "first-post", post.Slug)
	assert.Equal(t, StatusDraft, post.Status)
	assert.False(t, post.Publish.IsZero())

	post.Title = "Renamed"
	require.NoError(t, db.Save(post).Error)

	var reloaded Post
	require.NoError(t, db.First(&reloaded, post.Id).Error)
	assert.Equal(t, "first-post", reloaded.Slug)
	assert.Equal(t, "Renamed", reloaded.String())

	custom := &Post{Title: "Another", Slug: "kept-as-is"}
	require.NoError(t, db.Create(custom).Error)
	assert.Equal(t, "kept-as-is", custom.Slug)
}

func TestDuplicateSlugRejected(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&Post{Title: "Same"}).Error)
	assert.Error(t, db.Create(&Post{Title: "Same"}).Error)
}

func TestPublishedScope(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	require.NoError(t, db.Create(&[]Post{
		{Title: "Old", Status: StatusPublished, Publish: now.Add(-48 * time.Hour)},
		{Title: "Draft", Status: StatusDraft, Publish: now},
		{Title: "New", Status: StatusPublished, Publish: now.Add(-time.Hour)},
	}).Error)

	var all int64
	require.NoError(t, db.Model(&Post{}).Count(&all).Error)
	assert.EqualValues(t, 3, all)

	var posts []Post
	require.NoError(t, db.Scopes(Published, Newest).Find(&posts).Error)
	require.Len(t, posts, 2)
	assert.Equal(t, "New", posts[0].Title)
	assert.Equal(t, "Old", posts[1].Title)
}

func TestAbsoluteURL(t *testing.T) {
	post := &Post{Slug: "hello", Publish: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	assert.Equal(t, "/blog/2024/3/5/hello/", post.AbsoluteURL())
}

func TestThumbnail(t *testing.T) {
	post := &Post{Title: `Tom & "Jerry"`}
	assert.Empty(t, post.Thumbnail())

	post.Image = &storage.Attachment{URL: "/storage/uploads/a.png?x=1&y=2"}
	assert.Equal(t,
		`<img src="/storage/uploads/a.png?x=1&amp;y=2" width="40" height="40" loading="lazy" alt="Tom &amp; &#34;Jerry&#34;">`,
		post.Thumbnail())

	post.Image.ThumbnailURL = "/storage/uploads/thumb_a.jpg"
	assert.Contains(t, post.Thumbnail(), `src="/storage/uploads/thumb_a.jpg"`)
}

func TestImagePreload(t *testing.T) {
	db := newTestDB(t)
	post := &Post{Title: "With image"}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&storage.Attachment{
		ModelType: "post", ModelId: post.Id, Field: "image", Path: "uploads/a.png", URL: "/storage/uploads/a.png",
	}).Error)

	var loaded Post
	require.NoError(t, post.Preload(db).First(&loaded, post.Id).Error)
	require.NotNil(t, loaded.Image)
	assert.Equal(t, "/storage/uploads/a.png", loaded.ImageURL())
}
