package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type owner struct{ id uint }

func (o owner) GetId() uint          { return o.id }
func (o owner) GetModelName() string { return "post" }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestStorage(t *testing.T) (*ActiveStorage, string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	dir := t.TempDir()
	provider, err := NewLocalProvider(LocalConfig{BasePath: dir, BaseURL: "/storage"})
	require.NoError(t, err)
	as, err := NewWithProvider(db, provider)
	require.NoError(t, err)
	as.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	as.RegisterAttachment("post", AttachmentConfig{
		Field:             "image",
		Path:              "uploads",
		AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
		MaxFileSize:       1 << 20,
		DatePath:          true,
		ImagesOnly:        true,
		ThumbnailSize:     40,
	})
	return as, dir
}

func TestAttachStoresImageWithDimensions(t *testing.T) {
	as, dir := newTestStorage(t)
	ctx := context.Background()

	att, err := as.AttachBytes(ctx, owner{id: 7}, "image", "Cover Photo.PNG", pngBytes(t, 120, 80))
	require.NoError(t, err)

	assert.Equal(t, 120, att.Width)
	assert.Equal(t, 80, att.Height)
	assert.Equal(t, "image/png", att.ContentType)
	assert.True(t, strings.HasPrefix(att.Path, "uploads/2024/03/09/cover-photo-"), att.Path)
	assert.Equal(t, "/storage/"+att.Path, att.URL)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(att.Path)))
	assert.NoError(t, err)

	require.NotEmpty(t, att.ThumbnailKey)
	thumb, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(att.ThumbnailKey)))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestAttachReplacesPreviousAttachment(t *testing.T) {
	as, dir := newTestStorage(t)
	ctx := context.Background()

	first, err := as.AttachBytes(ctx, owner{id: 1}, "image", "a.png", pngBytes(t, 10, 10))
	require.NoError(t, err)
	second, err := as.AttachBytes(ctx, owner{id: 1}, "image", "b.png", pngBytes(t, 20, 10))
	require.NoError(t, err)

	loaded, err := as.LoadAttachment(owner{id: 1}, "image")
	require.NoError(t, err)
	assert.Equal(t, second.Id, loaded.Id)
	assert.Equal(t, 20, loaded.Width)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(first.Path)))
	assert.True(t, os.IsNotExist(err))
}

func TestAttachValidation(t *testing.T) {
	as, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := as.AttachBytes(ctx, owner{id: 1}, "image", "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrExtensionDenied)

	_, err = as.AttachBytes(ctx, owner{id: 1}, "image", "broken.png", []byte("not a png"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = as.AttachBytes(ctx, owner{id: 1}, "gallery", "a.png", pngBytes(t, 4, 4))
	assert.ErrorIs(t, err, ErrAttachmentConfig)

	as.configs["post"]["image"] = AttachmentConfig{Field: "image", Path: "uploads", MaxFileSize: 8}
	_, err = as.AttachBytes(ctx, owner{id: 1}, "image", "a.png", pngBytes(t, 4, 4))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDeleteAllRemovesRowsAndFiles(t *testing.T) {
	as, dir := newTestStorage(t)
	ctx := context.Background()

	att, err := as.AttachBytes(ctx, owner{id: 3}, "image", "a.png", pngBytes(t, 50, 50))
	require.NoError(t, err)

	require.NoError(t, as.DeleteAll(ctx, owner{id: 3}))

	_, err = as.LoadAttachment(owner{id: 3}, "image")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(att.Path)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalProviderRejectsEscapingKeys(t *testing.T) {
	provider, err := NewLocalProvider(LocalConfig{BasePath: t.TempDir(), BaseURL: "/storage/"})
	require.NoError(t, err)

	err = provider.Put(context.Background(), "../outside.txt", strings.NewReader("x"), 1, "text/plain")
	assert.Error(t, err)
	assert.Equal(t, "/storage/uploads/a.png", provider.URL("uploads/a.png"))
}

func TestSquareCrop(t *testing.T) {
	assert.Equal(t, image.Rect(20, 0, 100, 80), squareCrop(image.Rect(0, 0, 120, 80)))
	assert.Equal(t, image.Rect(0, 10, 50, 60), squareCrop(image.Rect(0, 0, 50, 70)))
}

func TestDetectMediaType(t *testing.T) {
	assert.Equal(t, MediaTypeImage, DetectMediaType("photo.HEIC"))
	assert.Equal(t, MediaTypeDocument, DetectMediaType("report.pdf"))
	assert.Equal(t, MediaTypeOther, DetectMediaType("archive.zip"))
	assert.Equal(t, "image/webp", ContentTypeFor("x.webp"))
}
