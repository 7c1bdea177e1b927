package storage

import (
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// MediaType represents the type of media file
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeDocument MediaType = "document"
	MediaTypeOther    MediaType = "other"
)

var (
	imageExts    = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif", ".heic", ".heif"}
	documentExts = []string{".pdf", ".txt", ".csv"}
)

// DetectMediaType detects the media type from filename extension
func DetectMediaType(filename string) MediaType {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case slices.Contains(imageExts, ext):
		return MediaTypeImage
	case slices.Contains(documentExts, ext):
		return MediaTypeDocument
	default:
		return MediaTypeOther
	}
}

// ContentTypeFor guesses the MIME type of filename
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".webp":
		return "image/webp"
	case ".heic", ".heif":
		return "image/heic"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
