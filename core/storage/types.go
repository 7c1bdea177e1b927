package storage

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"
)

// Config selects and configures the storage provider
type Config struct {
	Provider  string
	Path      string
	BaseURL   string
	APIKey    string
	APISecret string
	Endpoint  string
	Bucket    string
	Region    string
	AccountID string
	CDN       string
}

// Provider stores objects by key
type Provider interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Attachable is a model that owns attachments
type Attachable interface {
	GetId() uint
	GetModelName() string
}

// AttachmentConfig describes one attachment field of a model
type AttachmentConfig struct {
	Field             string
	Path              string
	AllowedExtensions []string
	MaxFileSize       int64
	// DatePath appends YYYY/MM/DD of the upload day to Path
	DatePath bool
	// ImagesOnly rejects files that do not decode as an image
	ImagesOnly    bool
	ConvertToWebP bool
	// ThumbnailSize is the edge of the square thumbnail, 0 disables it
	ThumbnailSize int
}

// Attachment is a stored file owned by a model field
type Attachment struct {
	Id           uint      `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ModelType    string    `json:"model_type" gorm:"size:64;index:idx_attachment_owner"`
	ModelId      uint      `json:"model_id" gorm:"index:idx_attachment_owner"`
	Field        string    `json:"field" gorm:"size:64;index:idx_attachment_owner"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	ThumbnailKey string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// ActiveStorage attaches uploaded files to models
type ActiveStorage struct {
	db             *gorm.DB
	provider       Provider
	configs        map[string]map[string]AttachmentConfig
	imageProcessor *ImageProcessor
	now            func() time.Time
}
