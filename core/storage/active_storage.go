package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrFileTooLarge     = errors.New("file exceeds the maximum allowed size")
	ErrExtensionDenied  = errors.New("file extension is not allowed")
	ErrNotAnImage       = errors.New("file is not a valid image")
	ErrAttachmentConfig = errors.New("no attachment config registered")
)

func NewActiveStorage(db *gorm.DB, config Config) (*ActiveStorage, error) {
	var provider Provider
	var err error

	switch strings.ToLower(config.Provider) {
	case "", "local":
		storagePath := config.Path
		if !filepath.IsAbs(storagePath) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
			storagePath = filepath.Join(cwd, storagePath)
		}
		provider, err = NewLocalProvider(LocalConfig{
			BasePath: storagePath,
			BaseURL:  config.BaseURL,
		})
	case "s3":
		provider, err = NewS3Provider(S3Config{
			AccessKeyID:     config.APIKey,
			AccessKeySecret: config.APISecret,
			Endpoint:        config.Endpoint,
			Bucket:          config.Bucket,
			BaseURL:         config.BaseURL,
			Region:          config.Region,
		})
	case "r2":
		provider, err = NewR2Provider(R2Config{
			AccessKeyID:     config.APIKey,
			AccessKeySecret: config.APISecret,
			AccountID:       config.AccountID,
			Bucket:          config.Bucket,
			BaseURL:         config.BaseURL,
			CDN:             config.CDN,
		})
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage provider: %w", err)
	}

	return NewWithProvider(db, provider)
}

// NewWithProvider builds an ActiveStorage over an already configured provider
func NewWithProvider(db *gorm.DB, provider Provider) (*ActiveStorage, error) {
	if err := db.AutoMigrate(&Attachment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate attachments table: %w", err)
	}
	return &ActiveStorage{
		db:             db,
		provider:       provider,
		configs:        make(map[string]map[string]AttachmentConfig),
		imageProcessor: NewImageProcessor(85),
		now:            time.Now,
	}, nil
}

func (as *ActiveStorage) RegisterAttachment(modelName string, config AttachmentConfig) {
	if as.configs[modelName] == nil {
		as.configs[modelName] = make(map[string]AttachmentConfig)
	}
	as.configs[modelName][config.Field] = config
}

// Attach stores an uploaded multipart file for model.field
func (as *ActiveStorage) Attach(ctx context.Context, model Attachable, field string, file *multipart.FileHeader) (*Attachment, error) {
	config, err := as.getConfig(model.GetModelName(), field)
	if err != nil {
		return nil, err
	}
	if config.MaxFileSize > 0 && file.Size > config.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, config.MaxFileSize)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return as.AttachBytes(ctx, model, field, file.Filename, data)
}

// AttachBytes stores data as the attachment of model.field. A field holds a
// single attachment, any previous one is removed after the new one is saved.
func (as *ActiveStorage) AttachBytes(ctx context.Context, model Attachable, field, filename string, data []byte) (*Attachment, error) {
	config, err := as.getConfig(model.GetModelName(), field)
	if err != nil {
		return nil, err
	}
	if err := validateFile(filename, int64(len(data)), config); err != nil {
		return nil, err
	}

	attachment := &Attachment{
		ModelType: model.GetModelName(),
		ModelId:   model.GetId(),
		Field:     field,
	}

	isImage := as.imageProcessor.IsImageFile(filename)
	if config.ImagesOnly && !isImage {
		return nil, ErrNotAnImage
	}
	if isImage {
		width, height, err := as.imageProcessor.Dimensions(data, filename)
		if err != nil {
			if config.ImagesOnly {
				return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
			}
		} else {
			attachment.Width = width
			attachment.Height = height
		}
	}

	original := data
	originalName := filename
	if isImage && config.ConvertToWebP {
		data, filename, err = as.imageProcessor.ConvertToWebP(data, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to convert image to webp: %w", err)
		}
	}

	dir := config.Path
	if config.DatePath {
		dir = path.Join(dir, as.now().Format("2006/01/02"))
	}
	key := path.Join(dir, generateUniqueFilename(filename))
	contentType := ContentTypeFor(filename)

	if err := as.provider.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}

	attachment.Filename = filename
	attachment.Path = key
	attachment.URL = as.provider.URL(key)
	attachment.Size = int64(len(data))
	attachment.ContentType = contentType

	if isImage && config.ThumbnailSize > 0 && attachment.Width > 0 {
		thumb, thumbName, err := as.imageProcessor.Thumbnail(original, originalName, config.ThumbnailSize, config.ConvertToWebP)
		if err == nil {
			thumbKey := path.Join(dir, generateUniqueFilename(thumbName))
			if err := as.provider.Put(ctx, thumbKey, bytes.NewReader(thumb), int64(len(thumb)), ContentTypeFor(thumbName)); err == nil {
				attachment.ThumbnailKey = thumbKey
				attachment.ThumbnailURL = as.provider.URL(thumbKey)
			}
		}
	}

	previous, _ := as.LoadAttachment(model, field)

	if err := as.db.WithContext(ctx).Create(attachment).Error; err != nil {
		as.removeObjects(ctx, attachment)
		return nil, err
	}

	if previous != nil {
		_ = as.Delete(ctx, previous)
	}

	return attachment, nil
}

// Delete removes the stored objects and the attachment row
func (as *ActiveStorage) Delete(ctx context.Context, attachment *Attachment) error {
	if err := as.provider.Delete(ctx, attachment.Path); err != nil {
		return err
	}
	if attachment.ThumbnailKey != "" {
		_ = as.provider.Delete(ctx, attachment.ThumbnailKey)
	}
	return as.db.WithContext(ctx).Delete(attachment).Error
}

// DeleteAll removes every attachment owned by model
func (as *ActiveStorage) DeleteAll(ctx context.Context, model Attachable) error {
	var attachments []Attachment
	if err := as.db.WithContext(ctx).
		Where("model_type = ? AND model_id = ?", model.GetModelName(), model.GetId()).
		Find(&attachments).Error; err != nil {
		return err
	}
	for i := range attachments {
		if err := as.Delete(ctx, &attachments[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetProvider returns the storage provider (for internal use)
func (as *ActiveStorage) GetProvider() Provider {
	return as.provider
}

func (as *ActiveStorage) LoadAttachment(model Attachable, field string) (*Attachment, error) {
	var attachment Attachment
	err := as.db.Where("model_type = ? AND model_id = ? AND field = ?",
		model.GetModelName(), model.GetId(), field).First(&attachment).Error
	if err != nil {
		return nil, err
	}
	as.refreshURLs(&attachment)
	return &attachment, nil
}

func (as *ActiveStorage) refreshURLs(attachment *Attachment) {
	attachment.URL = as.provider.URL(attachment.Path)
	if attachment.ThumbnailKey != "" {
		attachment.ThumbnailURL = as.provider.URL(attachment.ThumbnailKey)
	}
}

func (as *ActiveStorage) removeObjects(ctx context.Context, attachment *Attachment) {
	_ = as.provider.Delete(ctx, attachment.Path)
	if attachment.ThumbnailKey != "" {
		_ = as.provider.Delete(ctx, attachment.ThumbnailKey)
	}
}

func (as *ActiveStorage) getConfig(modelName, field string) (AttachmentConfig, error) {
	modelConfigs, ok := as.configs[modelName]
	if !ok {
		return AttachmentConfig{}, fmt.Errorf("%w for model %s", ErrAttachmentConfig, modelName)
	}

	config, ok := modelConfigs[field]
	if !ok {
		return AttachmentConfig{}, fmt.Errorf("%w for field %s in model %s", ErrAttachmentConfig, field, modelName)
	}

	return config, nil
}

func validateFile(filename string, size int64, config AttachmentConfig) error {
	if config.MaxFileSize > 0 && size > config.MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, config.MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if len(config.AllowedExtensions) > 0 && !slices.Contains(config.AllowedExtensions, ext) {
		return fmt.Errorf("%w: %s", ErrExtensionDenied, ext)
	}

	return nil
}
