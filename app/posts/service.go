package posts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"

	"blog/app/models"
	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/storage"
	"blog/core/types"

	"github.com/gertd/go-pluralize"
	"gorm.io/gorm"
)

const (
	SavePostEvent   = "posts.save"
	DeletePostEvent = "posts.delete"
)

// AdminPageSize is the number of rows on one admin list page
const AdminPageSize = 10

var ErrNoPostsSelected = errors.New("no posts selected")

type PostService struct {
	DB        *gorm.DB
	Emitter   *emitter.Emitter
	Storage   *storage.ActiveStorage
	Logger    logger.Logger
	pluralize *pluralize.Client
}

func NewPostService(db *gorm.DB, emitter *emitter.Emitter, activeStorage *storage.ActiveStorage, logger logger.Logger) *PostService {
	if activeStorage != nil {
		activeStorage.RegisterAttachment("post", storage.AttachmentConfig{
			Field:             "image",
			Path:              "uploads",
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif"},
			MaxFileSize:       10 << 20, // 10MB
			DatePath:          true,
			ImagesOnly:        true,
			ConvertToWebP:     true,
			ThumbnailSize:     80,
		})
	}

	return &PostService{
		DB:        db,
		Logger:    logger,
		Emitter:   emitter,
		Storage:   activeStorage,
		pluralize: pluralize.NewClient(),
	}
}

// Create saves a new post. The slug is derived from the title.
func (s *PostService) Create(ctx context.Context, req *models.CreatePostRequest) (*models.Post, error) {
	item := &models.Post{
		Title:  req.Title,
		Intro:  req.Intro,
		Body:   req.Body,
		Status: req.Status,
	}
	if req.Publish != nil {
		item.Publish = *req.Publish
	}

	if err := s.DB.WithContext(ctx).Omit("Image").Create(item).Error; err != nil {
		s.Logger.Error("failed to create post", logger.Err(err))
		return nil, err
	}

	s.Emitter.Emit(SavePostEvent, item)

	return s.GetById(ctx, item.Id)
}

// Update applies the fields present in req. The slug is kept.
func (s *PostService) Update(ctx context.Context, id uint, req *models.UpdatePostRequest) (*models.Post, error) {
	item := &models.Post{}
	if err := s.DB.WithContext(ctx).First(item, id).Error; err != nil {
		s.Logger.Error("failed to find post for update", logger.Err(err), logger.Uint("id", id))
		return nil, err
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Intro != nil {
		item.Intro = *req.Intro
	}
	if req.Body != nil {
		item.Body = *req.Body
	}
	if req.Publish != nil {
		item.Publish = *req.Publish
	}
	if req.Status != nil {
		item.Status = *req.Status
	}

	if err := s.DB.WithContext(ctx).Omit("Image").Save(item).Error; err != nil {
		s.Logger.Error("failed to update post", logger.Err(err), logger.Uint("id", id))
		return nil, err
	}

	s.Emitter.Emit(SavePostEvent, item)

	return s.GetById(ctx, item.Id)
}

// Delete removes the post and its image
func (s *PostService) Delete(ctx context.Context, id uint) (*models.Post, error) {
	item := &models.Post{}
	if err := s.DB.WithContext(ctx).First(item, id).Error; err != nil {
		s.Logger.Error("failed to find post for deletion", logger.Err(err), logger.Uint("id", id))
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Delete(item).Error; err != nil {
		s.Logger.Error("failed to delete post", logger.Err(err), logger.Uint("id", id))
		return nil, err
	}

	// the post is gone at this point; leftover files are only logged
	if s.Storage != nil {
		if err := s.Storage.DeleteAll(ctx, item); err != nil {
			s.Logger.Warn("failed to delete post image", logger.Err(err), logger.Uint("id", id))
		}
	}

	s.Emitter.Emit(DeletePostEvent, item)

	return item, nil
}

func (s *PostService) GetById(ctx context.Context, id uint) (*models.Post, error) {
	item := &models.Post{}
	if err := item.Preload(s.DB.WithContext(ctx)).First(item, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.Logger.Error("failed to get post", logger.Err(err), logger.Uint("id", id))
		}
		return nil, err
	}
	return item, nil
}

// AdminListResponse is one page of the admin post list
type AdminListResponse struct {
	Data          []*models.PostListResponse `json:"data"`
	Pagination    types.Pagination           `json:"pagination"`
	DateHierarchy *DateHierarchy             `json:"date_hierarchy"`
}

// List returns the filtered admin list, newest publish date first
func (s *PostService) List(ctx context.Context, filter *ListFilter) (*AdminListResponse, error) {
	query := s.DB.WithContext(ctx).Model(&models.Post{}).Scopes(filter.Apply)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.Logger.Error("failed to count posts", logger.Err(err))
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(AdminPageSize)))
	if totalPages == 0 {
		totalPages = 1
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	var items []*models.Post
	err := s.DB.WithContext(ctx).Model(&models.Post{}).
		Scopes(filter.Apply, models.Newest).
		Preload("Image").
		Offset((page - 1) * AdminPageSize).
		Limit(AdminPageSize).
		Find(&items).Error
	if err != nil {
		s.Logger.Error("failed to get posts", logger.Err(err))
		return nil, err
	}

	hierarchy, err := s.dateHierarchy(ctx, filter)
	if err != nil {
		s.Logger.Error("failed to build date hierarchy", logger.Err(err))
		return nil, err
	}

	rows := make([]*models.PostListResponse, len(items))
	for i, item := range items {
		rows[i] = item.ToListResponse()
	}

	return &AdminListResponse{
		Data: rows,
		Pagination: types.Pagination{
			Total:      int(total),
			Page:       page,
			PageSize:   AdminPageSize,
			TotalPages: totalPages,
		},
		DateHierarchy: hierarchy,
	}, nil
}

func (s *PostService) dateHierarchy(ctx context.Context, filter *ListFilter) (*DateHierarchy, error) {
	var dates []models.Post
	err := s.DB.WithContext(ctx).Model(&models.Post{}).
		Scopes(filter.Apply).
		Select("publish").
		Find(&dates).Error
	if err != nil {
		return nil, err
	}
	return buildDateHierarchy(filter, dates), nil
}

// PublishSelected is the "Publish selected articles" admin action. The
// status changes in one UPDATE, then a save event is emitted for every
// matched post so the search index follows.
func (s *PostService) PublishSelected(ctx context.Context, ids []uint) ([]models.Post, string, error) {
	if len(ids) == 0 {
		return nil, "", ErrNoPostsSelected
	}

	err := s.DB.WithContext(ctx).
		Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Post{}).
		Where("id IN ?", ids).
		Update("status", models.StatusPublished).Error
	if err != nil {
		s.Logger.Error("failed to publish posts", logger.Err(err))
		return nil, "", err
	}

	var updated []models.Post
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&updated).Error; err != nil {
		s.Logger.Error("failed to reload published posts", logger.Err(err))
		return nil, "", err
	}
	for i := range updated {
		s.Emitter.Emit(SavePostEvent, &updated[i])
	}

	return updated, s.publishedMessage(len(updated)), nil
}

func (s *PostService) publishedMessage(n int) string {
	verb := "were"
	if n == 1 {
		verb = "was"
	}
	return fmt.Sprintf("%s %s successfully marked as published.",
		s.pluralize.Pluralize("post", n, true), verb)
}

// UploadImage attaches an image to the post and records its dimensions
func (s *PostService) UploadImage(ctx context.Context, id uint, file *multipart.FileHeader) (*models.Post, error) {
	item := &models.Post{}
	if err := s.DB.WithContext(ctx).First(item, id).Error; err != nil {
		return nil, err
	}

	attachment, err := s.Storage.Attach(ctx, item, "image", file)
	if err != nil {
		s.Logger.Error("failed to attach image", logger.Err(err), logger.Uint("id", id))
		return nil, err
	}

	return s.setImageSize(ctx, item, attachment.Width, attachment.Height)
}

// RemoveImage deletes the post image
func (s *PostService) RemoveImage(ctx context.Context, id uint) (*models.Post, error) {
	item := &models.Post{}
	if err := s.DB.WithContext(ctx).First(item, id).Error; err != nil {
		return nil, err
	}

	if err := s.Storage.DeleteAll(ctx, item); err != nil {
		s.Logger.Error("failed to delete image", logger.Err(err), logger.Uint("id", id))
		return nil, err
	}

	return s.setImageSize(ctx, item, 0, 0)
}

func (s *PostService) setImageSize(ctx context.Context, item *models.Post, width, height int) (*models.Post, error) {
	item.ImageWidth = width
	item.ImageHeight = height
	if err := s.DB.WithContext(ctx).Omit("Image").Save(item).Error; err != nil {
		s.Logger.Error("failed to store image size", logger.Err(err), logger.Uint("id", item.Id))
		return nil, err
	}

	s.Emitter.Emit(SavePostEvent, item)

	return s.GetById(ctx, item.Id)
}
