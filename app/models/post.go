package models

import (
	"fmt"
	"html"
	"time"

	"blog/core/storage"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// PostStatus is the editorial state of a post
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Label is the human readable status name
func (s PostStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPublished:
		return "Published"
	}
	return string(s)
}

const slugMaxLength = 255

// Post represents a blog post
type Post struct {
	Id          uint                `json:"id" gorm:"primarykey"`
	Title       string              `json:"title" gorm:"size:255;not null;index"`
	Slug        string              `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	Intro       string              `json:"intro" gorm:"type:text"`
	Image       *storage.Attachment `json:"image,omitempty" gorm:"polymorphicType:ModelType;polymorphicId:ModelId;polymorphicValue:post"`
	ImageWidth  int                 `json:"image_width" gorm:"not null;default:0"`
	ImageHeight int                 `json:"image_height" gorm:"not null;default:0"`
	Body        string              `json:"body" gorm:"type:text"`
	Publish     time.Time           `json:"publish" gorm:"index;index:idx_posts_status_publish,priority:2"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Status      PostStatus          `json:"status" gorm:"size:9;not null;default:draft;index:idx_posts_status_publish,priority:1"`
}

// TableName returns the table name for the Post model
func (m *Post) TableName() string {
	return "posts"
}

// GetId returns the Id of the model
func (m *Post) GetId() uint {
	return m.Id
}

// GetModelName returns the model name
func (m *Post) GetModelName() string {
	return "post"
}

func (m *Post) String() string {
	return m.Title
}

// BeforeSave fills the slug from the title when it is empty and stores the
// publish date in UTC. An existing slug is never recomputed.
func (m *Post) BeforeSave(tx *gorm.DB) error {
	if m.Slug == "" {
		m.Slug = Slugify(m.Title)
	}
	if m.Publish.IsZero() {
		m.Publish = time.Now()
	}
	m.Publish = m.Publish.UTC()
	if m.Status == "" {
		m.Status = StatusDraft
	}
	return nil
}

// Slugify lower-cases and transliterates s to ASCII, joining words with
// hyphens, truncated to the slug column size
func Slugify(s string) string {
	out := slug.Make(s)
	if len(out) > slugMaxLength {
		out = out[:slugMaxLength]
	}
	return out
}

// AbsoluteURL is the canonical public address of the post
func (m *Post) AbsoluteURL() string {
	return PostURL(m.Publish, m.Slug)
}

// PostURL builds /blog/<year>/<month>/<day>/<slug>/ without zero padding
func PostURL(publish time.Time, slug string) string {
	return fmt.Sprintf("/blog/%d/%d/%d/%s/", publish.Year(), int(publish.Month()), publish.Day(), slug)
}

// IsPublished reports whether the post is visible on the public site
func (m *Post) IsPublished() bool {
	return m.Status == StatusPublished
}

// ImageURL returns the image address or ""
func (m *Post) ImageURL() string {
	if m.Image == nil {
		return ""
	}
	return m.Image.URL
}

// Thumbnail renders the admin list thumbnail, empty when there is no image
func (m *Post) Thumbnail() string {
	if m.Image == nil || m.Image.URL == "" {
		return ""
	}
	src := m.Image.URL
	if m.Image.ThumbnailURL != "" {
		src = m.Image.ThumbnailURL
	}
	return fmt.Sprintf(`<img src="%s" width="40" height="40" loading="lazy" alt="%s">`,
		html.EscapeString(src), html.EscapeString(m.Title))
}

// Published restricts a query to published posts
func Published(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", StatusPublished)
}

// Newest orders posts by publish date, most recent first
func Newest(db *gorm.DB) *gorm.DB {
	return db.Order("publish DESC").Order("id DESC")
}

// Preload preloads all the model's relationships
func (m *Post) Preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Image")
}

// CreatePostRequest represents the request payload for creating a Post
type CreatePostRequest struct {
	Title   string     `json:"title" binding:"required,max=255"`
	Intro   string     `json:"intro" binding:"required"`
	Body    string     `json:"body" binding:"required"`
	Publish *time.Time `json:"publish"`
	Status  PostStatus `json:"status" binding:"omitempty,oneof=draft published"`
}

// UpdatePostRequest represents the request payload for updating a Post
type UpdatePostRequest struct {
	Title   *string     `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Intro   *string     `json:"intro,omitempty"`
	Body    *string     `json:"body,omitempty"`
	Publish *time.Time  `json:"publish,omitempty"`
	Status  *PostStatus `json:"status,omitempty" binding:"omitempty,oneof=draft published"`
}

// PublishRequest selects the posts of a bulk publish action
type PublishRequest struct {
	Ids []uint `json:"ids" binding:"required,min=1"`
}

// PostResponse represents the API response for Post
type PostResponse struct {
	Id          uint                `json:"id"`
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Intro       string              `json:"intro"`
	Body        string              `json:"body"`
	Image       *storage.Attachment `json:"image,omitempty"`
	ImageWidth  int                 `json:"image_width"`
	ImageHeight int                 `json:"image_height"`
	Publish     time.Time           `json:"publish"`
	Status      PostStatus          `json:"status"`
	URL         string              `json:"url"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// PostListResponse is one admin list row: thumbnail, title, publish, status
type PostListResponse struct {
	Id        uint       `json:"id"`
	Thumbnail string     `json:"thumbnail"`
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Publish   time.Time  `json:"publish"`
	Status    PostStatus `json:"status"`
}

// ToResponse converts the model to an API response
func (m *Post) ToResponse() *PostResponse {
	if m == nil {
		return nil
	}
	return &PostResponse{
		Id:          m.Id,
		Title:       m.Title,
		Slug:        m.Slug,
		Intro:       m.Intro,
		Body:        m.Body,
		Image:       m.Image,
		ImageWidth:  m.ImageWidth,
		ImageHeight: m.ImageHeight,
		Publish:     m.Publish,
		Status:      m.Status,
		URL:         m.AbsoluteURL(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToListResponse converts the model to an admin list row
func (m *Post) ToListResponse() *PostListResponse {
	if m == nil {
		return nil
	}
	return &PostListResponse{
		Id:        m.Id,
		Thumbnail: m.Thumbnail(),
		Title:     m.Title,
		Link:      fmt.Sprintf("/admin/posts/%d", m.Id),
		Publish:   m.Publish,
		Status:    m.Status,
	}
}
