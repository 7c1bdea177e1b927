package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog/app/models"
	"blog/core/logger"

	"gorm.io/gorm"
)

const rebuildBatchSize = 500

// RebuildStats reports the outcome of a full reindex
type RebuildStats struct {
	Indexed  int    `json:"indexed"`
	Removed  int    `json:"removed"`
	Duration string `json:"duration"`
}

// IndexStats compares the index with the posts table
type IndexStats struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Documents uint64 `json:"documents"`
	Posts     int64  `json:"posts"`
}

type SearchService struct {
	DB     *gorm.DB
	Index  *Index
	Logger logger.Logger
	Limit  int
}

func NewSearchService(db *gorm.DB, index *Index, logger logger.Logger, limit int) *SearchService {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &SearchService{
		DB:     db,
		Index:  index,
		Logger: logger,
		Limit:  limit,
	}
}

// Search returns the published posts matching query in relevance order
func (s *SearchService) Search(ctx context.Context, query string) ([]models.Post, error) {
	hits, err := s.Index.Search(ctx, query, s.Limit)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []models.Post{}, nil
	}

	ids := make([]uint, len(hits))
	for i, hit := range hits {
		ids[i] = hit.Id
	}

	var found []models.Post
	err = s.DB.WithContext(ctx).
		Scopes(models.Published).
		Select("id", "title", "slug", "intro", "publish", "status").
		Preload("Image").
		Where("id IN ?", ids).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("load search results: %w", err)
	}

	byId := make(map[uint]models.Post, len(found))
	for _, post := range found {
		byId[post.Id] = post
	}

	// the index may lag behind the table, skip ids that no longer resolve
	posts := make([]models.Post, 0, len(found))
	for _, id := range ids {
		if post, ok := byId[id]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

// Rebuild reindexes every post and drops documents of posts that no longer exist
func (s *SearchService) Rebuild(ctx context.Context) (*RebuildStats, error) {
	start := time.Now()
	stats := &RebuildStats{}
	keep := make(map[uint]struct{})

	var batch []models.Post
	result := s.DB.WithContext(ctx).Model(&models.Post{}).
		FindInBatches(&batch, rebuildBatchSize, func(tx *gorm.DB, _ int) error {
			if err := s.Index.IndexPosts(batch); err != nil {
				return err
			}
			for _, post := range batch {
				keep[post.Id] = struct{}{}
			}
			stats.Indexed += len(batch)
			return nil
		})
	if result.Error != nil {
		s.Logger.Error("Failed to rebuild search index", logger.Err(result.Error))
		return nil, fmt.Errorf("rebuild index: %w", result.Error)
	}

	removed, err := s.Index.Prune(keep)
	if err != nil {
		s.Logger.Error("Failed to prune search index", logger.Err(err))
		return nil, err
	}
	stats.Removed = removed
	stats.Duration = time.Since(start).String()

	s.Logger.Info("Rebuilt search index",
		logger.String("index", IndexName),
		logger.Int("indexed", stats.Indexed),
		logger.Int("removed", stats.Removed),
		logger.Duration("duration", time.Since(start)))
	return stats, nil
}

// Stats reports the document count next to the number of posts
func (s *SearchService) Stats(ctx context.Context) (*IndexStats, error) {
	docs, err := s.Index.Count()
	if err != nil {
		return nil, err
	}
	var posts int64
	if err := s.DB.WithContext(ctx).Model(&models.Post{}).Count(&posts).Error; err != nil {
		return nil, err
	}
	return &IndexStats{
		Name:      IndexName,
		Path:      s.Index.Path(),
		Documents: docs,
		Posts:     posts,
	}, nil
}

// IsEmpty reports whether the index has no documents while posts exist
func (s *SearchService) IsEmpty(ctx context.Context) (bool, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return false, err
	}
	return stats.Documents == 0 && stats.Posts > 0, nil
}

// IsNotFound reports whether err means the document was already absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}
