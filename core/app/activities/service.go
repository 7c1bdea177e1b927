package activities

import (
	"context"
	"encoding/json"
	"math"

	"blog/core/logger"
	"blog/core/router"
	"blog/core/types"

	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type ActivityService struct {
	DB     *gorm.DB
	Logger logger.Logger
}

func NewActivityService(db *gorm.DB, logger logger.Logger) *ActivityService {
	return &ActivityService{
		DB:     db,
		Logger: logger,
	}
}

// Entry describes an admin action about to be recorded
type Entry struct {
	EntityType  string
	EntityId    uint
	EntityName  string
	Action      string
	Description string
	Metadata    any
}

// Record stores an admin action performed in the request ctx. The history
// is best effort: failures are logged and never fail the request.
func (s *ActivityService) Record(ctx *router.Context, entry Entry) {
	if s == nil {
		return
	}

	item := &Activity{
		UserId:      ctx.GetUint("user_id"),
		UserEmail:   ctx.GetString("user_email"),
		EntityType:  entry.EntityType,
		EntityId:    entry.EntityId,
		EntityName:  entry.EntityName,
		Action:      entry.Action,
		Description: entry.Description,
		IpAddress:   ctx.ClientIP(),
		UserAgent:   ctx.Header("User-Agent"),
	}
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.Logger.Warn("Failed to encode activity metadata", logger.Err(err))
		} else {
			item.Metadata = string(data)
		}
	}

	if err := s.DB.WithContext(ctx.Request.Context()).Create(item).Error; err != nil {
		s.Logger.Error("Failed to record activity",
			logger.String("action", entry.Action),
			logger.String("entity_type", entry.EntityType),
			logger.Uint("entity_id", entry.EntityId),
			logger.Err(err))
	}
}

// List returns the history newest first
func (s *ActivityService) List(ctx context.Context, q ListQuery) (*types.PaginatedResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	query := s.DB.WithContext(ctx).Model(&Activity{})
	if q.EntityType != "" {
		query = query.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityId != 0 {
		query = query.Where("entity_id = ?", q.EntityId)
	}
	if q.UserId != 0 {
		query = query.Where("user_id = ?", q.UserId)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.Logger.Error("Failed to count activities", logger.Err(err))
		return nil, err
	}

	var items []*Activity
	err := query.Order("id DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		s.Logger.Error("Failed to list activities", logger.Err(err))
		return nil, err
	}

	return &types.PaginatedResponse{
		Data: items,
		Pagination: types.Pagination{
			Total:      int(total),
			Page:       q.Page,
			PageSize:   q.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}, nil
}

func (s *ActivityService) GetById(ctx context.Context, id uint) (*Activity, error) {
	item := &Activity{}
	if err := s.DB.WithContext(ctx).First(item, id).Error; err != nil {
		return nil, err
	}
	return item, nil
}
