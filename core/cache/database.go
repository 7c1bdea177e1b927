package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheEntry is a row of the cache table
type CacheEntry struct {
	Key       string     `gorm:"column:cache_key;primaryKey;size:255"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}

// DatabaseStore keeps entries in the application database, shared by every
// process pointing at it
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if err := db.AutoMigrate(&CacheEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache table: %w", err)
	}
	return &DatabaseStore{db: db, now: time.Now}, nil
}

func (s *DatabaseStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	var entry CacheEntry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if entry.ExpiresAt != nil && !s.now().Before(*entry.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return false, nil
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (s *DatabaseStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	entry := CacheEntry{Key: key, Value: data}
	if ttl > 0 {
		expiresAt := s.now().Add(ttl)
		entry.ExpiresAt = &expiresAt
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&entry).Error
}

func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&CacheEntry{}).Error
}

func (s *DatabaseStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CacheEntry{}).Error
}

// PurgeExpired removes expired rows; the cache table otherwise only shrinks
// when an expired key is read again
func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&CacheEntry{})
	return result.RowsAffected, result.Error
}
