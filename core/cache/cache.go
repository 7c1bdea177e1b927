// Package cache provides the page fragment cache used by the public views.
// Values are stored JSON encoded so every backend round-trips the same way.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Store is a key/value cache with per-entry expiry
type Store interface {
	// Get decodes the cached value for key into dest. It reports false on a
	// miss or an expired entry.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// New builds the store selected by backend ("memory" or "database")
func New(backend string, db *gorm.DB) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "memory", "locmem":
		return NewMemoryStore(), nil
	case "database", "db":
		if db == nil {
			return nil, fmt.Errorf("database cache backend requires a database connection")
		}
		return NewDatabaseStore(db)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}
