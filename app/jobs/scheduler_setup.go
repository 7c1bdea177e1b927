package jobs

import (
	"context"
	"time"

	"blog/app/search"
	"blog/core/cache"
	"blog/core/logger"
	"blog/core/scheduler"
)

// expiringStore is a cache backend that keeps expired rows until purged
type expiringStore interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SetupScheduler registers the periodic jobs: a full search reindex on
// reindexCron, and an hourly purge for cache backends that need one
func SetupScheduler(cronScheduler *scheduler.CronScheduler, searchService *search.SearchService, store cache.Store, reindexCron string, log logger.Logger) error {
	if searchService != nil && reindexCron != "" {
		err := cronScheduler.RegisterTask(&scheduler.CronTask{
			Name:        "search_reindex",
			Description: "Rebuild the post search index from the database",
			CronExpr:    reindexCron,
			Enabled:     true,
			Timeout:     30 * time.Minute,
			Handler: func(ctx context.Context) error {
				stats, err := searchService.Rebuild(ctx)
				if err != nil {
					return err
				}
				log.Info("Search index rebuilt",
					logger.Int("indexed", stats.Indexed),
					logger.Int("removed", stats.Removed))
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	if purger, ok := store.(expiringStore); ok {
		err := cronScheduler.RegisterTask(&scheduler.CronTask{
			Name:        "cache_purge",
			Description: "Delete expired page cache entries",
			CronExpr:    "@hourly",
			Enabled:     true,
			Handler: func(ctx context.Context) error {
				purged, err := purger.PurgeExpired(ctx)
				if err != nil {
					return err
				}
				log.Debug("Expired cache entries purged", logger.Int64("purged", purged))
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	return nil
}
