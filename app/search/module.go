package search

import (
	"context"

	"blog/core/logger"
	"blog/core/module"
	"blog/core/router"
)

type Module struct {
	module.DefaultModule
	Service       *SearchService
	Controller    *IndexController
	logger        logger.Logger
	reindexOnBoot bool
}

// Init creates the search index module over an opened index
func Init(deps module.Dependencies, index *Index) *Module {
	limit := 0
	reindexOnBoot := false
	if deps.Config != nil {
		limit = deps.Config.SearchResultLimit
		reindexOnBoot = deps.Config.SearchReindexOnBoot
	}

	service := NewSearchService(deps.DB, index, deps.Logger, limit)

	return &Module{
		Service:       service,
		Controller:    NewIndexController(service, deps.Logger),
		logger:        deps.Logger,
		reindexOnBoot: reindexOnBoot,
	}
}

// Init fills the index on boot when configured to, or when it is empty
// while posts exist
func (m *Module) Init() error {
	ctx := context.Background()
	rebuild := m.reindexOnBoot
	if !rebuild {
		empty, err := m.Service.IsEmpty(ctx)
		if err != nil {
			// the posts table may not exist yet on a fresh database
			m.logger.Debug("Skipping index check", logger.Err(err))
			return nil
		}
		rebuild = empty
	}
	if !rebuild {
		return nil
	}
	_, err := m.Service.Rebuild(ctx)
	return err
}

// AdminRoutes registers the index maintenance endpoints
func (m *Module) AdminRoutes(router *router.RouterGroup) {
	m.Controller.Routes(router)
}
