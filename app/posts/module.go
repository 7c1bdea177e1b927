package posts

import (
	"blog/app/models"
	"blog/app/search"
	"blog/core/app/activities"
	"blog/core/module"
	"blog/core/router"

	"gorm.io/gorm"
)

type Module struct {
	module.DefaultModule
	DB         *gorm.DB
	Service    *PostService
	Controller *PostController
	Views      *Views
	Sync       *IndexSync
	deps       module.Dependencies
}

// Init creates the posts module. The search service backs the public
// search page and its index receives the post events. Admin writes are
// recorded in history when it is not nil.
func Init(deps module.Dependencies, searchService *search.SearchService, history *activities.ActivityService) (*Module, error) {
	service := NewPostService(deps.DB, deps.Emitter, deps.Storage, deps.Logger)

	var searcher Searcher
	var index DocumentIndex
	if searchService != nil {
		searcher = searchService
		index = searchService.Index
	}

	views, err := NewViews(deps.DB, deps.Cache, searcher, deps.Logger)
	if err != nil {
		return nil, err
	}

	return &Module{
		DB:         deps.DB,
		Service:    service,
		Controller: NewPostController(service, history, deps.Logger),
		Views:      views,
		Sync:       NewIndexSync(index, deps.Hub, deps.Logger),
		deps:       deps,
	}, nil
}

func (m *Module) Migrate() error {
	return m.DB.AutoMigrate(&models.Post{})
}

// Init subscribes the index synchronization to the post events
func (m *Module) Init() error {
	if m.deps.Emitter != nil {
		m.Sync.Register(m.deps.Emitter)
	}
	return nil
}

// Routes registers the public blog pages
func (m *Module) Routes(router *router.RouterGroup) {
	m.Views.Routes(router)
}

// AdminRoutes registers the post admin API
func (m *Module) AdminRoutes(router *router.RouterGroup) {
	m.Controller.Routes(router)
}

func (m *Module) GetModels() []any {
	return []any{
		&models.Post{},
	}
}
