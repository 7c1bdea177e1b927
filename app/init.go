package app

import (
	"blog/app/posts"
	"blog/app/search"
	"blog/core/app/activities"
	coresearch "blog/core/app/search"
	"blog/core/logger"
	"blog/core/module"
)

// AppModules implements module.AppModuleProvider
type AppModules struct {
	Index *search.Index

	// SearchService is set once GetAppModules has run
	SearchService *search.SearchService
}

// NewAppModules creates the app module provider over an opened search index
func NewAppModules(index *search.Index) *AppModules {
	return &AppModules{Index: index}
}

// GetAppModules returns the application modules to initialize
func (am *AppModules) GetAppModules(deps module.Dependencies) map[string]module.Module {
	modules := make(map[string]module.Module)

	searchModule := search.Init(deps, am.Index)
	am.SearchService = searchModule.Service
	modules["search_index"] = searchModule

	var history *activities.ActivityService
	if mod, ok := module.GetModule("activities"); ok {
		if activitiesModule, ok := mod.(*activities.Module); ok {
			history = activitiesModule.Service
		}
	}

	postsModule, err := posts.Init(deps, searchModule.Service, history)
	if err != nil {
		deps.Logger.Error("Failed to create posts module", logger.Err(err))
	} else {
		modules["posts"] = postsModule
	}

	return modules
}

// GetSearchRegistry lists the tables the admin global search covers
func GetSearchRegistry() *coresearch.SearchRegistry {
	registry := coresearch.NewSearchRegistry()

	registry.RegisterSimple("posts", coresearch.SimpleSearchConfig{
		Table:     "posts",
		Fields:    []string{"title", "intro", "body"},
		Type:      "post",
		URLPrefix: "/admin/posts/",
	})

	registry.RegisterSimple("users", coresearch.SimpleSearchConfig{
		Table:  "users",
		Fields: []string{"name", "email"},
		Type:   "user",
	})

	return registry
}
