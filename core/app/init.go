package app

import (
	"blog/core/app/activities"
	"blog/core/app/authentication"
	"blog/core/app/search"
	"blog/core/app/users"
	"blog/core/module"
	"blog/core/scheduler"
)

// CoreModules implements module.CoreModuleProvider
type CoreModules struct {
	SearchRegistry *search.SearchRegistry
	Tokens         *authentication.TokenManager
	Scheduler      *scheduler.CronScheduler
}

// GetCoreModules returns the core modules to initialize
func (cm *CoreModules) GetCoreModules(deps module.Dependencies) map[string]module.Module {
	modules := make(map[string]module.Module)

	modules["activities"] = activities.Init(deps)

	usersModule := users.Init(deps)
	modules["users"] = usersModule
	modules["authentication"] = authentication.Init(deps, usersModule.Service, cm.Tokens)

	// Initialize search with registry (can be nil, will create empty registry)
	modules["search"] = search.Init(deps, cm.SearchRegistry)

	if cm.Scheduler != nil {
		modules["scheduler"] = scheduler.NewSchedulerModule(cm.Scheduler, deps)
	}

	return modules
}

// NewCoreModules creates a new core modules provider
func NewCoreModules(searchRegistry *search.SearchRegistry, tokens *authentication.TokenManager, cronScheduler *scheduler.CronScheduler) *CoreModules {
	return &CoreModules{
		SearchRegistry: searchRegistry,
		Tokens:         tokens,
		Scheduler:      cronScheduler,
	}
}
