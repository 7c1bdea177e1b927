package search

import (
	"blog/core/module"
	"blog/core/router"
)

type Module struct {
	module.DefaultModule
	Service    *SearchService
	Controller *SearchController
	Registry   *SearchRegistry
}

// Init creates the admin search module. The registry is filled by the app
// module provider with the models it wants searchable.
func Init(deps module.Dependencies, registry *SearchRegistry) *Module {
	if registry == nil {
		registry = NewSearchRegistry()
	}

	service := NewSearchService(deps.DB, deps.Logger, registry)

	return &Module{
		Service:    service,
		Controller: NewSearchController(service),
		Registry:   registry,
	}
}

// AdminRoutes registers the module routes behind admin authentication
func (m *Module) AdminRoutes(router *router.RouterGroup) {
	m.Controller.Routes(router)
}
