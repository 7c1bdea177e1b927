package module

import (
	"sort"

	"blog/core/logger"
	"blog/core/router"
)

// Initializer runs the register, init, migrate and routes steps for a set of modules
type Initializer struct {
	logger logger.Logger
}

func NewInitializer(logger logger.Logger) *Initializer {
	return &Initializer{logger: logger}
}

// Initialize sets up modules in name order and returns the ones that succeeded
func (i *Initializer) Initialize(modules map[string]Module, deps Dependencies) []Module {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	var initialized []Module
	for _, name := range names {
		mod := modules[name]

		if err := RegisterModule(name, mod); err != nil {
			i.logger.Error("Failed to register module",
				logger.String("module", name),
				logger.String("error", err.Error()))
			continue
		}

		if migrator, ok := mod.(interface{ Migrate() error }); ok {
			if err := migrator.Migrate(); err != nil {
				i.logger.Error("Failed to migrate module",
					logger.String("module", name),
					logger.String("error", err.Error()))
				continue
			}
		}

		if initModule, ok := mod.(interface{ Init() error }); ok {
			if err := initModule.Init(); err != nil {
				i.logger.Error("Failed to initialize module",
					logger.String("module", name),
					logger.String("error", err.Error()))
				continue
			}
		}

		if routeModule, ok := mod.(interface{ Routes(*router.RouterGroup) }); ok && deps.Router != nil {
			routeModule.Routes(deps.Router)
		}
		if adminModule, ok := mod.(interface{ AdminRoutes(*router.RouterGroup) }); ok && deps.AdminRouter != nil {
			adminModule.AdminRoutes(deps.AdminRouter)
		}

		initialized = append(initialized, mod)
	}

	return initialized
}
