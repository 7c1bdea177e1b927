package activities

import (
	"blog/core/module"
	"blog/core/router"

	"gorm.io/gorm"
)

type Module struct {
	module.DefaultModule
	DB         *gorm.DB
	Service    *ActivityService
	Controller *ActivityController
}

// Init creates the admin action history module
func Init(deps module.Dependencies) *Module {
	service := NewActivityService(deps.DB, deps.Logger)

	return &Module{
		DB:         deps.DB,
		Service:    service,
		Controller: NewActivityController(service),
	}
}

// AdminRoutes registers the history endpoints behind admin authentication
func (m *Module) AdminRoutes(router *router.RouterGroup) {
	m.Controller.Routes(router)
}

func (m *Module) Migrate() error {
	return m.DB.AutoMigrate(&Activity{})
}

func (m *Module) GetModels() []any {
	return []any{
		&Activity{},
	}
}
