package users

import (
	"blog/core/config"
	"blog/core/module"
	"blog/core/router"

	"gorm.io/gorm"
)

type Module struct {
	module.DefaultModule
	DB         *gorm.DB
	Service    *UserService
	Controller *UserController
	config     *config.Config
}

// Init creates and initializes the User module with all dependencies
func Init(deps module.Dependencies) *Module {
	service := NewUserService(deps.DB, deps.Emitter, deps.Logger)
	controller := NewUserController(service, deps.Logger)

	return &Module{
		DB:         deps.DB,
		Service:    service,
		Controller: controller,
		config:     deps.Config,
	}
}

// AdminRoutes registers the module routes behind admin authentication
func (m *Module) AdminRoutes(router *router.RouterGroup) {
	m.Controller.Routes(router)
}

func (m *Module) Migrate() error {
	if err := m.DB.AutoMigrate(&User{}); err != nil {
		return err
	}
	if m.config == nil {
		return nil
	}
	return m.Service.EnsureAdmin(m.config.AdminEmail, m.config.AdminPassword)
}

func (m *Module) GetModels() []any {
	return []any{
		&User{},
	}
}
