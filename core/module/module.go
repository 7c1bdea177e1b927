package module

import (
	"fmt"
	"sync"

	"blog/core/cache"
	"blog/core/config"
	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/router"
	"blog/core/storage"
	"blog/core/websocket"

	"gorm.io/gorm"
)

// Module is the unit the application is assembled from. Optional
// capabilities are discovered with interface assertions:
// Init() error, Migrate() error, Routes(*router.RouterGroup) and
// AdminRoutes(*router.RouterGroup).
type Module interface {
	GetModels() []any
}

// DefaultModule gives modules a no-op implementation of Module
type DefaultModule struct{}

func (DefaultModule) GetModels() []any { return nil }

// Dependencies is what every module is constructed with
type Dependencies struct {
	DB          *gorm.DB
	Router      *router.RouterGroup
	AdminRouter *router.RouterGroup
	Logger      logger.Logger
	Emitter     *emitter.Emitter
	Storage     *storage.ActiveStorage
	Cache       cache.Store
	Hub         *websocket.Hub
	Config      *config.Config
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Module{}
)

// RegisterModule records an initialized module by name
func RegisterModule(name string, mod Module) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("module %s already registered", name)
	}
	registry[name] = mod
	return nil
}

// GetModule returns a registered module
func GetModule(name string) (Module, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	mod, ok := registry[name]
	return mod, ok
}

// ResetRegistry forgets every registered module (tests)
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]Module{}
}
