package module

// CoreModuleProvider supplies the framework modules (authentication, search)
type CoreModuleProvider interface {
	GetCoreModules(deps Dependencies) map[string]Module
}

// CoreOrchestrator initializes the core modules before any app module
type CoreOrchestrator struct {
	initializer *Initializer
	provider    CoreModuleProvider
}

func NewCoreOrchestrator(initializer *Initializer, provider CoreModuleProvider) *CoreOrchestrator {
	return &CoreOrchestrator{
		initializer: initializer,
		provider:    provider,
	}
}

// InitializeCoreModules initializes all core modules using the provider
func (co *CoreOrchestrator) InitializeCoreModules(deps Dependencies) ([]Module, error) {
	modules := co.provider.GetCoreModules(deps)
	if len(modules) == 0 {
		return []Module{}, nil
	}
	return co.initializer.Initialize(modules, deps), nil
}
