package search

import (
	"sort"

	"gorm.io/gorm"
)

// SearchFunc replaces the default LIKE search for a module
type SearchFunc func(db *gorm.DB, query string, limit int) ([]SearchResult, error)

// SearchConfig represents the configuration for searching a specific model
type SearchConfig struct {
	// Name is the module name (e.g., "posts")
	Name string

	// Fields are the database columns to search in. The first one is used
	// as the result title, the second as subtitle, the third as description.
	Fields []string

	// Table is the database table name
	Table string

	// Type is the search result type identifier
	Type string

	// SoftDelete excludes rows with a deleted_at value
	SoftDelete bool

	// URLPrefix is joined with the row id to build the result link
	URLPrefix string

	// CustomSearchFunc allows custom search logic (optional)
	CustomSearchFunc SearchFunc
}

// SearchRegistry holds all registered searchable models
type SearchRegistry struct {
	configs map[string]*SearchConfig
}

// NewSearchRegistry creates a new search registry
func NewSearchRegistry() *SearchRegistry {
	return &SearchRegistry{
		configs: make(map[string]*SearchConfig),
	}
}

// SimpleSearchConfig is a simplified configuration for quick registration
type SimpleSearchConfig struct {
	Table      string   // Database table name
	Fields     []string // Fields to search in
	Type       string   // Type identifier for results (optional, defaults to name)
	SoftDelete bool
	URLPrefix  string
}

// RegisterSimple adds a model with minimal configuration
func (r *SearchRegistry) RegisterSimple(name string, cfg SimpleSearchConfig) {
	if cfg.Type == "" {
		cfg.Type = name
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/admin/" + name + "/"
	}

	r.configs[name] = &SearchConfig{
		Name:       name,
		Fields:     cfg.Fields,
		Table:      cfg.Table,
		Type:       cfg.Type,
		SoftDelete: cfg.SoftDelete,
		URLPrefix:  cfg.URLPrefix,
	}
}

// RegisterWithCustomSearch adds a module searched by its own function
func (r *SearchRegistry) RegisterWithCustomSearch(name, resultType string, searchFunc SearchFunc) {
	r.configs[name] = &SearchConfig{
		Name:             name,
		Type:             resultType,
		CustomSearchFunc: searchFunc,
	}
}

// Get retrieves a search config by name
func (r *SearchRegistry) Get(name string) (*SearchConfig, bool) {
	config, exists := r.configs[name]
	return config, exists
}

// GetNames returns all registered module names in sorted order
func (r *SearchRegistry) GetNames() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
