package search

import (
	"fmt"
	"strings"

	"blog/core/logger"

	"gorm.io/gorm"
)

type SearchService struct {
	DB       *gorm.DB
	Logger   logger.Logger
	Registry *SearchRegistry
}

func NewSearchService(db *gorm.DB, logger logger.Logger, registry *SearchRegistry) *SearchService {
	return &SearchService{
		DB:       db,
		Logger:   logger,
		Registry: registry,
	}
}

// GlobalSearch performs search across multiple modules using the registry
func (s *SearchService) GlobalSearch(query, modules string, limit int) (*SearchResponse, error) {
	response := &SearchResponse{
		Query:   query,
		Results: make(map[string][]SearchResult),
		Modules: []string{},
	}

	if limit <= 0 {
		limit = 10
	}

	var modulesToSearch []string
	if modules == "" {
		modulesToSearch = s.Registry.GetNames()
	} else {
		for _, name := range strings.Split(modules, ",") {
			if name = strings.TrimSpace(name); name != "" {
				modulesToSearch = append(modulesToSearch, name)
			}
		}
	}

	for _, moduleName := range modulesToSearch {
		config, exists := s.Registry.Get(moduleName)
		if !exists {
			s.Logger.Warn("Search module not registered", logger.String("module", moduleName))
			continue
		}

		results, err := s.searchWithConfig(config, query, limit)
		if err != nil {
			s.Logger.Error("Failed to search module",
				logger.String("module", moduleName),
				logger.Err(err))
			continue
		}

		if len(results) > 0 {
			response.Results[moduleName] = results
			response.Modules = append(response.Modules, moduleName)
			response.Total += len(results)
		}
	}

	return response, nil
}

func (s *SearchService) searchWithConfig(config *SearchConfig, query string, limit int) ([]SearchResult, error) {
	if config.CustomSearchFunc != nil {
		return config.CustomSearchFunc(s.DB, query, limit)
	}
	return s.defaultSearch(config, query, limit)
}

// defaultSearch performs a case-insensitive LIKE search across configured fields
func (s *SearchService) defaultSearch(config *SearchConfig, query string, limit int) ([]SearchResult, error) {
	if len(config.Fields) == 0 {
		s.Logger.Warn("No search fields configured for module", logger.String("module", config.Name))
		return []SearchResult{}, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"
	whereClauses := make([]string, 0, len(config.Fields))
	whereArgs := make([]any, 0, len(config.Fields))
	for _, field := range config.Fields {
		whereClauses = append(whereClauses, "LOWER("+field+") LIKE ?")
		whereArgs = append(whereArgs, pattern)
	}

	db := s.DB.Table(config.Table)
	if config.SoftDelete {
		db = db.Where("deleted_at IS NULL")
	}

	var rows []map[string]any
	err := db.Where(strings.Join(whereClauses, " OR "), whereArgs...).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, createBasicSearchResult(config, row))
	}
	return results, nil
}

// createBasicSearchResult creates a basic search result from row data
func createBasicSearchResult(config *SearchConfig, row map[string]any) SearchResult {
	var id uint
	switch v := row["id"].(type) {
	case int64:
		id = uint(v)
	case int:
		id = uint(v)
	case uint:
		id = v
	case uint64:
		id = uint(v)
	}

	field := func(i int) string {
		if i >= len(config.Fields) {
			return ""
		}
		return toString(row[config.Fields[i]])
	}

	return SearchResult{
		Id:          id,
		Type:        config.Type,
		Title:       field(0),
		Subtitle:    field(1),
		Description: field(2),
		URL:         fmt.Sprintf("%s%d", config.URLPrefix, id),
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return strings.TrimSpace(strings.ReplaceAll(fmt.Sprintf("%v", v), "\n", " "))
	}
}
