package search

// SearchResponse groups global search results by module
type SearchResponse struct {
	Query    string                    `json:"query"`    // Original search query
	Total    int                       `json:"total"`    // Total results across all modules
	Results  map[string][]SearchResult `json:"results"`  // Results grouped by module
	Modules  []string                  `json:"modules"`  // Modules with at least one result
	Duration string                    `json:"duration"` // Search duration
}

type SearchResult struct {
	Id          uint   `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Metadata    any    `json:"metadata,omitempty"`
}
