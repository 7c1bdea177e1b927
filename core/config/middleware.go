package config

import "strings"

// MiddlewareConfig toggles the configurable middleware chain
type MiddlewareConfig struct {
	RecoveryEnabled  bool
	RequestIDEnabled bool
	LoggingEnabled   bool
	CORSEnabled      bool
	CORSOrigins      []string

	// LoggingSkipPaths are path prefixes excluded from request logging
	LoggingSkipPaths []string
}

// NewMiddlewareConfig reads the MIDDLEWARE_* variables
func NewMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		RecoveryEnabled:  getEnvBool("MIDDLEWARE_RECOVERY_ENABLED", true),
		RequestIDEnabled: getEnvBool("MIDDLEWARE_REQUEST_ID_ENABLED", true),
		LoggingEnabled:   getEnvBool("MIDDLEWARE_LOGGING_ENABLED", true),
		CORSEnabled:      getEnvBool("MIDDLEWARE_CORS_ENABLED", false),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LoggingSkipPaths: getEnvList("MIDDLEWARE_LOGGING_SKIP_PATHS", []string{"/health", "/static", "/storage"}),
	}
}

// IsLoggingRequired reports whether requests to path should be logged
func (m *MiddlewareConfig) IsLoggingRequired(path string) bool {
	if !m.LoggingEnabled {
		return false
	}
	for _, prefix := range m.LoggingSkipPaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
