package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"blog/core/config"
	"blog/core/logger"
	"blog/core/router"
	"blog/core/types"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// ApplyConfigurableMiddleware installs the middleware enabled in config
func ApplyConfigurableMiddleware(r *router.Router, cfg *config.MiddlewareConfig, log logger.Logger) {
	if cfg.RecoveryEnabled {
		r.Use(Recovery())
	}
	if cfg.RequestIDEnabled {
		r.Use(RequestID())
	}
	if cfg.LoggingEnabled && log != nil {
		r.Use(RequestLogger(log, cfg))
	}
	if cfg.CORSEnabled {
		r.Use(CORSMiddleware(cfg.CORSOrigins))
	}
}

// RequestLogger logs method, path, status and latency of every request
// that the config does not skip
func RequestLogger(log logger.Logger, cfg *config.MiddlewareConfig) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c *router.Context) error {
			if !cfg.IsLoggingRequired(c.Request.URL.Path) {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			fields := []logger.Field{
				logger.String("method", c.Request.Method),
				logger.String("path", c.Request.URL.Path),
				logger.Int("status", c.Writer.Status()),
				logger.Duration("latency", time.Since(start)),
				logger.String("client_ip", c.ClientIP()),
			}
			if id := c.GetString("request_id"); id != "" {
				fields = append(fields, logger.String("request_id", id))
			}
			if err != nil {
				log.Error("request failed", append(fields, logger.Err(err))...)
			} else {
				log.Info("request", fields...)
			}
			return err
		}
	}
}

// Recovery turns a panicking handler into a 500 response
func Recovery() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c *router.Context) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
					if !c.Writer.Written() {
						_ = c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Internal server error"})
					}
				}
			}()
			return next(c)
		}
	}
}

// RequestID propagates or assigns an X-Request-ID
func RequestID() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c *router.Context) error {
			id := c.Header(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set("request_id", id)
			c.Writer.Header().Set(RequestIDHeader, id)
			return next(c)
		}
	}
}

// CORSMiddleware answers preflight requests and sets CORS headers for the
// allowed origins. "*" allows every origin.
func CORSMiddleware(origins []string) router.MiddlewareFunc {
	allowed := make(map[string]bool, len(origins))
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c *router.Context) error {
			origin := c.Header("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Api-Key, X-Request-ID")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Add("Vary", "Origin")
			}
			if c.Request.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
