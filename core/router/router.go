package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"blog/core/logger"
)

// HandlerFunc handles a request. A returned error that was not already
// answered becomes a 500 response.
type HandlerFunc func(*Context) error

// MiddlewareFunc wraps a handler
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Router is a thin layer over http.ServeMux with gin style path syntax
// (":id", "*filepath"), route groups and a middleware chain
type Router struct {
	mux        *http.ServeMux
	mu         sync.RWMutex
	middleware []MiddlewareFunc
	notFound   HandlerFunc
	server     *http.Server
	root       *RouterGroup
	logger     logger.Logger
}

// RouterGroup registers routes under a common prefix with extra middleware
type RouterGroup struct {
	router     *Router
	parent     *RouterGroup
	prefix     string
	middleware []MiddlewareFunc
}

func New() *Router {
	r := &Router{mux: http.NewServeMux()}
	r.root = &RouterGroup{router: r}
	return r
}

// Use appends global middleware. It applies to routes registered before and
// after the call.
func (r *Router) Use(middleware ...MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// Group creates a route group under prefix
func (r *Router) Group(prefix string, middleware ...MiddlewareFunc) *RouterGroup {
	return r.root.Group(prefix, middleware...)
}

func (r *Router) GET(path string, handler HandlerFunc)    { r.root.GET(path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)   { r.root.POST(path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)    { r.root.PUT(path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc)  { r.root.PATCH(path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) { r.root.DELETE(path, handler) }

// Static serves the files of dir under prefix
func (r *Router) Static(prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.root.handle(http.MethodGet, prefix+"/", func(c *Context) error {
		fileServer.ServeHTTP(c.Writer, c.Request)
		return nil
	}, false)
}

// SetLogger sets the logger used for handler errors
func (r *Router) SetLogger(l logger.Logger) {
	r.logger = l
}

// NotFound sets the handler for unmatched requests
func (r *Router) NotFound(handler HandlerFunc) {
	r.notFound = handler
}

// ServeHTTP dispatches to the registered routes
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.mux.Handler(req); pattern == "" && r.notFound != nil && !r.matchesOtherMethod(req) {
		r.serve(newContext(w, req), r.notFound, nil)
		return
	}
	r.mux.ServeHTTP(w, req)
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// matchesOtherMethod reports whether the path is routed for another method,
// in which case the mux answers 405 with an Allow header
func (r *Router) matchesOtherMethod(req *http.Request) bool {
	for _, method := range routeMethods {
		if method == req.Method {
			continue
		}
		alt := req.Clone(req.Context())
		alt.Method = method
		if _, pattern := r.mux.Handler(alt); pattern != "" {
			return true
		}
	}
	return false
}

// Run starts the HTTP server and blocks until it stops
func (r *Router) Run(addr string) error {
	r.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	err := r.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a server started with Run
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

func (r *Router) serve(c *Context, handler HandlerFunc, group *RouterGroup) {
	r.mu.RLock()
	global := make([]MiddlewareFunc, len(r.middleware))
	copy(global, r.middleware)
	r.mu.RUnlock()

	chain := append(global, group.chain()...)
	h := handler
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}

	if err := h(c); err != nil {
		if !c.Writer.Written() {
			_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if r.logger != nil {
			r.logger.Error("handler error",
				logger.String("method", c.Request.Method),
				logger.String("path", c.Request.URL.Path),
				logger.String("error", err.Error()))
		}
	}
}

// Group creates a nested group
func (g *RouterGroup) Group(prefix string, middleware ...MiddlewareFunc) *RouterGroup {
	return &RouterGroup{
		router:     g.router,
		parent:     g,
		prefix:     joinPaths(g.prefix, prefix),
		middleware: middleware,
	}
}

// Use appends middleware to the group
func (g *RouterGroup) Use(middleware ...MiddlewareFunc) {
	g.router.mu.Lock()
	defer g.router.mu.Unlock()
	g.middleware = append(g.middleware, middleware...)
}

// Prefix returns the full path prefix of the group
func (g *RouterGroup) Prefix() string {
	return g.prefix
}

func (g *RouterGroup) GET(path string, handler HandlerFunc)    { g.handle(http.MethodGet, path, handler, true) }
func (g *RouterGroup) POST(path string, handler HandlerFunc)   { g.handle(http.MethodPost, path, handler, true) }
func (g *RouterGroup) PUT(path string, handler HandlerFunc)    { g.handle(http.MethodPut, path, handler, true) }
func (g *RouterGroup) PATCH(path string, handler HandlerFunc)  { g.handle(http.MethodPatch, path, handler, true) }
func (g *RouterGroup) DELETE(path string, handler HandlerFunc) { g.handle(http.MethodDelete, path, handler, true) }

func (g *RouterGroup) chain() []MiddlewareFunc {
	if g == nil {
		return nil
	}
	g.router.mu.RLock()
	own := make([]MiddlewareFunc, len(g.middleware))
	copy(own, g.middleware)
	g.router.mu.RUnlock()
	return append(g.parent.chain(), own...)
}

func (g *RouterGroup) handle(method, path string, handler HandlerFunc, exact bool) {
	pattern := method + " " + toMuxPattern(joinPaths(g.prefix, path), exact)
	g.router.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		g.router.serve(newContext(w, req), handler, g)
	})
}

// toMuxPattern converts ":name" and "*name" segments to ServeMux wildcards.
// A trailing slash matches only that exact path unless exact is false.
func toMuxPattern(path string, exact bool) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = "{" + seg[1:] + "}"
		case strings.HasPrefix(seg, "*"):
			segments[i] = "{" + seg[1:] + "...}"
		}
	}
	pattern := strings.Join(segments, "/")
	if exact && strings.HasSuffix(pattern, "/") {
		pattern += "{$}"
	}
	return pattern
}

func joinPaths(base, path string) string {
	if path == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}
