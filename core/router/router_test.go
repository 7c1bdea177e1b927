package router

import (
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathParamsAndGroups(t *testing.T) {
	r := New()
	admin := r.Group("/admin")
	admin.GET("/posts/:id", func(c *Context) error {
		return c.String(http.StatusOK, "post %s", c.Param("id"))
	})
	r.GET("/blog/:year/:month/:day/:slug/", func(c *Context) error {
		return c.String(http.StatusOK, "%s-%s-%s-%s", c.Param("year"), c.Param("month"), c.Param("day"), c.Param("slug"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/posts/42", nil))
	assert.Equal(t, "post 42", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blog/2024/3/5/hello-world/", nil))
	assert.Equal(t, "2024-3-5-hello-world", w.Body.String())
}

func TestMiddlewareOrderAndLateGlobalUse(t *testing.T) {
	r := New()
	var trail []string
	mark := func(name string) MiddlewareFunc {
		return func(next HandlerFunc) HandlerFunc {
			return func(c *Context) error {
				trail = append(trail, name)
				return next(c)
			}
		}
	}

	g := r.Group("/api", mark("group"))
	g.GET("/ping", func(c *Context) error {
		trail = append(trail, "handler")
		return c.NoContent(http.StatusNoContent)
	})
	// registered after the route, still applies
	r.Use(mark("global"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"global", "group", "handler"}, trail)
}

func TestHandlerErrorBecomes500(t *testing.T) {
	r := New()
	r.GET("/fail", func(c *Context) error {
		return errors.New("database unavailable")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "database unavailable")
}

func TestNotFoundHandler(t *testing.T) {
	r := New()
	r.NotFound(func(c *Context) error {
		return c.String(http.StatusNotFound, "custom 404")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "custom 404", w.Body.String())
}

func TestWrongMethodIsNotRoutedToNotFound(t *testing.T) {
	r := New()
	r.NotFound(func(c *Context) error {
		return c.String(http.StatusNotFound, "custom 404")
	})
	api := r.Group("/admin")
	api.GET("/posts/:id", func(c *Context) error { return c.NoContent(http.StatusOK) })
	api.DELETE("/posts/:id", func(c *Context) error { return c.NoContent(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/posts/4", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Header().Get("Allow"), http.MethodGet)
	assert.Contains(t, w.Header().Get("Allow"), http.MethodDelete)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "custom 404", w.Body.String())
}

func TestShouldBindJSONValidates(t *testing.T) {
	type payload struct {
		Title  string `json:"title" binding:"required,max=10"`
		Status string `json:"status" binding:"omitempty,oneof=draft published"`
	}

	bind := func(body string) error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c := NewContext(httptest.NewRecorder(), req)
		var p payload
		return c.ShouldBindJSON(&p)
	}

	assert.NoError(t, bind(`{"title":"Hello","status":"draft"}`))
	assert.Error(t, bind(`{"status":"draft"}`))
	assert.Error(t, bind(`{"title":"Hello","status":"archived"}`))
	assert.Error(t, bind(`{"title":"far too long a title"}`))
	assert.Error(t, bind(``))
}

func TestHTMLRendersIntoBuffer(t *testing.T) {
	tmpl := template.Must(template.New("page").Parse(`{{define "page"}}<h1>{{.}}</h1>{{end}}{{define "broken"}}{{.Missing.Field}}{{end}}`))

	w := httptest.NewRecorder()
	c := NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, c.HTML(http.StatusOK, tmpl, "page", "<b>hi</b>"))
	assert.Equal(t, "<h1>&lt;b&gt;hi&lt;/b&gt;</h1>", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	c = NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, c.HTML(http.StatusOK, tmpl, "broken", "string has no fields"))
	assert.False(t, c.Writer.Written())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := NewContext(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.1", c.ClientIP())

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", c.ClientIP())
}

func TestToMuxPattern(t *testing.T) {
	assert.Equal(t, "/posts/{id}", toMuxPattern("/posts/:id", true))
	assert.Equal(t, "/files/{filepath...}", toMuxPattern("/files/*filepath", true))
	assert.Equal(t, "/blog/{$}", toMuxPattern("/blog/", true))
	assert.Equal(t, "/static/", toMuxPattern("/static/", false))
}
