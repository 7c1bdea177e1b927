package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultMultipartMemory = 32 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return v
}

// Validator exposes the shared request validator
func Validator() *validator.Validate {
	return validate
}

// Context carries the request, the response writer and per-request values
type Context struct {
	Request *http.Request
	Writer  ResponseWriter
	values  map[string]any
}

// ResponseWriter remembers the status code written
type ResponseWriter interface {
	http.ResponseWriter
	Status() int
	Written() bool
}

type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseWriter) Written() bool { return w.written }

// Hijack hands the connection over (websocket upgrades)
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.written = true
	return hj.Hijack()
}

func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer (websocket hijack)
func (w *responseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func newContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Request: r,
		Writer:  &responseWriter{ResponseWriter: w},
	}
}

// NewContext builds a context outside of the router (tests)
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return newContext(w, r)
}

// Param returns a path parameter
func (c *Context) Param(name string) string {
	return c.Request.PathValue(name)
}

// Query returns a query string value
func (c *Context) Query(name string) string {
	return c.Request.URL.Query().Get(name)
}

// DefaultQuery returns a query string value or fallback when absent
func (c *Context) DefaultQuery(name, fallback string) string {
	if values, ok := c.Request.URL.Query()[name]; ok && len(values) > 0 {
		return values[0]
	}
	return fallback
}

// QueryArray returns every value of a repeated query parameter, also
// splitting comma separated values
func (c *Context) QueryArray(name string) []string {
	var out []string
	for _, v := range c.Request.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Set stores a value for the lifetime of the request
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns a value stored with Set
func (c *Context) Get(key string) (any, bool) {
	value, ok := c.values[key]
	return value, ok
}

// GetUint returns a uint stored with Set, or 0
func (c *Context) GetUint(key string) uint {
	if value, ok := c.values[key].(uint); ok {
		return value
	}
	return 0
}

// GetString returns a string stored with Set, or ""
func (c *Context) GetString(key string) string {
	if value, ok := c.values[key].(string); ok {
		return value
	}
	return ""
}

// Header returns a request header
func (c *Context) Header(name string) string {
	return c.Request.Header.Get(name)
}

// ClientIP resolves the client address, honoring proxy headers
func (c *Context) ClientIP() string {
	if forwarded := c.Request.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.Request.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// ShouldBindJSON decodes the JSON body into obj and validates its binding tags
func (c *Context) ShouldBindJSON(obj any) error {
	if c.Request.Body == nil {
		return errors.New("request body is empty")
	}
	decoder := json.NewDecoder(c.Request.Body)
	if err := decoder.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return validate.Struct(obj)
}

// FormFile returns the uploaded file for the given form field
func (c *Context) FormFile(name string) (*multipart.FileHeader, error) {
	if c.Request.MultipartForm == nil {
		if err := c.Request.ParseMultipartForm(defaultMultipartMemory); err != nil {
			return nil, err
		}
	}
	_, header, err := c.Request.FormFile(name)
	return header, err
}

// JSON writes obj as a JSON response
func (c *Context) JSON(code int, obj any) error {
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Writer.WriteHeader(code)
	return json.NewEncoder(c.Writer).Encode(obj)
}

// HTML renders the named template. The template is executed into a buffer
// first so a failing template never produces a half written page.
func (c *Context) HTML(code int, tmpl *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(code)
	_, err := buf.WriteTo(c.Writer)
	return err
}

// String writes a plain text response
func (c *Context) String(code int, format string, args ...any) error {
	c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Writer.WriteHeader(code)
	_, err := fmt.Fprintf(c.Writer, format, args...)
	return err
}

// NoContent writes only a status code
func (c *Context) NoContent(code int) error {
	c.Writer.WriteHeader(code)
	return nil
}

// Redirect sends a redirect to location
func (c *Context) Redirect(code int, location string) error {
	http.Redirect(c.Writer, c.Request, location, code)
	return nil
}
