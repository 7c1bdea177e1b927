package authentication

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog/core/app/users"
	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, expiresAt, err := tm.Issue(7, "admin@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, _, err := tm.Issue(1, "a@example.com")
	require.NoError(t, err)

	_, _, err = NewTokenManager("other-secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = tm.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

func newAuthRouter(t *testing.T) (*router.Router, *TokenManager) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&users.User{}))

	service := users.NewUserService(db, emitter.New(), logger.NewNop())
	require.NoError(t, service.EnsureAdmin("Admin@Example.com", "correct-horse"))

	tokens := NewTokenManager("secret", time.Hour)
	r := router.New()
	NewAuthController(service, tokens, logger.NewNop()).Routes(r.Group(""))

	admin := r.Group("/admin", RequireAdmin(tokens))
	admin.GET("/me", func(c *router.Context) error {
		return c.String(http.StatusOK, "%d %s", c.GetUint("user_id"), c.GetString("user_email"))
	})
	return r, tokens
}

func login(r http.Handler, email, password string) *httptest.ResponseRecorder {
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginAndGuardedRoute(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := login(r, "admin@example.com", "correct-horse")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "admin@example.com", resp.User.Email)

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1 admin@example.com", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/me?token="+resp.AccessToken, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newAuthRouter(t)

	assert.Equal(t, http.StatusUnauthorized, login(r, "admin@example.com", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, login(r, "nobody@example.com", "correct-horse").Code)
	assert.Equal(t, http.StatusBadRequest, login(r, "not-an-email", "x").Code)
}

func TestGuardedRouteWithoutToken(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
