package module

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blog/core/logger"
	"blog/core/router"

	"github.com/stretchr/testify/assert"
)

type fakeModule struct {
	DefaultModule
	steps      *[]string
	name       string
	migrateErr error
}

func (m *fakeModule) Migrate() error {
	*m.steps = append(*m.steps, m.name+":migrate")
	return m.migrateErr
}

func (m *fakeModule) Init() error {
	*m.steps = append(*m.steps, m.name+":init")
	return nil
}

func (m *fakeModule) Routes(r *router.RouterGroup) {
	*m.steps = append(*m.steps, m.name+":routes")
	r.GET("/"+m.name, func(c *router.Context) error {
		return c.String(http.StatusOK, m.name)
	})
}

func (m *fakeModule) AdminRoutes(r *router.RouterGroup) {
	*m.steps = append(*m.steps, m.name+":admin")
}

type staticProvider map[string]Module

func (p staticProvider) GetAppModules(Dependencies) map[string]Module { return p }

func TestInitializerRunsStepsInOrder(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	var steps []string
	r := router.New()
	deps := Dependencies{
		Router:      r.Group(""),
		AdminRouter: r.Group("/admin"),
		Logger:      logger.NewNop(),
	}

	modules := map[string]Module{
		"b": &fakeModule{steps: &steps, name: "b"},
		"a": &fakeModule{steps: &steps, name: "a"},
		"c": &fakeModule{steps: &steps, name: "c", migrateErr: errors.New("no table")},
	}

	orchestrator := NewAppOrchestrator(NewInitializer(deps.Logger), staticProvider(modules))
	initialized, err := orchestrator.InitializeAppModules(deps)
	assert.NoError(t, err)

	assert.Len(t, initialized, 2)
	assert.Equal(t, []string{
		"a:migrate", "a:init", "a:routes", "a:admin",
		"b:migrate", "b:init", "b:routes", "b:admin",
		"c:migrate",
	}, steps)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/b", nil))
	assert.Equal(t, "b", w.Body.String())

	_, ok := GetModule("c")
	assert.True(t, ok, "registration happens before migration")
}

func TestRegisterModuleRejectsDuplicates(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	assert.NoError(t, RegisterModule("posts", DefaultModule{}))
	assert.Error(t, RegisterModule("posts", DefaultModule{}))
}
