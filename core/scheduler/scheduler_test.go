package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blog/core/logger"
	"blog/core/module"
	"blog/core/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTaskValidates(t *testing.T) {
	s := NewCronScheduler(logger.NewNop())
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.RegisterTask(&CronTask{Name: "bad", CronExpr: "every day", Handler: noop, Enabled: true}))
	assert.Error(t, s.RegisterTask(&CronTask{Name: "nohandler", CronExpr: "@daily", Enabled: true}))
	require.NoError(t, s.RegisterTask(&CronTask{Name: "reindex", CronExpr: "0 3 * * *", Handler: noop, Enabled: true}))
	assert.Error(t, s.RegisterTask(&CronTask{Name: "reindex", CronExpr: "@daily", Handler: noop}))

	// disabled tasks are not validated against cron and never scheduled
	require.NoError(t, s.RegisterTask(&CronTask{Name: "disabled", CronExpr: "whenever", Handler: noop}))

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "disabled", tasks[0].Name)
	assert.Nil(t, tasks[0].NextRun)
	assert.Equal(t, "reindex", tasks[1].Name)
}

func TestRunTaskRecordsOutcome(t *testing.T) {
	s := NewCronScheduler(logger.NewNop())
	fail := true
	require.NoError(t, s.RegisterTask(&CronTask{
		Name:     "purge",
		CronExpr: "@hourly",
		Enabled:  true,
		Timeout:  time.Second,
		Handler: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			if fail {
				return errors.New("database locked")
			}
			return nil
		},
	}))

	assert.Error(t, s.RunTask(context.Background(), "purge"))
	status := s.Tasks()[0]
	assert.Equal(t, 1, status.Runs)
	assert.Equal(t, "database locked", status.LastError)
	assert.NotNil(t, status.LastRun)

	fail = false
	assert.NoError(t, s.RunTask(context.Background(), "purge"))
	status = s.Tasks()[0]
	assert.Equal(t, 2, status.Runs)
	assert.Empty(t, status.LastError)

	assert.ErrorIs(t, s.RunTask(context.Background(), "missing"), ErrTaskNotFound)
}

func TestStartAndStop(t *testing.T) {
	s := NewCronScheduler(logger.NewNop())
	require.NoError(t, s.RegisterTask(&CronTask{
		Name: "daily", CronExpr: "@daily", Enabled: true,
		Handler: func(context.Context) error { return nil },
	}))
	s.Start()
	assert.NotNil(t, s.Tasks()[0].NextRun)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestSchedulerModuleRoutes(t *testing.T) {
	s := NewCronScheduler(logger.NewNop())
	ran := false
	require.NoError(t, s.RegisterTask(&CronTask{
		Name: "reindex", CronExpr: "@daily", Enabled: true,
		Handler: func(context.Context) error { ran = true; return nil },
	}))

	r := router.New()
	NewSchedulerModule(s, module.Dependencies{Logger: logger.NewNop()}).AdminRoutes(r.Group("/admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/scheduler/tasks/reindex/run", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ran)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/scheduler/tasks/nope/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/scheduler/tasks", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"reindex"`)
}
