package scheduler

import (
	"errors"
	"net/http"

	"blog/core/logger"
	"blog/core/module"
	"blog/core/router"
	"blog/core/types"
)

type Module struct {
	module.DefaultModule
	Scheduler *CronScheduler
	logger    logger.Logger
}

// NewSchedulerModule exposes the scheduled tasks on the admin API
func NewSchedulerModule(scheduler *CronScheduler, deps module.Dependencies) *Module {
	return &Module{Scheduler: scheduler, logger: deps.Logger}
}

func (m *Module) AdminRoutes(router *router.RouterGroup) {
	group := router.Group("/scheduler")
	group.GET("/tasks", m.List)
	group.POST("/tasks/:name/run", m.Run)
}

// List godoc
// @Summary List scheduled tasks
// @Security BearerAuth
// @Tags Core/Scheduler
// @Produce json
// @Success 200 {array} TaskStatus
// @Router /admin/scheduler/tasks [get]
func (m *Module) List(ctx *router.Context) error {
	return ctx.JSON(http.StatusOK, m.Scheduler.Tasks())
}

// Run godoc
// @Summary Run a scheduled task now
// @Security BearerAuth
// @Tags Core/Scheduler
// @Produce json
// @Param name path string true "Task name"
// @Success 200 {object} types.SuccessResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 500 {object} types.ErrorResponse
// @Router /admin/scheduler/tasks/{name}/run [post]
func (m *Module) Run(ctx *router.Context) error {
	name := ctx.Param("name")
	if err := m.Scheduler.RunTask(ctx.Request.Context(), name); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: err.Error()})
		}
		m.logger.Error("Manual task run failed", logger.String("task", name), logger.Err(err))
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, types.SuccessResponse{Message: "Task " + name + " completed"})
}
