package activities

import (
	"errors"
	"net/http"
	"strconv"

	"blog/core/router"
	"blog/core/types"

	"gorm.io/gorm"
)

type ActivityController struct {
	Service *ActivityService
}

func NewActivityController(service *ActivityService) *ActivityController {
	return &ActivityController{Service: service}
}

func (c *ActivityController) Routes(router *router.RouterGroup) {
	router.GET("/activities", c.List)
	router.GET("/activities/:id", c.Get)
}

// List godoc
// @Summary List the admin action history
// @Security BearerAuth
// @Tags Core/Activity
// @Produce json
// @Param entity_type query string false "Entity type, e.g. post"
// @Param entity_id query int false "Entity id"
// @Param user_id query int false "Admin user id"
// @Param action query string false "Action"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} types.PaginatedResponse
// @Router /admin/activities [get]
func (c *ActivityController) List(ctx *router.Context) error {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	entityId, _ := strconv.ParseUint(ctx.Query("entity_id"), 10, 32)
	userId, _ := strconv.ParseUint(ctx.Query("user_id"), 10, 32)

	result, err := c.Service.List(ctx.Request.Context(), ListQuery{
		EntityType: ctx.Query("entity_type"),
		EntityId:   uint(entityId),
		UserId:     uint(userId),
		Action:     ctx.Query("action"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to fetch activities"})
	}
	return ctx.JSON(http.StatusOK, result)
}

// Get godoc
// @Summary Get an activity
// @Security BearerAuth
// @Tags Core/Activity
// @Produce json
// @Param id path int true "Activity id"
// @Success 200 {object} Activity
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/activities/{id} [get]
func (c *ActivityController) Get(ctx *router.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	item, err := c.Service.GetById(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: "Activity not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to fetch activity"})
	}
	return ctx.JSON(http.StatusOK, item)
}
