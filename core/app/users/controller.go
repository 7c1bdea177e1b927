package users

import (
	"errors"
	"net/http"
	"strconv"

	"blog/core/logger"
	"blog/core/router"
	"blog/core/types"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	service *UserService
	logger  logger.Logger
}

func NewUserController(service *UserService, logger logger.Logger) *UserController {
	return &UserController{
		service: service,
		logger:  logger,
	}
}

func (c *UserController) Routes(router *router.RouterGroup) {
	router.GET("/profile", c.GetProfile)
	router.PUT("/profile/password", c.UpdatePassword)

	usersGroup := router.Group("/users")
	usersGroup.GET("", c.List)
	usersGroup.POST("", c.Create)
	usersGroup.DELETE("/:id", c.Delete)
}

// GetProfile godoc
// @Summary Get the authenticated admin user
// @Security BearerAuth
// @Tags Core/Profile
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /admin/profile [get]
func (c *UserController) GetProfile(ctx *router.Context) error {
	id := ctx.GetUint("user_id")
	if id == 0 {
		return ctx.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Not authenticated"})
	}

	item, err := c.service.GetById(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: "User not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to fetch user"})
	}

	return ctx.JSON(http.StatusOK, item.ToResponse())
}

// UpdatePassword godoc
// @Summary Update the authenticated admin's password
// @Security BearerAuth
// @Tags Core/Profile
// @Accept json
// @Produce json
// @Param input body UpdatePasswordRequest true "Update Password Request"
// @Success 200 {object} types.SuccessResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /admin/profile/password [put]
func (c *UserController) UpdatePassword(ctx *router.Context) error {
	id := ctx.GetUint("user_id")
	if id == 0 {
		return ctx.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Not authenticated"})
	}

	var req UpdatePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid input: " + err.Error()})
	}

	if err := c.service.UpdatePassword(id, &req); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: "User not found"})
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ctx.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Current password is incorrect"})
		default:
			c.logger.Error("Failed to update password", logger.Uint("user_id", id), logger.Err(err))
			return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to update password"})
		}
	}

	return ctx.JSON(http.StatusOK, types.SuccessResponse{Message: "Password updated successfully"})
}

// List godoc
// @Summary List admin users
// @Security BearerAuth
// @Tags Core/Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} types.PaginatedResponse
// @Router /admin/users [get]
func (c *UserController) List(ctx *router.Context) error {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	result, err := c.service.GetAll(page, limit)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to fetch users"})
	}
	return ctx.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Create an admin user
// @Security BearerAuth
// @Tags Core/Users
// @Accept json
// @Produce json
// @Param input body CreateUserRequest true "Create Request"
// @Success 201 {object} UserResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /admin/users [post]
func (c *UserController) Create(ctx *router.Context) error {
	var req CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid input: " + err.Error()})
	}

	item, err := c.service.Create(&req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return ctx.JSON(http.StatusConflict, types.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to create user"})
	}

	return ctx.JSON(http.StatusCreated, item.ToResponse())
}

// Delete godoc
// @Summary Delete an admin user
// @Security BearerAuth
// @Tags Core/Users
// @Produce json
// @Param id path int true "User Id"
// @Success 200 {object} types.SuccessResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /admin/users/{id} [delete]
func (c *UserController) Delete(ctx *router.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid Id format"})
	}

	if err := c.service.Delete(uint(id)); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ctx.JSON(http.StatusNotFound, types.ErrorResponse{Error: "User not found"})
		case errors.Is(err, ErrLastAdmin):
			return ctx.JSON(http.StatusConflict, types.ErrorResponse{Error: err.Error()})
		default:
			return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to delete user"})
		}
	}

	return ctx.JSON(http.StatusOK, types.SuccessResponse{Message: "User deleted successfully"})
}
