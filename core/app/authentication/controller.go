package authentication

import (
	"errors"
	"net/http"
	"time"

	"blog/core/app/users"
	"blog/core/logger"
	"blog/core/router"
	"blog/core/types"
)

// LoginRequest represents the admin login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	AccessToken string              `json:"access_token"`
	ExpiresAt   time.Time           `json:"expires_at"`
	User        *users.UserResponse `json:"user"`
}

type AuthController struct {
	users  *users.UserService
	tokens *TokenManager
	logger logger.Logger
}

func NewAuthController(userService *users.UserService, tokens *TokenManager, logger logger.Logger) *AuthController {
	return &AuthController{
		users:  userService,
		tokens: tokens,
		logger: logger,
	}
}

func (c *AuthController) Routes(router *router.RouterGroup) {
	router.POST("/admin/login", c.Login)
}

// Login godoc
// @Summary Admin login
// @Description Exchange admin credentials for a bearer token
// @Tags Core/Auth
// @Accept json
// @Produce json
// @Param input body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /admin/login [post]
func (c *AuthController) Login(ctx *router.Context) error {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid input: " + err.Error()})
	}

	user, err := c.users.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.logger.Info("Rejected admin login", logger.String("client_ip", ctx.ClientIP()))
			return ctx.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: err.Error()})
		}
		c.logger.Error("Failed to authenticate", logger.Err(err))
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to authenticate"})
	}

	token, expiresAt, err := c.tokens.Issue(user.Id, user.Email)
	if err != nil {
		c.logger.Error("Failed to issue token", logger.Uint("user_id", user.Id), logger.Err(err))
		return ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "Failed to authenticate"})
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user.ToResponse(),
	})
}
