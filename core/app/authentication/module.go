package authentication

import (
	"blog/core/app/users"
	"blog/core/module"
	"blog/core/router"
)

type Module struct {
	module.DefaultModule
	Controller *AuthController
}

// Init wires the login endpoint to the admin user service
func Init(deps module.Dependencies, userService *users.UserService, tokens *TokenManager) *Module {
	return &Module{
		Controller: NewAuthController(userService, tokens, deps.Logger),
	}
}

// Routes registers the public login endpoint
func (m *Module) Routes(router *router.RouterGroup) {
	m.Controller.Routes(router)
}
