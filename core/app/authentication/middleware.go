package authentication

import (
	"net/http"
	"strings"

	"blog/core/router"
	"blog/core/types"
)

// RequireAdmin rejects requests without a valid admin token. The token is
// read from "Authorization: Bearer <token>", or from the "token" query
// parameter for websocket upgrades that cannot set headers.
func RequireAdmin(tokens *TokenManager) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c *router.Context) error {
			token := bearerToken(c.Header("Authorization"))
			if token == "" {
				token = c.Query("token")
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Authorization required"})
			}

			userId, claims, err := tokens.Parse(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: err.Error()})
			}

			c.Set("user_id", userId)
			c.Set("user_email", claims.Email)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
