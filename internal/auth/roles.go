package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// RequireAuth ensures the caller is authenticated.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller is a platform administrator.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil || !principal.User.IsAdmin {
			return apperrors.NewForbidden("administrator required")
		}
		return c.Next()
	}
}
