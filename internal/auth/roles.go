package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// RequireClient ensures a CLIENT actor is authenticated.
func RequireClient() fiber.Handler {
	return requireRole(domain.RoleClient, "client role required")
}

// RequireAdmin ensures an ADMIN actor is authenticated.
func RequireAdmin() fiber.Handler {
	return requireRole(domain.RoleAdmin, "admin role required")
}

func requireRole(role domain.ActorRole, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if actor.Role != role {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
