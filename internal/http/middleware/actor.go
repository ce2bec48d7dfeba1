package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"docfiling/internal/model"
)

// ActorLocalKey is the Fiber locals key holding the model.Actor.
const ActorLocalKey = "actor"

// Roster answers whether a user is an admin.
type Roster interface {
	IsAdmin(ctx context.Context, username string) (bool, error)
}

// Actor identifies the caller from header, which an upstream gateway is
// trusted to set, and resolves the admin role through roster. Requests
// without the header are rejected with 401.
func Actor(header string, roster Roster) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := utils.CopyString(strings.TrimSpace(c.Get(header)))
		if username == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing "+header+" header")
		}
		isAdmin, err := roster.IsAdmin(c.UserContext(), username)
		if err != nil {
			return err
		}
		c.Locals(ActorLocalKey, model.Actor{Username: username, IsAdmin: isAdmin})
		return c.Next()
	}
}

// ActorFrom returns the actor stored by Actor.
func ActorFrom(c *fiber.Ctx) (model.Actor, bool) {
	a, ok := c.Locals(ActorLocalKey).(model.Actor)
	return a, ok
}

// RequireAdmin rejects callers that Actor did not mark as admins.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a, ok := ActorFrom(c); !ok || !a.IsAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
}
