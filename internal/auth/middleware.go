package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"aeroform-backend/internal/engine"
	"aeroform-backend/internal/forms"
)

// Middleware returns a Fiber middleware that validates JWT tokens and
// sets the UserContext on the request.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		c.Locals("user", &forms.UserContext{
			ID:    claims.Subject,
			Roles: claims.Roles,
		})

		return c.Next()
	}
}

// Optional validates a bearer token when one is present but lets
// anonymous requests through. Respondents submit without an account.
func Optional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Next()
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if claims, err := ParseAccessToken(parts[1], secret); err == nil {
				c.Locals("user", &forms.UserContext{
					ID:    claims.Subject,
					Roles: claims.Roles,
				})
			}
		}
		return c.Next()
	}
}

// GetUser extracts the UserContext from a Fiber context.
func GetUser(c *fiber.Ctx) *forms.UserContext {
	user, _ := c.Locals("user").(*forms.UserContext)
	return user
}
