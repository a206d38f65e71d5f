package middleware

import (
	"strings"

	"go-stock-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(secret, parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_name", claims.Name)
		c.Locals("shop_name", claims.ShopName)

		return c.Next()
	}
}

// RequireToken is RequireAuth for websocket upgrades, where browsers cannot
// set headers; the token may come from the "token" query parameter instead.
func RequireToken(secret []byte) fiber.Handler {
	auth := RequireAuth(secret)
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request().Header.Set("Authorization", "Bearer "+token)
			}
		}
		return auth(c)
	}
}
