package auth

import (
	"strings"

	"github.com/InQuant/plusforms/internal/response"
	"github.com/InQuant/plusforms/internal/utils"

	"github.com/gofiber/fiber/v2"
)

func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid token format")
		}

		userID, err := utils.ParseJWT(tokenParts[1])
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// JWTOptional attaches the user when a valid token is present and lets
// anonymous requests through. Public form submissions use this so a logged-in
// submitter is recorded on the submission.
func JWTOptional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
			if userID, err := utils.ParseJWT(tokenParts[1]); err == nil {
				c.Locals("user_id", userID)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID, or nil for anonymous requests.
func UserID(c *fiber.Ctx) *uint {
	if id, ok := c.Locals("user_id").(uint); ok {
		return &id
	}
	return nil
}
