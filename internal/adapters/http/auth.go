package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminKeyMiddleware requires the X-API-Key header to equal token. An empty
// token disables the check.
func AdminKeyMiddleware(token string) fiber.Handler {
	return adminKey(token, false)
}

// FeedKeyMiddleware guards the live feed. Browsers cannot set headers on a
// WebSocket upgrade, so the key may also come from the api_key query
// parameter.
func FeedKeyMiddleware(token string) fiber.Handler {
	return adminKey(token, true)
}

func adminKey(token string, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		key := c.Get("X-API-Key")
		if key == "" && allowQuery {
			key = c.Query("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
			return errUnauthorized(c, "missing or invalid API key")
		}
		return c.Next()
	}
}
