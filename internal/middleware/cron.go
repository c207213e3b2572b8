package middleware

import (
	"crypto/subtle"

	"github.com/m1z23r/drift/pkg/drift"
)

// CronKeyAuth guards internal endpoints called by an external scheduler with
// a shared bearer secret. An empty secret rejects every request.
func CronKeyAuth(secret string) drift.HandlerFunc {
	return func(c *drift.Context) {
		if secret == "" {
			c.NotFound("not found")
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.Unauthorized("invalid cron secret")
			return
		}

		c.Next()
	}
}
