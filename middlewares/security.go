package middlewares

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets browser hardening headers on every response.
// The backend serves JSON and websocket upgrades only, so the CSP
// locks every source to 'self'.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		c.Next()
	}
}
