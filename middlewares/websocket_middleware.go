package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tablemate/dinein-backend/utils"
)

// WebSocketAuthMiddleware reads the token from the query string, since
// browser websocket clients cannot set an Authorization header.
func WebSocketAuthMiddleware(allowGuest bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		if claims.Guest != "" {
			if !allowGuest {
				c.AbortWithStatus(401)
				return
			}
			c.Set("role", "guest")
			c.Set("owner_ref", claims.Guest)
			c.Next()
			return
		}

		c.Set("role", claims.Role)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}
