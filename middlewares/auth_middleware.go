package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tablemate/dinein-backend/utils"
)

// AuthMiddleware validates the bearer token and stores the caller's
// identity on the context: "role", "user_id" and "owner_ref" (the
// opaque key orders are attributed to). Guest tokens are only honored
// when guest ordering is switched on.
func AuthMiddleware(allowGuest bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization token missing"))
			c.Abort()
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")
		claims, err := utils.ParseToken(token)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}

		if claims.Guest != "" {
			if !allowGuest {
				utils.RespondError(c, http.StatusUnauthorized, errors.New("guest ordering is disabled"))
				c.Abort()
				return
			}
			c.Set("role", "guest")
			c.Set("owner_ref", claims.Guest)
			c.Next()
			return
		}

		if claims.UserID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid user id in token"))
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Set("user_id", claims.UserID)
		c.Set("owner_ref", fmt.Sprintf("user-%d", claims.UserID))

		c.Next()
	}
}

// RequireRoles gates a route to the listed roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%v access required", roles))
		c.Abort()
	}
}
