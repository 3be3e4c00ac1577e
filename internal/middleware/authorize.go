package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/models"
)

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		if !identity.HasRole(roles...) {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Next()
	}
}
