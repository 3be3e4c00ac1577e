package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/security"
)

const identityKey = "identity"

// TokenParser verifies access tokens.
type TokenParser interface {
	Parse(token string) (security.Identity, error)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		identity, err := tokens.Parse(tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				abort(c, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, security.ErrSigningKeyMissing):
				abort(c, http.StatusInternalServerError, "Internal server error")
			default:
				abort(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by Auth.
func CurrentIdentity(c *gin.Context) (security.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return security.Identity{}, false
	}
	identity, ok := val.(security.Identity)
	return identity, ok
}
