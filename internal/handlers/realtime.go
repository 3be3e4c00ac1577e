package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/middleware"
	"github.com/Zorochan404/inf-chat/internal/security"
)

// originChecker allows every origin when none are configured.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin = strings.TrimSpace(origin); origin != "" {
			set[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Realtime upgrades an authenticated request to the websocket channel. The
// token comes from ?token= since browsers cannot set headers on upgrades.
func (h HandlerSet) Realtime(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		h.respondError(c, apperr.Auth("Access token required"))
		return
	}

	identity, err := h.tokens.Parse(token)
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		h.respondError(c, apperr.Auth("Token expired"))
		return
	case errors.Is(err, security.ErrSigningKeyMissing):
		h.respondError(c, apperr.Internal("Internal server error", err))
		return
	case err != nil:
		h.respondError(c, apperr.Auth("Invalid token"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", identity.UserID).Msg("websocket upgrade failed")
		return
	}

	h.gateway.Serve(c.Request.Context(), conn, identity)
}
