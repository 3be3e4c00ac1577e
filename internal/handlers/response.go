package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/middleware"
	"github.com/Zorochan404/inf-chat/internal/security"
	"github.com/Zorochan404/inf-chat/internal/validation"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// respondError writes err as an error envelope. Internal failures are logged
// and only their public message is sent.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal {
		event := h.log.Error().Err(appErr.Err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.Writer.Header().Get("X-Request-Id"))
		if identity, ok := middleware.CurrentIdentity(c); ok {
			event = event.Str("user_id", identity.UserID)
		}
		event.Msg(appErr.Message)
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return validation.Translate(err)
	}
	return nil
}

// identity returns the caller set by the auth middleware. Routes behind
// middleware.Auth always have one.
func (h HandlerSet) identity(c *gin.Context) (security.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Success: false, Message: "User not authenticated"})
	}
	return identity, ok
}
