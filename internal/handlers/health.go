package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings one backing service.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	Environment string            `json:"environment"`
	Timestamp   time.Time         `json:"timestamp"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Checks:      make(map[string]string, len(h.checks)),
		Environment: h.cfg.Environment,
		Timestamp:   time.Now().UTC(),
	}
	for _, check := range h.checks {
		status := "ok"
		if err := check.Ping(ctx); err != nil {
			status = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Str("check", check.Name).Msg("health check failed")
		}
		resp.Checks[check.Name] = status
	}

	c.JSON(http.StatusOK, resp)
}
