package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Environment  string            `json:"environment"`
	Time         time.Time         `json:"time"`
}

// Health pings every dependency. Any failure answers 503.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:       "ok",
		Dependencies: make(map[string]string, len(h.checks)),
		Environment:  h.cfg.Environment,
		Time:         time.Now().UTC(),
	}
	status := http.StatusOK

	for _, check := range h.checks {
		if err := check.ping(ctx); err != nil {
			h.log.Error().Err(err).Str("dependency", check.name).Msg("health check failed")
			resp.Dependencies[check.name] = "error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[check.name] = "ok"
	}

	c.JSON(status, resp)
}
