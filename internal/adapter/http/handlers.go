package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tradecore/internal/policy"
)

// PolicySource exposes the live lifecycle policy.
type PolicySource interface {
	Current() policy.Lifecycle
}

type Handler struct {
	ping   func(ctx context.Context) error
	policy PolicySource
}

// NewHandler builds the service-level handlers. ping may be nil.
func NewHandler(ping func(ctx context.Context) error, pol PolicySource) *Handler {
	return &Handler{ping: ping, policy: pol}
}

func (h *Handler) Health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) LifecyclePolicy(c echo.Context) error {
	if h.policy == nil {
		return c.JSON(http.StatusOK, policy.Default())
	}
	return c.JSON(http.StatusOK, h.policy.Current())
}
