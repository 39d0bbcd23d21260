package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const livenessBody = "Ad reward server is running."

// readyTimeout bounds the store ping so a wedged connection cannot hang the
// readiness check.
const readyTimeout = 2 * time.Second

// Pinger is the piece of the ledger store the readiness check depends on.
type Pinger interface {
	Healthy(ctx context.Context, timeout time.Duration) error
}

// Handler serves the liveness, health and readiness endpoints.
type Handler struct {
	service string
	store   Pinger
}

func NewHandler(service string, store Pinger) *Handler {
	return &Handler{
		service: service,
		store:   store,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.Live)
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

// Live answers plain text with no auth and no side effects.
func (h *Handler) Live(c *gin.Context) {
	c.String(http.StatusOK, livenessBody)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   h.service,
	})
}

// Ready reports 503 while the ledger store is unreachable so the platform
// keeps traffic away until it recovers.
func (h *Handler) Ready(c *gin.Context) {
	if err := h.store.Healthy(c.Request.Context(), readyTimeout); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unready",
			"error":  "redis unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
