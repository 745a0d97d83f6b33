package health

import (
	"net/http"
	"time"

	"github.com/lifetravel/endpoint/internal/infrastructure/json"
)

type Handler struct {
	startTime time.Time
	now       func() time.Time
}

func NewHandler() *Handler {
	return &Handler{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the service, including uptime and current timestamp
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /ready [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	_ = json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(h.startTime).Round(time.Second).String(),
	})
}
