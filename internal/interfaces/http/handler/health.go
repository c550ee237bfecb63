package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/revreport/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping() error
}

// HealthHandler handles liveness and readiness endpoints
type HealthHandler struct {
	db        Pinger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// service runs without a database (degraded reports only).
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, startTime: time.Now()}
}

// RegisterRoutes registers health routes on the API group
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.GetHealth)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// GetHealth reports service health. A failing database turns the status to
// degraded but still answers 200; the report endpoints keep working in
// degraded mode.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}

	if h.db == nil {
		resp.Status = "degraded"
		resp.Database = "not configured"
	} else if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
