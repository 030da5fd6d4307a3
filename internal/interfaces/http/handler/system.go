package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	backends  []string
}

// NewSystemHandler creates a new SystemHandler. The backend names show
// up in the info reply so an operator can see what is wired.
func NewSystemHandler(backends []string) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		backends:  backends,
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/ping", h.Ping)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	GoVersion string   `json:"go_version"`
	Uptime    string   `json:"uptime"`
	Backends  []string `json:"backends"`
}

// GetSystemInfo returns basic system information including the
// registered backends and uptime.
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "Procurement Gateway API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Backends:  h.backends,
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping checks that the API is responsive
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
