package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
)

type HealthHandler struct {
	health *services.HealthService
	logger *logrus.Logger
}

func NewHealthHandler(health *services.HealthService, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{health: health, logger: logger}
}

func (h *HealthHandler) Check(c *gin.Context) {
	// A failing optional store degrades the report but the engine itself
	// keeps serving, so the endpoint stays 200.
	c.JSON(http.StatusOK, h.health.CheckHealth(c.Request.Context()))
}

// Ready reports readiness for load balancers; the in-memory engine is ready
// as soon as the process serves traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
