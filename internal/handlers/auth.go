package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/pkg/models"
)

type AuthHandler struct {
	auth   *services.AuthService
	logger *logrus.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Token exchanges an API key for a JWT.
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Invalid request format",
			},
		})
		return
	}

	resp, err := h.auth.Authenticate(req)
	if err != nil {
		h.logger.WithError(err).Warn("Authentication failed")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "AUTHENTICATION_FAILED",
				"message": "Invalid API key",
			},
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
