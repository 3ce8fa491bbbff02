package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/pkg/models"
)

type UserHandler struct {
	behavior *services.BehaviorService
	logger   *logrus.Logger
}

func NewUserHandler(behavior *services.BehaviorService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{behavior: behavior, logger: logger}
}

// GetProfile returns the tracked profile for one user.
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, ok := h.behavior.Profile(c.Param("userId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "No profile tracked for user",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// UpdateProfile replaces a user's profile wholesale and recomputes the
// derived embedding and matrix row.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Invalid profile format",
				"details": err.Error(),
			},
		})
		return
	}
	profile.ID = c.Param("userId")

	if err := h.behavior.UpdateUserProfile(c.Request.Context(), profile); err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "VALIDATION_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update user profile")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "PROFILE_UPDATE_FAILED",
				"message": "Failed to update profile",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// DeleteProfile removes a user's history, embedding and matrix row.
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	h.behavior.DeleteUserProfile(c.Param("userId"))
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted"})
}
