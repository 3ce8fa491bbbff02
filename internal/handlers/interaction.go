package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/internal/validation"
	"github.com/marchware/souk/pkg/models"
)

type InteractionHandler struct {
	behavior  *services.BehaviorService
	metrics   *services.MetricsCollector
	schemas   *validation.SchemaValidator
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewInteractionHandler(
	behavior *services.BehaviorService,
	metrics *services.MetricsCollector,
	schemas *validation.SchemaValidator,
	logger *logrus.Logger,
) *InteractionHandler {
	return &InteractionHandler{
		behavior:  behavior,
		metrics:   metrics,
		schemas:   schemas,
		validator: validator.New(),
		logger:    logger,
	}
}

// Record ingests one user interaction event.
func (h *InteractionHandler) Record(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Failed to read request body",
			},
		})
		return
	}

	if result := h.schemas.ValidateInteraction(body); !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "SCHEMA_VALIDATION_FAILED",
				"message": "Interaction failed schema validation",
				"details": result.Errors,
			},
		})
		return
	}

	var req models.InteractionRequest
	if err := bindJSON(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Invalid request format",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Request validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.behavior.RecordInteraction(c.Request.Context(), req.UserID, req.ProductID, req.Type, req.Metadata); err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "VALIDATION_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to record interaction")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERACTION_FAILED",
				"message": "Failed to record interaction",
			},
		})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordInteraction(req.Type)
		h.metrics.SetProfileCount(h.behavior.ProfileCount())
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Interaction recorded"})
}

// Search records a search query against the user's profile.
func (h *InteractionHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Invalid request format",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Request validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.behavior.RecordSearch(c.Request.Context(), req.UserID, req.Query); err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "VALIDATION_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to record search")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": "Failed to record search",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Search recorded"})
}

func bindJSON(body []byte, out any) error {
	return json.Unmarshal(body, out)
}
