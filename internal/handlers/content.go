package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/internal/validation"
	"github.com/marchware/souk/pkg/models"
)

type ContentHandler struct {
	catalog   *services.CatalogService
	metrics   *services.MetricsCollector
	schemas   *validation.SchemaValidator
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewContentHandler(
	catalog *services.CatalogService,
	metrics *services.MetricsCollector,
	schemas *validation.SchemaValidator,
	logger *logrus.Logger,
) *ContentHandler {
	return &ContentHandler{
		catalog:   catalog,
		metrics:   metrics,
		schemas:   schemas,
		validator: validator.New(),
		logger:    logger,
	}
}

// IndexBatch ingests a batch of products. Each document is schema-checked
// individually so one bad product reports its own field errors.
func (h *ContentHandler) IndexBatch(c *gin.Context) {
	var raw struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.logger.WithError(err).Warn("Invalid JSON in product batch")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Invalid JSON format",
				"details": err.Error(),
			},
		})
		return
	}

	if len(raw.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "EMPTY_BATCH",
				"message": "Product batch cannot be empty",
			},
		})
		return
	}

	for i, doc := range raw.Products {
		if result := h.schemas.ValidateProduct(doc); !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "SCHEMA_VALIDATION_FAILED",
					"message": "Product failed schema validation",
					"index":   i,
					"details": result.Errors,
				},
			})
			return
		}
	}

	var request models.ProductBatchRequest
	if err := json.Unmarshal(mustMarshalBatch(raw.Products), &request.Products); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_JSON",
				"message": "Invalid product document",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Product validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.catalog.IndexProducts(c.Request.Context(), request.Products); err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "VALIDATION_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to index products")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INDEXING_FAILED",
				"message": "Failed to index products",
			},
		})
		return
	}

	if h.metrics != nil {
		h.metrics.SetProductCount(h.catalog.Count())
	}

	c.JSON(http.StatusCreated, models.ProductBatchResponse{Indexed: len(request.Products)})
}

// Get returns one indexed product.
func (h *ContentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	product, ok := h.catalog.Product(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func mustMarshalBatch(docs []json.RawMessage) []byte {
	data, _ := json.Marshal(docs)
	return data
}
