package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/pkg/models"
)

const maxLimit = 100

type RecommendationHandler struct {
	orchestrator *services.RecommendationOrchestrator
	logger       *logrus.Logger
}

func NewRecommendationHandler(orchestrator *services.RecommendationOrchestrator, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{orchestrator: orchestrator, logger: logger}
}

// Get serves the strategy-selecting endpoint. All request shaping lives in
// query parameters; the orchestrator picks the algorithm.
func (h *RecommendationHandler) Get(c *gin.Context) {
	reqCtx := models.RecommendationContext{
		UserID:         c.Query("user_id"),
		SessionID:      c.Query("session_id"),
		CurrentProduct: c.Query("current_product"),
		Category:       c.Query("category"),
		Limit:          parseLimit(c.Query("limit")),
		ExcludeIDs:     splitParam(c.Query("exclude")),
	}
	if reqCtx.SessionID == "" {
		reqCtx.SessionID = uuid.NewString()
	}

	if filters := parseFilters(c); filters != nil {
		reqCtx.Filters = filters
	}

	if items := splitParam(c.Query("cart_items")); len(items) > 0 {
		reqCtx.CartItems = items
	}

	result := h.orchestrator.Recommendations(c.Request.Context(), reqCtx)
	c.JSON(http.StatusOK, result)
}

// Similar serves content-similar products for one seed product.
func (h *RecommendationHandler) Similar(c *gin.Context) {
	recs := h.orchestrator.SimilarProducts(c.Request.Context(), c.Param("id"), parseLimit(c.Query("limit")))
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

// Complementary serves frequently-bought-together products for one seed.
func (h *RecommendationHandler) Complementary(c *gin.Context) {
	recs := h.orchestrator.Complementary(c.Request.Context(), c.Param("id"), parseLimit(c.Query("limit")))
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

// Trending serves the catalog-wide trending list.
func (h *RecommendationHandler) Trending(c *gin.Context) {
	recs := h.orchestrator.Trending(c.Request.Context(), parseLimit(c.Query("limit")))
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

// ByCategory serves popular products within one category.
func (h *RecommendationHandler) ByCategory(c *gin.Context) {
	recs := h.orchestrator.ByCategory(c.Request.Context(), c.Param("category"), parseLimit(c.Query("limit")))
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

// Collaborative serves neighbor-based recommendations for one user.
func (h *RecommendationHandler) Collaborative(c *gin.Context) {
	recs := h.orchestrator.Collaborative(c.Request.Context(), c.Param("userId"), parseLimit(c.Query("limit")))
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseFilters(c *gin.Context) *models.RecommendationFilters {
	filters := &models.RecommendationFilters{
		Categories: splitParam(c.Query("categories")),
		Brands:     splitParam(c.Query("brands")),
	}
	hasAny := len(filters.Categories) > 0 || len(filters.Brands) > 0

	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MinPrice = &v
			hasAny = true
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MaxPrice = &v
			hasAny = true
		}
	}

	if !hasAny {
		return nil
	}
	return filters
}
