package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/pkg/models"
)

const defaultLimit = 10

// RecommendationOrchestrator selects a strategy from the request context,
// over-fetches candidates, re-ranks for diversity, applies filters and trims
// to the requested size. It is the single entry point read paths go through.
type RecommendationOrchestrator struct {
	content       *ContentBasedService
	collaborative *CollaborativeService
	popularity    *PopularityService
	diversity     *DiversityReranker
	explanation   *ExplanationService
	behavior      *BehaviorService
	metrics       *MetricsCollector
	redis         *redis.Client
	config        *config.EngineConfig
	logger        *logrus.Logger
}

func NewRecommendationOrchestrator(
	content *ContentBasedService,
	collaborative *CollaborativeService,
	popularity *PopularityService,
	diversity *DiversityReranker,
	explanation *ExplanationService,
	behavior *BehaviorService,
	metrics *MetricsCollector,
	redisClient *redis.Client,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
) *RecommendationOrchestrator {
	return &RecommendationOrchestrator{
		content:       content,
		collaborative: collaborative,
		popularity:    popularity,
		diversity:     diversity,
		explanation:   explanation,
		behavior:      behavior,
		metrics:       metrics,
		redis:         redisClient,
		config:        cfg,
		logger:        logger,
	}
}

// Recommendations serves a recommendation request. Strategy priority:
// a current product wins over a known user, a known user over a category
// browse, and trending is the anonymous fallback. Unknown IDs degrade to
// empty results rather than errors.
func (o *RecommendationOrchestrator) Recommendations(ctx context.Context, reqCtx models.RecommendationContext) (result *models.RecommendationResult) {
	start := time.Now()

	if reqCtx.Limit <= 0 {
		reqCtx.Limit = defaultLimit
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"panic":   r,
				"user_id": reqCtx.UserID,
			}).Error("Recovered from panic while serving recommendations")
			result = o.emptyResult(reqCtx, models.AlgorithmFallback, start)
		}
		if o.metrics != nil && result != nil {
			o.metrics.RecordRequest(result.Algorithm, len(result.Recommendations), time.Since(start))
		}
	}()

	if cached := o.cachedResult(ctx, reqCtx); cached != nil {
		cached.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
		return cached
	}

	fetch := reqCtx.Limit * 2
	var recs []models.Recommendation
	algorithm := models.AlgorithmTrending

	switch {
	case reqCtx.CurrentProduct != "":
		recs = o.content.SimilarProducts(ctx, reqCtx.CurrentProduct, fetch, reqCtx.ExcludeIDs)
		algorithm = models.AlgorithmSimilar

	case reqCtx.UserID != "":
		recs = o.personalized(ctx, reqCtx.UserID, fetch)
		if reqCtx.Category != "" {
			recs = filterByCategory(recs, reqCtx.Category)
		}
		algorithm = models.AlgorithmHybrid

	case reqCtx.Category != "":
		recs = o.popularity.ByCategory(ctx, reqCtx.Category, fetch)
		algorithm = models.AlgorithmContent

	default:
		recs = o.popularity.Trending(ctx, fetch)
	}

	recs = o.diversity.Rerank(recs, reqCtx.Limit)
	recs = applyFilters(recs, reqCtx)
	recs = top(recs, reqCtx.Limit)
	recs = o.explanation.Enrich(ctx, reqCtx.UserID, recs)

	result = &models.RecommendationResult{
		Recommendations:  recs,
		UserID:           reqCtx.UserID,
		SessionID:        reqCtx.SessionID,
		Algorithm:        algorithm,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}

	o.cacheResult(ctx, reqCtx, result)
	return result
}

// SimilarProducts serves the similar-products strategy directly.
func (o *RecommendationOrchestrator) SimilarProducts(ctx context.Context, productID string, limit int) []models.Recommendation {
	if limit <= 0 {
		limit = defaultLimit
	}
	return o.content.SimilarProducts(ctx, productID, limit, nil)
}

// Trending serves the trending strategy directly.
func (o *RecommendationOrchestrator) Trending(ctx context.Context, limit int) []models.Recommendation {
	if limit <= 0 {
		limit = defaultLimit
	}
	return o.popularity.Trending(ctx, limit)
}

// ByCategory serves the category strategy directly.
func (o *RecommendationOrchestrator) ByCategory(ctx context.Context, category string, limit int) []models.Recommendation {
	if limit <= 0 {
		limit = defaultLimit
	}
	return o.popularity.ByCategory(ctx, category, limit)
}

// Complementary serves the frequently-bought-together strategy directly.
func (o *RecommendationOrchestrator) Complementary(ctx context.Context, productID string, limit int) []models.Recommendation {
	if limit <= 0 {
		limit = defaultLimit
	}
	return o.popularity.Complementary(ctx, productID, limit)
}

// Collaborative serves the collaborative-filtering strategy directly.
func (o *RecommendationOrchestrator) Collaborative(ctx context.Context, userID string, limit int) []models.Recommendation {
	if limit <= 0 {
		limit = defaultLimit
	}
	return o.collaborative.Recommendations(ctx, userID, limit)
}

// personalized merges content-based and collaborative candidates by product.
// Products surfaced by both sources get the average of the two scores and the
// hybrid label; single-source products keep their originating score. The
// content leg is fetched uncut so a product ranked below the content window
// still gets the averaged score when collaborative filtering surfaces it.
func (o *RecommendationOrchestrator) personalized(ctx context.Context, userID string, limit int) []models.Recommendation {
	contentRecs := o.content.RecommendationsForUser(ctx, userID, 0)
	collabRecs := o.collaborative.Recommendations(ctx, userID, limit)

	merged := make(map[string]models.Recommendation, len(contentRecs)+len(collabRecs))
	for _, rec := range contentRecs {
		merged[rec.ProductID] = rec
	}
	for _, rec := range collabRecs {
		existing, ok := merged[rec.ProductID]
		if !ok {
			merged[rec.ProductID] = rec
			continue
		}
		existing.Score = (existing.Score + rec.Score) / 2
		existing.Confidence = (existing.Confidence + rec.Confidence) / 2
		existing.Algorithm = models.AlgorithmHybrid
		existing.Reason = "Recommended based on your activity and similar users"
		merged[rec.ProductID] = existing
	}

	recs := make([]models.Recommendation, 0, len(merged))
	for _, rec := range merged {
		recs = append(recs, rec)
	}
	sortByScore(recs)
	return top(recs, limit)
}

func applyFilters(recs []models.Recommendation, reqCtx models.RecommendationContext) []models.Recommendation {
	exclude := toSet(reqCtx.ExcludeIDs)
	filters := reqCtx.Filters

	var categories, brands map[string]bool
	if filters != nil {
		categories = lowerSet(filters.Categories)
		brands = lowerSet(filters.Brands)
	}

	filtered := recs[:0]
	for _, rec := range recs {
		if exclude[rec.ProductID] {
			continue
		}
		if p := rec.Product; p != nil && filters != nil {
			if filters.MinPrice != nil && p.Price < *filters.MinPrice {
				continue
			}
			if filters.MaxPrice != nil && p.Price > *filters.MaxPrice {
				continue
			}
			if len(categories) > 0 && !categories[strings.ToLower(p.Category)] {
				continue
			}
			if len(brands) > 0 && !brands[strings.ToLower(p.Brand)] {
				continue
			}
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// filterByCategory keeps only recommendations whose product sits in the
// requested category. Applied after the hybrid merge when a known user
// browses within a category.
func filterByCategory(recs []models.Recommendation, category string) []models.Recommendation {
	want := strings.ToLower(category)
	filtered := recs[:0]
	for _, rec := range recs {
		if rec.Product != nil && strings.ToLower(rec.Product.Category) == want {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func lowerSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func (o *RecommendationOrchestrator) emptyResult(reqCtx models.RecommendationContext, algorithm string, start time.Time) *models.RecommendationResult {
	return &models.RecommendationResult{
		Recommendations:  []models.Recommendation{},
		UserID:           reqCtx.UserID,
		SessionID:        reqCtx.SessionID,
		Algorithm:        algorithm,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}
}

func (o *RecommendationOrchestrator) cacheKey(reqCtx models.RecommendationContext) string {
	payload, _ := json.Marshal(reqCtx)
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("recs:result:%x", sum[:12])
}

func (o *RecommendationOrchestrator) cachedResult(ctx context.Context, reqCtx models.RecommendationContext) *models.RecommendationResult {
	if o.redis == nil {
		return nil
	}

	data, err := o.redis.Get(ctx, o.cacheKey(reqCtx)).Result()
	if err != nil {
		return nil
	}

	var result models.RecommendationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	o.logger.WithField("user_id", reqCtx.UserID).Debug("Recommendation cache hit")
	return &result
}

func (o *RecommendationOrchestrator) cacheResult(ctx context.Context, reqCtx models.RecommendationContext, result *models.RecommendationResult) {
	if o.redis == nil || len(result.Recommendations) == 0 {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := o.redis.Set(ctx, o.cacheKey(reqCtx), data, o.config.Caching.RecommendationsTTL).Err(); err != nil {
		o.logger.WithError(err).Warn("Failed to cache recommendation result")
	}
}
