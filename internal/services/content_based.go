package services

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/internal/ml"
	"github.com/marchware/souk/pkg/models"
)

// ContentBasedService scores catalog products by embedding similarity, either
// against a seed product or against a user's profile embedding.
type ContentBasedService struct {
	catalog  *CatalogService
	behavior *BehaviorService
	config   *config.EngineConfig
	logger   *logrus.Logger
}

func NewContentBasedService(
	catalog *CatalogService,
	behavior *BehaviorService,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
) *ContentBasedService {
	return &ContentBasedService{
		catalog:  catalog,
		behavior: behavior,
		config:   cfg,
		logger:   logger,
	}
}

// SimilarProducts ranks every other indexed product by cosine similarity to the
// seed. Unknown seeds and seeds without an embedding yield an empty list, not
// an error. The seed itself never appears in the output.
func (s *ContentBasedService) SimilarProducts(ctx context.Context, productID string, limit int, excludeIDs []string) []models.Recommendation {
	seed, ok := s.catalog.Product(productID)
	if !ok || len(seed.Embedding) == 0 {
		s.logger.WithField("product_id", productID).Debug("No embedding for seed product")
		return nil
	}

	excluded := toSet(excludeIDs)
	excluded[productID] = true

	var recs []models.Recommendation
	for _, candidate := range s.catalog.Products() {
		if ctx.Err() != nil {
			return nil
		}
		if excluded[candidate.ID] || len(candidate.Embedding) == 0 {
			continue
		}

		sim := ml.CosineSimilarity(seed.Embedding, candidate.Embedding)
		if sim < s.config.MinSimilarity {
			continue
		}

		recs = append(recs, models.Recommendation{
			ProductID:  candidate.ID,
			Product:    candidate,
			Score:      sim,
			Confidence: clamp01(sim * 1.2),
			Algorithm:  models.AlgorithmSimilar,
			Reason:     similarityReason(seed, candidate),
		})
	}

	sortByScore(recs)
	return top(recs, limit)
}

// RecommendationsForUser scans the catalog against the user's profile
// embedding, skipping anything the user has already interacted with. A limit
// of 0 returns every candidate above the similarity floor (the hybrid merge
// wants the full set).
func (s *ContentBasedService) RecommendationsForUser(ctx context.Context, userID string, limit int) []models.Recommendation {
	embedding := s.behavior.UserEmbedding(userID)
	if len(embedding) == 0 {
		return nil
	}

	interacted := s.behavior.MatrixRow(userID)

	var recs []models.Recommendation
	for _, candidate := range s.catalog.Products() {
		if ctx.Err() != nil {
			return nil
		}
		if _, seen := interacted[candidate.ID]; seen {
			continue
		}
		if len(candidate.Embedding) == 0 {
			continue
		}

		sim := ml.CosineSimilarity(embedding, candidate.Embedding)
		if sim < s.config.MinSimilarity {
			continue
		}

		recs = append(recs, models.Recommendation{
			ProductID:  candidate.ID,
			Product:    candidate,
			Score:      sim,
			Confidence: clamp01(sim * 1.2),
			Algorithm:  models.AlgorithmContent,
			Reason:     "Based on your browsing and purchase history",
		})
	}

	sortByScore(recs)
	return top(recs, limit)
}

// similarityReason explains the match in order of specificity: shared category
// and brand, shared category, shared brand, then a generic fallback.
func similarityReason(seed, candidate *models.Product) string {
	sameCategory := seed.Category != "" && seed.Category == candidate.Category
	sameBrand := seed.Brand != "" && seed.Brand == candidate.Brand

	switch {
	case sameCategory && sameBrand:
		return "More " + candidate.Brand + " in " + candidate.Category
	case sameCategory:
		return "More from " + candidate.Category
	case sameBrand:
		return "More from " + candidate.Brand
	default:
		return "You might also like"
	}
}

func sortByScore(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
}

func top(recs []models.Recommendation, limit int) []models.Recommendation {
	if limit > 0 && len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
