package services

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/pkg/models"
)

// CollaborativeService recommends products from the behavior of similar users.
// User similarity is cosine over the sparse interaction matrix rows; candidate
// scores are similarity-weighted sums over the nearest neighbors.
type CollaborativeService struct {
	catalog  *CatalogService
	behavior *BehaviorService
	config   *config.EngineConfig
	logger   *logrus.Logger
}

func NewCollaborativeService(
	catalog *CatalogService,
	behavior *BehaviorService,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
) *CollaborativeService {
	return &CollaborativeService{
		catalog:  catalog,
		behavior: behavior,
		config:   cfg,
		logger:   logger,
	}
}

type neighbor struct {
	userID     string
	similarity float64
	row        map[string]float64
}

// Recommendations returns products the user's nearest neighbors interacted
// with that the user has not. Unknown users degrade to an empty list.
func (s *CollaborativeService) Recommendations(ctx context.Context, userID string, limit int) []models.Recommendation {
	matrix := s.behavior.MatrixSnapshot()
	target, ok := matrix[userID]
	if !ok || len(target) == 0 {
		return nil
	}

	neighbors := make([]neighbor, 0, len(matrix))
	for otherID, row := range matrix {
		if otherID == userID {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if sim := sparseCosine(target, row); sim > 0 {
			neighbors = append(neighbors, neighbor{userID: otherID, similarity: sim, row: row})
		}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].similarity > neighbors[j].similarity
	})
	if len(neighbors) > s.config.Collaborative.NeighborCount {
		neighbors = neighbors[:s.config.Collaborative.NeighborCount]
	}

	accumulated := make(map[string]float64)
	for _, n := range neighbors {
		for productID, score := range n.row {
			if _, interacted := target[productID]; interacted {
				continue
			}
			accumulated[productID] += score * n.similarity
		}
	}

	recs := make([]models.Recommendation, 0, len(accumulated))
	for productID, acc := range accumulated {
		product, ok := s.catalog.Product(productID)
		if !ok {
			continue
		}
		recs = append(recs, models.Recommendation{
			ProductID:  productID,
			Product:    product,
			Score:      clamp01(acc),
			Confidence: clamp01(acc * 0.8),
			Algorithm:  models.AlgorithmCollaborative,
			Reason:     "Users with similar shopping habits also chose this",
		})
	}

	sortByScore(recs)
	return top(recs, limit)
}

// sparseCosine is cosine similarity restricted to the union of rated products:
// dot over the shared keys, divided by the product of the full L2 norms.
func sparseCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var dot float64
	for key, v := range small {
		if w, ok := large[key]; ok {
			dot += v * w
		}
	}
	if dot == 0 {
		return 0
	}

	return dot / (sparseNorm(a) * sparseNorm(b))
}

func sparseNorm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
