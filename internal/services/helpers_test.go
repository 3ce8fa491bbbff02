package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/internal/ml"
	"github.com/marchware/souk/pkg/models"
)

const testDims = 32

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testEngineConfig() *config.EngineConfig {
	cfg := config.DefaultEngine()
	return &cfg
}

// testEngine wires the full in-memory pipeline with the deterministic hashing
// embedder so tests get reproducible vectors.
type testEngine struct {
	catalog       *CatalogService
	behavior      *BehaviorService
	contentBased  *ContentBasedService
	collaborative *CollaborativeService
	popularity    *PopularityService
	diversity     *DiversityReranker
	explanation   *ExplanationService
	orchestrator  *RecommendationOrchestrator
	config        *config.EngineConfig
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	logger := testLogger()
	cfg := testEngineConfig()
	embedder := ml.NewHashingEmbedder(testDims)

	catalog := NewCatalogService(embedder, logger)
	behavior := NewBehaviorService(catalog, embedder, cfg, logger)
	contentBased := NewContentBasedService(catalog, behavior, cfg, logger)
	collaborative := NewCollaborativeService(catalog, behavior, cfg, logger)
	popularity := NewPopularityService(catalog, behavior, cfg, logger, nil)
	diversity := NewDiversityReranker(cfg, logger)
	explanation := NewExplanationService(behavior, logger)

	orchestrator := NewRecommendationOrchestrator(
		contentBased, collaborative, popularity, diversity, explanation,
		behavior, nil, nil, cfg, logger,
	)

	return &testEngine{
		catalog:       catalog,
		behavior:      behavior,
		contentBased:  contentBased,
		collaborative: collaborative,
		popularity:    popularity,
		diversity:     diversity,
		explanation:   explanation,
		orchestrator:  orchestrator,
		config:        cfg,
	}
}

func (e *testEngine) index(t *testing.T, products ...models.Product) {
	t.Helper()
	require.NoError(t, e.catalog.IndexProducts(context.Background(), products))
}

func (e *testEngine) interact(t *testing.T, userID, productID, interactionType string) {
	t.Helper()
	require.NoError(t, e.behavior.RecordInteraction(context.Background(), userID, productID, interactionType, nil))
}

func product(id, category, brand string, price float64) models.Product {
	return models.Product{
		ID:          id,
		Name:        "Product " + id,
		Description: "Description for " + id,
		Category:    category,
		Brand:       brand,
		Price:       price,
		Popularity:  50,
		Rating:      4.0,
		ReviewCount: 25,
	}
}

func embeddedProduct(id, category, brand string, embedding []float64) models.Product {
	p := product(id, category, brand, 19.99)
	p.Embedding = embedding
	return p
}

// axis returns a one-hot vector along the given dimension.
func axis(dim int) []float64 {
	v := make([]float64, testDims)
	v[dim] = 1
	return v
}

// blend returns a normalized mix of two axes.
func blend(a, b int, wa, wb float64) []float64 {
	v := make([]float64, testDims)
	v[a] = wa
	v[b] = wb
	return ml.L2Normalize(v)
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}
