package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchware/souk/pkg/models"
)

func TestRecommendationOrchestrator_StrategySelection(t *testing.T) {
	ctx := context.Background()

	t.Run("current product wins over user id", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			embeddedProduct("seed", "audio", "Sonix", axis(1)),
			embeddedProduct("near", "audio", "Sonix", blend(1, 2, 0.9, 0.1)),
		)
		engine.interact(t, "u1", "seed", models.InteractionPurchase)

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			UserID:         "u1",
			CurrentProduct: "seed",
			Limit:          5,
		})

		assert.Equal(t, models.AlgorithmSimilar, result.Algorithm)
		require.NotEmpty(t, result.Recommendations)
		assert.Equal(t, "near", result.Recommendations[0].ProductID)
	})

	t.Run("known user gets the hybrid strategy", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			embeddedProduct("seed", "audio", "Sonix", axis(1)),
			embeddedProduct("both", "audio", "Sonix", blend(1, 2, 0.9, 0.1)),
			embeddedProduct("contentOnly", "video", "Vix", blend(1, 3, 0.9, 0.1)),
		)

		engine.interact(t, "u1", "seed", models.InteractionPurchase)
		engine.interact(t, "u2", "seed", models.InteractionPurchase)
		engine.interact(t, "u2", "both", models.InteractionPurchase)

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			UserID: "u1",
			Limit:  5,
		})

		assert.Equal(t, models.AlgorithmHybrid, result.Algorithm)
		require.NotEmpty(t, result.Recommendations)

		byID := make(map[string]models.Recommendation)
		for _, rec := range result.Recommendations {
			byID[rec.ProductID] = rec
		}

		merged, ok := byID["both"]
		require.True(t, ok)
		assert.Equal(t, models.AlgorithmHybrid, merged.Algorithm)
		assert.Equal(t, "Recommended based on your activity and similar users", merged.Reason)

		single, ok := byID["contentOnly"]
		require.True(t, ok)
		assert.Equal(t, models.AlgorithmContent, single.Algorithm)
	})

	t.Run("unknown user yields an empty hybrid result", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t, product("p1", "audio", "Sonix", 10))

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			UserID: "stranger",
			Limit:  5,
		})

		assert.Equal(t, models.AlgorithmHybrid, result.Algorithm)
		assert.Empty(t, result.Recommendations)
	})

	t.Run("category narrows the personalized merge", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			embeddedProduct("seed", "audio", "Sonix", axis(1)),
			embeddedProduct("speaker", "audio", "Sonix", blend(1, 2, 0.9, 0.1)),
			embeddedProduct("camera", "video", "Vix", blend(1, 3, 0.9, 0.1)),
		)
		engine.interact(t, "u1", "seed", models.InteractionPurchase)

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			UserID:   "u1",
			Category: "audio",
			Limit:    5,
		})

		assert.Equal(t, models.AlgorithmHybrid, result.Algorithm)
		require.NotEmpty(t, result.Recommendations)
		for _, rec := range result.Recommendations {
			require.NotNil(t, rec.Product)
			assert.Equal(t, "audio", rec.Product.Category)
		}
	})

	t.Run("collaborative candidates below the content cut still merge", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			embeddedProduct("seed", "audio", "Sonix", axis(1)),
			embeddedProduct("close", "audio", "Sonix", blend(1, 2, 0.9, 0.1)),
			embeddedProduct("middling", "audio", "Sonix", blend(1, 2, 0.25, 0.97)),
			embeddedProduct("distant", "audio", "Sonix", blend(1, 2, 0.15, 0.99)),
		)

		engine.interact(t, "u1", "seed", models.InteractionPurchase)
		for _, neighbor := range []string{"u2", "u3"} {
			engine.interact(t, neighbor, "seed", models.InteractionPurchase)
			engine.interact(t, neighbor, "distant", models.InteractionPurchase)
		}

		// "distant" ranks third on similarity, past a window of two, but both
		// neighbors bought it; the merge must still average the two scores.
		recs := engine.orchestrator.personalized(ctx, "u1", 2)
		require.Len(t, recs, 2)

		byID := make(map[string]models.Recommendation)
		for _, rec := range recs {
			byID[rec.ProductID] = rec
		}

		merged, ok := byID["distant"]
		require.True(t, ok)
		assert.Equal(t, models.AlgorithmHybrid, merged.Algorithm)
		// content 0.150 averaged with collaborative 0.849
		assert.InDelta(t, 0.499, merged.Score, 0.01)
	})

	t.Run("category strategy", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			product("a", "audio", "Sonix", 10),
			product("v", "video", "Vix", 10),
		)

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			Category: "audio",
			Limit:    5,
		})

		require.Len(t, result.Recommendations, 1)
		assert.Equal(t, "a", result.Recommendations[0].ProductID)
	})

	t.Run("anonymous request gets trending", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t, product("p1", "audio", "Sonix", 10))

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{})
		assert.Equal(t, models.AlgorithmTrending, result.Algorithm)
		assert.NotEmpty(t, result.Recommendations)
	})

	t.Run("unknown seed degrades to empty similar result", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t, product("p1", "audio", "Sonix", 10))

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			CurrentProduct: "missing",
		})
		assert.Equal(t, models.AlgorithmSimilar, result.Algorithm)
		assert.Empty(t, result.Recommendations)
	})
}

func TestRecommendationOrchestrator_FiltersAndLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("price and brand filters apply", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			product("cheap", "audio", "Sonix", 5),
			product("mid", "audio", "Sonix", 50),
			product("pricy", "audio", "Vix", 500),
		)

		minPrice, maxPrice := 10.0, 100.0
		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			Limit: 5,
			Filters: &models.RecommendationFilters{
				MinPrice: &minPrice,
				MaxPrice: &maxPrice,
				Brands:   []string{"sonix"},
			},
		})

		require.Len(t, result.Recommendations, 1)
		assert.Equal(t, "mid", result.Recommendations[0].ProductID)
	})

	t.Run("excluded ids are dropped", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t,
			product("keep", "audio", "Sonix", 10),
			product("drop", "video", "Vix", 10),
		)

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			Limit:      5,
			ExcludeIDs: []string{"drop"},
		})

		for _, rec := range result.Recommendations {
			assert.NotEqual(t, "drop", rec.ProductID)
		}
		assert.Len(t, result.Recommendations, 1)
	})

	t.Run("limit defaults to ten", func(t *testing.T) {
		engine := newTestEngine(t)
		for i := 0; i < 15; i++ {
			engine.index(t, product(string(rune('a'+i)), "audio", "Sonix", 10))
		}

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{})
		assert.Len(t, result.Recommendations, 10)
	})

	t.Run("result echoes request identity", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.index(t, product("p1", "audio", "Sonix", 10))

		result := engine.orchestrator.Recommendations(ctx, models.RecommendationContext{
			UserID:    "u1",
			SessionID: "s1",
		})
		assert.Equal(t, "u1", result.UserID)
		assert.Equal(t, "s1", result.SessionID)
		assert.GreaterOrEqual(t, result.ProcessingTimeMs, 0.0)
	})
}

func TestRecommendationOrchestrator_PanicRecovery(t *testing.T) {
	engine := newTestEngine(t)

	// A nil popularity service makes the trending path panic; the
	// orchestrator boundary must turn that into an empty fallback result.
	broken := NewRecommendationOrchestrator(
		engine.contentBased, engine.collaborative, nil, engine.diversity,
		engine.explanation, engine.behavior, nil, nil, engine.config, testLogger(),
	)

	result := broken.Recommendations(context.Background(), models.RecommendationContext{})
	require.NotNil(t, result)
	assert.Equal(t, models.AlgorithmFallback, result.Algorithm)
	assert.Empty(t, result.Recommendations)
}

func TestRecommendationOrchestrator_DirectStrategies(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	engine.index(t,
		embeddedProduct("seed", "audio", "Sonix", axis(1)),
		embeddedProduct("near", "audio", "Sonix", blend(1, 2, 0.9, 0.1)),
	)
	engine.interact(t, "u1", "seed", models.InteractionPurchase)
	engine.interact(t, "u2", "seed", models.InteractionPurchase)
	engine.interact(t, "u2", "near", models.InteractionPurchase)

	t.Run("similar", func(t *testing.T) {
		recs := engine.orchestrator.SimilarProducts(ctx, "seed", 0)
		require.NotEmpty(t, recs)
		assert.Equal(t, "near", recs[0].ProductID)
	})

	t.Run("trending", func(t *testing.T) {
		assert.NotEmpty(t, engine.orchestrator.Trending(ctx, 0))
	})

	t.Run("by category", func(t *testing.T) {
		assert.NotEmpty(t, engine.orchestrator.ByCategory(ctx, "audio", 0))
	})

	t.Run("complementary", func(t *testing.T) {
		recs := engine.orchestrator.Complementary(ctx, "seed", 0)
		require.NotEmpty(t, recs)
		assert.Equal(t, "near", recs[0].ProductID)
	})

	t.Run("collaborative", func(t *testing.T) {
		recs := engine.orchestrator.Collaborative(ctx, "u1", 0)
		require.NotEmpty(t, recs)
		assert.Equal(t, "near", recs[0].ProductID)
	})
}
