package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/pkg/models"
)

// PopularityService covers the catalog-statistics strategies: trending,
// per-category with an exploration term, and co-purchase complementaries.
// The random source is injected so the exploration contribution can be pinned
// in tests.
type PopularityService struct {
	catalog  *CatalogService
	behavior *BehaviorService
	config   *config.EngineConfig
	logger   *logrus.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	titler cases.Caser
}

func NewPopularityService(
	catalog *CatalogService,
	behavior *BehaviorService,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
	rng *rand.Rand,
) *PopularityService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PopularityService{
		catalog:  catalog,
		behavior: behavior,
		config:   cfg,
		logger:   logger,
		rng:      rng,
		titler:   cases.Title(language.English),
	}
}

// Trending ranks the catalog deterministically:
// 0.6*(popularity/100) + 0.4*(rating/5)*min(reviewCount,100)/100.
func (s *PopularityService) Trending(ctx context.Context, limit int) []models.Recommendation {
	var recs []models.Recommendation
	for _, p := range s.catalog.Products() {
		if ctx.Err() != nil {
			return nil
		}

		reviews := float64(p.ReviewCount)
		if reviews > 100 {
			reviews = 100
		}
		score := s.config.Trending.PopularityWeight*(p.Popularity/100) +
			s.config.Trending.RatingWeight*(p.Rating/5)*(reviews/100)

		recs = append(recs, models.Recommendation{
			ProductID:  p.ID,
			Product:    p,
			Score:      score,
			Confidence: clamp01(score * 1.2),
			Algorithm:  models.AlgorithmTrending,
			Reason:     "Trending now",
		})
	}

	sortByScore(recs)
	return top(recs, limit)
}

// ByCategory ranks products of one category by popularity and rating plus a
// uniform exploration term.
func (s *PopularityService) ByCategory(ctx context.Context, category string, limit int) []models.Recommendation {
	if category == "" {
		return nil
	}

	var recs []models.Recommendation
	for _, p := range s.catalog.Products() {
		if ctx.Err() != nil {
			return nil
		}
		if p.Category != category {
			continue
		}

		score := s.config.Category.PopularityWeight*(p.Popularity/100) +
			s.config.Category.RatingWeight*(p.Rating/5) +
			s.config.Category.ExplorationWeight*s.random()

		recs = append(recs, models.Recommendation{
			ProductID:  p.ID,
			Product:    p,
			Score:      score,
			Confidence: clamp01(score),
			Algorithm:  models.AlgorithmContent,
			Reason:     "Popular in " + s.titler.String(category),
		})
	}

	sortByScore(recs)
	return top(recs, limit)
}

// Complementary counts, across every user's purchase history, how often other
// products were bought by someone who also bought the seed, normalized by the
// largest observed count.
func (s *PopularityService) Complementary(ctx context.Context, productID string, limit int) []models.Recommendation {
	if productID == "" {
		return nil
	}

	counts := make(map[string]int)
	for _, profile := range s.behavior.Profiles() {
		if ctx.Err() != nil {
			return nil
		}

		purchased := make(map[string]bool, len(profile.History.Purchased))
		for i := range profile.History.Purchased {
			purchased[profile.History.Purchased[i].ProductID] = true
		}
		if !purchased[productID] {
			continue
		}
		for other := range purchased {
			if other != productID {
				counts[other]++
			}
		}
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return nil
	}

	recs := make([]models.Recommendation, 0, len(counts))
	for id, count := range counts {
		product, ok := s.catalog.Product(id)
		if !ok {
			continue
		}
		score := float64(count) / float64(maxCount)
		recs = append(recs, models.Recommendation{
			ProductID:  id,
			Product:    product,
			Score:      score,
			Confidence: clamp01(score + 0.1),
			Algorithm:  models.AlgorithmComplementary,
			Reason:     "Frequently bought together",
		})
	}

	sortByScore(recs)
	return top(recs, limit)
}

func (s *PopularityService) random() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}
