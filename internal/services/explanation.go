package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/pkg/models"
)

// ExplanationService attaches structured explanation factors to a finished
// recommendation list. Factors are derived from the producing algorithm, the
// product's catalog statistics and the user's purchase history.
type ExplanationService struct {
	behavior *BehaviorService
	logger   *logrus.Logger
}

func NewExplanationService(behavior *BehaviorService, logger *logrus.Logger) *ExplanationService {
	return &ExplanationService{behavior: behavior, logger: logger}
}

// Enrich fills in ExplanationFactors, and a Reason where one is missing, for
// each recommendation. userID may be empty for anonymous strategies.
func (es *ExplanationService) Enrich(ctx context.Context, userID string, recs []models.Recommendation) []models.Recommendation {
	categoryShare := es.purchasedCategoryShare(userID)

	for i := range recs {
		if ctx.Err() != nil {
			return recs
		}
		recs[i].ExplanationFactors = es.factors(&recs[i], categoryShare)
		if recs[i].Reason == "" {
			recs[i].Reason = "Recommended for you"
		}
	}
	return recs
}

func (es *ExplanationService) factors(rec *models.Recommendation, categoryShare map[string]float64) []models.ExplanationFactor {
	var factors []models.ExplanationFactor

	switch rec.Algorithm {
	case models.AlgorithmSimilar:
		factors = append(factors, models.ExplanationFactor{
			Factor:      "embedding_similarity",
			Weight:      rec.Score,
			Description: "Closely matches the product you are looking at",
		})

	case models.AlgorithmContent:
		factors = append(factors, models.ExplanationFactor{
			Factor:      "profile_similarity",
			Weight:      rec.Score,
			Description: "Matches your taste profile",
		})

	case models.AlgorithmCollaborative:
		factors = append(factors, models.ExplanationFactor{
			Factor:      "similar_users",
			Weight:      rec.Score,
			Description: "Chosen by shoppers with similar history",
		})

	case models.AlgorithmHybrid:
		factors = append(factors,
			models.ExplanationFactor{
				Factor:      "profile_similarity",
				Weight:      rec.Score * 0.5,
				Description: "Matches your taste profile",
			},
			models.ExplanationFactor{
				Factor:      "similar_users",
				Weight:      rec.Score * 0.5,
				Description: "Chosen by shoppers with similar history",
			})

	case models.AlgorithmComplementary:
		factors = append(factors, models.ExplanationFactor{
			Factor:      "co_purchase",
			Weight:      rec.Score,
			Description: "Frequently purchased together",
		})
	}

	if p := rec.Product; p != nil {
		if rec.Algorithm == models.AlgorithmTrending {
			factors = append(factors, models.ExplanationFactor{
				Factor:      "popularity",
				Weight:      p.Popularity / 100,
				Description: "High recent popularity",
			})
			if p.ReviewCount > 0 {
				factors = append(factors, models.ExplanationFactor{
					Factor:      "rating",
					Weight:      p.Rating / 5,
					Description: fmt.Sprintf("Rated %.1f/5 across %d reviews", p.Rating, p.ReviewCount),
				})
			}
		}

		if share, ok := categoryShare[p.Category]; ok && share > 0 {
			factors = append(factors, models.ExplanationFactor{
				Factor:      "category_affinity",
				Weight:      share,
				Description: fmt.Sprintf("You often buy %s", p.Category),
			})
		}
	}

	return factors
}

// purchasedCategoryShare maps each category to its share of the user's
// purchases.
func (es *ExplanationService) purchasedCategoryShare(userID string) map[string]float64 {
	if userID == "" {
		return nil
	}
	profile, ok := es.behavior.Profile(userID)
	if !ok || len(profile.History.Purchased) == 0 {
		return nil
	}

	counts := make(map[string]int)
	total := 0
	for i := range profile.History.Purchased {
		product, ok := es.behavior.catalog.Product(profile.History.Purchased[i].ProductID)
		if !ok {
			continue
		}
		counts[product.Category]++
		total++
	}
	if total == 0 {
		return nil
	}

	share := make(map[string]float64, len(counts))
	for category, count := range counts {
		share[category] = float64(count) / float64(total)
	}
	return share
}
