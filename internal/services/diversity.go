package services

import (
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/pkg/models"
)

// DiversityReranker deflates the scores of candidates whose category or brand
// was already selected higher up the list. Diversity lowers rank, never
// presence: nothing is rejected, a near-duplicate just sinks.
type DiversityReranker struct {
	config *config.EngineConfig
	logger *logrus.Logger
}

func NewDiversityReranker(cfg *config.EngineConfig, logger *logrus.Logger) *DiversityReranker {
	return &DiversityReranker{config: cfg, logger: logger}
}

// Rerank walks the candidates in descending score order, multiplying each by
// (1 - catPenalty - brandPenalty) where each penalty is the diversity factor
// when that category/brand has already been seen, then re-sorts by the
// deflated scores. The whole candidate window is processed so that
// distinct-category items below the raw-score cut can overtake deflated
// duplicates; the orchestrator slices to the requested limit afterwards.
func (d *DiversityReranker) Rerank(recs []models.Recommendation, limit int) []models.Recommendation {
	if len(recs) <= limit || len(recs) < 2 {
		return recs
	}

	out := make([]models.Recommendation, len(recs))
	copy(out, recs)
	sortByScore(out)

	factor := d.config.Diversity.Factor
	seenCategory := make(map[string]bool)
	seenBrand := make(map[string]bool)

	for i := range out {
		p := out[i].Product
		if p == nil {
			continue
		}

		penalty := 0.0
		if p.Category != "" && seenCategory[p.Category] {
			penalty += factor
		}
		if p.Brand != "" && seenBrand[p.Brand] {
			penalty += factor
		}

		if penalty > 0 {
			multiplier := 1 - penalty
			if multiplier < 0 {
				multiplier = 0
			}
			out[i].Score *= multiplier
		}

		if p.Category != "" {
			seenCategory[p.Category] = true
		}
		if p.Brand != "" {
			seenBrand[p.Brand] = true
		}
	}

	sortByScore(out)
	return out
}
