package models

// Algorithm labels attached to recommendations.
const (
	AlgorithmContent       = "content"
	AlgorithmCollaborative = "collaborative"
	AlgorithmHybrid        = "hybrid"
	AlgorithmTrending      = "trending"
	AlgorithmSimilar       = "similar"
	AlgorithmComplementary = "complementary"
	AlgorithmFallback      = "fallback"
)

// ExplanationFactor is one weighted contributor to a recommendation.
type ExplanationFactor struct {
	Factor      string  `json:"factor"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Recommendation is an ephemeral, per-request scoring result. Product is a
// denormalized snapshot of the catalog entry at scoring time.
type Recommendation struct {
	ProductID          string              `json:"product_id"`
	Product            *Product            `json:"product,omitempty"`
	Score              float64             `json:"score"`
	Confidence         float64             `json:"confidence"`
	Algorithm          string              `json:"algorithm"`
	Reason             string              `json:"reason,omitempty"`
	ExplanationFactors []ExplanationFactor `json:"explanation_factors,omitempty"`
}

// RecommendationFilters are hard constraints applied by the orchestrator after
// strategy execution.
type RecommendationFilters struct {
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
}

// RecommendationContext selects and parameterizes a strategy. Strategy priority:
// CurrentProduct, then UserID, then Category, then trending.
type RecommendationContext struct {
	UserID         string                 `json:"user_id,omitempty"`
	SessionID      string                 `json:"session_id,omitempty"`
	CurrentProduct string                 `json:"current_product,omitempty"`
	CartItems      []string               `json:"cart_items,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Filters        *RecommendationFilters `json:"filters,omitempty"`
	Limit          int                    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	ExcludeIDs     []string               `json:"exclude_ids,omitempty"`
}

type RecommendationResult struct {
	Recommendations  []Recommendation `json:"recommendations"`
	UserID           string           `json:"user_id,omitempty"`
	SessionID        string           `json:"session_id,omitempty"`
	Algorithm        string           `json:"algorithm"`
	ProcessingTimeMs float64          `json:"processing_time_ms"`
}
