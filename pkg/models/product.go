package models

import "time"

// Product is a catalog entry. Once indexed it is treated as immutable except for
// embedding regeneration; re-indexing the same ID is a full replace.
type Product struct {
	ID          string         `json:"id" validate:"required"`
	Name        string         `json:"name" validate:"required,min=1,max=255"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category" validate:"required"`
	Subcategory string         `json:"subcategory,omitempty"`
	Brand       string         `json:"brand,omitempty"`
	Price       float64        `json:"price" validate:"gte=0"`
	Tags        []string       `json:"tags,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Embedding   []float64      `json:"-"`
	Popularity  float64        `json:"popularity,omitempty" validate:"gte=0,lte=100"`
	Rating      float64        `json:"rating,omitempty" validate:"gte=0,lte=5"`
	ReviewCount int            `json:"review_count,omitempty" validate:"gte=0"`
	IndexedAt   time.Time      `json:"indexed_at,omitempty"`
}

type ProductBatchRequest struct {
	Products []Product `json:"products" validate:"required,min=1,max=500,dive"`
}

type ProductBatchResponse struct {
	Indexed int      `json:"indexed"`
	Failed  []string `json:"failed,omitempty"`
}
