package models

import "time"

// Interaction types accepted by the behavior store. Cart and purchase both land in
// the purchased history.
const (
	InteractionView     = "view"
	InteractionClick    = "click"
	InteractionCart     = "cart"
	InteractionPurchase = "purchase"
)

type ViewEvent struct {
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
	Duration  *int      `json:"duration,omitempty"` // seconds
}

type PurchaseEvent struct {
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
	Quantity  int       `json:"quantity"`
}

type SearchEvent struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

type ClickEvent struct {
	ProductID string    `json:"product_id"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserHistory holds the four append-only interaction lists.
type UserHistory struct {
	Viewed    []ViewEvent     `json:"viewed,omitempty"`
	Purchased []PurchaseEvent `json:"purchased,omitempty"`
	Searched  []SearchEvent   `json:"searched,omitempty"`
	Clicked   []ClickEvent    `json:"clicked,omitempty"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences are advisory hints supplied by the caller; the engine never enforces
// them as hard filters.
type Preferences struct {
	Categories []string          `json:"categories,omitempty"`
	Brands     []string          `json:"brands,omitempty"`
	PriceRange *PriceRange       `json:"price_range,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UserProfile carries a user's interaction history and the embedding derived from
// it. Embedding is recomputed on every history change and must never be set by
// callers.
type UserProfile struct {
	ID          string      `json:"id" validate:"required"`
	Preferences Preferences `json:"preferences,omitempty"`
	History     UserHistory `json:"history"`
	Embedding   []float64   `json:"-"`
	UpdatedAt   time.Time   `json:"updated_at,omitempty"`
}

type InteractionRequest struct {
	UserID    string         `json:"user_id" validate:"required"`
	ProductID string         `json:"product_id" validate:"required"`
	Type      string         `json:"type" validate:"required,oneof=view click cart purchase"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type SearchRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Query  string `json:"query" validate:"required,min=1,max=500"`
}
