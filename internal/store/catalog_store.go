package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/pkg/models"
)

// Querier is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CatalogStore hydrates the in-memory engine from Postgres at startup. The
// engine never writes back; Postgres is a seed source only.
type CatalogStore struct {
	db     Querier
	logger *logrus.Logger
}

func NewCatalogStore(db Querier, logger *logrus.Logger) *CatalogStore {
	return &CatalogStore{db: db, logger: logger}
}

// LoadProducts reads the full product catalog.
func (s *CatalogStore) LoadProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, category, subcategory, brand, price,
		       tags, attributes, popularity, rating, review_count
		FROM products
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Category, &p.Subcategory,
			&p.Brand, &p.Price, &p.Tags, &p.Attributes, &p.Popularity,
			&p.Rating, &p.ReviewCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}

	s.logger.WithField("count", len(products)).Info("Loaded products from store")
	return products, nil
}

// LoadUserProfiles rebuilds user histories from the interactions table.
// Rows are ordered by time so the append-only history lists keep event order.
func (s *CatalogStore) LoadUserProfiles(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, product_id, type, query, quantity, occurred_at
		FROM interactions
		ORDER BY occurred_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]*models.UserProfile)
	order := make([]string, 0)

	for rows.Next() {
		var (
			userID     string
			productID  *string
			eventType  string
			query      *string
			quantity   *int
			occurredAt time.Time
		)
		if err := rows.Scan(&userID, &productID, &eventType, &query, &quantity, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}

		profile, ok := profiles[userID]
		if !ok {
			profile = &models.UserProfile{ID: userID}
			profiles[userID] = profile
			order = append(order, userID)
		}

		switch eventType {
		case models.InteractionView:
			if productID != nil {
				profile.History.Viewed = append(profile.History.Viewed,
					models.ViewEvent{ProductID: *productID, Timestamp: occurredAt})
			}
		case models.InteractionClick:
			if productID != nil {
				profile.History.Clicked = append(profile.History.Clicked,
					models.ClickEvent{ProductID: *productID, Timestamp: occurredAt})
			}
		case models.InteractionCart, models.InteractionPurchase:
			if productID != nil {
				q := 1
				if quantity != nil && *quantity > 0 {
					q = *quantity
				}
				profile.History.Purchased = append(profile.History.Purchased,
					models.PurchaseEvent{ProductID: *productID, Timestamp: occurredAt, Quantity: q})
			}
		case "search":
			if query != nil {
				profile.History.Searched = append(profile.History.Searched,
					models.SearchEvent{Query: *query, Timestamp: occurredAt})
			}
		default:
			s.logger.WithField("type", eventType).Debug("Skipping unknown interaction type")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interaction rows: %w", err)
	}

	out := make([]models.UserProfile, 0, len(order))
	for _, userID := range order {
		out = append(out, *profiles[userID])
	}

	s.logger.WithField("count", len(out)).Info("Loaded user profiles from store")
	return out, nil
}
