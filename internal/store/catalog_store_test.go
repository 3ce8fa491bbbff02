package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCatalogStore_LoadProducts(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewCatalogStore(mockDB, testLogger())

	t.Run("loads and scans products", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{
			"id", "name", "description", "category", "subcategory", "brand",
			"price", "tags", "attributes", "popularity", "rating", "review_count",
		}).AddRow(
			"p1", "Headphones", "Over-ear", "audio", "headphones", "Sonix",
			99.99, []string{"bluetooth"}, map[string]any{"color": "black"},
			80.0, 4.5, 120,
		)

		mockDB.ExpectQuery("SELECT (.+) FROM products").WillReturnRows(rows)

		products, err := store.LoadProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 1)

		assert.Equal(t, "p1", products[0].ID)
		assert.Equal(t, "audio", products[0].Category)
		assert.Equal(t, 99.99, products[0].Price)
		assert.Equal(t, []string{"bluetooth"}, products[0].Tags)
		assert.Equal(t, 120, products[0].ReviewCount)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("query error propagates", func(t *testing.T) {
		mockDB.ExpectQuery("SELECT (.+) FROM products").
			WillReturnError(errors.New("connection refused"))

		_, err := store.LoadProducts(context.Background())
		assert.Error(t, err)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestCatalogStore_LoadUserProfiles(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	store := NewCatalogStore(mockDB, testLogger())

	t.Run("rebuilds histories in event order", func(t *testing.T) {
		now := time.Now()
		p1 := "p1"
		p2 := "p2"
		query := "wireless headphones"
		qty := 2

		rows := pgxmock.NewRows([]string{
			"user_id", "product_id", "type", "query", "quantity", "occurred_at",
		}).
			AddRow("u1", &p1, "view", nil, nil, now.Add(-3*time.Hour)).
			AddRow("u1", &p2, "purchase", nil, &qty, now.Add(-2*time.Hour)).
			AddRow("u1", nil, "search", &query, nil, now.Add(-time.Hour)).
			AddRow("u2", &p1, "click", nil, nil, now)

		mockDB.ExpectQuery("SELECT (.+) FROM interactions").WillReturnRows(rows)

		profiles, err := store.LoadUserProfiles(context.Background())
		require.NoError(t, err)
		require.Len(t, profiles, 2)

		u1 := profiles[0]
		assert.Equal(t, "u1", u1.ID)
		require.Len(t, u1.History.Viewed, 1)
		require.Len(t, u1.History.Purchased, 1)
		require.Len(t, u1.History.Searched, 1)
		assert.Equal(t, "p1", u1.History.Viewed[0].ProductID)
		assert.Equal(t, 2, u1.History.Purchased[0].Quantity)
		assert.Equal(t, "wireless headphones", u1.History.Searched[0].Query)

		u2 := profiles[1]
		assert.Equal(t, "u2", u2.ID)
		require.Len(t, u2.History.Clicked, 1)

		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}
