package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidator_Product(t *testing.T) {
	sv, err := NewSchemaValidator()
	require.NoError(t, err)

	t.Run("valid product", func(t *testing.T) {
		result := sv.ValidateProduct([]byte(`{
			"id": "p1",
			"name": "Wireless Headphones",
			"category": "audio",
			"price": 99.99,
			"tags": ["bluetooth"],
			"rating": 4.5,
			"review_count": 10
		}`))
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("missing required fields", func(t *testing.T) {
		result := sv.ValidateProduct([]byte(`{"id": "p1"}`))
		require.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("negative price", func(t *testing.T) {
		result := sv.ValidateProduct([]byte(`{
			"id": "p1", "name": "x", "category": "audio", "price": -5
		}`))
		assert.False(t, result.Valid)
	})

	t.Run("rating out of range", func(t *testing.T) {
		result := sv.ValidateProduct([]byte(`{
			"id": "p1", "name": "x", "category": "audio", "price": 1, "rating": 9
		}`))
		assert.False(t, result.Valid)
	})

	t.Run("malformed json", func(t *testing.T) {
		result := sv.ValidateProduct([]byte(`{not json`))
		assert.False(t, result.Valid)
	})
}

func TestSchemaValidator_Interaction(t *testing.T) {
	sv, err := NewSchemaValidator()
	require.NoError(t, err)

	t.Run("valid interaction", func(t *testing.T) {
		result := sv.ValidateInteraction([]byte(`{
			"user_id": "u1", "product_id": "p1", "type": "purchase",
			"metadata": {"quantity": 2}
		}`))
		assert.True(t, result.Valid)
	})

	t.Run("unknown type", func(t *testing.T) {
		result := sv.ValidateInteraction([]byte(`{
			"user_id": "u1", "product_id": "p1", "type": "hover"
		}`))
		assert.False(t, result.Valid)
	})

	t.Run("missing user", func(t *testing.T) {
		result := sv.ValidateInteraction([]byte(`{"product_id": "p1", "type": "view"}`))
		assert.False(t, result.Valid)
	})
}
