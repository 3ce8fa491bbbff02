package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/internal/database"
	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/pkg/models"
)

func testServices(t *testing.T) *services.Services {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{Dimensions: 32},
		Engine:    config.DefaultEngine(),
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			APIKey:    "test-api-key",
			TokenTTL:  time.Hour,
		},
	}

	svc, err := services.New(cfg, logger, &database.Database{})
	require.NoError(t, err)
	return svc
}

func testRouter(t *testing.T, svc *services.Services) *gin.Engine {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h, err := New(logger, svc)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/products", h.Content.IndexBatch)
	router.GET("/products/:id", h.Content.Get)
	router.GET("/products/:id/similar", h.Recommendation.Similar)
	router.GET("/products/:id/complementary", h.Recommendation.Complementary)
	router.POST("/interactions", h.Interaction.Record)
	router.POST("/search", h.Interaction.Search)
	router.GET("/recommendations", h.Recommendation.Get)
	router.GET("/trending", h.Recommendation.Trending)
	router.GET("/categories/:category", h.Recommendation.ByCategory)
	router.GET("/users/:userId", h.User.GetProfile)
	router.DELETE("/users/:userId", h.User.DeleteProfile)
	router.POST("/auth/token", h.Auth.Token)
	router.GET("/health", h.Health.Check)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func indexTestProducts(t *testing.T, svc *services.Services) {
	t.Helper()
	err := svc.Catalog.IndexProducts(context.Background(), []models.Product{
		{ID: "p1", Name: "Wireless Headphones", Category: "audio", Brand: "Sonix", Price: 99, Popularity: 80, Rating: 4.5, ReviewCount: 120},
		{ID: "p2", Name: "Bluetooth Speaker", Category: "audio", Brand: "Sonix", Price: 49, Popularity: 60, Rating: 4.0, ReviewCount: 50},
		{ID: "p3", Name: "Action Camera", Category: "photo", Brand: "Lux", Price: 299, Popularity: 70, Rating: 4.2, ReviewCount: 90},
	})
	require.NoError(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	svc := testServices(t)
	router := testRouter(t, svc)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, "healthy", status.Status)
}
