package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/internal/database"
	"github.com/marchware/souk/internal/ml"
)

type Services struct {
	Auth          *AuthService
	Health        *HealthService
	RateLimit     *RateLimitService
	Catalog       *CatalogService
	Behavior      *BehaviorService
	ContentBased  *ContentBasedService
	Collaborative *CollaborativeService
	Popularity    *PopularityService
	Diversity     *DiversityReranker
	Explanation   *ExplanationService
	Metrics       *MetricsCollector
	Orchestrator  *RecommendationOrchestrator

	// MetricsRegistry backs the /metrics endpoint. Each Services instance owns
	// its own registry so repeated construction never double-registers.
	MetricsRegistry *prometheus.Registry
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetricsCollector(registry)

	// Embedding chain: external provider when configured, deterministic
	// hashing fallback always, Redis cache in front when available.
	var primary ml.EmbeddingProvider
	if cfg.Embedding.ProviderURL != "" {
		primary = ml.NewHTTPEmbeddingProvider(
			cfg.Embedding.ProviderURL, cfg.Embedding.Dimensions, cfg.Embedding.Timeout, logger,
		)
	}
	embedder := ml.NewFallbackEmbedder(primary, cfg.Embedding.Dimensions, logger)
	cached := ml.NewCachedEmbedder(embedder, db.Redis, cfg.Embedding.CacheTTL, logger)
	cached.SetCacheObserver(metrics.RecordEmbedCacheHit, metrics.RecordEmbedCacheMiss)

	catalog := NewCatalogService(cached, logger)
	behavior := NewBehaviorService(catalog, cached, &cfg.Engine, logger)
	contentBased := NewContentBasedService(catalog, behavior, &cfg.Engine, logger)
	collaborative := NewCollaborativeService(catalog, behavior, &cfg.Engine, logger)
	popularity := NewPopularityService(catalog, behavior, &cfg.Engine, logger, nil)
	diversity := NewDiversityReranker(&cfg.Engine, logger)
	explanation := NewExplanationService(behavior, logger)

	orchestrator := NewRecommendationOrchestrator(
		contentBased, collaborative, popularity, diversity, explanation,
		behavior, metrics, db.Redis, &cfg.Engine, logger,
	)

	return &Services{
		Auth:            NewAuthService(cfg, logger, db.Redis),
		Health:          NewHealthService(db, catalog, behavior, logger),
		RateLimit:       NewRateLimitService(cfg, logger, db.Redis),
		Catalog:         catalog,
		Behavior:        behavior,
		ContentBased:    contentBased,
		Collaborative:   collaborative,
		Popularity:      popularity,
		Diversity:       diversity,
		Explanation:     explanation,
		Metrics:         metrics,
		Orchestrator:    orchestrator,
		MetricsRegistry: registry,
	}, nil
}
