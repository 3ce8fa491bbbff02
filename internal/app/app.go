package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/internal/database"
	"github.com/marchware/souk/internal/handlers"
	"github.com/marchware/souk/internal/middleware"
	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/internal/store"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svc, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	if err := app.hydrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to hydrate engine: %w", err)
	}

	app.handlers, err = handlers.New(app.logger, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	app.setupRouter()
	return app, nil
}

// hydrate seeds the in-memory engine from Postgres when a database is
// configured. With no database the engine starts empty and fills via the API.
func (a *App) hydrate(ctx context.Context) error {
	if a.db.PG == nil {
		return nil
	}

	catalogStore := store.NewCatalogStore(a.db.PG, a.logger)

	products, err := catalogStore.LoadProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		if err := a.services.Catalog.IndexProducts(ctx, products); err != nil {
			return err
		}
		a.services.Metrics.SetProductCount(a.services.Catalog.Count())
	}

	profiles, err := catalogStore.LoadUserProfiles(ctx)
	if err != nil {
		return err
	}
	for i := range profiles {
		if err := a.services.Behavior.UpdateUserProfile(ctx, profiles[i]); err != nil {
			return err
		}
	}
	a.services.Metrics.SetProfileCount(a.services.Behavior.ProfileCount())

	return nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")
	a.db.Close()
	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Unauthenticated surface: health, metrics, token issuance.
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/ready", a.handlers.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.services.MetricsRegistry, promhttp.HandlerOpts{})))
	router.POST("/api/v1/auth/token", a.handlers.Auth.Token)

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(a.services.Auth, a.logger))
		api.Use(middleware.RateLimit(a.services.RateLimit, a.logger))

		products := api.Group("/products")
		{
			products.POST("", a.handlers.Content.IndexBatch)
			products.GET("/:id", a.handlers.Content.Get)
			products.GET("/:id/similar", a.handlers.Recommendation.Similar)
			products.GET("/:id/complementary", a.handlers.Recommendation.Complementary)
		}

		interactions := api.Group("/interactions")
		{
			interactions.POST("", a.handlers.Interaction.Record)
			interactions.POST("/search", a.handlers.Interaction.Search)
		}

		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("", a.handlers.Recommendation.Get)
			recommendations.GET("/trending", a.handlers.Recommendation.Trending)
			recommendations.GET("/category/:category", a.handlers.Recommendation.ByCategory)
		}

		users := api.Group("/users")
		{
			users.GET("/:userId/profile", a.handlers.User.GetProfile)
			users.PUT("/:userId/profile", a.handlers.User.UpdateProfile)
			users.DELETE("/:userId/profile", a.handlers.User.DeleteProfile)
			users.GET("/:userId/recommendations", a.handlers.Recommendation.Collaborative)
		}
	}

	a.router = router
}
