package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig configures the optional Postgres hydration source. An empty URL
// leaves the engine purely in-memory.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig configures the optional cache instance. An empty URL disables both
// the embedding cache and the recommendation result cache.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig configures the text embedding provider. ProviderURL empty means
// the deterministic hashing embedder is the only source.
type EmbeddingConfig struct {
	ProviderURL string        `mapstructure:"provider_url"`
	Dimensions  int           `mapstructure:"dimensions"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type EngineConfig struct {
	MinSimilarity float64           `mapstructure:"min_similarity"`
	DecayFactor   float64           `mapstructure:"decay_factor"`
	History       HistoryConfig     `mapstructure:"history"`
	Profile       ProfileConfig     `mapstructure:"profile"`
	Matrix        MatrixConfig      `mapstructure:"matrix"`
	Collaborative CollabConfig      `mapstructure:"collaborative"`
	Diversity     DiversityConfig   `mapstructure:"diversity"`
	Trending      TrendingConfig    `mapstructure:"trending"`
	Category      CategoryConfig    `mapstructure:"category"`
	Caching       ResultCacheConfig `mapstructure:"caching"`
}

// HistoryConfig bounds how much of each history list feeds the profile embedding.
// Entries outside the window stay in history but no longer contribute.
type HistoryConfig struct {
	ViewedWindow    int `mapstructure:"viewed_window"`
	PurchasedWindow int `mapstructure:"purchased_window"`
	SearchedWindow  int `mapstructure:"searched_window"`
}

// ProfileConfig holds the per-signal base weights of the decayed aggregation.
type ProfileConfig struct {
	ViewWeight     float64 `mapstructure:"view_weight"`
	PurchaseWeight float64 `mapstructure:"purchase_weight"`
	SearchWeight   float64 `mapstructure:"search_weight"`
}

// MatrixConfig holds the per-interaction increments of the interaction matrix.
// A row is always rebuilt from full history, each cell clamped to 1.
type MatrixConfig struct {
	ViewScore     float64 `mapstructure:"view_score"`
	ClickScore    float64 `mapstructure:"click_score"`
	PurchaseScore float64 `mapstructure:"purchase_score"`
}

type CollabConfig struct {
	NeighborCount int `mapstructure:"neighbor_count"`
}

type DiversityConfig struct {
	Factor float64 `mapstructure:"factor"`
}

type TrendingConfig struct {
	PopularityWeight float64 `mapstructure:"popularity_weight"`
	RatingWeight     float64 `mapstructure:"rating_weight"`
}

type CategoryConfig struct {
	PopularityWeight  float64 `mapstructure:"popularity_weight"`
	RatingWeight      float64 `mapstructure:"rating_weight"`
	ExplorationWeight float64 `mapstructure:"exploration_weight"`
}

type ResultCacheConfig struct {
	RecommendationsTTL time.Duration `mapstructure:"recommendations_ttl"`
}

type AuthConfig struct {
	JWTSecret string          `mapstructure:"jwt_secret"`
	APIKey    string          `mapstructure:"api_key"`
	TokenTTL  time.Duration   `mapstructure:"token_ttl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultEngine returns the engine parameters the scoring core ships with.
// Tests and library embedders start from this instead of viper.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		MinSimilarity: 0.1,
		DecayFactor:   0.95,
		History: HistoryConfig{
			ViewedWindow:    50,
			PurchasedWindow: 30,
			SearchedWindow:  20,
		},
		Profile: ProfileConfig{
			ViewWeight:     0.3,
			PurchaseWeight: 0.7,
			SearchWeight:   0.5,
		},
		Matrix: MatrixConfig{
			ViewScore:     0.1,
			ClickScore:    0.3,
			PurchaseScore: 0.6,
		},
		Collaborative: CollabConfig{NeighborCount: 20},
		Diversity:     DiversityConfig{Factor: 0.3},
		Trending: TrendingConfig{
			PopularityWeight: 0.6,
			RatingWeight:     0.4,
		},
		Category: CategoryConfig{
			PopularityWeight:  0.5,
			RatingWeight:      0.3,
			ExplorationWeight: 0.2,
		},
		Caching: ResultCacheConfig{RecommendationsTTL: 15 * time.Minute},
	}
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	viper.SetDefault("embedding.dimensions", 768)
	viper.SetDefault("embedding.timeout", "2s")
	viper.SetDefault("embedding.cache_ttl", "24h")

	viper.SetDefault("engine.min_similarity", 0.1)
	viper.SetDefault("engine.decay_factor", 0.95)
	viper.SetDefault("engine.history.viewed_window", 50)
	viper.SetDefault("engine.history.purchased_window", 30)
	viper.SetDefault("engine.history.searched_window", 20)
	viper.SetDefault("engine.profile.view_weight", 0.3)
	viper.SetDefault("engine.profile.purchase_weight", 0.7)
	viper.SetDefault("engine.profile.search_weight", 0.5)
	viper.SetDefault("engine.matrix.view_score", 0.1)
	viper.SetDefault("engine.matrix.click_score", 0.3)
	viper.SetDefault("engine.matrix.purchase_score", 0.6)
	viper.SetDefault("engine.collaborative.neighbor_count", 20)
	viper.SetDefault("engine.diversity.factor", 0.3)
	viper.SetDefault("engine.trending.popularity_weight", 0.6)
	viper.SetDefault("engine.trending.rating_weight", 0.4)
	viper.SetDefault("engine.category.popularity_weight", 0.5)
	viper.SetDefault("engine.category.rating_weight", 0.3)
	viper.SetDefault("engine.category.exploration_weight", 0.2)
	viper.SetDefault("engine.caching.recommendations_ttl", "15m")

	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("auth.rate_limit.requests", 1000)
	viper.SetDefault("auth.rate_limit.window", "1h")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
