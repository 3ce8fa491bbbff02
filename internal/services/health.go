package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/database"
)

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Engine    EngineStatus      `json:"engine"`
}

// EngineStatus reports the in-memory index sizes.
type EngineStatus struct {
	ProductsIndexed int `json:"products_indexed"`
	UserProfiles    int `json:"user_profiles"`
}

// HealthService reports the state of the engine and its optional backing
// stores. The engine is healthy without any external store; a failing store
// only degrades the status.
type HealthService struct {
	db       *database.Database
	catalog  *CatalogService
	behavior *BehaviorService
	logger   *logrus.Logger
}

func NewHealthService(db *database.Database, catalog *CatalogService, behavior *BehaviorService, logger *logrus.Logger) *HealthService {
	return &HealthService{
		db:       db,
		catalog:  catalog,
		behavior: behavior,
		logger:   logger,
	}
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
		Engine: EngineStatus{
			ProductsIndexed: s.catalog.Count(),
			UserProfiles:    s.behavior.ProfileCount(),
		},
	}

	if s.db == nil {
		return status
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for name, err := range s.db.HealthCheck(checkCtx) {
		if err != nil {
			status.Services[name] = "unhealthy"
			status.Status = "degraded"
			s.logger.WithError(err).Warnf("Dependency %s is unhealthy", name)
		} else {
			status.Services[name] = "healthy"
		}
	}

	return status
}
