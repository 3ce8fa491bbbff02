package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/services"
	"github.com/marchware/souk/internal/validation"
)

type Handlers struct {
	Auth           *AuthHandler
	Health         *HealthHandler
	Content        *ContentHandler
	Interaction    *InteractionHandler
	Recommendation *RecommendationHandler
	User           *UserHandler
}

func New(logger *logrus.Logger, services *services.Services) (*Handlers, error) {
	schemaValidator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	return &Handlers{
		Auth:           NewAuthHandler(services.Auth, logger),
		Health:         NewHealthHandler(services.Health, logger),
		Content:        NewContentHandler(services.Catalog, services.Metrics, schemaValidator, logger),
		Interaction:    NewInteractionHandler(services.Behavior, services.Metrics, schemaValidator, logger),
		Recommendation: NewRecommendationHandler(services.Orchestrator, logger),
		User:           NewUserHandler(services.Behavior, logger),
	}, nil
}
