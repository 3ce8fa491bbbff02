package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/pkg/models"
)

// AuthService issues and validates the JWTs API clients present. Sessions are
// tracked in Redis when a client is configured so tokens can be revoked; with
// no Redis the tokens are stateless.
type AuthService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
	}
}

// Authenticate exchanges an API key for a signed token.
func (s *AuthService) Authenticate(req models.AuthRequest) (*models.AuthResponse, error) {
	role, err := s.validateAPIKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	token, expiresAt, err := s.generateToken(clientID, role)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, Role: role}, nil
}

func (s *AuthService) generateToken(clientID, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.Auth.TokenTTL)

	claims := &models.JWTClaims{
		ClientID: clientID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "github.com/marchware/souk",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	if s.redisClient != nil {
		sessionKey := fmt.Sprintf("session:%s", clientID)
		if err := s.redisClient.Set(context.Background(), sessionKey, tokenString, s.config.Auth.TokenTTL).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to store session in Redis")
		}
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(clientID string) error {
	if s.redisClient == nil {
		return nil
	}
	sessionKey := fmt.Sprintf("session:%s", clientID)
	if err := s.redisClient.Del(context.Background(), sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) validateAPIKey(apiKey string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("missing API key")
	}
	if s.config.Auth.APIKey != "" && apiKey == s.config.Auth.APIKey {
		return "admin", nil
	}

	// Demo keys for local development.
	demoKeys := map[string]string{
		"demo-reader-key": "reader",
		"demo-writer-key": "writer",
	}
	if role, exists := demoKeys[apiKey]; exists {
		return role, nil
	}

	return "", fmt.Errorf("invalid API key")
}
