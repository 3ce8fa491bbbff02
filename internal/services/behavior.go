package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marchware/souk/internal/config"
	"github.com/marchware/souk/internal/ml"
	"github.com/marchware/souk/pkg/models"
)

// BehaviorService tracks per-user interaction history, the decayed profile
// embedding derived from it, and the sparse interaction matrix feeding
// collaborative filtering.
//
// Writers are serialized per user: concurrent updates to different users
// proceed in parallel, updates to the same user queue on its mutex. History
// appends additionally happen under the service lock, and Profile/Profiles
// hand out copies, so readers always see a consistent point-in-time history.
// The matrix row for a user is always rebuilt from the full current history,
// never incrementally appended.
type BehaviorService struct {
	catalog  *CatalogService
	embedder ml.EmbeddingProvider
	config   *config.EngineConfig
	logger   *logrus.Logger

	// injectable for decay tests
	now func() time.Time

	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
	matrix   map[string]map[string]float64

	userLocks sync.Map // userID -> *sync.Mutex
}

func NewBehaviorService(
	catalog *CatalogService,
	embedder ml.EmbeddingProvider,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
) *BehaviorService {
	return &BehaviorService{
		catalog:  catalog,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
		profiles: make(map[string]*models.UserProfile),
		matrix:   make(map[string]map[string]float64),
	}
}

// RecordInteraction appends one event to the user's history and recomputes the
// profile. Type must be one of view, click, cart, purchase; cart and purchase
// both land in the purchased list. Metadata keys understood: "duration" (view,
// seconds), "quantity" (cart/purchase), "source" (click).
func (s *BehaviorService) RecordInteraction(ctx context.Context, userID, productID, interactionType string, metadata map[string]any) error {
	if userID == "" || productID == "" {
		return fmt.Errorf("%w: user id and product id are required", ErrValidation)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	profile := s.getOrCreateProfile(userID)
	ts := s.now()

	s.mu.Lock()
	switch interactionType {
	case models.InteractionView:
		event := models.ViewEvent{ProductID: productID, Timestamp: ts}
		if d, ok := intFromMetadata(metadata, "duration"); ok {
			event.Duration = &d
		}
		profile.History.Viewed = append(profile.History.Viewed, event)

	case models.InteractionClick:
		event := models.ClickEvent{ProductID: productID, Timestamp: ts}
		if src, ok := metadata["source"].(string); ok {
			event.Source = src
		}
		profile.History.Clicked = append(profile.History.Clicked, event)

	case models.InteractionCart, models.InteractionPurchase:
		quantity := 1
		if q, ok := intFromMetadata(metadata, "quantity"); ok && q > 0 {
			quantity = q
		}
		profile.History.Purchased = append(profile.History.Purchased,
			models.PurchaseEvent{ProductID: productID, Timestamp: ts, Quantity: quantity})

	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: unknown interaction type %q", ErrValidation, interactionType)
	}
	s.mu.Unlock()

	s.recompute(ctx, profile)
	return nil
}

// RecordSearch appends a search query to the user's history and recomputes the
// profile; the query text itself is embedded into the profile.
func (s *BehaviorService) RecordSearch(ctx context.Context, userID, query string) error {
	if userID == "" || query == "" {
		return fmt.Errorf("%w: user id and query are required", ErrValidation)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	profile := s.getOrCreateProfile(userID)
	s.mu.Lock()
	profile.History.Searched = append(profile.History.Searched,
		models.SearchEvent{Query: query, Timestamp: s.now()})
	s.mu.Unlock()

	s.recompute(ctx, profile)
	return nil
}

// UpdateUserProfile replaces the stored profile with the caller's and
// recomputes the derived embedding and matrix row from its history.
func (s *BehaviorService) UpdateUserProfile(ctx context.Context, profile models.UserProfile) error {
	if profile.ID == "" {
		return fmt.Errorf("%w: user profile has no id", ErrValidation)
	}

	lock := s.userLock(profile.ID)
	lock.Lock()
	defer lock.Unlock()

	stored := profile
	s.mu.Lock()
	s.profiles[profile.ID] = &stored
	s.mu.Unlock()

	s.recompute(ctx, &stored)
	return nil
}

// DeleteUserProfile removes a user's history, embedding and matrix row. Memory
// is otherwise unbounded; eviction policy is the caller's decision.
func (s *BehaviorService) DeleteUserProfile(userID string) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	delete(s.profiles, userID)
	delete(s.matrix, userID)
	s.mu.Unlock()
}

// Profile returns a point-in-time copy of the stored profile.
func (s *BehaviorService) Profile(userID string) (*models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, false
	}
	return cloneProfile(p), true
}

// UserEmbedding returns the derived profile embedding, or nil for unknown users.
func (s *BehaviorService) UserEmbedding(userID string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p.Embedding
	}
	return nil
}

// MatrixRow returns a copy of the user's interaction matrix row.
func (s *BehaviorService) MatrixRow(userID string) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.matrix[userID]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// MatrixSnapshot returns a point-in-time copy of the whole interaction matrix.
func (s *BehaviorService) MatrixSnapshot() map[string]map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]float64, len(s.matrix))
	for user, row := range s.matrix {
		rowCopy := make(map[string]float64, len(row))
		for k, v := range row {
			rowCopy[k] = v
		}
		out[user] = rowCopy
	}
	return out
}

// Profiles returns point-in-time copies of all tracked profiles.
func (s *BehaviorService) Profiles() []*models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, cloneProfile(p))
	}
	return out
}

// cloneProfile copies a profile with fresh history slices. Caller holds at
// least the read lock.
func cloneProfile(p *models.UserProfile) *models.UserProfile {
	c := *p
	c.History = models.UserHistory{
		Viewed:    append([]models.ViewEvent(nil), p.History.Viewed...),
		Purchased: append([]models.PurchaseEvent(nil), p.History.Purchased...),
		Searched:  append([]models.SearchEvent(nil), p.History.Searched...),
		Clicked:   append([]models.ClickEvent(nil), p.History.Clicked...),
	}
	return &c
}

func (s *BehaviorService) ProfileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *BehaviorService) userLock(userID string) *sync.Mutex {
	lock, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *BehaviorService) getOrCreateProfile(userID string) *models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[userID]; ok {
		return p
	}
	p := &models.UserProfile{ID: userID}
	s.profiles[userID] = p
	return p
}

// recompute rebuilds the profile embedding and the interaction matrix row from
// the current history. Caller holds the user lock.
func (s *BehaviorService) recompute(ctx context.Context, profile *models.UserProfile) {
	embedding := s.profileEmbedding(ctx, profile)
	row := s.matrixRowFromHistory(&profile.History)

	s.mu.Lock()
	profile.Embedding = embedding
	profile.UpdatedAt = s.now()
	s.matrix[profile.ID] = row
	s.mu.Unlock()
}

// profileEmbedding aggregates recent history into one vector: the newest 50
// views (weight 0.3), 30 purchases (0.7) and 20 searches (0.5), each decayed
// by decayFactor^ageInDays, summed and L2-normalized. With no usable history
// the vector stays all-zero.
func (s *BehaviorService) profileEmbedding(ctx context.Context, profile *models.UserProfile) []float64 {
	sum := make([]float64, s.embedder.Dimensions())

	viewed := tail(profile.History.Viewed, s.config.History.ViewedWindow)
	for i := range viewed {
		embedding, ok := s.catalog.Embedding(viewed[i].ProductID)
		if !ok {
			continue
		}
		weight := s.config.Profile.ViewWeight * s.decay(viewed[i].Timestamp)
		addScaled(sum, embedding, weight)
	}

	purchased := tail(profile.History.Purchased, s.config.History.PurchasedWindow)
	for i := range purchased {
		embedding, ok := s.catalog.Embedding(purchased[i].ProductID)
		if !ok {
			continue
		}
		weight := s.config.Profile.PurchaseWeight * s.decay(purchased[i].Timestamp)
		addScaled(sum, embedding, weight)
	}

	searched := tail(profile.History.Searched, s.config.History.SearchedWindow)
	for i := range searched {
		embedding, err := s.embedder.Embed(ctx, searched[i].Query)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", profile.ID).
				Warn("Failed to embed search query, skipping")
			continue
		}
		weight := s.config.Profile.SearchWeight * s.decay(searched[i].Timestamp)
		addScaled(sum, embedding, weight)
	}

	return ml.L2Normalize(sum)
}

// matrixRowFromHistory rebuilds the row from scratch: view +0.1, click +0.3,
// purchase/cart +0.6, additive, each cell clamped to 1.
func (s *BehaviorService) matrixRowFromHistory(history *models.UserHistory) map[string]float64 {
	row := make(map[string]float64)

	for i := range history.Viewed {
		row[history.Viewed[i].ProductID] += s.config.Matrix.ViewScore
	}
	for i := range history.Clicked {
		row[history.Clicked[i].ProductID] += s.config.Matrix.ClickScore
	}
	for i := range history.Purchased {
		row[history.Purchased[i].ProductID] += s.config.Matrix.PurchaseScore
	}

	for id, score := range row {
		if score > 1 {
			row[id] = 1
		}
	}
	return row
}

func (s *BehaviorService) decay(ts time.Time) float64 {
	ageDays := s.now().Sub(ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Pow(s.config.DecayFactor, ageDays)
}

func tail[T any](events []T, window int) []T {
	if window <= 0 || len(events) <= window {
		return events
	}
	return events[len(events)-window:]
}

func addScaled(dst, src []float64, weight float64) {
	if len(dst) != len(src) {
		return
	}
	for i := range src {
		dst[i] += src[i] * weight
	}
}

func intFromMetadata(metadata map[string]any, key string) (int, bool) {
	switch v := metadata[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
