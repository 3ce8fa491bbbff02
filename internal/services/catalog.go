package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/marchware/souk/internal/ml"
	"github.com/marchware/souk/pkg/models"
)

// CatalogService owns the indexed products and their embeddings. Indexed
// products are treated as immutable; re-indexing an ID replaces the entry
// wholesale, so readers may safely share the stored pointers.
type CatalogService struct {
	embedder ml.EmbeddingProvider
	logger   *logrus.Logger

	mu         sync.RWMutex
	products   map[string]*models.Product
	embeddings map[string][]float64
}

func NewCatalogService(embedder ml.EmbeddingProvider, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		embedder:   embedder,
		logger:     logger,
		products:   make(map[string]*models.Product),
		embeddings: make(map[string][]float64),
	}
}

// IndexProducts validates and stores a batch. Products without an embedding get
// one derived from their joined text fields; provider failures fall through to
// the deterministic hasher inside the embedder, never to the caller.
func (s *CatalogService) IndexProducts(ctx context.Context, products []models.Product) error {
	for i := range products {
		p := products[i]

		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: product at position %d has no id", ErrValidation, i)
		}
		if p.Price < 0 {
			return fmt.Errorf("%w: product %q has negative price", ErrValidation, p.ID)
		}

		if len(p.Embedding) == 0 {
			embedding, err := s.embedder.Embed(ctx, s.embeddingText(&p))
			if err != nil {
				return fmt.Errorf("embedding product %q: %w", p.ID, err)
			}
			p.Embedding = embedding
		}
		p.IndexedAt = time.Now()

		s.mu.Lock()
		s.products[p.ID] = &p
		s.embeddings[p.ID] = p.Embedding
		s.mu.Unlock()
	}

	s.logger.WithField("count", len(products)).Debug("Indexed products")
	return nil
}

// Product returns the indexed product by ID.
func (s *CatalogService) Product(id string) (*models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// Embedding returns the stored embedding for a product.
func (s *CatalogService) Embedding(id string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.embeddings[id]
	return e, ok
}

// Products returns a point-in-time snapshot of all indexed products.
func (s *CatalogService) Products() []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out
}

func (s *CatalogService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *CatalogService) embeddingText(p *models.Product) string {
	parts := []string{p.Name, p.Description, p.Category, p.Subcategory, p.Brand}
	parts = append(parts, p.Tags...)

	joined := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			joined = append(joined, part)
		}
	}

	return norm.NFC.String(strings.Join(joined, " "))
}
