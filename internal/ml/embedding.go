package ml

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// EmbeddingProvider turns a piece of text into a fixed-dimension vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimensions() int
}

// HashingEmbedder is the deterministic fallback provider. It is a pure function
// of the input text: each character of each lowercase word scatters
// 1/wordCount into index (charCode * (position+1)) mod D, and the result is
// L2-normalized. Tests can assert exact vectors against it.
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 768
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Dimensions() int { return h.dims }

func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dims)

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return vec, nil
	}

	contribution := 1.0 / float64(len(words))
	for _, word := range words {
		for pos, r := range []rune(word) {
			idx := (int(r) * (pos + 1)) % h.dims
			vec[idx] += contribution
		}
	}

	return L2Normalize(vec), nil
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type embedBatchRequest struct {
	Texts []string `json:"texts"`
}

type embedBatchResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// HTTPEmbeddingProvider calls an external embedding service speaking the
// /embed and /embed-batch JSON protocol. The HTTP client timeout bounds write
// latency when the service is slow.
type HTTPEmbeddingProvider struct {
	baseURL string
	dims    int
	client  *http.Client
	logger  *logrus.Logger
}

func NewHTTPEmbeddingProvider(baseURL string, dims int, timeout time.Duration, logger *logrus.Logger) *HTTPEmbeddingProvider {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPEmbeddingProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		dims:    dims,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *HTTPEmbeddingProvider) Dimensions() int { return p.dims }

func (p *HTTPEmbeddingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := p.post(ctx, "/embed", embedRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embedding) != p.dims {
		return nil, fmt.Errorf("provider returned %d dimensions, want %d", len(resp.Embedding), p.dims)
	}

	return resp.Embedding, nil
}

// EmbedBatch embeds several texts in one round trip.
func (p *HTTPEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var resp embedBatchResponse
	if err := p.post(ctx, "/embed-batch", embedBatchRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}

func (p *HTTPEmbeddingProvider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, string(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// CachedEmbedder wraps a provider with a Redis cache keyed by a content hash.
// A nil client makes it a transparent passthrough.
type CachedEmbedder struct {
	next   EmbeddingProvider
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger
	onHit  func()
	onMiss func()
}

func NewCachedEmbedder(next EmbeddingProvider, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedEmbedder{
		next:   next,
		redis:  redisClient,
		ttl:    ttl,
		prefix: "embed:text",
		logger: logger,
	}
}

// SetCacheObserver registers callbacks invoked on cache hits and misses.
// Either callback may be nil.
func (c *CachedEmbedder) SetCacheObserver(onHit, onMiss func()) {
	c.onHit = onHit
	c.onMiss = onMiss
}

func (c *CachedEmbedder) Dimensions() int { return c.next.Dimensions() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.redis == nil {
		return c.next.Embed(ctx, text)
	}

	key := c.cacheKey(text)
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var embedding []float64
		if err := json.Unmarshal([]byte(cached), &embedding); err == nil {
			c.logger.WithField("key", key).Debug("Embedding cache hit")
			if c.onHit != nil {
				c.onHit()
			}
			return embedding, nil
		}
	}

	if c.onMiss != nil {
		c.onMiss()
	}

	embedding, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(embedding); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WithError(err).Warn("Failed to cache embedding")
		}
	}

	return embedding, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%d:%x", c.prefix, c.next.Dimensions(), sum[:8])
}

// FallbackEmbedder tries the primary provider and degrades to the deterministic
// hashing embedder on any provider error. Provider failures never propagate past
// the write path.
type FallbackEmbedder struct {
	primary  EmbeddingProvider
	fallback *HashingEmbedder
	logger   *logrus.Logger
}

func NewFallbackEmbedder(primary EmbeddingProvider, dims int, logger *logrus.Logger) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:  primary,
		fallback: NewHashingEmbedder(dims),
		logger:   logger,
	}
}

func (f *FallbackEmbedder) Dimensions() int { return f.fallback.Dimensions() }

func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.primary != nil {
		embedding, err := f.primary.Embed(ctx, text)
		if err == nil {
			return embedding, nil
		}
		f.logger.WithError(err).Warn("Embedding provider failed, using hashing fallback")
	}

	return f.fallback.Embed(ctx, text)
}
