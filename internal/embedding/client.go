// Package embedding wraps the external text-embedding service. Calls are
// cached, retried, and bounded by a timeout; callers treat every error as
// "no signal" rather than surfacing it.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ClientConfig holds embedding client configuration
type ClientConfig struct {
	BaseURL   string        // embedding service endpoint, e.g. http://embedding-api:5000/api/v1/embeddings
	Timeout   time.Duration // per-request timeout, default 10s
	CacheSize int           // LRU cache size, default 10000
	Retries   int           // attempts per Embed call, default 2
}

// Embedder maps text to a vector. The external service may fail or time
// out; implementations return the error and let callers degrade.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client is an HTTP Embedder with an LRU vector cache.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	cache      *lru.Cache[string, []float32]
}

// NewClient creates a new embedding client
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheSize == 0 {
		config.CacheSize = 10000
	}
	if config.Retries == 0 {
		config.Retries = 2
	}

	cache, err := lru.New[string, []float32](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache,
	}, nil
}

// Embed generates the embedding for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	// Check cache first
	if cached, ok := c.cache.Get(text); ok {
		return cached, nil
	}

	var vector []float32
	var err error
	for attempt := 0; attempt < c.config.Retries; attempt++ {
		vector, err = c.callAPI(ctx, text)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Exponential backoff between attempts
		if attempt < c.config.Retries-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("embed after retries: %w", err)
	}

	c.cache.Add(text, vector)
	return vector, nil
}

// callAPI calls the embedding service
func (c *Client) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]any{
		"text": text,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}

	return apiResp.Embedding, nil
}

// Cosine computes cosine similarity between two vectors. Returns 0 for
// mismatched lengths or zero-norm vectors.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
