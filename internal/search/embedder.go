package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	embedMaxRetries   = 5
	embedInitialDelay = 1 * time.Second
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedDocument embeds a text for storage/indexing.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a search query (may use different prefix/settings).
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// OllamaEmbedder talks to an Ollama-compatible /api/embed endpoint.
// It uses nomic task prefixes for asymmetric retrieval:
// "search_document: " when indexing, "search_query: " for queries.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates an embedding client for the given endpoint and model.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedDocument embeds a text for storage/indexing.
func (c *OllamaEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, "search_document: "+text)
}

// EmbedQuery embeds a search query.
func (c *OllamaEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return c.embed(ctx, "search_query: "+query)
}

func (c *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * embedInitialDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("embedding request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("embedding error (%d): %s", resp.StatusCode, string(respBody))
			if resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		var embedResp embedResponse
		if err := json.Unmarshal(respBody, &embedResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		if len(embedResp.Embeddings) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}

		return embedResp.Embeddings[0], nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", embedMaxRetries, lastErr)
}
