package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_EmbedQuery(t *testing.T) {
	var gotBody embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	c := NewOllamaEmbedder(srv.URL, "test-model")
	vec, err := c.EmbedQuery(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.True(t, strings.HasPrefix(gotBody.Input, "search_query: "))
}

func TestOllamaEmbedder_EmbedDocumentPrefix(t *testing.T) {
	var gotInput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotInput = req.Input
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	c := NewOllamaEmbedder(srv.URL, "test-model")
	_, err := c.EmbedDocument(context.Background(), "body text")

	require.NoError(t, err)
	assert.Equal(t, "search_document: body text", gotInput)
}

func TestOllamaEmbedder_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOllamaEmbedder(srv.URL, "test-model")
	_, err := c.EmbedQuery(context.Background(), "hello")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOllamaEmbedder_EmptyEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer srv.Close()

	c := NewOllamaEmbedder(srv.URL, "test-model")
	_, err := c.EmbedQuery(context.Background(), "hello")

	assert.ErrorContains(t, err, "no embeddings returned")
}

func TestOllamaEmbedder_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewOllamaEmbedder(srv.URL, "test-model")
	_, err := c.EmbedQuery(ctx, "hello")

	assert.ErrorIs(t, err, context.Canceled)
}
