package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/errors"
)

func TestNewProviderUnsupported(t *testing.T) {
	_, err := NewProvider(config.EmbeddingConfig{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestEmbedOllama(t *testing.T) {
	var gotPath string

	var gotReq ollamaEmbeddingRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{
			Embedding: []float32{0.1, 0.2, 0.3},
		})
	}))
	defer server.Close()

	provider, err := NewProvider(config.EmbeddingConfig{
		Provider:   ProviderOllama,
		Model:      "all-minilm",
		BaseURL:    server.URL,
		Dimensions: 3,
	})
	require.NoError(t, err)

	vector, err := provider.Embed(context.Background(), "Table: orders, Column: id")
	require.NoError(t, err)

	assert.Equal(t, "/api/embeddings", gotPath)
	assert.Equal(t, "all-minilm", gotReq.Model)
	assert.Equal(t, "Table: orders, Column: id", gotReq.Prompt)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbedOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	provider, err := NewProvider(config.EmbeddingConfig{
		Provider:   ProviderOpenAI,
		Model:      "text-embedding-3-small",
		BaseURL:    server.URL,
		APIKey:     "secret",
		Dimensions: 2,
	})
	require.NoError(t, err)

	vector, err := provider.Embed(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vector)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float32{1, 2}})
	}))
	defer server.Close()

	provider, err := NewProvider(config.EmbeddingConfig{
		Provider:   ProviderOllama,
		Model:      "all-minilm",
		BaseURL:    server.URL,
		Dimensions: 384,
	})
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewProvider(config.EmbeddingConfig{
		Provider: ProviderOllama,
		Model:    "missing",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmbedding))
	assert.Contains(t, err.Error(), "status 404")
}

func TestProviderName(t *testing.T) {
	provider, err := NewProvider(config.EmbeddingConfig{Provider: ProviderOllama, Model: "all-minilm"})
	require.NoError(t, err)
	assert.Equal(t, "ollama:all-minilm", provider.Name())
}
