// Package embedding turns text into vectors through an external embedding
// service. The service is a black box behind the Provider interface so any
// backend can be substituted without touching pipeline logic.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/errors"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of embeddings produced by this provider
	Dimensions() int

	// Name returns the provider name for identification
	Name() string
}

// Provider constants for supported backends
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// NewProvider creates a provider from configuration
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case ProviderOllama, ProviderOpenAI:
		return &HTTPProvider{
			config: cfg,
			httpClient: &http.Client{
				Timeout: 60 * time.Second,
			},
		}, nil
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unsupported embedding provider: %s", cfg.Provider)
	}
}

// HTTPProvider calls an embedding service over HTTP (Ollama or an
// OpenAI-compatible endpoint).
type HTTPProvider struct {
	config     config.EmbeddingConfig
	httpClient *http.Client
}

func (p *HTTPProvider) Name() string {
	return p.config.Provider + ":" + p.config.Model
}

func (p *HTTPProvider) Dimensions() int {
	return p.config.Dimensions
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var (
		vector []float32
		err    error
	)

	switch p.config.Provider {
	case ProviderOllama:
		vector, err = p.embedOllama(ctx, text)
	case ProviderOpenAI:
		vector, err = p.embedOpenAI(ctx, text)
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unsupported embedding provider: %s", p.config.Provider)
	}

	if err != nil {
		return nil, err
	}

	if p.config.Dimensions > 0 && len(vector) != p.config.Dimensions {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"dimension mismatch: expected %d, got %d", p.config.Dimensions, len(vector))
	}

	return vector, nil
}

// Ollama API structures
type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *HTTPProvider) embedOllama(ctx context.Context, text string) ([]float32, error) {
	reqBody := ollamaEmbeddingRequest{
		Model:  p.config.Model,
		Prompt: text,
	}

	respBody, err := p.makeRequest(ctx, p.config.BaseURL+"/api/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var response ollamaEmbeddingResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to parse Ollama response")
	}

	if len(response.Embedding) == 0 {
		return nil, errors.New(errors.ErrTypeEmbedding, "empty embedding from Ollama")
	}

	return response.Embedding, nil
}

// OpenAI API structures
type openAIEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *HTTPProvider) embedOpenAI(ctx context.Context, text string) ([]float32, error) {
	reqBody := openAIEmbeddingRequest{
		Model: p.config.Model,
		Input: text,
	}

	respBody, err := p.makeRequest(ctx, p.config.BaseURL+"/v1/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var response openAIEmbeddingResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to parse OpenAI response")
	}

	if response.Error != nil {
		return nil, errors.Newf(errors.ErrTypeEmbedding, "OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Data) == 0 {
		return nil, errors.New(errors.ErrTypeEmbedding, "no embedding data from OpenAI")
	}

	return response.Data[0].Embedding, nil
}

// makeRequest makes an HTTP POST request to the embedding service
func (p *HTTPProvider) makeRequest(ctx context.Context, url string, reqBody interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "embedding service unavailable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
