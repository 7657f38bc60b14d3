// Package generate produces candidate SQL from a question and a rendered
// schema context. The generative model is a black box behind the Completer
// interface; the client speaks Ollama and OpenAI-compatible HTTP APIs.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/errors"
)

// Completer is the single call the pipeline needs from a generative model:
// prompt in, text out, truncated at the first stop sequence encountered.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxNewTokens int, stops []string) (string, error)
}

// Provider constants for supported backends
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Client implements Completer over HTTP
type Client struct {
	config     config.LLMConfig
	httpClient *http.Client
}

// NewClient creates an LLM client from configuration
func NewClient(cfg config.LLMConfig) (*Client, error) {
	switch cfg.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.Provider == ProviderOpenAI && cfg.APIKey == "" {
		return nil, errors.New(errors.ErrTypeConfig, "API key is required for OpenAI provider")
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Complete renders the prompt through the configured backend. The stop
// sequences are passed to the backend and applied again client-side, since
// not every server honors them.
func (c *Client) Complete(ctx context.Context, prompt string, maxNewTokens int, stops []string) (string, error) {
	var (
		text string
		err  error
	)

	switch c.config.Provider {
	case ProviderOllama:
		text, err = c.completeOllama(ctx, prompt, maxNewTokens, stops)
	case ProviderOpenAI:
		text, err = c.completeOpenAI(ctx, prompt, maxNewTokens, stops)
	default:
		return "", errors.Newf(errors.ErrTypeConfig, "unsupported LLM provider: %s", c.config.Provider)
	}

	if err != nil {
		return "", err
	}

	return truncateAtStop(text, stops), nil
}

// Ollama API structures
type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict int      `json:"num_predict"`
	Stop       []string `json:"stop,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) completeOllama(ctx context.Context, prompt string, maxNewTokens int, stops []string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			NumPredict: maxNewTokens,
			Stop:       stops,
		},
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/api/generate", reqBody)
	if err != nil {
		return "", err
	}

	var response ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeGeneration, "failed to parse Ollama response")
	}

	if response.Error != "" {
		return "", errors.Newf(errors.ErrTypeGeneration, "Ollama API error: %s", response.Error)
	}

	return response.Response, nil
}

// OpenAI API structures
type openAICompletionRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
	Stop      []string        `json:"stop,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAICompletionResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) completeOpenAI(ctx context.Context, prompt string, maxNewTokens int, stops []string) (string, error) {
	reqBody := openAICompletionRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxNewTokens,
		Stop:      stops,
	}

	respBody, err := c.makeRequest(ctx, c.config.BaseURL+"/v1/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var response openAICompletionResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeGeneration, "failed to parse OpenAI response")
	}

	if response.Error != nil {
		return "", errors.Newf(errors.ErrTypeGeneration, "OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", errors.New(errors.ErrTypeGeneration, "no completion from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}

// makeRequest makes an HTTP POST request to the generation service
func (c *Client) makeRequest(ctx context.Context, url string, reqBody interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "generation service unavailable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrTypeGeneration,
			"generation request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// truncateAtStop cuts the text at the earliest occurrence of any stop
// sequence. The stop itself is dropped.
func truncateAtStop(text string, stops []string) string {
	cut := len(text)

	for _, stop := range stops {
		if idx := strings.Index(text, stop); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	return text[:cut]
}
