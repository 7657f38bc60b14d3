package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration. The SCHEMARAG_ prefix on
// environment variables comes from the parse options in LoadConfig, so the
// per-field env tags carry the unprefixed names.
type Config struct {
	Database    DatabaseConfig    `json:"database"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	LLM         LLMConfig         `json:"llm"`
	Retrieval   RetrievalConfig   `json:"retrieval"`
	Logging     LoggingConfig     `json:"logging"`
}

// DatabaseConfig points at the SQLite database that questions are asked about.
// The same connection serves schema introspection and the compile-only check.
type DatabaseConfig struct {
	Path        string `json:"path"         env:"DB_PATH"         envDefault:"./data.db"`
	SampleLimit int    `json:"sample_limit" env:"DB_SAMPLE_LIMIT" envDefault:"5"`
}

// VectorStoreConfig represents the DuckDB-backed schema document index
type VectorStoreConfig struct {
	Path       string `json:"path"       env:"VECTOR_STORE_PATH" envDefault:"~/.config/schemarag/index.db"`
	Collection string `json:"collection" env:"VECTOR_COLLECTION" envDefault:"schema_documents"`
}

// EmbeddingConfig represents embedding provider configuration
type EmbeddingConfig struct {
	Provider   string `json:"provider"   env:"EMBEDDING_PROVIDER"   envDefault:"ollama"`
	Model      string `json:"model"      env:"EMBEDDING_MODEL"      envDefault:"all-minilm"`
	BaseURL    string `json:"base_url"   env:"EMBEDDING_BASE_URL"   envDefault:"http://localhost:11434"`
	APIKey     string `json:"api_key,omitempty" env:"EMBEDDING_API_KEY"`
	Dimensions int    `json:"dimensions" env:"EMBEDDING_DIMENSIONS" envDefault:"384"`
}

// LLMConfig represents the generative model used to produce SQL
type LLMConfig struct {
	Provider     string   `json:"provider"       env:"LLM_PROVIDER"       envDefault:"ollama"`
	Model        string   `json:"model"          env:"LLM_MODEL"          envDefault:"sqlcoder"`
	BaseURL      string   `json:"base_url"       env:"LLM_BASE_URL"       envDefault:"http://localhost:11434"`
	APIKey       string   `json:"api_key,omitempty" env:"LLM_API_KEY"`
	MaxNewTokens int      `json:"max_new_tokens" env:"LLM_MAX_NEW_TOKENS" envDefault:"400"`
	Stops        []string `json:"stops"          env:"LLM_STOPS"          envDefault:"###,;"`
	TimeoutSecs  int      `json:"timeout_secs"   env:"LLM_TIMEOUT_SECS"   envDefault:"120"`
}

// RetrievalConfig controls candidate selection for the schema context
type RetrievalConfig struct {
	// CandidateLimit caps the similarity search before thresholding.
	CandidateLimit int `json:"candidate_limit" env:"RETRIEVAL_CANDIDATE_LIMIT" envDefault:"50"`
	// ThresholdSlack is the multiplicative slack over the best match's
	// distance; candidates with distance <= best*slack are retained.
	ThresholdSlack float64 `json:"threshold_slack" env:"RETRIEVAL_THRESHOLD_SLACK" envDefault:"1.10"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.config/schemarag/logs/app.log"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	// Load from config file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides using env library (also sets defaults)
	if err := env.ParseWithOptions(config, env.Options{
		Prefix: "SCHEMARAG_",
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if config.Retrieval.CandidateLimit <= 0 {
		return fmt.Errorf(
			"retrieval candidate limit must be positive: %d",
			config.Retrieval.CandidateLimit,
		)
	}

	// Slack below 1.0 would cut off the best match itself.
	if config.Retrieval.ThresholdSlack < 1.0 {
		return fmt.Errorf(
			"retrieval threshold slack must be >= 1.0: %g",
			config.Retrieval.ThresholdSlack,
		)
	}

	if config.Database.SampleLimit < 0 {
		return fmt.Errorf("database sample limit must not be negative: %d", config.Database.SampleLimit)
	}

	if config.LLM.MaxNewTokens <= 0 {
		return fmt.Errorf("llm max new tokens must be positive: %d", config.LLM.MaxNewTokens)
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("SCHEMARAG_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "schemarag", "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Database.Path = expandPath(c.Database.Path)
	c.VectorStore.Path = expandPath(c.VectorStore.Path)
	c.Logging.File = expandPath(c.Logging.File)
}

// EnsureDirectories creates necessary directories for the configuration
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.VectorStore.Path),
		filepath.Dir(c.Logging.File),
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
