package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. DOCCHAT_RETRIEVE_TOP_K.
const EnvPrefix = "DOCCHAT_"

// Config holds all configuration for docchat.
type Config struct {
	DataDir    string            `yaml:"data_dir" env:"DATA_DIR"`
	Session    SessionConfig     `yaml:"session" envPrefix:"SESSION_"`
	Chunking   ChunkingConfig    `yaml:"chunking" envPrefix:"CHUNKING_"`
	Retrieve   RetrieveConfig    `yaml:"retrieve" envPrefix:"RETRIEVE_"`
	Embedding  EmbeddingConfig   `yaml:"embedding" envPrefix:"EMBEDDING_"`
	Generation GenerationConfig  `yaml:"generation" envPrefix:"GENERATION_"`
	HTTP       HTTPConfig        `yaml:"http" envPrefix:"HTTP_"`
	Retry      retry.RetryConfig `yaml:"retry" envPrefix:"RETRY_"`
	Server     ServerConfig      `yaml:"server" envPrefix:"SERVER_"`
	Logging    LoggingConfig     `yaml:"logging" envPrefix:"LOG_"`
}

type SessionConfig struct {
	ID        string `yaml:"id" env:"ID"`
	Ephemeral bool   `yaml:"ephemeral" env:"EPHEMERAL"` // keep the index in memory only
}

// ChunkingConfig sizes are measured in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size" env:"SIZE"`
	Overlap int `yaml:"overlap" env:"OVERLAP"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK                 int           `yaml:"top_k" env:"TOP_K"`
	Metric               string        `yaml:"metric" env:"METRIC"` // "cosine" or "dot"
	MaxContextChars      int           `yaml:"max_context_chars" env:"MAX_CONTEXT_CHARS"`
	CondenseQuestion     bool          `yaml:"condense_question" env:"CONDENSE_QUESTION"`
	CacheQueryEmbeddings bool          `yaml:"cache_query_embeddings" env:"CACHE_QUERY_EMBEDDINGS"`
	CacheTTL             time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	MMRLambda            float64       `yaml:"mmr_lambda" env:"MMR_LAMBDA"` // 0 disables diversification
	DedupJaccard         float64       `yaml:"dedup_jaccard" env:"DEDUP_JACCARD"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" env:"PROVIDER"` // "gemini", "openai", "mock"
	Model     string `yaml:"model" env:"MODEL"`
	BaseURL   string `yaml:"base_url" env:"BASE_URL"`
	APIKeyEnv string `yaml:"api_key_env" env:"API_KEY_ENV"` // Environment variable for API key
	BatchSize int    `yaml:"batch_size" env:"BATCH_SIZE"`
	Dimension int    `yaml:"dimension" env:"DIMENSION"` // mock provider only
}

type GenerationConfig struct {
	Provider    string  `yaml:"provider" env:"PROVIDER"` // "gemini", "openai", "mock"
	Model       string  `yaml:"model" env:"MODEL"`
	BaseURL     string  `yaml:"base_url" env:"BASE_URL"`
	APIKeyEnv   string  `yaml:"api_key_env" env:"API_KEY_ENV"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens" env:"MAX_TOKENS"`
}

type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	ConnTimeout       time.Duration `yaml:"conn_timeout" env:"CONN_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"` // 0 disables throttling
	Burst             int           `yaml:"burst" env:"BURST"`
	LogRequests       bool          `yaml:"log_requests" env:"LOG_REQUESTS"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"ADDR"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	MaxUploadSize  int64         `yaml:"max_upload_size" env:"MAX_UPLOAD_SIZE"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".docchat",
		Session: SessionConfig{
			ID: "default",
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:             5,
			Metric:           "cosine",
			MaxContextChars:  12000,
			CondenseQuestion: true,
			CacheTTL:         10 * time.Minute,
			DedupJaccard:     0.9,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "models/embedding-001",
			APIKeyEnv: "GOOGLE_API_KEY",
			BatchSize: 100,
			Dimension: 256,
		},
		Generation: GenerationConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			APIKeyEnv:   "GOOGLE_API_KEY",
			Temperature: 0.3,
		},
		HTTP: HTTPConfig{
			Timeout:     30 * time.Second,
			ConnTimeout: 10 * time.Second,
			Burst:       1,
		},
		Retry: retry.DefaultRetryConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 120 * time.Second,
			MaxUploadSize:  32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docchat.yaml,
// then .docchat/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	candidates := []string{
		filepath.Join(dir, "docchat.yaml"),
		filepath.Join(dir, ".docchat", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Load("")
}

// LoadEnvFiles loads variables (typically API keys) from dotenv files that
// exist. Variables already set in the environment win.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch {
	case c.Chunking.Size <= 0:
		return &domain.ConfigError{Field: "chunking.size", Reason: "must be positive"}
	case c.Chunking.Overlap < 0:
		return &domain.ConfigError{Field: "chunking.overlap", Reason: "must not be negative"}
	case c.Chunking.Overlap >= c.Chunking.Size:
		return &domain.ConfigError{Field: "chunking.overlap", Reason: fmt.Sprintf("must be smaller than chunking.size (%d)", c.Chunking.Size)}
	case c.Retrieve.TopK <= 0:
		return &domain.ConfigError{Field: "retrieve.top_k", Reason: "must be positive"}
	case c.Retrieve.Metric != "cosine" && c.Retrieve.Metric != "dot":
		return &domain.ConfigError{Field: "retrieve.metric", Reason: fmt.Sprintf("unknown metric %q", c.Retrieve.Metric)}
	case c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1:
		return &domain.ConfigError{Field: "retrieve.mmr_lambda", Reason: "must be between 0 and 1"}
	case c.Retrieve.DedupJaccard <= 0 || c.Retrieve.DedupJaccard > 1:
		return &domain.ConfigError{Field: "retrieve.dedup_jaccard", Reason: "must be in (0, 1]"}
	case c.Embedding.BatchSize <= 0:
		return &domain.ConfigError{Field: "embedding.batch_size", Reason: "must be positive"}
	case c.Generation.Temperature < 0 || c.Generation.Temperature > 2:
		return &domain.ConfigError{Field: "generation.temperature", Reason: "must be between 0 and 2"}
	case c.HTTP.Timeout <= 0:
		return &domain.ConfigError{Field: "http.timeout", Reason: "must be positive"}
	case c.Session.ID == "":
		return &domain.ConfigError{Field: "session.id", Reason: "must not be empty"}
	case c.Session.ID == "." || c.Session.ID == ".." || strings.ContainsAny(c.Session.ID, `/\`):
		return &domain.ConfigError{Field: "session.id", Reason: fmt.Sprintf("%q is not a valid directory name", c.Session.ID)}
	}
	if !knownProvider(c.Embedding.Provider) {
		return &domain.ConfigError{Field: "embedding.provider", Reason: fmt.Sprintf("unknown provider %q", c.Embedding.Provider)}
	}
	if !knownProvider(c.Generation.Provider) {
		return &domain.ConfigError{Field: "generation.provider", Reason: fmt.Sprintf("unknown provider %q", c.Generation.Provider)}
	}
	return nil
}

func knownProvider(name string) bool {
	switch name {
	case "gemini", "openai", "mock":
		return true
	}
	return false
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SessionDir returns the directory holding one session's persisted state.
func SessionDir(dataDir, sessionID string) string {
	return filepath.Join(dataDir, "sessions", sessionID)
}

// IndexDBPath returns the path to a session's index database.
func IndexDBPath(dataDir, sessionID string) string {
	return filepath.Join(SessionDir(dataDir, sessionID), "index.db")
}

// EnsureSessionDir ensures the session directory exists.
func EnsureSessionDir(dataDir, sessionID string) error {
	return os.MkdirAll(SessionDir(dataDir, sessionID), 0755)
}
