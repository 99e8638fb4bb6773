package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docqa.
type Config struct {
	Chunk      ChunkConfig      `yaml:"chunk"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Notes      NotesConfig      `yaml:"notes"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ChunkConfig holds the word-window chunking parameters.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK           int           `yaml:"top_k"`
	QueryCacheSize int           `yaml:"query_cache_size"` // 0 disables the query-vector cache
	QueryCacheTTL  time.Duration `yaml:"query_cache_ttl"`
}

// PromptConfig holds prompt construction settings.
type PromptConfig struct {
	MaxContextChars int `yaml:"max_context_chars"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // "openai", "gemini", "ollama", "mock"
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	APIKeyEnv  string        `yaml:"api_key_env"` // Environment variable for API key
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
	Dimension  int           `yaml:"dimension"` // mock provider only
}

// GenerationConfig holds text-generation configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "gemini", "ollama", "mock"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float32       `yaml:"temperature"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IngestConfig maps file names to decoders.
type IngestConfig struct {
	TextPatterns []string `yaml:"text_patterns"`
	PDFPatterns  []string `yaml:"pdf_patterns"`
}

// NotesConfig holds notes storage configuration.
type NotesConfig struct {
	Path string `yaml:"path"` // empty means <dir>/.docqa/notes.db
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			Size:    500,
			Overlap: 50,
		},
		Retrieve: RetrieveConfig{
			TopK:           5,
			QueryCacheSize: 128,
			QueryCacheTTL:  10 * time.Minute,
		},
		Prompt: PromptConfig{
			MaxContextChars: 3500,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			APIKeyEnv:  "OPENAI_API_KEY",
			BatchSize:  100,
			MaxRetries: 2,
			Timeout:    60 * time.Second,
			Dimension:  256,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
			MaxRetries:  2,
			Timeout:     60 * time.Second,
		},
		Ingest: IngestConfig{
			TextPatterns: []string{"**/*.txt", "**/*.md"},
			PDFPatterns:  []string{"**/*.pdf"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail later at build time.
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, %d), got %d", c.Chunk.Size, c.Chunk.Overlap)
	}
	if c.Retrieve.TopK < 0 {
		return fmt.Errorf("retrieve.top_k must not be negative, got %d", c.Retrieve.TopK)
	}
	if !knownProvider(c.Embedding.Provider) {
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	if !knownProvider(c.Generation.Provider) {
		return fmt.Errorf("unknown generation.provider %q", c.Generation.Provider)
	}
	return nil
}

func knownProvider(p string) bool {
	switch p {
	case "openai", "gemini", "ollama", "mock":
		return true
	}
	return false
}

// NotesDBPath returns the notes database path for dir.
func (c *Config) NotesDBPath(dir string) string {
	if c.Notes.Path != "" {
		if filepath.IsAbs(c.Notes.Path) {
			return c.Notes.Path
		}
		return filepath.Join(dir, c.Notes.Path)
	}
	return filepath.Join(dir, ".docqa", "notes.db")
}

// EnsureDataDir ensures the .docqa directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docqa"), 0755)
}
