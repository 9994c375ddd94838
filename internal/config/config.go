// ABOUTME: Configuration management for memento with YAML config loading.
// ABOUTME: Handles store, embedding, search, and log settings plus env overrides and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/memento/internal/embeddings"
	"github.com/2389-research/memento/internal/search"
)

// Config stores memento configuration loaded from ~/.config/memento/config.yaml.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	Path        string `yaml:"path,omitempty"`
	WAL         bool   `yaml:"wal"`
	Synchronous string `yaml:"synchronous"`
}

// EmbeddingConfig selects the embedding backend used for semantic search.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	Model             string  `yaml:"model,omitempty"`
	APIKey            string  `yaml:"api_key,omitempty"`
	Dimensions        int     `yaml:"dimensions,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// SearchConfig tunes semantic ranking.
type SearchConfig struct {
	Floor       float64 `yaml:"floor"`
	K           float64 `yaml:"k"`
	TopK        int     `yaml:"top_k"`
	Concurrency int     `yaml:"concurrency"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			WAL:         true,
			Synchronous: "normal",
		},
		Embedding: EmbeddingConfig{
			Provider: embeddings.BackendHash,
		},
		Search: SearchConfig{
			Floor:       search.DefaultFloor,
			K:           search.DefaultK,
			TopK:        search.DefaultTopK,
			Concurrency: search.DefaultConcurrency,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// HasRemoteEmbeddings returns true if an HTTP embedding backend is configured.
func (c *Config) HasRemoteEmbeddings() bool {
	switch strings.ToLower(c.Embedding.Provider) {
	case embeddings.BackendOpenAI, embeddings.BackendOllama:
		return true
	default:
		return false
	}
}

// EmbeddingSettings converts the embedding section for the embeddings package.
func (c *Config) EmbeddingSettings() embeddings.Settings {
	return embeddings.Settings{
		Backend:           c.Embedding.Provider,
		BaseURL:           c.Embedding.BaseURL,
		Model:             c.Embedding.Model,
		APIKey:            c.Embedding.APIKey,
		Dimensions:        c.Embedding.Dimensions,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
	}
}

// Ranker returns the ranker described by the search section.
func (c *Config) Ranker() search.Ranker {
	return search.Ranker{Floor: c.Search.Floor, K: c.Search.K, TopK: c.Search.TopK}
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Embedding.Provider) {
	case embeddings.BackendOpenAI, embeddings.BackendOllama, embeddings.BackendHash:
	default:
		return fmt.Errorf("embedding.provider %q is not one of openai, ollama, hash", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative, got %v", c.Embedding.RequestsPerSecond)
	}
	if c.Search.Floor < -1 || c.Search.Floor > 1 {
		return fmt.Errorf("search.floor must be within [-1, 1], got %v", c.Search.Floor)
	}
	if c.Search.K < 0 {
		return fmt.Errorf("search.k must not be negative, got %v", c.Search.K)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.Concurrency <= 0 {
		return fmt.Errorf("search.concurrency must be positive, got %d", c.Search.Concurrency)
	}
	return nil
}

// ApplyEnv overrides file settings with MEMENTO_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("MEMENTO_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MEMENTO_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("MEMENTO_EMBEDDING_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv("MEMENTO_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("MEMENTO_EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	} else if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("MEMENTO_EMBEDDING_DIMENSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEMENTO_EMBEDDING_DIMENSIONS: %w", err)
		}
		c.Embedding.Dimensions = n
	}
	if v := os.Getenv("MEMENTO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// GetDBPath returns the database path, defaulting to $XDG_DATA_HOME/memento/memento.db.
func (c *Config) GetDBPath() (string, error) {
	if c.Store.Path != "" {
		return ExpandPath(c.Store.Path)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "memento.db"), nil
}

// DataDir returns the default data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "memento"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "memento", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
// Settings missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
