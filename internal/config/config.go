package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the localseek service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Expand    ExpandConfig    `yaml:"expand"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	WebSearch WebSearchConfig `yaml:"websearch"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AuthConfig holds API authentication settings. An empty key list disables
// authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LLMConfig holds relevance-model server settings (Ollama-compatible).
type LLMConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ExpandConfig holds query expansion settings.
type ExpandConfig struct {
	Enabled bool `yaml:"enabled"`
	Count   int  `yaml:"count"`
	Cache   bool `yaml:"cache"`
}

// RerankConfig holds reranking settings.
type RerankConfig struct {
	Enabled bool `yaml:"enabled"`
	TopK    int  `yaml:"top_k"`
	Cache   bool `yaml:"cache"`
}

// CacheConfig holds enhancement cache settings.
// TTLDays is declared for operators but not enforced by the pipeline;
// expiry is an administrative concern.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLDays int  `yaml:"ttl_days"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultLimit  int `yaml:"default_limit"`
	MaxLimit      int `yaml:"max_limit"`
	SnippetLength int `yaml:"snippet_length"`
}

// WebSearchConfig holds optional web supplement settings.
type WebSearchConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxResults int  `yaml:"max_results"`
	TimeoutSec int  `yaml:"timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Rerank + summarize can chain two model calls; leave headroom.
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "qwen2.5:1.5b"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.Expand.Count <= 0 {
		c.Expand.Count = 2
	}
	if c.Rerank.TopK <= 0 {
		c.Rerank.TopK = 20
	}
	if c.Cache.TTLDays <= 0 {
		c.Cache.TTLDays = 30
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.SnippetLength <= 0 {
		c.Search.SnippetLength = 150
	}
	if c.WebSearch.MaxResults <= 0 {
		c.WebSearch.MaxResults = 5
	}
	if c.WebSearch.TimeoutSec <= 0 {
		c.WebSearch.TimeoutSec = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "localseek:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
