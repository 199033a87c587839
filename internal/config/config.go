package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shopchat/internal/db"
	"github.com/kailas-cloud/shopchat/internal/domain/rerank"
)

// Database drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Config holds the shopchat configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds catalog store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	DSN              string   `yaml:"dsn"`   // postgres only
	Table            string   `yaml:"table"` // postgres only
	MaxOpenConns     int      `yaml:"max_open_conns"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IsKV reports whether the driver is Redis-compatible.
func (d DatabaseConfig) IsKV() bool {
	return d.Driver == DriverValkey || d.Driver == DriverRedis
}

// IndexConfig holds vector index settings for the Redis-compatible drivers.
type IndexConfig struct {
	Algorithm       string `yaml:"algorithm"` // hnsw, flat
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider and cache settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, hash
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	CacheSize           int    `yaml:"cache_size"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"`
	SharedCache         bool   `yaml:"shared_cache"`
}

// Timeout returns the provider call timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

// CacheTTL returns the shared cache entry lifetime.
func (e EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSec) * time.Second
}

// RetrievalConfig holds hybrid retrieval tuning.
type RetrievalConfig struct {
	TopK             int     `yaml:"top_k"`
	MaxDistance      float64 `yaml:"max_distance"`
	RecommendedCount int     `yaml:"recommended_count"`
}

// RerankConfig holds additional re-ranking rules.
type RerankConfig struct {
	// Rules take precedence over built-in rules of the same name.
	Rules          []rerank.Rule `yaml:"rules"`
	DisableBuiltin bool          `yaml:"disable_builtin"`
}

// EffectiveRules merges configured rules with the built-in table.
func (r RerankConfig) EffectiveRules() []rerank.Rule {
	if r.DisableBuiltin {
		return r.Rules
	}
	return rerank.Merge(r.Rules, rerank.Builtin())
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding ${VAR} and ${VAR:-default} first.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "shopchat:products:"
	}
	if c.Database.Table == "" {
		c.Database.Table = "products"
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderHash
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 512
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 7 * 24 * 3600
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 8
	}
	if c.Retrieval.MaxDistance == 0 {
		c.Retrieval.MaxDistance = 0.45
	}
	if c.Retrieval.RecommendedCount <= 0 {
		c.Retrieval.RecommendedCount = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
		if c.Embedding.SharedCache {
			return fmt.Errorf("embedding.shared_cache requires a valkey or redis database driver")
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or postgres, got %q", c.Database.Driver)
	}
	if _, err := db.ParseVectorAlgorithm(c.Index.Algorithm); err != nil {
		return fmt.Errorf("index.algorithm: %w", err)
	}
	switch c.Embedding.Provider {
	case ProviderHash:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", c.Embedding.Provider)
		}
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"hash\", got %q", c.Embedding.Provider)
	}
	if c.Retrieval.MaxDistance <= 0 || c.Retrieval.MaxDistance > 2 {
		return fmt.Errorf("retrieval.max_distance must be within (0, 2], got %g", c.Retrieval.MaxDistance)
	}
	if _, err := rerank.NewRanker(c.Rerank.EffectiveRules()); err != nil {
		return fmt.Errorf("rerank.rules: %w", err)
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
