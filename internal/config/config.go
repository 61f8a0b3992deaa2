// Package config loads the service configuration from config/<env>.yaml.
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

// Storage drivers.
const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverBadger = "badger"
	DriverQdrant = "qdrant"
)

// Config holds the talentmatch configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	DocumentStore DocumentStoreConfig `yaml:"document_store"`
	VectorIndex   VectorIndexConfig   `yaml:"vector_index"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Fusion        FusionConfig        `yaml:"fusion"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Maintenance   MaintenanceConfig   `yaml:"maintenance"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds owner identity settings.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the Redis/Valkey connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DocumentStoreConfig selects where canonical entity records live.
type DocumentStoreConfig struct {
	Driver   string `yaml:"driver"` // redis (default), badger
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// VectorIndexConfig selects and tunes the namespace vector index.
type VectorIndexConfig struct {
	Driver          string       `yaml:"driver"` // redis (default), valkey, qdrant
	Dimensions      int          `yaml:"dimensions"`
	HNSWM           int          `yaml:"hnsw_m"`
	HNSWEFConstruct int          `yaml:"hnsw_ef_construction"`
	Qdrant          QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds the Qdrant gRPC endpoint.
type QdrantConfig struct {
	Addr             string `yaml:"addr"`
	DialTimeoutSec   int    `yaml:"dial_timeout_sec"`
	CollectionPrefix string `yaml:"collection_prefix"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Vectorizer VectorizerConfig          `yaml:"vectorizer"`
	Cache      CacheConfig               `yaml:"cache"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// CacheConfig toggles the embedding cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FusionConfig selects the fusion strategy and per-subspace weights.
type FusionConfig struct {
	Strategy         string             `yaml:"strategy"`   // weighted (default), rrf
	Normalizer       string             `yaml:"normalizer"` // cosine (default), unit
	CandidateWeights map[string]float64 `yaml:"candidate_weights"`
	ProjectWeights   map[string]float64 `yaml:"project_weights"`
}

// RetrievalConfig bounds result sizes and KNN over-fetch.
type RetrievalConfig struct {
	DefaultTopK     int `yaml:"default_top_k"`
	MaxTopK         int `yaml:"max_top_k"`
	OverfetchFactor int `yaml:"overfetch_factor"`
	OverfetchMin    int `yaml:"overfetch_min"`
	OverfetchMax    int `yaml:"overfetch_max"`
}

// MaintenanceConfig tunes the maintenance jobs.
type MaintenanceConfig struct {
	Workers int `yaml:"workers"`
	// Unreferenced vectors younger than this are never swept.
	OrphanGraceSec int `yaml:"orphan_grace_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
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

// DefaultCandidateWeights are the candidate subspace weights used when none are configured.
func DefaultCandidateWeights() map[string]float64 {
	return map[string]float64{
		"professional_summary": 0.4,
		"skills_matrix":        0.35,
		"project_portfolio":    0.25,
	}
}

// DefaultProjectWeights are the project subspace weights used when none are configured.
func DefaultProjectWeights() map[string]float64 {
	return map[string]float64{
		"project_description": 0.6,
		"project_skills":      0.4,
	}
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
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.DocumentStore.Driver == "" {
		c.DocumentStore.Driver = DriverRedis
	}
	if c.VectorIndex.Driver == "" {
		c.VectorIndex.Driver = DriverRedis
	}
	if c.VectorIndex.Dimensions <= 0 {
		c.VectorIndex.Dimensions = c.Embedding.Vectorizer.Dimensions
	}
	if c.VectorIndex.HNSWM <= 0 {
		c.VectorIndex.HNSWM = 16
	}
	if c.VectorIndex.HNSWEFConstruct <= 0 {
		c.VectorIndex.HNSWEFConstruct = 200
	}
	if c.VectorIndex.Qdrant.DialTimeoutSec <= 0 {
		c.VectorIndex.Qdrant.DialTimeoutSec = 5
	}
	if c.VectorIndex.Qdrant.CollectionPrefix == "" {
		c.VectorIndex.Qdrant.CollectionPrefix = "talentmatch_"
	}
	if c.Fusion.Strategy == "" {
		c.Fusion.Strategy = "weighted"
	}
	if c.Fusion.Normalizer == "" {
		c.Fusion.Normalizer = "cosine"
	}
	if len(c.Fusion.CandidateWeights) == 0 {
		c.Fusion.CandidateWeights = DefaultCandidateWeights()
	}
	if len(c.Fusion.ProjectWeights) == 0 {
		c.Fusion.ProjectWeights = DefaultProjectWeights()
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 100
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 1000
	}
	if c.Retrieval.OverfetchFactor <= 0 {
		c.Retrieval.OverfetchFactor = 3
	}
	if c.Retrieval.OverfetchMin <= 0 {
		c.Retrieval.OverfetchMin = 50
	}
	if c.Retrieval.OverfetchMax <= 0 {
		c.Retrieval.OverfetchMax = 1000
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "token"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "talentmatch:"
	}
	if c.Maintenance.Workers <= 0 {
		c.Maintenance.Workers = 8
	}
	if c.Maintenance.OrphanGraceSec <= 0 {
		c.Maintenance.OrphanGraceSec = 600
	}
}

// NeedsDatabase reports whether any component talks to Redis/Valkey.
func (c *Config) NeedsDatabase() bool {
	return c.DocumentStore.Driver == DriverRedis ||
		c.VectorIndex.Driver == DriverRedis || c.VectorIndex.Driver == DriverValkey
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	switch c.DocumentStore.Driver {
	case DriverRedis:
	case DriverBadger:
		if !c.DocumentStore.InMemory && c.DocumentStore.Path == "" {
			return fmt.Errorf("document_store.path is required for the badger driver")
		}
	default:
		return fmt.Errorf("document_store.driver must be \"redis\" or \"badger\", got %q", c.DocumentStore.Driver)
	}
	switch c.VectorIndex.Driver {
	case DriverRedis, DriverValkey:
	case DriverQdrant:
		if c.VectorIndex.Qdrant.Addr == "" {
			return fmt.Errorf("vector_index.qdrant.addr is required for the qdrant driver")
		}
	default:
		return fmt.Errorf(
			"vector_index.driver must be \"redis\", \"valkey\" or \"qdrant\", got %q", c.VectorIndex.Driver,
		)
	}
	if c.NeedsDatabase() && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.VectorIndex.Dimensions <= 0 {
		return fmt.Errorf("vector_index.dimensions (or embedding.vectorizer.dimensions) is required")
	}
	if p := c.Embedding.Vectorizer.Provider; p != "" {
		if _, ok := c.Embedding.Providers[p]; !ok {
			return fmt.Errorf("embedding.vectorizer.provider %q is not configured", p)
		}
	}
	if err := c.validateFusion(); err != nil {
		return err
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k (%d) exceeds retrieval.max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	if c.Retrieval.OverfetchMin > c.Retrieval.OverfetchMax {
		return fmt.Errorf("retrieval.overfetch_min (%d) exceeds retrieval.overfetch_max (%d)",
			c.Retrieval.OverfetchMin, c.Retrieval.OverfetchMax)
	}
	return nil
}

func (c *Config) validateFusion() error {
	switch c.Fusion.Strategy {
	case "weighted", "rrf":
	default:
		return fmt.Errorf("fusion.strategy must be \"weighted\" or \"rrf\", got %q", c.Fusion.Strategy)
	}
	switch c.Fusion.Normalizer {
	case "cosine", "unit":
	default:
		return fmt.Errorf("fusion.normalizer must be \"cosine\" or \"unit\", got %q", c.Fusion.Normalizer)
	}
	tables := []struct {
		name    string
		weights map[string]float64
		allowed []string
	}{
		{"candidate_weights", c.Fusion.CandidateWeights,
			[]string{"professional_summary", "skills_matrix", "project_portfolio"}},
		{"project_weights", c.Fusion.ProjectWeights,
			[]string{"project_description", "project_skills"}},
	}
	for _, tbl := range tables {
		for name, w := range tbl.weights {
			if !contains(tbl.allowed, name) {
				return fmt.Errorf("fusion.%s: unknown subspace %q", tbl.name, name)
			}
			if w < 0 {
				return fmt.Errorf("fusion.%s.%s must not be negative, got %g", tbl.name, name, w)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
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
