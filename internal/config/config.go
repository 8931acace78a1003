package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
)

// Config holds the spherenn API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Index      IndexConfig      `yaml:"index"`
	Validation ValidationConfig `yaml:"validation"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
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
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, valkey, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig selects the search engine and its tuning.
type IndexConfig struct {
	Engine    string `yaml:"engine"` // balltree, vptree, brute
	Metric    string `yaml:"metric"` // great_circle, haversine, chord
	LeafSize  int    `yaml:"leaf_size"`
	VPEffort  int    `yaml:"vp_effort"`
	MaxPoints int    `yaml:"max_points"`
	MaxK      int    `yaml:"max_k"`
}

// ValidationConfig holds defaults for validation runs.
type ValidationConfig struct {
	Tolerance      float64 `yaml:"tolerance"`
	Workers        int     `yaml:"workers"`
	DefaultQueries int     `yaml:"default_queries"`
	MaxQueries     int     `yaml:"max_queries"`
	Seed           int64   `yaml:"seed"`
	CoverageOrder  int     `yaml:"coverage_order"`
	ReportTTLSec   int     `yaml:"report_ttl_sec"`
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
	return Parse(data)
}

// Parse decodes YAML (after ${VAR} expansion), applies defaults and validates.
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 32 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Engine == "" {
		c.Index.Engine = string(engine.BallTree)
	}
	if c.Index.Metric == "" {
		c.Index.Metric = geo.GreatCircle.String()
	}
	if c.Index.LeafSize <= 0 {
		c.Index.LeafSize = 16
	}
	if c.Index.VPEffort <= 0 {
		c.Index.VPEffort = 2
	}
	if c.Index.MaxPoints <= 0 {
		c.Index.MaxPoints = 1_000_000
	}
	if c.Index.MaxK <= 0 {
		c.Index.MaxK = 100
	}
	if c.Validation.Tolerance == 0 {
		c.Validation.Tolerance = 1e-9
	}
	if c.Validation.DefaultQueries <= 0 {
		c.Validation.DefaultQueries = 200
	}
	if c.Validation.MaxQueries <= 0 {
		c.Validation.MaxQueries = 100_000
	}
	if c.Validation.Seed == 0 {
		c.Validation.Seed = 1
	}
	if c.Validation.CoverageOrder == 0 {
		c.Validation.CoverageOrder = 3
	}
	if c.Validation.ReportTTLSec <= 0 {
		c.Validation.ReportTTLSec = 86400
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "spherenn"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be memory, redis or valkey, got %q", c.Database.Driver)
	}
	if _, err := engine.Parse(c.Index.Engine); err != nil {
		return fmt.Errorf("index.engine: %w", err)
	}
	if _, err := geo.ParseMetric(c.Index.Metric); err != nil {
		return fmt.Errorf("index.metric: %w", err)
	}
	if c.Validation.Tolerance < 0 {
		return fmt.Errorf("validation.tolerance must be non-negative, got %g", c.Validation.Tolerance)
	}
	if c.Validation.DefaultQueries > c.Validation.MaxQueries {
		return fmt.Errorf("validation.default_queries (%d) exceeds max_queries (%d)",
			c.Validation.DefaultQueries, c.Validation.MaxQueries)
	}
	if c.Validation.CoverageOrder > 12 {
		return fmt.Errorf("validation.coverage_order must be at most 12, got %d", c.Validation.CoverageOrder)
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
