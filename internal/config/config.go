package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the kittylit service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Domain    DomainConfig    `yaml:"domain"`
	Recommend RecommendConfig `yaml:"recommend"`
	Safety    SafetyConfig    `yaml:"safety"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
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

// RateLimitConfig holds per-IP request rate limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 = disabled
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// DatabaseConfig holds book store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // sqlite database file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	QueryTimeoutMS   int      `yaml:"query_timeout_ms"`
}

// Cache preload sources.
const (
	PreloadRedis    = "redis"
	PreloadDatabase = "database"
	PreloadNone     = "none"
)

// CacheConfig holds preloaded recommendation cache settings.
type CacheConfig struct {
	Preload            string `yaml:"preload"`              // redis, database, none (default: redis)
	MaxAgeHours        int    `yaml:"max_age_hours"`        // payloads older than this are stale
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"` // 0 = load once at start-up
	TTLHours           int    `yaml:"ttl_hours"`            // Redis TTL of warmed buckets
	WarmConcurrency    int    `yaml:"warm_concurrency"`
}

// BandConfig is one inclusive age band.
type BandConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// DomainConfig enumerates the values a query may take.
type DomainConfig struct {
	MinAge        int          `yaml:"min_age"`
	MaxAge        int          `yaml:"max_age"`
	Genres        []string     `yaml:"genres"`
	ReadingLevels []string     `yaml:"reading_levels"` // easiest first
	Bands         []BandConfig `yaml:"bands"`
	MaxHintLength int          `yaml:"max_hint_length"`
}

// WeightsConfig holds ranking weights.
type WeightsConfig struct {
	Category     float64 `yaml:"category"`
	AgeBand      float64 `yaml:"age_band"`
	ReadingLevel float64 `yaml:"reading_level"`
	Hint         float64 `yaml:"hint"`
}

// RecommendConfig holds rule engine thresholds, widening and ranking settings.
type RecommendConfig struct {
	SufficientCandidates int           `yaml:"sufficient_candidates"`
	MinCandidates        int           `yaml:"min_candidates"`
	MaxResults           int           `yaml:"max_results"`
	FetchLimit           int           `yaml:"fetch_limit"`
	WidenSteps           *int          `yaml:"widen_steps"` // nil = default, 0 disables widening
	WidenBands           int           `yaml:"widen_bands"`
	Weights              WeightsConfig `yaml:"weights"`
}

// SafetyConfig is the age/content policy applied to every candidate.
type SafetyConfig struct {
	BlockedFlags []string `yaml:"blocked_flags"`
	RequireISBN  *bool    `yaml:"require_isbn"` // nil = true
}

// BreakerConfig holds book store circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	MaxRequests      int `yaml:"max_requests"`
	IntervalSec      int `yaml:"interval_sec"`
	TimeoutSec       int `yaml:"timeout_sec"`
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
		c.HTTP.WriteTimeoutSec = 10
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
	if c.Database.QueryTimeoutMS <= 0 {
		c.Database.QueryTimeoutMS = 2000
	}

	if c.Cache.Preload == "" {
		c.Cache.Preload = PreloadRedis
	}
	if c.Cache.MaxAgeHours <= 0 {
		c.Cache.MaxAgeHours = 120
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = c.Cache.MaxAgeHours
	}
	if c.Cache.WarmConcurrency <= 0 {
		c.Cache.WarmConcurrency = 4
	}

	c.applyDomainDefaults()
	c.applyRecommendDefaults()

	if c.Safety.BlockedFlags == nil {
		c.Safety.BlockedFlags = []string{"violence", "horror", "mature", "sensitive"}
	}
	if c.Safety.RequireISBN == nil {
		requireISBN := true
		c.Safety.RequireISBN = &requireISBN
	}

	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.MaxRequests <= 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.IntervalSec <= 0 {
		c.Breaker.IntervalSec = 60
	}
	if c.Breaker.TimeoutSec <= 0 {
		c.Breaker.TimeoutSec = 30
	}
}

func (c *Config) applyDomainDefaults() {
	d := &c.Domain
	if d.MinAge <= 0 {
		d.MinAge = 2
	}
	if d.MaxAge <= 0 {
		d.MaxAge = 16
	}
	if len(d.Genres) == 0 {
		d.Genres = []string{
			"adventure", "animals", "biography", "fairy-tale", "fantasy", "history",
			"humor", "mystery", "picture-book", "poetry", "science", "science-fiction",
		}
	}
	if len(d.ReadingLevels) == 0 {
		d.ReadingLevels = []string{"beginner", "early", "intermediate", "advanced"}
	}
	if len(d.Bands) == 0 {
		d.Bands = []BandConfig{
			{Min: 2, Max: 4}, {Min: 5, Max: 6}, {Min: 7, Max: 8},
			{Min: 9, Max: 10}, {Min: 11, Max: 12}, {Min: 13, Max: 16},
		}
	}
	if d.MaxHintLength <= 0 {
		d.MaxHintLength = 200
	}
}

func (c *Config) applyRecommendDefaults() {
	r := &c.Recommend
	if r.SufficientCandidates <= 0 {
		r.SufficientCandidates = 3
	}
	if r.MinCandidates <= 0 {
		r.MinCandidates = 1
	}
	if r.MaxResults <= 0 {
		r.MaxResults = 5
	}
	if r.FetchLimit <= 0 {
		r.FetchLimit = 50
	}
	if r.WidenSteps == nil {
		steps := 1
		r.WidenSteps = &steps
	}
	if r.WidenBands <= 0 {
		r.WidenBands = 1
	}
	if r.Weights == (WeightsConfig{}) {
		r.Weights = WeightsConfig{Category: 3, AgeBand: 2, ReadingLevel: 1, Hint: 0.5}
	}
}

// Validate checks the configuration for correctness.
// Domain and ranking invariants are checked again by the packages that consume them.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			errs = append(errs, errors.New("database.addrs is required for the redis driver"))
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverRedis, DriverSQLite, c.Database.Driver))
	}

	switch c.Cache.Preload {
	case PreloadDatabase, PreloadNone:
	case PreloadRedis:
		if len(c.Database.Addrs) == 0 {
			errs = append(errs, errors.New("cache.preload \"redis\" requires database.addrs"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.preload must be one of %q, %q, %q, got %q",
			PreloadRedis, PreloadDatabase, PreloadNone, c.Cache.Preload))
	}
	if c.Cache.RefreshIntervalSec < 0 {
		errs = append(errs, fmt.Errorf("cache.refresh_interval_sec must be >= 0, got %d", c.Cache.RefreshIntervalSec))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.requests_per_minute must be >= 0, got %d",
			c.RateLimit.RequestsPerMinute))
	}
	if slices.ContainsFunc(c.Safety.BlockedFlags, func(f string) bool { return strings.TrimSpace(f) == "" }) {
		errs = append(errs, errors.New("safety.blocked_flags must not contain empty values"))
	}
	return errors.Join(errs...)
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
