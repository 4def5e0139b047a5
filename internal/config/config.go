// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Result cache backends.
const (
	ResultsBackendMemory = "memory"
	ResultsBackendRedis  = "redis"
)

const maxPageSize = 200

// DefaultAllowedCurrencies are the display currencies offered when the
// config names none.
var DefaultAllowedCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "CNY", "HKD", "AUD", "SGD", "CHF"}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Ebay     EbayConfig     `yaml:"ebay"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Results  ResultsConfig  `yaml:"results"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	ReadTimeout         time.Duration `yaml:"read_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	SearchTimeout       time.Duration `yaml:"search_timeout"`
	SearchRatePerMinute int           `yaml:"search_rate_per_minute"` // per client IP, 0 disables
	SessionCookie       string        `yaml:"session_cookie"`
}

// EbayConfig defines eBay API settings.
type EbayConfig struct {
	AppID             string          `yaml:"app_id"`
	CertID            string          `yaml:"cert_id"`
	Scope             string          `yaml:"scope"`
	TokenURL          string          `yaml:"token_url"`
	BrowseURL         string          `yaml:"browse_url"`
	AnalyticsURL      string          `yaml:"analytics_url"`
	Marketplace       string          `yaml:"marketplace"`
	CategoryID        string          `yaml:"category_id"`
	PageSize          int             `yaml:"page_size"`
	MaxPages          int             `yaml:"max_pages"`
	Timeout           time.Duration   `yaml:"timeout"`
	QuotaSyncInterval time.Duration   `yaml:"quota_sync_interval"` // 0 disables
	Retry             RetryConfig     `yaml:"retry"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

// RetryConfig bounds the backoff applied to throttled or failing calls.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
}

// RateLimitConfig defines eBay API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// ExchangeConfig defines the exchange rate source and cache.
type ExchangeConfig struct {
	APIKey              string        `yaml:"api_key"`
	URL                 string        `yaml:"url"`
	BaseCurrency        string        `yaml:"base_currency"`
	TTL                 time.Duration `yaml:"ttl"`
	Timeout             time.Duration `yaml:"timeout"`
	WarmInterval        time.Duration `yaml:"warm_interval"` // 0 disables warm-up
	AllowedCurrencies   []string      `yaml:"allowed_currencies"`
	FallbackUnconverted bool          `yaml:"fallback_unconverted"`
}

// ResultsConfig selects where each session's last results are kept.
type ResultsConfig struct {
	Backend string        `yaml:"backend"` // memory, redis
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig defines the Redis connection used by the redis results backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig defines PostgreSQL connection settings. Persistence is
// optional; an empty host disables it.
type DatabaseConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Name      string        `yaml:"name"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	SSLMode   string        `yaml:"sslmode"`
	PoolSize  int           `yaml:"pool_size"`
	Retention time.Duration `yaml:"retention"`
}

// Enabled reports whether a database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// TracingConfig defines OpenTelemetry export settings.
type TracingConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	Insecure       bool          `yaml:"insecure"`
	SampleRatio    float64       `yaml:"sample_ratio"`
	ExportMetrics  bool          `yaml:"export_metrics"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, console
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyEbayDefaults(&cfg.Ebay)
	applyExchangeDefaults(&cfg.Exchange)
	applyResultsDefaults(&cfg.Results)
	applyRedisDefaults(&cfg.Redis)
	applyDatabaseDefaults(&cfg.Database)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 90 * time.Second
	}
	if s.SearchTimeout == 0 {
		s.SearchTimeout = 60 * time.Second
	}
	if s.SearchRatePerMinute == 0 {
		s.SearchRatePerMinute = 10
	}
	if s.SessionCookie == "" {
		s.SessionCookie = "pa_session"
	}
}

func applyEbayDefaults(e *EbayConfig) {
	if e.Scope == "" {
		e.Scope = "https://api.ebay.com/oauth/api_scope"
	}
	if e.TokenURL == "" {
		e.TokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	}
	if e.BrowseURL == "" {
		e.BrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	}
	if e.AnalyticsURL == "" {
		e.AnalyticsURL = "https://api.ebay.com/developer/analytics/v1_beta/rate_limit/"
	}
	if e.Marketplace == "" {
		e.Marketplace = "EBAY_US"
	}
	if e.PageSize == 0 {
		e.PageSize = 100
	}
	if e.MaxPages == 0 {
		e.MaxPages = 3
	}
	if e.Timeout == 0 {
		e.Timeout = 10 * time.Second
	}
	if e.Retry.MaxAttempts == 0 {
		e.Retry.MaxAttempts = 3
	}
	if e.Retry.InitialInterval == 0 {
		e.Retry.InitialInterval = 500 * time.Millisecond
	}
	applyRateLimitDefaults(&e.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 5.0
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 5000
	}
}

func applyExchangeDefaults(x *ExchangeConfig) {
	if x.URL == "" {
		x.URL = "https://v6.exchangerate-api.com/v6"
	}
	if x.BaseCurrency == "" {
		x.BaseCurrency = "USD"
	}
	x.BaseCurrency = strings.ToUpper(x.BaseCurrency)
	if x.TTL == 0 {
		x.TTL = time.Hour
	}
	if x.Timeout == 0 {
		x.Timeout = 10 * time.Second
	}
	if len(x.AllowedCurrencies) == 0 {
		x.AllowedCurrencies = append([]string(nil), DefaultAllowedCurrencies...)
	}
	for i, c := range x.AllowedCurrencies {
		x.AllowedCurrencies[i] = strings.ToUpper(strings.TrimSpace(c))
	}
}

func applyResultsDefaults(r *ResultsConfig) {
	if r.Backend == "" {
		r.Backend = ResultsBackendMemory
	}
	if r.TTL == 0 {
		r.TTL = 30 * time.Minute
	}
}

func applyRedisDefaults(r *RedisConfig) {
	if r.Addr == "" {
		r.Addr = "localhost:6379"
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
	if d.Retention == 0 {
		d.Retention = 30 * 24 * time.Hour
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = 30 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateEbay(&cfg.Ebay)...)
	errs = append(errs, validateExchange(&cfg.Exchange)...)

	switch cfg.Results.Backend {
	case ResultsBackendMemory, ResultsBackendRedis:
	default:
		errs = append(errs, fmt.Errorf(
			"results.backend must be one of: memory, redis (got %q)", cfg.Results.Backend,
		))
	}

	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required when database.host is set"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, errors.New("database.user is required when database.host is set"))
		}
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf(
			"tracing.sample_ratio must be between 0 and 1 (got %g)", cfg.Tracing.SampleRatio,
		))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level,
		))
	}
	switch cfg.Logging.Format {
	case "text", "json", "console":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json, console (got %q)", cfg.Logging.Format,
		))
	}

	return errors.Join(errs...)
}

func validateEbay(e *EbayConfig) []error {
	var errs []error
	if e.AppID == "" {
		errs = append(errs, errors.New("ebay.app_id is required"))
	}
	if e.CertID == "" {
		errs = append(errs, errors.New("ebay.cert_id is required"))
	}
	if e.PageSize < 1 || e.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("ebay.page_size must be between 1 and %d (got %d)", maxPageSize, e.PageSize))
	}
	if e.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("ebay.max_pages must be at least 1 (got %d)", e.MaxPages))
	}
	if e.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ebay.retry.max_attempts must be at least 1 (got %d)", e.Retry.MaxAttempts))
	}
	if e.QuotaSyncInterval < 0 {
		errs = append(errs, fmt.Errorf("ebay.quota_sync_interval must not be negative (got %s)", e.QuotaSyncInterval))
	}
	return errs
}

func validateExchange(x *ExchangeConfig) []error {
	var errs []error
	if !isCurrencyCode(x.BaseCurrency) {
		errs = append(errs, fmt.Errorf("exchange.base_currency must be a 3-letter code (got %q)", x.BaseCurrency))
	}
	for _, c := range x.AllowedCurrencies {
		if !isCurrencyCode(c) {
			errs = append(errs, fmt.Errorf("exchange.allowed_currencies: %q is not a 3-letter code", c))
		}
	}
	if x.TTL < 0 {
		errs = append(errs, fmt.Errorf("exchange.ttl must be positive (got %s)", x.TTL))
	}
	return errs
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
