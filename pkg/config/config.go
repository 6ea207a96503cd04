// Package config loads runtime settings from an optional YAML file and
// RENSIGHTS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RENSIGHTS"

// Session store names.
const (
	SessionStoreFile   = "file"
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Failure policy names, see listing.ParseFailurePolicy.
const (
	FailurePolicyKeep  = "keep"
	FailurePolicyClear = "clear"
)

// Config holds everything the CLI and the BFF need to talk to the backend.
type Config struct {
	AdminAPIURL    string
	MainAPIURL     string
	TokenKey       string
	SessionStore   string
	SessionFile    string
	Redis          Redis
	HTTPTimeout    time.Duration
	PageSize       int
	FailurePolicy  string
	LogLevel       string
	LogFormat      string
	CircuitBreaker bool
	ListenAddr     string
	MetricsAddr    string
	Viper          *viper.Viper
}

// Redis configures the Redis session store.
type Redis struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Defaults registers the default value of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("admin_api_url", "https://admin-api.rensights.com")
	v.SetDefault("main_api_url", "")
	v.SetDefault("token_key", "rensights_admin_token")
	v.SetDefault("session_store", SessionStoreFile)
	v.SetDefault("session_file", "")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "rensights:session:")
	v.SetDefault("redis_ttl", "0s")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("page_size", 20)
	v.SetDefault("failure_policy", FailurePolicyKeep)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("circuit_breaker", false)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", "")
}

// Load reads configPath when given, then environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AdminAPIURL:  strings.TrimSpace(v.GetString("admin_api_url")),
		MainAPIURL:   strings.TrimSpace(v.GetString("main_api_url")),
		TokenKey:     v.GetString("token_key"),
		SessionStore: strings.ToLower(strings.TrimSpace(v.GetString("session_store"))),
		SessionFile:  v.GetString("session_file"),
		Redis: Redis{
			Addr:      v.GetString("redis_addr"),
			Password:  v.GetString("redis_password"),
			DB:        v.GetInt("redis_db"),
			KeyPrefix: v.GetString("redis_key_prefix"),
			TTL:       v.GetDuration("redis_ttl"),
		},
		HTTPTimeout:    v.GetDuration("http_timeout"),
		PageSize:       v.GetInt("page_size"),
		FailurePolicy:  strings.ToLower(strings.TrimSpace(v.GetString("failure_policy"))),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		CircuitBreaker: v.GetBool("circuit_breaker"),
		ListenAddr:     v.GetString("listen_addr"),
		MetricsAddr:    v.GetString("metrics_addr"),
		Viper:          v,
	}
	if cfg.MainAPIURL == "" {
		cfg.MainAPIURL = cfg.AdminAPIURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if err := validateURL("admin_api_url", c.AdminAPIURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("main_api_url", c.MainAPIURL); err != nil {
		errs = append(errs, err)
	}
	switch c.SessionStore {
	case SessionStoreFile, SessionStoreMemory:
	case SessionStoreRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, errors.New("config: redis_addr is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown session_store %q", c.SessionStore))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("config: page_size must be positive, got %d", c.PageSize))
	}
	switch c.FailurePolicy {
	case "", FailurePolicyKeep, FailurePolicyClear:
	default:
		errs = append(errs, fmt.Errorf("config: unknown failure_policy %q", c.FailurePolicy))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: http_timeout must not be negative, got %s", c.HTTPTimeout))
	}
	return errors.Join(errs...)
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("config: %s is required", key)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("config: %s must be an http(s) url, got %q", key, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("config: %s is missing a host", key)
	}
	return nil
}
