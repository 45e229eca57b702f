// Package config loads folio configuration from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/folio/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is stripped from FOLIO_* variables before mapping them to keys.
const EnvPrefix = "FOLIO_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	KV        KVConfig        `koanf:"kv"`
	Content   ContentConfig   `koanf:"content"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Email     EmailConfig     `koanf:"email"`
	Contact   ContactConfig   `koanf:"contact"`
	Search    SearchConfig    `koanf:"search"`
	Auth      AuthConfig      `koanf:"auth"`
	Security  SecurityConfig  `koanf:"security"`
	OG        OGConfig        `koanf:"og"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port" validate:"min=1,max=65535"`
	Environment  string        `koanf:"environment" validate:"oneof=development production test"`
	Site         string        `koanf:"site" validate:"required,url"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type DatabaseConfig struct {
	// Driver is sqlite or postgres.
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `koanf:"dsn" validate:"required"`
}

type KVConfig struct {
	Path     string        `koanf:"path"`
	InMemory bool          `koanf:"in_memory"`
	DedupTTL time.Duration `koanf:"dedup_ttl"`
}

type ContentConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

type AnalyticsConfig struct {
	// Epoch is the lower bound of the all-time date range (YYYY-MM-DD).
	Epoch         string   `koanf:"epoch" validate:"datetime=2006-01-02"`
	PageSize      int      `koanf:"page_size" validate:"min=1"`
	UntrackedURLs []string `koanf:"untracked_urls"`
}

type EmailConfig struct {
	SendGridAPIKey string `koanf:"sendgrid_api_key"`
	SendGridURL    string `koanf:"sendgrid_url"`
	To             string `koanf:"to"`
	ToName         string `koanf:"to_name"`
	From           string `koanf:"from"`
	FromName       string `koanf:"from_name"`
}

type ContactConfig struct {
	FormspreeURL string `koanf:"formspree_url"`
}

type SearchConfig struct {
	AlgoliaAppID    string `koanf:"algolia_app_id"`
	AlgoliaAPIKey   string `koanf:"algolia_api_key"`
	AlgoliaIndex    string `koanf:"algolia_index"`
	AlgoliaEndpoint string `koanf:"algolia_endpoint"`
}

type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	CookieName string        `koanf:"cookie_name"`
}

type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

type OGConfig struct {
	SiteName   string `koanf:"site_name"`
	AvatarPath string `koanf:"avatar_path"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment reports whether view tracking should be suppressed.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// AnalyticsEpoch parses Analytics.Epoch as a UTC date.
func (c *Config) AnalyticsEpoch() time.Time {
	t, err := time.Parse("2006-01-02", c.Analytics.Epoch)
	if err != nil {
		return time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Environment:  "production",
			Site:         "http://localhost:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:data/folio.db?cache=shared&_fk=1",
		},
		KV: KVConfig{
			Path:     "data/badger",
			DedupTTL: 24 * time.Hour,
		},
		Content: ContentConfig{
			Dir: "content",
		},
		Analytics: AnalyticsConfig{
			Epoch:         "2024-01-04",
			PageSize:      10,
			UntrackedURLs: []string{"/page-views"},
		},
		Email: EmailConfig{
			SendGridURL: "https://api.sendgrid.com/v3/mail/send",
			ToName:      "Site owner",
			From:        "info@example.com",
			FromName:    "folio",
		},
		Search: SearchConfig{
			AlgoliaEndpoint: "https://%s.algolia.net",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			CookieName: "folio_session",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
		},
		OG: OGConfig{
			SiteName: "My blog",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Database.Driver == "postgres" && !strings.HasPrefix(c.Database.DSN, "postgres") {
		return fmt.Errorf("postgres driver needs a postgres:// DSN")
	}
	return nil
}

// Load builds the configuration: defaults, then the config file, then env.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
	"analytics.untracked_urls",
}

// processSliceFields splits comma-separated env values for slice keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// legacyEnv maps the environment names the site has always used.
var legacyEnv = map[string]string{
	"database_url":          "database.dsn",
	"sendgrid_api_key":      "email.sendgrid_api_key",
	"email_to":              "email.to",
	"formspree_url":         "contact.formspree_url",
	"algolia_app_id":        "search.algolia_app_id",
	"algolia_write_api_key": "search.algolia_api_key",
	"algolia_index_name":    "search.algolia_index",
	"site":                  "server.site",
	"jwt_secret":            "auth.jwt_secret",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"environment":           "server.environment",
}

// envTransformFunc maps env names to koanf keys. FOLIO_SERVER__PORT becomes
// server.port; unknown variables are dropped.
func envTransformFunc(key string) string {
	if strings.HasPrefix(key, EnvPrefix) {
		k := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.ReplaceAll(k, "__", ".")
	}
	if mapped, ok := legacyEnv[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
