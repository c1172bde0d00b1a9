// Copyright 2026 The Internalize Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/internalize/internalize/internal/archive"
	"github.com/internalize/internalize/internal/store/postgres"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
// Variables already set in the process environment win.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Session       SessionConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Upload        UploadConfig
	Archive       ArchiveConfig
	Events        EventsConfig
	Bootstrap     BootstrapConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATELIMIT_RPS" envDefault:"10"`
	Burst             int     `env:"RATELIMIT_BURST" envDefault:"20"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"55s"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string `env:"DATABASE_URL"`
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         string `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"internalize"`
	Password     string `env:"DB_PASSWORD"`
	Database     string `env:"DB_NAME" envDefault:"internalize"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

// Postgres converts the settings for the postgres store
func (d DatabaseConfig) Postgres() postgres.Config {
	return postgres.Config{
		URL:          d.URL,
		Host:         d.Host,
		Port:         d.Port,
		User:         d.User,
		Password:     d.Password,
		Database:     d.Database,
		SSLMode:      d.SSLMode,
		MaxOpenConns: d.MaxOpenConns,
		MaxIdleConns: d.MaxIdleConns,
	}
}

// SessionConfig holds session management configuration
type SessionConfig struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"internalize_session"`
	CookieDomain    string        `env:"SESSION_COOKIE_DOMAIN"`
	CookiePath      string        `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	CookieSecure    bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly  bool          `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite  string        `env:"SESSION_COOKIE_SAME_SITE" envDefault:"Lax"`
	Lifetime        time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
}

// ObservabilityConfig holds logging, tracing and metrics configuration
type ObservabilityConfig struct {
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	OTELEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"internalize"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	MetricsEnabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	Argon2Memory       uint32        `env:"ARGON2_MEMORY" envDefault:"65536"`
	Argon2Iterations   uint32        `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Argon2Parallelism  uint8         `env:"ARGON2_PARALLELISM" envDefault:"4"`
	Argon2SaltLength   uint32        `env:"ARGON2_SALT_LENGTH" envDefault:"16"`
	Argon2KeyLength    uint32        `env:"ARGON2_KEY_LENGTH" envDefault:"32"`
	LockoutMaxAttempts int           `env:"SECURITY_LOCKOUT_MAX_ATTEMPTS" envDefault:"5"`
	LockoutDuration    time.Duration `env:"SECURITY_LOCKOUT_DURATION" envDefault:"15m"`
}

// UploadConfig holds workbook upload limits
type UploadConfig struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
}

// ArchiveConfig holds S3 settings for archiving uploaded workbooks
type ArchiveConfig struct {
	Enabled        bool   `env:"ARCHIVE_ENABLED" envDefault:"false"`
	Endpoint       string `env:"ARCHIVE_S3_ENDPOINT"`
	Region         string `env:"ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	Bucket         string `env:"ARCHIVE_S3_BUCKET" envDefault:"internalize-uploads"`
	AccessKey      string `env:"ARCHIVE_S3_ACCESS_KEY"`
	SecretKey      string `env:"ARCHIVE_S3_SECRET_KEY"`
	ForcePathStyle bool   `env:"ARCHIVE_S3_FORCE_PATH_STYLE" envDefault:"true"`
	DisableTLS     bool   `env:"ARCHIVE_S3_DISABLE_TLS" envDefault:"false"`
}

// S3 converts the settings for the archive package
func (a ArchiveConfig) S3() archive.Config {
	return archive.Config{
		Endpoint:       a.Endpoint,
		Region:         a.Region,
		Bucket:         a.Bucket,
		AccessKey:      a.AccessKey,
		SecretKey:      a.SecretKey,
		ForcePathStyle: a.ForcePathStyle,
		DisableTLS:     a.DisableTLS,
	}
}

// EventsConfig holds NATS settings. Publishing is disabled without a URL.
type EventsConfig struct {
	NATSURL string `env:"NATS_URL"`
}

// BootstrapConfig names the superuser created by the bootstrap command
type BootstrapConfig struct {
	AdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME" envDefault:"admin"`
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := loadEnvFiles(DefaultEnvFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit values must be non-negative")
	}
	if c.Archive.Enabled && (c.Archive.AccessKey == "" || c.Archive.SecretKey == "") {
		return errors.New("ARCHIVE_S3_ACCESS_KEY and ARCHIVE_S3_SECRET_KEY are required when archiving is enabled")
	}
	return nil
}
