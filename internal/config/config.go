// Package config loads the server configuration.
//
// SOURCES (later ones win):
//  1. A .env file in the working directory, if present (godotenv)
//  2. An optional YAML file named by CONFIG_PATH (cleanenv)
//  3. Process environment variables (cleanenv, env:"..." tags)
//
// Every field has an env-default so a bare `go run ./cmd/server` works for
// local development; only JWT_SECRET must be provided.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
type Config struct {
	Port      int    `yaml:"port" env:"PORT" env-default:"8080"`
	DBPath    string `yaml:"db_path" env:"DB_PATH" env-default:"data/edtech.db"`
	UploadDir string `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"data/uploads"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// FrontendURL is where OAuth callbacks redirect once a token is issued.
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:5173"`

	Auth   Auth   `yaml:"auth"`
	Resume Resume `yaml:"resume"`
	KV     KV     `yaml:"kv"`
	Mail   Mail   `yaml:"mail"`
}

// Auth holds token signing and identity-provider settings.
type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTTTL    time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"72h"`

	GoogleClientID     string `yaml:"google_client_id" env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `yaml:"google_callback_url" env:"GOOGLE_CALLBACK_URL"`

	// AdminEmails are promoted to the admin role when they register.
	AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
}

// Resume configures the upload gate and the external scoring API.
type Resume struct {
	ScreenURL string        `yaml:"screen_url" env:"RESUME_SCREEN_URL" env-default:"https://api.kalawatiputra.com/resume/screen/v1/"`
	MaxBytes  int64         `yaml:"max_bytes" env:"RESUME_MAX_BYTES" env-default:"20971520"`
	Timeout   time.Duration `yaml:"timeout" env:"RESUME_TIMEOUT" env-default:"60s"`
}

// KV selects where per-user practice progress lives.
type KV struct {
	Backend       string `yaml:"backend" env:"KV_BACKEND" env-default:"sqlite"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
}

// Mail is optional; with no SMTP host, mail is written to the log instead.
type Mail struct {
	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser     string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	From         string `yaml:"from" env:"MAIL_FROM" env-default:"no-reply@localhost"`
}

// Load reads the configuration from .env, CONFIG_PATH and the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	switch c.KV.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("config: unknown KV_BACKEND %q", c.KV.Backend)
	}
	if c.Auth.GoogleCallbackURL == "" {
		c.Auth.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/google/callback", c.Port)
	}
	for i, e := range c.Auth.AdminEmails {
		c.Auth.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in routes should be mounted.
func (c *Config) GoogleEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.Mail.SMTPHost != ""
}
