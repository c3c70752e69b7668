package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// Database connection string (DSN). SQLite paths and postgres:// URLs
	// are both accepted, see db/bunx.
	DatabaseURL string

	// Server bind address (host:port).
	ServerAddr string

	// Base URL used when rendering links in outbound email.
	ServerURL string

	// SecretKey signs password-reset tokens. Required.
	SecretKey string

	// SessionTTL is the lifetime of issued sessions.
	SessionTTL time.Duration

	// ResetTokenTTL is the lifetime of password-reset tokens.
	ResetTokenTTL time.Duration

	// Enable debug logging.
	Debug bool

	// Media holds object-storage settings for lesson video delivery.
	// Optional: when Bucket is empty, playback URLs are returned as stored.
	Media MediaConfig

	// Mail holds outbound email settings. When SendGridKey is empty the
	// console mailer is used.
	Mail MailConfig
}

// MediaConfig configures the S3-compatible bucket holding HLS renditions
// and lesson resources (Cloudflare R2 in production).
type MediaConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// Enabled reports whether object storage is configured.
func (m MediaConfig) Enabled() bool { return m.Bucket != "" }

// MailConfig configures outbound email.
type MailConfig struct {
	SendGridKey string
	FromEmail   string
	FromName    string
}

// Load reads configuration from the environment (prefix ACADEMY_), with an
// optional .env file loaded first. Missing required settings fail here,
// before anything listens or connects, not as a cryptic error later.
func Load() (*Config, error) {
	// Load .env if present; ignore when absent.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("ACADEMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "academy.db")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("session_ttl", 12*time.Hour)
	v.SetDefault("reset_token_ttl", 3*time.Hour)
	v.SetDefault("debug", false)
	v.SetDefault("media.region", "auto")
	v.SetDefault("media.presign_ttl", 6*time.Hour)
	v.SetDefault("mail.from_email", "noreply@acameria.local")
	v.SetDefault("mail.from_name", "Acameria Academy")

	cfg := &Config{
		DatabaseURL:   v.GetString("database_url"),
		ServerAddr:    v.GetString("server_addr"),
		ServerURL:     v.GetString("server_url"),
		SecretKey:     v.GetString("secret_key"),
		SessionTTL:    v.GetDuration("session_ttl"),
		ResetTokenTTL: v.GetDuration("reset_token_ttl"),
		Debug:         v.GetBool("debug"),
		Media: MediaConfig{
			Endpoint:        v.GetString("media.endpoint"),
			Region:          v.GetString("media.region"),
			Bucket:          v.GetString("media.bucket"),
			AccessKeyID:     v.GetString("media.access_key_id"),
			SecretAccessKey: v.GetString("media.secret_access_key"),
			PresignTTL:      v.GetDuration("media.presign_ttl"),
		},
		Mail: MailConfig{
			SendGridKey: v.GetString("mail.sendgrid_key"),
			FromEmail:   v.GetString("mail.from_email"),
			FromName:    v.GetString("mail.from_name"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("ACADEMY_DATABASE_URL is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("ACADEMY_SECRET_KEY is required")
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("ACADEMY_SERVER_URL is required")
	}
	if cfg.Media.Enabled() {
		if cfg.Media.Endpoint == "" {
			return nil, fmt.Errorf("ACADEMY_MEDIA_ENDPOINT is required when a media bucket is configured")
		}
		if cfg.Media.AccessKeyID == "" || cfg.Media.SecretAccessKey == "" {
			return nil, fmt.Errorf("media credentials are required when a media bucket is configured")
		}
	}

	return cfg, nil
}
