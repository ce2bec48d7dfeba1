package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT" envDefault:"5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC" envDefault:"300"`
	// Migrate applies the embedded schema migrations on startup.
	Migrate bool `env:"DB_MIGRATE" envDefault:"true"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// StorageConfig selects the attachment backend.
type StorageConfig struct {
	Backend   string `env:"STORAGE_BACKEND" envDefault:"minio"`
	LocalPath string `env:"STORAGE_LOCAL_PATH" envDefault:"./data/attachments"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
	Timezone   string `env:"LOG_TIMEZONE" envDefault:"UTC"`
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c LogConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AttachmentConfig bounds uploads and their cleanup.
type AttachmentConfig struct {
	MaxBytes       int64         `env:"ATTACHMENT_MAX_BYTES" envDefault:"10485760"`
	DeleteAttempts uint64        `env:"ATTACHMENT_DELETE_ATTEMPTS" envDefault:"3"`
	DeleteBackoff  time.Duration `env:"ATTACHMENT_DELETE_BACKOFF" envDefault:"200ms"`
	PresignExpiry  time.Duration `env:"ATTACHMENT_PRESIGN_EXPIRY" envDefault:"15m"`
}

// ImportConfig tunes the CSV import pipeline.
type ImportConfig struct {
	ChunkSize int `env:"IMPORT_CHUNK_SIZE" envDefault:"500"`
}

// AuthConfig describes how the acting user is read from requests.
type AuthConfig struct {
	UserHeader     string        `env:"AUTH_USER_HEADER" envDefault:"X-User-Name"`
	AdminCacheSize int           `env:"AUTH_ADMIN_CACHE_SIZE" envDefault:"1024"`
	AdminCacheTTL  time.Duration `env:"AUTH_ADMIN_CACHE_TTL" envDefault:"1m"`
	// BootstrapAdmins are added to the roster at startup so a fresh
	// deployment has someone allowed to manage it.
	BootstrapAdmins []string `env:"AUTH_BOOTSTRAP_ADMINS" envSeparator:","`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
// BodyLimit caps every request body, uploads and CSV imports included.
type AppConfig struct {
	AppHost     string `env:"APP_HOST" envDefault:"localhost:8080"`
	Port        string `env:"PORT" envDefault:"8080"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"docfiling"`
	BodyLimit   int    `env:"HTTP_BODY_LIMIT" envDefault:"33554432"`
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Storage     StorageConfig
	Log         LogConfig
	Attachment  AttachmentConfig
	Import      ImportConfig
	Auth        AuthConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over the file.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Storage.Backend {
	case "minio", "local":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want minio or local", c.Storage.Backend)
	}
	if c.Attachment.MaxBytes <= 0 {
		return fmt.Errorf("ATTACHMENT_MAX_BYTES must be positive")
	}
	if c.Attachment.DeleteAttempts == 0 {
		return fmt.Errorf("ATTACHMENT_DELETE_ATTEMPTS must be at least 1")
	}
	if c.Attachment.DeleteBackoff <= 0 {
		return fmt.Errorf("ATTACHMENT_DELETE_BACKOFF must be positive")
	}
	if int64(c.BodyLimit) < c.Attachment.MaxBytes {
		return fmt.Errorf("HTTP_BODY_LIMIT must be at least ATTACHMENT_MAX_BYTES")
	}
	if c.Import.ChunkSize <= 0 {
		return fmt.Errorf("IMPORT_CHUNK_SIZE must be positive")
	}
	if c.Auth.UserHeader == "" {
		return fmt.Errorf("AUTH_USER_HEADER is required")
	}
	if c.Auth.AdminCacheSize <= 0 {
		return fmt.Errorf("AUTH_ADMIN_CACHE_SIZE must be positive")
	}
	return nil
}
