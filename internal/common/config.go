package common

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Mail     MailConfig
	Storage  StorageConfig
	Batch    BatchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" or "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// MailConfig holds mailbox access configuration
type MailConfig struct {
	CredentialsFile string
	TokenFile       string
	User            string
	Query           string
}

// StorageConfig holds attachment storage configuration
type StorageConfig struct {
	AttachmentsDir string
	// Charset forces the attachment encoding; empty means detect.
	Charset string
}

// BatchConfig holds batch parsing configuration
type BatchConfig struct {
	Workers int
	Output  string
}

// LoadConfig loads configuration from environment variables, after reading an
// optional .env file from the working directory.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "broker_reports.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Mail: MailConfig{
			CredentialsFile: getEnv("GMAIL_CREDENTIALS", "credentials.json"),
			TokenFile:       getEnv("GMAIL_TOKEN", "token.json"),
			User:            getEnv("GMAIL_USER", "me"),
			Query:           getEnv("GMAIL_QUERY", "from:broker_rep@sberbank.ru"),
		},
		Storage: StorageConfig{
			AttachmentsDir: getEnv("ATTACHMENTS_DIR", "attachments"),
			Charset:        getEnv("ATTACHMENTS_CHARSET", ""),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("BATCH_WORKERS", 4),
			Output:  getEnv("BATCH_OUTPUT", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_DRIVER", c.Database.Driver, Required, OneOf("sqlite", "postgres")).
		Field("DB_URL", c.Database.DSN, Required).
		Field("ATTACHMENTS_DIR", c.Storage.AttachmentsDir, Required).
		Field("BATCH_WORKERS", c.Batch.Workers, Positive)
	if err := v.Err(); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid configuration", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	return nil
}

// ValidateMail checks the settings needed to talk to the mailbox.
func (c *Config) ValidateMail() error {
	v := NewValidator().
		Field("GMAIL_CREDENTIALS", c.Mail.CredentialsFile, Required).
		Field("GMAIL_TOKEN", c.Mail.TokenFile, Required).
		Field("GMAIL_USER", c.Mail.User, Required)
	if err := v.Err(); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid configuration", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	return nil
}
