package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"

	ProtectionEncrypted  = "encrypted"
	ProtectionBestEffort = "best-effort"
)

type Config struct {
	Port           string
	TempDir        string
	StoreBackend   string
	ProtectionMode string
	Encryption     string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	BuildWorkers   int
	LogLevel       string
	LogFile        string

	ApiURL     string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string
	S3Prefix   string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables only")
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 100)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("BUILD_WORKERS", 1)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("REQUEST_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:           getEnv("PORT", "3000"),
		TempDir:        getEnv("TEMP_DIR", "./temp"),
		StoreBackend:   getEnv("STORE_BACKEND", BackendLocal),
		ProtectionMode: getEnv("PROTECTION_MODE", ProtectionEncrypted),
		Encryption:     getEnv("ZIP_ENCRYPTION", "aes256"),
		MaxUploadBytes: int64(maxUploadMB) << 20,
		RequestTimeout: timeout,
		BuildWorkers:   workers,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),

		ApiURL:     getEnv("API_URL", ""),
		AccessKey:  getEnv("ACCESS_KEY", ""),
		SecretKey:  getEnv("SECRET_KEY", ""),
		BucketName: getEnv("BUCKET_NAME", ""),
		Region:     getEnv("REGION", ""),
		S3Prefix:   getEnv("S3_PREFIX", "archives/"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the pipelines cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendLocal:
	case BackendS3:
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME is required when STORE_BACKEND=%s", BackendS3)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.ProtectionMode {
	case ProtectionEncrypted, ProtectionBestEffort:
	default:
		return fmt.Errorf("unknown PROTECTION_MODE %q", c.ProtectionMode)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	if c.BuildWorkers < 1 {
		return fmt.Errorf("BUILD_WORKERS must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
