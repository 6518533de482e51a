package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/omkarspace/Doc-Check/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Mongo    MongoConfig
	Server   ServerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Upload   UploadConfig
	LLM      LLMConfig
	OCR      OCRConfig
	Batch    BatchConfig
}

// DatabaseConfig holds relational store configuration
type DatabaseConfig struct {
	DSN              string // Postgres DSN, or empty to use SQLitePath
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// MongoConfig holds the extraction-result document store configuration
type MongoConfig struct {
	URL      string
	Database string
	Timeout  time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// StorageConfig holds object store configuration. When Bucket is empty the
// local-disk backend rooted at Dir is used.
type StorageConfig struct {
	Bucket string
	Dir    string
}

// UploadConfig holds upload validation limits
type UploadConfig struct {
	MaxBytes          int64
	AllowedExtensions map[string]struct{}
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	Pdftotext     string
	TesseractLang string
	WorkDir       string
}

// BatchConfig holds lifecycle controller tuning
type BatchConfig struct {
	Workers   int
	QueueSize int
	// FailureRatio aborts a batch when failed/total crosses it. 0 disables the policy.
	FailureRatio   float64
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("SQLITE_PATH", "./doccheck.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Mongo: MongoConfig{
			URL:      getEnv("MONGO_URL", ""),
			Database: getEnv("MONGO_DB", "doccheck"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8000"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", 8*24*time.Hour),
		},
		Storage: StorageConfig{
			Bucket: getEnv("GCS_BUCKET", ""),
			Dir:    getEnv("STORAGE_DIR", "./uploads"),
		},
		Upload: UploadConfig{
			MaxBytes:          getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			AllowedExtensions: getEnvAsExtSet("ALLOWED_EXTENSIONS", constants.AllowedExtensions),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			Pdftotext:     getEnv("PDFTOTEXT", "pdftotext"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			WorkDir:       getEnv("OCR_WORK_DIR", "./tmp"),
		},
		Batch: BatchConfig{
			Workers:        getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize:      getEnvAsInt("BATCH_QUEUE_SIZE", 256),
			FailureRatio:   getEnvAsFloat64("FAILURE_RATIO", 0),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
	}
}

// Validate checks the loaded configuration. Missing required values are a
// fatal startup error, not a runtime error.
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Database.SQLitePath == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL or SQLITE_PATH is required", ErrInvalidInput)
	}
	if c.Auth.JWTSecret == "" {
		return NewAppError("CONFIG_ERROR", "JWT_SECRET is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Upload.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	if c.Batch.FailureRatio < 0 || c.Batch.FailureRatio > 1 {
		return NewAppError("CONFIG_ERROR", "FAILURE_RATIO must be in [0,1]", ErrInvalidInput)
	}
	return nil
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsExtSet(key string, defaultValue map[string]struct{}) map[string]struct{} {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	set := make(map[string]struct{})
	for _, ext := range strings.Split(value, ",") {
		ext = constants.NormalizeExt(strings.TrimSpace(ext))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	if len(set) == 0 {
		return defaultValue
	}
	return set
}
