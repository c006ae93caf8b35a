package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Artifact locations
	Paths PathsConfig

	// Forecasting pipeline
	Pipeline PipelineConfig

	// Forecast store backend
	StoreBackend string // file, memory, postgres

	// Database (postgres store only)
	Database DatabaseConfig

	// Redis (optional forecast cache)
	Redis RedisConfig

	// API server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// PathsConfig holds input/output locations
type PathsConfig struct {
	DataDir   string
	InputFile string
	OutputDir string
	ReportDir string
}

// PipelineConfig holds forecasting pipeline parameters
type PipelineConfig struct {
	Horizon         int
	HoldoutDays     int
	SmoothingWindow int
	Workers         int
	FallbackPolicy  string // skip, constant
	IntervalWidth   float64
	Schedule        string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration
}

// Store backends
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Fallback policies for products with too little history
const (
	FallbackSkip     = "skip"
	FallbackConstant = "constant"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Paths: PathsConfig{
			DataDir:   dataDir,
			InputFile: getEnv("INPUT_FILE", filepath.Join(dataDir, "faviy_dairy_cleaned_extended_with_festivals.csv")),
			OutputDir: getEnv("OUTPUT_DIR", filepath.Join(dataDir, "processed")),
			ReportDir: getEnv("REPORT_DIR", filepath.Join("results", "tables")),
		},

		Pipeline: PipelineConfig{
			Horizon:         getEnvAsInt("FORECAST_HORIZON", 30),
			HoldoutDays:     getEnvAsInt("HOLDOUT_DAYS", 0),
			SmoothingWindow: getEnvAsInt("SMOOTHING_WINDOW", 7),
			Workers:         getEnvAsInt("WORKERS", 4),
			FallbackPolicy:  getEnv("FALLBACK_POLICY", FallbackSkip),
			IntervalWidth:   getEnvAsFloat("INTERVAL_WIDTH", 0.80),
			Schedule:        getEnv("PIPELINE_SCHEDULE", "0 0 2 * * *"),
		},

		StoreBackend: getEnv("STORE_BACKEND", StoreFile),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("CACHE_TTL", "24h"),
		},

		Port: getEnv("PORT", "8089"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	p := c.Pipeline
	if p.Horizon <= 0 {
		return fmt.Errorf("FORECAST_HORIZON must be positive, got %d", p.Horizon)
	}
	if p.HoldoutDays < 0 {
		return fmt.Errorf("HOLDOUT_DAYS must not be negative, got %d", p.HoldoutDays)
	}
	if p.SmoothingWindow <= 0 {
		return fmt.Errorf("SMOOTHING_WINDOW must be positive, got %d", p.SmoothingWindow)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", p.Workers)
	}
	if p.FallbackPolicy != FallbackSkip && p.FallbackPolicy != FallbackConstant {
		return fmt.Errorf("FALLBACK_POLICY must be one of: skip, constant")
	}
	if p.IntervalWidth <= 0 || p.IntervalWidth >= 1 {
		return fmt.Errorf("INTERVAL_WIDTH must be in (0, 1), got %v", p.IntervalWidth)
	}

	switch c.StoreBackend {
	case StoreFile, StoreMemory:
	case StorePostgres:
		// Database URL is required only when forecasts live in postgres
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: file, memory, postgres")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
