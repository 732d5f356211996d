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

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Price sources
	Naver NaverConfig
	Price PriceConfig

	// Batch jobs
	Knowledge KnowledgeConfig
	Retention RetentionConfig
	Tracker   TrackerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
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

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL  string
	ChartURL string
}

// PriceConfig 가격 조회 소스 설정
type PriceConfig struct {
	Source          string        // naver, db, chain
	CacheTTL        time.Duration // redis 종가 캐시 TTL
	BreakerFailures int           // 연속 실패 시 차단 임계값
	BreakerTimeout  time.Duration // 차단 후 재시도까지 대기
}

// KnowledgeConfig 저널 압축 설정
type KnowledgeConfig struct {
	Layer1AgeDays int
	Layer2AgeDays int
	MinEntries    int
}

// RetentionConfig 지식 보존 정책 설정
type RetentionConfig struct {
	MaxPrinciples int
	MaxIntuitions int
	StaleDays     int
	ArchiveDays   int
}

// TrackerConfig 성과 추적 설정
type TrackerConfig struct {
	Workers            int
	BackfillDelay      time.Duration
	BackfillWindowDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Naver: NaverConfig{
			BaseURL:  getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL: getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com/siseJson.naver"),
		},

		Price: PriceConfig{
			Source:          getEnv("PRICE_SOURCE", "chain"),
			CacheTTL:        getEnvAsDuration("PRICE_CACHE_TTL", "1h"),
			BreakerFailures: getEnvAsInt("PRICE_BREAKER_FAILURES", 3),
			BreakerTimeout:  getEnvAsDuration("PRICE_BREAKER_TIMEOUT", "60s"),
		},

		Knowledge: KnowledgeConfig{
			Layer1AgeDays: getEnvAsInt("KNOWLEDGE_LAYER1_AGE_DAYS", 7),
			Layer2AgeDays: getEnvAsInt("KNOWLEDGE_LAYER2_AGE_DAYS", 30),
			MinEntries:    getEnvAsInt("KNOWLEDGE_MIN_ENTRIES", 3),
		},

		Retention: RetentionConfig{
			MaxPrinciples: getEnvAsInt("RETENTION_MAX_PRINCIPLES", 50),
			MaxIntuitions: getEnvAsInt("RETENTION_MAX_INTUITIONS", 50),
			StaleDays:     getEnvAsInt("RETENTION_STALE_DAYS", 90),
			ArchiveDays:   getEnvAsInt("RETENTION_ARCHIVE_DAYS", 365),
		},

		Tracker: TrackerConfig{
			Workers:            getEnvAsInt("TRACKER_WORKERS", 4),
			BackfillDelay:      getEnvAsDuration("BACKFILL_DELAY", "300ms"),
			BackfillWindowDays: getEnvAsInt("BACKFILL_WINDOW_DAYS", 5),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Price.Source {
	case "naver", "db", "chain":
	default:
		return fmt.Errorf("PRICE_SOURCE must be one of: naver, db, chain")
	}

	k := c.Knowledge
	if k.Layer1AgeDays <= 0 || k.MinEntries <= 0 {
		return fmt.Errorf("knowledge thresholds must be positive")
	}
	if k.Layer2AgeDays <= k.Layer1AgeDays {
		return fmt.Errorf("KNOWLEDGE_LAYER2_AGE_DAYS (%d) must exceed KNOWLEDGE_LAYER1_AGE_DAYS (%d)",
			k.Layer2AgeDays, k.Layer1AgeDays)
	}

	r := c.Retention
	if r.MaxPrinciples <= 0 || r.MaxIntuitions <= 0 || r.StaleDays <= 0 || r.ArchiveDays <= 0 {
		return fmt.Errorf("retention limits must be positive")
	}

	if c.Tracker.Workers <= 0 {
		return fmt.Errorf("TRACKER_WORKERS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

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
