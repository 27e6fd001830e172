package config

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

// Activity sink backends
const (
	ActivitySinkPostgres = "postgres"
	ActivitySinkKafka    = "kafka"
	ActivitySinkLog      = "log"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// StorageConfig holds where attendance photos are written and served from
type StorageConfig struct {
	BasePath string
	BaseURL  string
}

// RedisConfig enables the distributed check-in guard when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers       []string
	ActivityTopic string
}

// AttendanceConfig holds the attendance capture settings
type AttendanceConfig struct {
	Timezone           string
	PhotoUploadTimeout time.Duration
	ActivityTimeout    time.Duration
	CheckInLockTTL     time.Duration
	CataloguePath      string
	ActivitySink       string
	RateLimitPerMinute float64
	RateLimitBurst     int
}

// Location resolves the business timezone.
func (a AttendanceConfig) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug("no .env file found, using environment only")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	dbMinConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
		MinConns: int32(dbMinConns),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.Kafka = KafkaConfig{
		Brokers:       getEnvSlice("KAFKA_BROKERS"),
		ActivityTopic: getEnv("KAFKA_ACTIVITY_TOPIC", "attendance.activity"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	// Attendance configuration
	photoTimeout, err := time.ParseDuration(getEnv("ATTENDANCE_PHOTO_UPLOAD_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_PHOTO_UPLOAD_TIMEOUT: %w", err)
	}
	activityTimeout, err := time.ParseDuration(getEnv("ATTENDANCE_ACTIVITY_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_ACTIVITY_TIMEOUT: %w", err)
	}
	lockTTL, err := time.ParseDuration(getEnv("ATTENDANCE_CHECK_IN_LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_CHECK_IN_LOCK_TTL: %w", err)
	}
	ratePerMinute, err := strconv.ParseFloat(getEnv("ATTENDANCE_RATE_LIMIT_PER_MINUTE", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_RATE_LIMIT_PER_MINUTE: %w", err)
	}
	rateBurst, err := strconv.Atoi(getEnv("ATTENDANCE_RATE_LIMIT_BURST", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_RATE_LIMIT_BURST: %w", err)
	}

	config.Attendance = AttendanceConfig{
		Timezone:           getEnv("TIMEZONE", "Asia/Jakarta"),
		PhotoUploadTimeout: photoTimeout,
		ActivityTimeout:    activityTimeout,
		CheckInLockTTL:     lockTTL,
		CataloguePath:      getEnv("CATALOGUE_PATH", ""),
		ActivitySink:       strings.ToLower(getEnv("ACTIVITY_SINK", ActivitySinkPostgres)),
		RateLimitPerMinute: ratePerMinute,
		RateLimitBurst:     rateBurst,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if _, err := c.Attendance.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if c.Attendance.PhotoUploadTimeout <= 0 {
		return fmt.Errorf("ATTENDANCE_PHOTO_UPLOAD_TIMEOUT must be positive")
	}
	if c.Attendance.ActivityTimeout <= 0 {
		return fmt.Errorf("ATTENDANCE_ACTIVITY_TIMEOUT must be positive")
	}
	if c.Attendance.RateLimitPerMinute <= 0 || c.Attendance.RateLimitBurst <= 0 {
		return fmt.Errorf("ATTENDANCE_RATE_LIMIT_PER_MINUTE and ATTENDANCE_RATE_LIMIT_BURST must be positive")
	}

	switch c.Attendance.ActivitySink {
	case ActivitySinkPostgres, ActivitySinkLog:
	case ActivitySinkKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when ACTIVITY_SINK=kafka")
		}
	default:
		return fmt.Errorf("ACTIVITY_SINK must be one of: postgres, kafka, log")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (a AppConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
