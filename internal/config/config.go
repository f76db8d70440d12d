package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
)

type Config struct {
	Iris     IrisConfig
	Rotation RotationConfig
	Bot      BotConfig
	Store    StoreConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
	Triggers []TriggerRule
}

type IrisConfig struct {
	BaseURL string
	WSURL   string
}

type RotationConfig struct {
	GroupID          string
	Message          string
	Cycles           int
	IgnoreBeforeHour int
	ReceiveTimeout   time.Duration
	CycleInterval    time.Duration
	MaxEvents        int
	Location         *time.Location
}

type BotConfig struct {
	Address   string
	Signature string
}

type StoreConfig struct {
	Backend string
	Dir     string
	Mirrors []string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type MetricsConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Store backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Load reads the environment (and .env when present) and the trigger table.
// It does not call Validate: the CLI overrides invocation parameters first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cycles, err := getEnvIntStrict("ROTATION_CYCLES", 0)
	if err != nil {
		return nil, err
	}

	location, err := loadLocation(getEnv("ROTATION_TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Iris: IrisConfig{
			BaseURL: getEnv("IRIS_BASE_URL", "http://localhost:3000"),
			WSURL:   getEnv("IRIS_WS_URL", "ws://localhost:3000/ws"),
		},
		Rotation: RotationConfig{
			GroupID:          getEnv("ROTATION_GROUP_ID", ""),
			Message:          getEnv("ROTATION_MESSAGE", ""),
			Cycles:           cycles,
			IgnoreBeforeHour: getEnvInt("ROTATION_IGNORE_BEFORE", constants.RotationTiming.IgnoreBeforeHour),
			ReceiveTimeout:   getEnvDuration("ROTATION_RECEIVE_TIMEOUT", constants.RotationTiming.ReceiveTimeout),
			CycleInterval:    getEnvDuration("ROTATION_CYCLE_INTERVAL", constants.RotationTiming.CycleInterval),
			MaxEvents:        getEnvInt("ROTATION_MAX_EVENTS", constants.RotationTiming.MaxEvents),
			Location:         location,
		},
		Bot: BotConfig{
			Address:   strings.ToLower(getEnv("BOT_ADDRESS", constants.BotDefaults.Address)),
			Signature: getEnv("BOT_SIGNATURE", constants.BotDefaults.Signature),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
			Dir:     getEnv("STORE_DIR", "."),
			Mirrors: parseCommaSeparated(strings.ToLower(getEnv("STORE_MIRRORS", ""))),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "rotation"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "rotation"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
	}

	triggers, err := LoadTriggers(getEnv("TRIGGERS_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.Triggers = triggers

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Rotation.GroupID) == "" {
		return errors.NewValidationError("No group ID given", "group-id", c.Rotation.GroupID)
	}
	if !strings.Contains(c.Rotation.Message, constants.MentionPlaceholder) {
		return errors.NewValidationError(
			fmt.Sprintf("Message text must contain the literal string '%s'", constants.MentionPlaceholder),
			"message", c.Rotation.Message)
	}
	if c.Rotation.Cycles < 0 {
		return errors.NewValidationError("Number of receive cycles must not be negative", "stay", c.Rotation.Cycles)
	}
	if c.Rotation.IgnoreBeforeHour < 0 || c.Rotation.IgnoreBeforeHour > 23 {
		return errors.NewValidationError("ignore-before must be an hour between 0 and 23", "ignore-before", c.Rotation.IgnoreBeforeHour)
	}
	if c.Rotation.ReceiveTimeout <= 0 {
		return errors.NewValidationError("receive timeout must be positive", "ROTATION_RECEIVE_TIMEOUT", c.Rotation.ReceiveTimeout)
	}
	if c.Rotation.CycleInterval < 0 {
		return errors.NewValidationError("cycle interval must not be negative", "ROTATION_CYCLE_INTERVAL", c.Rotation.CycleInterval)
	}
	if c.Bot.Address == "" {
		return errors.NewValidationError("BOT_ADDRESS is required", "BOT_ADDRESS", c.Bot.Address)
	}
	if c.Iris.BaseURL == "" {
		return errors.NewValidationError("IRIS_BASE_URL is required", "IRIS_BASE_URL", c.Iris.BaseURL)
	}
	if c.Iris.WSURL == "" {
		return errors.NewValidationError("IRIS_WS_URL is required", "IRIS_WS_URL", c.Iris.WSURL)
	}
	if err := validateBackend(c.Store.Backend); err != nil {
		return err
	}
	for _, mirror := range c.Store.Mirrors {
		if err := validateBackend(mirror); err != nil {
			return err
		}
		if mirror == c.Store.Backend {
			return errors.NewValidationError("store mirror duplicates the primary backend", "STORE_MIRRORS", mirror)
		}
	}
	if len(c.Triggers) == 0 {
		return errors.NewValidationError("trigger table is empty", "TRIGGERS_FILE", nil)
	}
	return nil
}

func validateBackend(name string) error {
	switch name {
	case BackendFile, BackendRedis, BackendPostgres, BackendMemory:
		return nil
	default:
		return errors.NewValidationError("unknown store backend", "STORE_BACKEND", name)
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.NewValidationError("unknown time zone", "ROTATION_TIMEZONE", name)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvIntStrict is getEnvInt for values where a typo must not silently
// fall back to the default.
func getEnvIntStrict(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.NewValidationError(fmt.Sprintf("%s must be a valid integer", key), key, value)
	}
	return intVal, nil
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
