package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	APIURL   string
	CPF      string
	Password string

	StorageDriver string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	HTTPTimeout          time.Duration
	NotificationPageSize int
	StaleGuard           bool

	TelegramToken  string
	TelegramChatID int64
	TelegramDebug  bool

	LogLevel logrus.Level
}

// TelegramEnabled reports whether both the bot token and target chat are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

var instance *Config
var once sync.Once

// GetConfig loads .env (if present) and the environment once per process.
// Invalid configuration is fatal.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Infof("No .env file loaded: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:   strings.TrimRight(getEnv("NECTOPOINT_API_URL", ""), "/"),
		CPF:      getEnv("NECTOPOINT_CPF", ""),
		Password: getEnv("NECTOPOINT_PASSWORD", ""),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageSQLite)),
		DatabaseURL:   getEnv("DATABASE_URL", "nectopoint.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvAsInt("REDIS_DB", 0)),
		RedisPrefix:   getEnv("REDIS_PREFIX", "nectopoint"),

		HTTPTimeout:          getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		NotificationPageSize: int(getEnvAsInt("NOTIFICATION_PAGE_SIZE", 10)),
		StaleGuard:           getEnvAsBool("STALE_GUARD", false),

		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnvAsInt("TELEGRAM_CHAT_ID", 0),
		TelegramDebug:  getEnvAsBool("TELEGRAM_DEBUG", false),

		LogLevel: logrus.InfoLevel,
	}

	if level := getEnv("LOG_LEVEL", ""); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = parsed
	}

	if cfg.APIURL == "" {
		return nil, errors.New("NECTOPOINT_API_URL is required")
	}
	switch cfg.StorageDriver {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.NotificationPageSize <= 0 {
		return nil, errors.New("NOTIFICATION_PAGE_SIZE must be positive")
	}
	if (cfg.CPF == "") != (cfg.Password == "") {
		return nil, errors.New("NECTOPOINT_CPF and NECTOPOINT_PASSWORD must be set together")
	}

	return cfg, nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	if seconds, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultVal
}
