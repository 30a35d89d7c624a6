package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPPort int64

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string

	// AppBaseURL - адрес веб-приложения для ссылок в уведомлениях
	AppBaseURL string

	// TelegramToken может быть пустым, тогда бот не запускается
	TelegramToken string

	BaseAdminEmail string
	BaseAdminName  string

	ReminderCron    string
	RemindersEnable bool
}

var instance *Config
var once sync.Once

// GetConfig загружает конфигурацию один раз за процесс
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Infof("no .env file loaded: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Env:             getEnv("ENV", "dev"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPPort:        getEnvAsInt("HTTP_PORT", 8080),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:     getEnv("DATABASE_URL", "cra.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		BaseAdminEmail:  getEnv("BASE_ADMIN_EMAIL", ""),
		BaseAdminName:   getEnv("BASE_ADMIN_NAME", "Administrateur"),
		ReminderCron:    getEnv("REMINDER_CRON", "0 9 25 * *"),
		RemindersEnable: getEnvAsBool("REMINDERS_ENABLED", true),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("could not get JWT secret")
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, errors.New("DATABASE_DRIVER must be sqlite or postgres")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("could not get db url")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
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
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}
