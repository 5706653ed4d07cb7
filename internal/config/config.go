package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage driver names accepted by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config aggregates runtime configuration for the service. It is built once
// at process start and handed to dependent components; nothing reads it
// through a global.
type Config struct {
	App          AppConfig
	Storage      StorageConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Email        EmailConfig
	Admin        AdminConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	RequestTimeoutSeconds int
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds document-store connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and credential parameters.
type AuthConfig struct {
	SessionSecret   string
	SessionTTLHours int
	BcryptCost      int
}

// EmailConfig holds provider settings for outbound mail.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	BaseURL      string
}

// AdminConfig seeds the admin whitelist.
type AdminConfig struct {
	DefaultEmail string
}

// NotificationConfig holds optional webhook notification settings.
type NotificationConfig struct {
	WebhookURL string
}

const configFile = "config.yml"

// fileConfig mirrors the optional config.yml layout. Env vars always win;
// the file only supplies values the environment leaves unset.
type fileConfig struct {
	Storage struct {
		Driver      string `yaml:"driver"`
		PostgresDSN string `yaml:"postgres_dsn"`
		RedisAddr   string `yaml:"redis_addr"`
	} `yaml:"storage"`
	Server struct {
		Host          string `yaml:"host"`
		Port          string `yaml:"port"`
		SessionSecret string `yaml:"session_secret"`
	} `yaml:"server"`
	Email struct {
		ResendAPIKey string `yaml:"resend_api_key"`
		From         string `yaml:"from"`
		BaseURL      string `yaml:"base_url"`
	} `yaml:"email"`
	Admin struct {
		DefaultEmail string `yaml:"default_email"`
	} `yaml:"admin"`
}

// Load reads configuration from environment variables with an optional
// config.yml overlay. SUPPORT_DESK_FORCE_ENV=true skips the file entirely,
// for deployments where only the environment is available.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var file fileConfig
	if !getEnvAsBool("SUPPORT_DESK_FORCE_ENV", false) {
		if raw, err := os.ReadFile(configFile); err == nil {
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configFile, err)
			}
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  pick(os.Getenv("APP_HOST"), file.Server.Host, "0.0.0.0"),
			Port:                  pick(os.Getenv("APP_PORT"), file.Server.Port, "5000"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Storage: StorageConfig{
			Driver: pick(os.Getenv("STORAGE_DRIVER"), file.Storage.Driver, DriverMemory),
		},
		Postgres: PostgresConfig{
			DSN:            pick(os.Getenv("POSTGRES_DSN"), file.Storage.PostgresDSN, ""),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     pick(os.Getenv("REDIS_ADDR"), file.Storage.RedisAddr, "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:   pick(os.Getenv("SESSION_SECRET"), file.Server.SessionSecret, "dev-secret"),
			SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 168),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Email: EmailConfig{
			ResendAPIKey: pick(os.Getenv("RESEND_API_KEY"), file.Email.ResendAPIKey, ""),
			From:         pick(os.Getenv("EMAIL_FROM"), file.Email.From, "Support <noreply@localhost>"),
			BaseURL:      pick(os.Getenv("BASE_URL"), file.Email.BaseURL, "http://localhost:5000"),
		},
		Admin: AdminConfig{
			DefaultEmail: pick(os.Getenv("ADMIN_DEFAULT_EMAIL"), file.Admin.DefaultEmail, ""),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	switch cfg.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == DriverPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres driver selected but POSTGRES_DSN is empty")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the session cookie lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	hours := a.SessionTTLHours
	if hours <= 0 {
		hours = 168
	}
	return time.Duration(hours) * time.Hour
}

// Production reports whether the service runs with production settings.
func (a AppConfig) Production() bool {
	return a.Env == "production"
}

func pick(values ...string) string {
	for _, val := range values {
		if val != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
