package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Log      LogConfig
	PayU     GatewayCredentials
	Easebuzz GatewayCredentials
	Webhooks WebhooksConfig
	Notify   NotifyConfig
	Pricing  PricingConfig
	Sessions SessionsConfig
	Jobs     JobsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

// GatewayCredentials is one gateway's shared secret pair. Values come from
// the environment only and are never logged.
type GatewayCredentials struct {
	MerchantKey  string
	MerchantSalt string
}

type WebhooksConfig struct {
	ReplayWindow      time.Duration
	ProcessingTimeout time.Duration
	JobBatchSize      int32
}

type NotifyConfig struct {
	URL           string
	MaxAttempts   int32
	RetryInterval time.Duration
	HTTPTimeout   time.Duration
}

type PricingConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

type SessionsConfig struct {
	TTL time.Duration
}

type JobsConfig struct {
	NotifyDispatchInterval time.Duration
	ExpireSessionsInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "webhooks-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		PayU: GatewayCredentials{
			MerchantKey:  getEnv("PAYU_MERCHANT_KEY", ""),
			MerchantSalt: getEnv("PAYU_MERCHANT_SALT", ""),
		},
		Easebuzz: GatewayCredentials{
			MerchantKey:  getEnv("EASEBUZZ_MERCHANT_KEY", ""),
			MerchantSalt: getEnv("EASEBUZZ_MERCHANT_SALT", ""),
		},
		Webhooks: WebhooksConfig{
			ReplayWindow:      getMinutesEnv("WEBHOOKS_REPLAY_WINDOW_MINUTES", 5*time.Minute),
			ProcessingTimeout: getSecondsEnv("WEBHOOKS_PROCESSING_TIMEOUT_SECONDS", 30*time.Second),
			JobBatchSize:      int32(getIntEnv("WEBHOOKS_JOB_BATCH_SIZE", 100)),
		},
		Notify: NotifyConfig{
			URL:           getEnv("NOTIFY_URL", ""),
			MaxAttempts:   int32(getIntEnv("NOTIFY_MAX_ATTEMPTS", 10)),
			RetryInterval: getMinutesEnv("NOTIFY_RETRY_INTERVAL_MINUTES", 5*time.Minute),
			HTTPTimeout:   getSecondsEnv("NOTIFY_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Pricing: PricingConfig{
			BaseURL:     getEnv("PRICING_BASE_URL", ""),
			HTTPTimeout: getSecondsEnv("PRICING_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Sessions: SessionsConfig{
			TTL: getMinutesEnv("SESSIONS_TTL_MINUTES", 24*60*time.Minute),
		},
		Jobs: JobsConfig{
			NotifyDispatchInterval: getMinutesEnv("JOBS_NOTIFY_DISPATCH_INTERVAL_MINUTES", time.Minute),
			ExpireSessionsInterval: getMinutesEnv("JOBS_EXPIRE_SESSIONS_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
