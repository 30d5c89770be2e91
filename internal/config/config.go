package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Subscription SubscriptionConfig
	Plans        PlansConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
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

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	OperatorEmail           string
	OperatorLabel           string
	OperatorPassword        string
}

// SubscriptionConfig holds subscription lifecycle parameters.
type SubscriptionConfig struct {
	TrialDays int
}

// PlansConfig seeds the plan catalog. Values here are the initial catalog;
// the admin override endpoint replaces the live catalog at runtime.
type PlansConfig struct {
	FreeMaxSubUsers      int
	FreeMaxDailyTx       int
	FreeAllowUpload      bool
	OfficeMaxSubUsers    int
	OfficeMaxDailyTx     int
	OfficeAllowUpload    bool
	CorporateMaxSubUsers int
	CorporateMaxDailyTx  int
	CorporateAllowUpload bool
}

// NotificationConfig holds notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
	QueueKey   string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "portal-core"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			OperatorEmail:           getEnv("OPERATOR_EMAIL", "admin@portal"),
			OperatorLabel:           getEnv("OPERATOR_LABEL", "Platform Admin"),
			OperatorPassword:        os.Getenv("OPERATOR_PASSWORD"),
		},
		Subscription: SubscriptionConfig{
			TrialDays: getEnvAsInt("SUBSCRIPTION_TRIAL_DAYS", 30),
		},
		Plans: PlansConfig{
			FreeMaxSubUsers:      getEnvAsInt("PLAN_FREE_MAX_SUB_USERS", 1),
			FreeMaxDailyTx:       getEnvAsInt("PLAN_FREE_MAX_DAILY_TX", 10),
			FreeAllowUpload:      getEnvAsBool("PLAN_FREE_ALLOW_UPLOAD", false),
			OfficeMaxSubUsers:    getEnvAsInt("PLAN_OFFICE_MAX_SUB_USERS", 5),
			OfficeMaxDailyTx:     getEnvAsInt("PLAN_OFFICE_MAX_DAILY_TX", 100),
			OfficeAllowUpload:    getEnvAsBool("PLAN_OFFICE_ALLOW_UPLOAD", true),
			CorporateMaxSubUsers: getEnvAsInt("PLAN_CORPORATE_MAX_SUB_USERS", 25),
			CorporateMaxDailyTx:  getEnvAsInt("PLAN_CORPORATE_MAX_DAILY_TX", -1),
			CorporateAllowUpload: getEnvAsBool("PLAN_CORPORATE_ALLOW_UPLOAD", true),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			QueueKey:   getEnv("NOTIFY_QUEUE_KEY", "portal:notifications"),
		},
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
