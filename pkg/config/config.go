package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable this service reads.
	EnvPrefix = "PROMPTDECK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PROMPTDECK_DB_DSN"
	EnvDBHost = "PROMPTDECK_DB_HOST"
	EnvDBUser = "PROMPTDECK_DB_USER"
	EnvDBName = "PROMPTDECK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
	Optimizer    OptimizerConfig
	LLM          LLMConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROMPTDECK_APP_ENV" required:"true"`
	Port         string `envconfig:"PROMPTDECK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROMPTDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROMPTDECK_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PROMPTDECK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROMPTDECK_DB_DSN"`
	Driver string `envconfig:"PROMPTDECK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROMPTDECK_DB_HOST"`
	LegacyPort     int    `envconfig:"PROMPTDECK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROMPTDECK_DB_USER"`
	LegacyPassword string `envconfig:"PROMPTDECK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROMPTDECK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROMPTDECK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROMPTDECK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROMPTDECK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROMPTDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROMPTDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROMPTDECK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROMPTDECK_REDIS_ADDR"`
	Password     string        `envconfig:"PROMPTDECK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROMPTDECK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROMPTDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROMPTDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROMPTDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROMPTDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROMPTDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the shared-secret contract with the identity service
// that mints access tokens. This service only verifies them.
type JWTConfig struct {
	Secret string `envconfig:"PROMPTDECK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PROMPTDECK_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROMPTDECK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROMPTDECK_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the subscription tier prices recorded on purchase
// creation. Pack prices live on the pack rows themselves.
type PricingConfig struct {
	BasicTierCents     int64 `envconfig:"PROMPTDECK_PRICE_BASIC_CENTS" default:"900"`
	UnlimitedTierCents int64 `envconfig:"PROMPTDECK_PRICE_UNLIMITED_CENTS" default:"2900"`
}

// RateLimitConfig throttles the authenticated API surface. The optimizer
// carries its own tighter per-user limit in OptimizerConfig.
type RateLimitConfig struct {
	APIWindow  time.Duration `envconfig:"PROMPTDECK_RATE_API_WINDOW" default:"1m"`
	APIPerUser int           `envconfig:"PROMPTDECK_RATE_API_PER_USER" default:"120"`
}

type OptimizerConfig struct {
	RateLimitWindow   time.Duration `envconfig:"PROMPTDECK_OPTIMIZER_RATE_WINDOW" default:"1m"`
	RateLimitPerUser  int           `envconfig:"PROMPTDECK_OPTIMIZER_RATE_PER_USER" default:"5"`
	MaxInputChars     int           `envconfig:"PROMPTDECK_OPTIMIZER_MAX_INPUT_CHARS" default:"4000"`
	RequestTimeout    time.Duration `envconfig:"PROMPTDECK_OPTIMIZER_REQUEST_TIMEOUT" default:"30s"`
	HistoryPageLimit  int           `envconfig:"PROMPTDECK_OPTIMIZER_HISTORY_LIMIT" default:"25"`
	PersistFailedRuns bool          `envconfig:"PROMPTDECK_OPTIMIZER_PERSIST_FAILED" default:"true"`
}

type LLMConfig struct {
	BaseURL string `envconfig:"PROMPTDECK_LLM_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey  string `envconfig:"PROMPTDECK_LLM_API_KEY"`
	Model   string `envconfig:"PROMPTDECK_LLM_MODEL" default:"gpt-4o-mini"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PROMPTDECK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PurchaseTopic string `envconfig:"PROMPTDECK_PUBSUB_PURCHASE_TOPIC" default:"pd-purchase-events"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"PROMPTDECK_CRON_INTERVAL" default:"24h"`
	LockTTL             time.Duration `envconfig:"PROMPTDECK_CRON_LOCK_TTL" default:"25h"`
	OutboxRetentionDays int           `envconfig:"PROMPTDECK_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	OutboxMinAttempts   int           `envconfig:"PROMPTDECK_CRON_OUTBOX_MIN_ATTEMPTS" default:"5"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PROMPTDECK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PROMPTDECK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PROMPTDECK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
