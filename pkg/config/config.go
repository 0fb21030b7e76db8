package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "LESSONFOLIO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LESSONFOLIO_DB_DSN"
	EnvDBHost = "LESSONFOLIO_DB_HOST"
	EnvDBUser = "LESSONFOLIO_DB_USER"
	EnvDBName = "LESSONFOLIO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Billing      BillingConfig
	Stripe       StripeConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"LESSONFOLIO_APP_ENV" required:"true"`
	Port         string `envconfig:"LESSONFOLIO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LESSONFOLIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LESSONFOLIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LESSONFOLIO_DB_DSN"`
	Driver string `envconfig:"LESSONFOLIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LESSONFOLIO_DB_HOST"`
	LegacyPort     int    `envconfig:"LESSONFOLIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LESSONFOLIO_DB_USER"`
	LegacyPassword string `envconfig:"LESSONFOLIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"LESSONFOLIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"LESSONFOLIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LESSONFOLIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LESSONFOLIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LESSONFOLIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LESSONFOLIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LESSONFOLIO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LESSONFOLIO_REDIS_ADDR"`
	Password     string        `envconfig:"LESSONFOLIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"LESSONFOLIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LESSONFOLIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LESSONFOLIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LESSONFOLIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LESSONFOLIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LESSONFOLIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LESSONFOLIO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LESSONFOLIO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LESSONFOLIO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LESSONFOLIO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LESSONFOLIO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LESSONFOLIO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LESSONFOLIO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LESSONFOLIO_ARGON_KEY_LEN" default:"32"`
}

type BillingConfig struct {
	// FreeStudentLimit is the managed-profile cap for free-tier teachers.
	FreeStudentLimit int `envconfig:"LESSONFOLIO_BILLING_FREE_STUDENT_LIMIT" default:"3"`
	// WebhookDedupTTL bounds the Redis fast-path guard; the billing_events
	// ledger is the durable dedup record and has no TTL.
	WebhookDedupTTL time.Duration `envconfig:"LESSONFOLIO_BILLING_WEBHOOK_DEDUP_TTL" default:"720h"`
}

type StripeConfig struct {
	APIKey              string        `envconfig:"LESSONFOLIO_STRIPE_API_KEY"`
	WebhookSecret       string        `envconfig:"LESSONFOLIO_STRIPE_WEBHOOK_SECRET"`
	Env                 string        `envconfig:"LESSONFOLIO_STRIPE_ENV" default:"test"`
	SubscriptionPriceID string        `envconfig:"LESSONFOLIO_STRIPE_SUBSCRIPTION_PRICE_ID"`
	CheckoutSuccessURL  string        `envconfig:"LESSONFOLIO_STRIPE_CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string        `envconfig:"LESSONFOLIO_STRIPE_CHECKOUT_CANCEL_URL"`
	RequestTimeout      time.Duration `envconfig:"LESSONFOLIO_STRIPE_REQUEST_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LESSONFOLIO_AUTO_MIGRATE" default:"false"`
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
