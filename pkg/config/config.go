package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Settings     SettingsConfig
	Outbox       OutboxConfig
	Voucher      VoucherConfig
	Webhook      WebhookConfig
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
	Env          string `envconfig:"TELAPRINT_APP_ENV" required:"true"`
	Port         string `envconfig:"TELAPRINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TELAPRINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TELAPRINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TELAPRINT_DB_DSN"`
	Driver string `envconfig:"TELAPRINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TELAPRINT_DB_HOST"`
	LegacyPort     int    `envconfig:"TELAPRINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TELAPRINT_DB_USER"`
	LegacyPassword string `envconfig:"TELAPRINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TELAPRINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TELAPRINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TELAPRINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TELAPRINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TELAPRINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TELAPRINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TELAPRINT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TELAPRINT_REDIS_ADDR"`
	Password     string        `envconfig:"TELAPRINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TELAPRINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TELAPRINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TELAPRINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TELAPRINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TELAPRINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TELAPRINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TELAPRINT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TELAPRINT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TELAPRINT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TELAPRINT_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"TELAPRINT_STRIPE_API_KEY"`
	Secret     string `envconfig:"TELAPRINT_STRIPE_SECRET"`
	Env        string `envconfig:"TELAPRINT_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"TELAPRINT_STRIPE_SUCCESS_URL" default:"https://telaprint.es/checkout/success"`
	CancelURL  string `envconfig:"TELAPRINT_STRIPE_CANCEL_URL" default:"https://telaprint.es/checkout/cancelled"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SettingsConfig struct {
	CacheTTL time.Duration `envconfig:"TELAPRINT_SETTINGS_CACHE_TTL" default:"30s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TELAPRINT_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TELAPRINT_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TELAPRINT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type VoucherConfig struct {
	CodePrefix string `envconfig:"TELAPRINT_VOUCHER_CODE_PREFIX" default:"BONO"`
}

type WebhookConfig struct {
	EventTTL time.Duration `envconfig:"TELAPRINT_WEBHOOK_EVENT_TTL" default:"720h"`
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
