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
	MailQueue    MailQueueConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Auth         AuthConfig
	SMTP         SMTPConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
}

// Load reads the process environment once. The returned value is treated as
// immutable and handed to constructors.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.SMTP.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"5000"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	FrontendURL  string   `envconfig:"STOREFRONT_FRONTEND_URL" default:"http://localhost:3000"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// Link joins the frontend base URL with a path and a single token query parameter.
func (a AppConfig) Link(path, token string) string {
	base := strings.TrimRight(strings.TrimSpace(a.FrontendURL), "/")
	return fmt.Sprintf("%s/%s?token=%s", base, strings.TrimLeft(path, "/"), url.QueryEscape(token))
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MailQueueConfig tunes the mail worker. RetryBackoff doubles per failed
// attempt up to MaxRetryBackoff.
type MailQueueConfig struct {
	Name            string        `envconfig:"STOREFRONT_MAIL_QUEUE_NAME" default:"outbound"`
	PollTimeout     time.Duration `envconfig:"STOREFRONT_MAIL_QUEUE_POLL_TIMEOUT" default:"5s"`
	MaxAttempts     int           `envconfig:"STOREFRONT_MAIL_QUEUE_MAX_ATTEMPTS" default:"6"`
	RetryBackoff    time.Duration `envconfig:"STOREFRONT_MAIL_QUEUE_RETRY_BACKOFF" default:"30s"`
	MaxRetryBackoff time.Duration `envconfig:"STOREFRONT_MAIL_QUEUE_MAX_RETRY_BACKOFF" default:"10m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthConfig struct {
	ResetTokenTTL time.Duration `envconfig:"STOREFRONT_RESET_TOKEN_TTL" default:"10m"`
	TokenBytes    int           `envconfig:"STOREFRONT_AUTH_TOKEN_BYTES" default:"32"`
}

type SMTPConfig struct {
	Host      string        `envconfig:"STOREFRONT_SMTP_HOST" required:"true"`
	Port      int           `envconfig:"STOREFRONT_SMTP_PORT" default:"587"`
	Username  string        `envconfig:"STOREFRONT_SMTP_USER"`
	Password  string        `envconfig:"STOREFRONT_SMTP_PASS"`
	From      string        `envconfig:"STOREFRONT_SMTP_FROM" required:"true"`
	TLSPolicy string        `envconfig:"STOREFRONT_SMTP_TLS_POLICY" default:"opportunistic"`
	Timeout   time.Duration `envconfig:"STOREFRONT_SMTP_TIMEOUT" default:"10s"`
}

func (s SMTPConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.TLSPolicy)) {
	case SMTPTLSOpportunistic, SMTPTLSMandatory, SMTPTLSNone:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvSMTPTLSPolicy, SMTPTLSOpportunistic, SMTPTLSMandatory, SMTPTLSNone)
	}
	if s.Port <= 0 {
		return fmt.Errorf("%s must be positive", EnvSMTPPort)
	}
	return nil
}

type OrdersConfig struct {
	TaxRateBPS    int64 `envconfig:"STOREFRONT_ORDER_TAX_RATE_BPS" default:"0"`
	ShippingCents int64 `envconfig:"STOREFRONT_ORDER_SHIPPING_CENTS" default:"0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"STOREFRONT_METRICS_ENABLED" default:"true"`
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
