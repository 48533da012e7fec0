package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App    AppConfig
	Cart   CartConfig
	Redis  RedisConfig
	GCP    GCPConfig
	PubSub PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if cfg.PubSub.AnalyticsTopic != "" && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when %s is set", EnvGCPProjectID, EnvPubSubAnalyticsTopic)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTENGINE_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTENGINE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CARTENGINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTENGINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CartConfig holds the lifecycle knobs of the cart engine.
type CartConfig struct {
	ExpirationDays  int           `envconfig:"CARTENGINE_CART_EXPIRATION_DAYS" default:"30"`
	ShareTTL        time.Duration `envconfig:"CARTENGINE_CART_SHARE_TTL" default:"168h"`
	SweepInterval   time.Duration `envconfig:"CARTENGINE_CART_SWEEP_INTERVAL" default:"1h"`
	SharePathPrefix string        `envconfig:"CARTENGINE_CART_SHARE_PATH_PREFIX" default:"/api/v1/carts/shared"`
	DefaultCurrency string        `envconfig:"CARTENGINE_CART_DEFAULT_CURRENCY" default:"USD"`
	SeedProducts    int           `envconfig:"CARTENGINE_CART_SEED_PRODUCTS" default:"100"`
}

// ExpirationWindow converts ExpirationDays into a duration.
func (c CartConfig) ExpirationWindow() time.Duration {
	return time.Duration(c.ExpirationDays) * 24 * time.Hour
}

// Currency returns the parsed default currency.
func (c CartConfig) Currency() enums.Currency {
	cur, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(c.DefaultCurrency)))
	if err != nil {
		return enums.CurrencyUSD
	}
	return cur
}

func (c CartConfig) validate() error {
	if c.ExpirationDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartExpirationDays)
	}
	if c.ShareTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartShareTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartSweepInterval)
	}
	if c.SeedProducts < 0 {
		return fmt.Errorf("%s must not be negative", EnvCartSeedProducts)
	}
	if _, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))); err != nil {
		return fmt.Errorf("%s: %w", EnvCartDefaultCurrency, err)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTENGINE_REDIS_URL"`
	Address      string        `envconfig:"CARTENGINE_REDIS_ADDR"`
	Password     string        `envconfig:"CARTENGINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTENGINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTENGINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTENGINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTENGINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTENGINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTENGINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CARTENGINE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CARTENGINE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	AnalyticsTopic string `envconfig:"CARTENGINE_PUBSUB_ANALYTICS_TOPIC"`
}

// Enabled reports whether analytics events should be forwarded to Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.AnalyticsTopic) != ""
}
