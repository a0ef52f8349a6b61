package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ATELIER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Admin        AdminConfig
	Checkout     CheckoutConfig
	MercadoPago  MercadoPagoConfig
	MelhorEnvio  MelhorEnvioConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.MercadoPago.AccessTokenFor(cfg.App); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATELIER_APP_ENV" required:"true"`
	Port         string `envconfig:"ATELIER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ATELIER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATELIER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ATELIER_DB_DSN" required:"true"`
	Driver string `envconfig:"ATELIER_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ATELIER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATELIER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATELIER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATELIER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ATELIER_REDIS_URL"`
	Address      string        `envconfig:"ATELIER_REDIS_ADDR"`
	Password     string        `envconfig:"ATELIER_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATELIER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATELIER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATELIER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATELIER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATELIER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATELIER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AdminConfig struct {
	APIToken string `envconfig:"ATELIER_ADMIN_API_TOKEN" required:"true"`
}

type CheckoutConfig struct {
	// NotificationURL is where the gateway posts payment webhooks. It must be
	// publicly reachable; localhost only works behind a tunnel.
	NotificationURL string `envconfig:"ATELIER_CHECKOUT_NOTIFICATION_URL" required:"true"`
}

type MercadoPagoConfig struct {
	ProdAccessToken string        `envconfig:"ATELIER_MERCADOPAGO_ACCESS_TOKEN_PROD"`
	TestAccessToken string        `envconfig:"ATELIER_MERCADOPAGO_ACCESS_TOKEN_TEST"`
	BaseURL         string        `envconfig:"ATELIER_MERCADOPAGO_BASE_URL"`
	Timeout         time.Duration `envconfig:"ATELIER_MERCADOPAGO_TIMEOUT" default:"7s"`
}

// AccessTokenFor selects the gateway credential for the running environment.
// Production refuses to fall back to the test token.
func (m MercadoPagoConfig) AccessTokenFor(app AppConfig) (string, error) {
	if app.IsProd() {
		token := strings.TrimSpace(m.ProdAccessToken)
		if token == "" {
			return "", fmt.Errorf("ATELIER_MERCADOPAGO_ACCESS_TOKEN_PROD is required in prod")
		}
		return token, nil
	}
	token := strings.TrimSpace(m.TestAccessToken)
	if token == "" {
		return "", fmt.Errorf("ATELIER_MERCADOPAGO_ACCESS_TOKEN_TEST is required outside prod")
	}
	return token, nil
}

type MelhorEnvioConfig struct {
	Token     string        `envconfig:"ATELIER_MELHORENVIO_TOKEN"`
	BaseURL   string        `envconfig:"ATELIER_MELHORENVIO_BASE_URL"`
	UserAgent string        `envconfig:"ATELIER_MELHORENVIO_USER_AGENT" default:"AtelierDoce (contato@atelierdoce.com.br)"`
	Timeout   time.Duration `envconfig:"ATELIER_MELHORENVIO_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ATELIER_AUTO_MIGRATE" default:"false"`
}
