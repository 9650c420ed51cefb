package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL         string        `env:"DATABASE_URL,required"`
	StripeSecretKey     string        `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	StripeAPIURL        string        `env:"STRIPE_API_URL"`
	WebhookTolerance    time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`

	DefaultCurrency string   `env:"DEFAULT_CURRENCY" envDefault:"cad"`
	RedirectBaseURL string   `env:"REDIRECT_BASE_URL" envDefault:"http://localhost:8080"`
	AllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	cfg.DefaultCurrency = strings.ToLower(cfg.DefaultCurrency)
	cfg.RedirectBaseURL = strings.TrimRight(cfg.RedirectBaseURL, "/")
	return &cfg, nil
}

// OriginAllowed reports whether origin may be used as a redirect base and as a
// CORS origin. An empty allow-list accepts any origin.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}
