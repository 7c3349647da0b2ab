package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	OrderAPI OrderAPIConfig
	Pricing  PricingConfig
	MQ       MQConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port           string
	LogLevel       string
	DefaultStoreID string
}

type DBConfig struct {
	URL string // empty = in-memory draft store
}

type OrderAPIConfig struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	CatalogPriceUnit string // minor | major | auto
	HeldPriceUnit    string // unit of item prices in held orders and invoices
}

type PricingConfig struct {
	TaxRate decimal.Decimal
}

type MQConfig struct {
	URL string // empty = events are dropped
}

type AuthConfig struct {
	JWTSecret string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("ORDER_API_TIMEOUT", "15s"))
	if err != nil {
		return nil, err
	}
	taxRate, err := decimal.NewFromString(getEnv("TAX_RATE", "0"))
	if err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			Port:           getEnv("APP_PORT", "8080"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			DefaultStoreID: getEnv("DEFAULT_STORE_ID", ""),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		OrderAPI: OrderAPIConfig{
			BaseURL:          strings.TrimRight(getEnv("ORDER_API_BASE_URL", "http://localhost:8000/api"), "/"),
			Token:            getEnv("ORDER_API_TOKEN", ""),
			Timeout:          timeout,
			CatalogPriceUnit: strings.ToLower(getEnv("CATALOG_PRICE_UNIT", "auto")),
			HeldPriceUnit:    strings.ToLower(getEnv("HELD_PRICE_UNIT", "minor")),
		},
		Pricing: PricingConfig{
			TaxRate: taxRate,
		},
		MQ: MQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
