package config

import (
	"fmt"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	Store      string `env:"STORE" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret     string `env:"JWT_SECRET"`
	SessionSecret string `env:"SESSION_SECRET"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	RazorpayKey    string `env:"RAZORPAY_KEY"`
	RazorpaySecret string `env:"RAZORPAY_SECRET"`
	RefundPolicy   string `env:"REFUND_POLICY" envDefault:"wallet"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	ItemReturnWindow  time.Duration `env:"ITEM_RETURN_WINDOW" envDefault:"15m"`
	OrderReturnWindow time.Duration `env:"ORDER_RETURN_WINDOW" envDefault:"168h"`
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.LogInfo("No .env file loaded, using process environment: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	switch c.RefundPolicy {
	case "wallet", "gateway":
	default:
		return fmt.Errorf("REFUND_POLICY must be wallet or gateway, got %q", c.RefundPolicy)
	}
	if c.RefundPolicy == "gateway" && (c.RazorpayKey == "" || c.RazorpaySecret == "") {
		return fmt.Errorf("REFUND_POLICY=gateway requires RAZORPAY_KEY and RAZORPAY_SECRET")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.SessionSecret == "") {
		return fmt.Errorf("JWT_SECRET and SESSION_SECRET are required in production")
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "derryworld-dev-jwt"
	}
	if c.SessionSecret == "" {
		c.SessionSecret = "derryworld-dev-session"
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN is the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// EmailEnabled reports whether refund e-mails can be sent.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
