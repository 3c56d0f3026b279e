// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StripeConfig struct {
	APIKey        string `yaml:"api_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type WorkerConfig struct {
	ReaperInterval time.Duration `yaml:"reaper_interval"` // checkout reaper tick
	StaleAfter     time.Duration `yaml:"stale_after"`     // pending payment age before reaping
	ExpiryInterval time.Duration `yaml:"expiry_interval"` // subscription expiry tick
}

type RateLimitConfig struct {
	PurchaseLimit  int           `yaml:"purchase_limit"`
	PurchaseWindow time.Duration `yaml:"purchase_window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Auth      AuthConfig      `yaml:"auth"`
	Worker    WorkerConfig    `yaml:"worker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Worker.ReaperInterval <= 0 {
		cfg.Worker.ReaperInterval = time.Minute
	}
	if cfg.Worker.StaleAfter <= 0 {
		cfg.Worker.StaleAfter = 10 * time.Minute
	}
	if cfg.Worker.ExpiryInterval <= 0 {
		cfg.Worker.ExpiryInterval = 5 * time.Minute
	}
	if cfg.RateLimit.PurchaseLimit <= 0 {
		cfg.RateLimit.PurchaseLimit = 10
	}
	if cfg.RateLimit.PurchaseWindow <= 0 {
		cfg.RateLimit.PurchaseWindow = time.Minute
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		cfg.Database.URL = env
	}
	if env := os.Getenv("STRIPE_API_KEY"); env != "" {
		cfg.Stripe.APIKey = env
	}
	if env := os.Getenv("STRIPE_WEBHOOK_SECRET"); env != "" {
		cfg.Stripe.WebhookSecret = env
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}
