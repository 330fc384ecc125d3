package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (GSM_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (GSM_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `default:"" usage:"Redis connection URL for the checkout guard; empty disables it" flag:"redis-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (GSM_API_KEY_PEPPER)" flag:"api-key-pepper"`
	UploadDir    string `default:"uploads" usage:"Directory for payment proof images" flag:"upload-dir"`
	Bank         BankConfig
	SMTP         SMTPConfig
	Shipping     ShippingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// BankConfig is the transfer destination shown in payment instructions.
type BankConfig struct {
	Name    string `default:"BCA" usage:"Bank name for transfer instructions"`
	Account string `default:"GSM Motor" usage:"Account holder name"`
	Number  string `default:"" usage:"Account number"`
}

// SMTPConfig configures outgoing mail. An empty host disables notifications.
type SMTPConfig struct {
	Host     string `default:"" usage:"SMTP host; empty disables email"`
	Port     int    `default:"587" usage:"SMTP port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `default:"noreply@gsmmotor.id" usage:"Sender address"`
	// AdminRecipients receive the new-order alert.
	AdminRecipients []string `usage:"Back-office addresses notified on new orders" flag:"admin-recipients"`
}

// ShippingConfig configures the RajaOngkir rate collaborator.
type ShippingConfig struct {
	APIKey  string `usage:"RajaOngkir API key" flag:"shipping-api-key"`
	BaseURL string `default:"https://rajaongkir.komerce.id/api/v1" usage:"RajaOngkir base URL" flag:"shipping-base-url"`
	// OriginID is the subdistrict the shop ships from.
	OriginID string `usage:"Origin subdistrict ID for rate quotes" flag:"shipping-origin-id"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "GSM",
		Files:     []string{"config.yaml", "/etc/gsm/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set GSM_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's GSM_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
