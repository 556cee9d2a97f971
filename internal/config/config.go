package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	StoreDriver                      string `mapstructure:"STORE_DRIVER"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseStorageBucket            string `mapstructure:"FIREBASE_STORAGE_BUCKET"`

	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	PaymentAPIKey           string        `mapstructure:"PAYMENT_API_KEY"`
	PaymentAPIBaseURL       string        `mapstructure:"PAYMENT_API_BASE_URL"`
	PaymentWebhookSecret    string        `mapstructure:"PAYMENT_WEBHOOK_SECRET"`
	PaymentWebhookTolerance time.Duration `mapstructure:"PAYMENT_WEBHOOK_TOLERANCE"`
	PaymentPriceID          string        `mapstructure:"PAYMENT_PRICE_ID"`

	AIProjectID         string `mapstructure:"AI_PROJECT_ID"`
	AILocation          string `mapstructure:"AI_LOCATION"`
	AIModel             string `mapstructure:"AI_MODEL"`
	AIPremiumPriceCents int64  `mapstructure:"AI_PREMIUM_PRICE_CENTS"`

	RedisURL          string        `mapstructure:"REDIS_URL"`
	GenerationLockTTL time.Duration `mapstructure:"GENERATION_LOCK_TTL"`

	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	BillingEventsExchange string `mapstructure:"BILLING_EVENTS_EXCHANGE"`
}

var appConfig *Config

var envKeys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL",
	"STORE_DRIVER", "FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "FIREBASE_STORAGE_BUCKET",
	"SESSION_SECRET", "SESSION_TTL", "SESSION_COOKIE_NAME",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
	"PAYMENT_API_KEY", "PAYMENT_API_BASE_URL", "PAYMENT_WEBHOOK_SECRET",
	"PAYMENT_WEBHOOK_TOLERANCE", "PAYMENT_PRICE_ID",
	"AI_PROJECT_ID", "AI_LOCATION", "AI_MODEL", "AI_PREMIUM_PRICE_CENTS",
	"REDIS_URL", "GENERATION_LOCK_TTL",
	"RABBITMQ_URL", "BILLING_EVENTS_EXCHANGE",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return appConfig, nil
}

// Load reads and validates configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_DRIVER", StoreDriverFirestore)
	v.SetDefault("SESSION_TTL", 30*24*time.Hour)
	v.SetDefault("SESSION_COOKIE_NAME", "livewall_session")
	v.SetDefault("PAYMENT_API_BASE_URL", "https://sandbox-api.paddle.com")
	v.SetDefault("PAYMENT_WEBHOOK_TOLERANCE", 5*time.Minute)
	v.SetDefault("AI_LOCATION", "us-central1")
	v.SetDefault("AI_MODEL", "imagegeneration@005")
	v.SetDefault("AI_PREMIUM_PRICE_CENTS", 299)
	v.SetDefault("GENERATION_LOCK_TTL", 2*time.Minute)
	v.SetDefault("BILLING_EVENTS_EXCHANGE", "billing_events")

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Environment variables still win over values from the file.
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New("failed to read config file: " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields. Firebase settings are only required for the firestore driver.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
	case StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be one of: firestore, memory")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if c.PaymentWebhookSecret == "" {
		return errors.New("PAYMENT_WEBHOOK_SECRET is required")
	}
	if c.ClientURL == "" {
		return errors.New("CLIENT_URL is required")
	}
	if c.PaymentWebhookTolerance <= 0 {
		return errors.New("PAYMENT_WEBHOOK_TOLERANCE must be positive")
	}
	return nil
}

// GoogleLoginEnabled reports whether the Google OIDC login flow is configured.
func (c *Config) GoogleLoginEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
