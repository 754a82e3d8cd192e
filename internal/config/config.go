package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	DriverXLSX     = "xlsx"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port           string
	Environment    string
	MetricsEnabled bool

	StoreDriver string
	StorePath   string
	DatabaseURL string

	ConversationLog string

	GoogleAPIKey string
	ModelName    string

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	AlertPhoneNumber  string

	StripeAPIKeyLive   string
	StripeAPIKeyTest   string
	PaymentCurrency    string
	PaymentRedirectURL string
}

// fileConfig mirrors the optional TOML file named by PAYPROMISE_CONFIG.
// Environment variables override anything set there.
type fileConfig struct {
	Server struct {
		Port        string `toml:"port"`
		Environment string `toml:"environment"`
		Metrics     *bool  `toml:"metrics"`
	} `toml:"server"`
	Store struct {
		Driver      string `toml:"driver"`
		Path        string `toml:"path"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"store"`
	Log struct {
		ConversationFile string `toml:"conversation_file"`
	} `toml:"log"`
	Model struct {
		APIKey string `toml:"api_key"`
		Name   string `toml:"name"`
	} `toml:"model"`
	Speech struct {
		APIKey  string `toml:"api_key"`
		VoiceID string `toml:"voice_id"`
	} `toml:"speech"`
	Notify struct {
		AccountSID  string `toml:"account_sid"`
		AuthToken   string `toml:"auth_token"`
		PhoneNumber string `toml:"phone_number"`
		AlertNumber string `toml:"alert_number"`
	} `toml:"notify"`
	Payments struct {
		KeyLive     string `toml:"key_live"`
		KeyTest     string `toml:"key_test"`
		Currency    string `toml:"currency"`
		RedirectURL string `toml:"redirect_url"`
	} `toml:"payments"`
}

func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("PAYPROMISE_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	metrics := true
	if fc.Server.Metrics != nil {
		metrics = *fc.Server.Metrics
	}

	cfg := &Config{
		Port:               getEnv("PORT", or(fc.Server.Port, "8000")),
		Environment:        getEnv("ENV", or(fc.Server.Environment, "development")),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", metrics),
		StoreDriver:        getEnv("STORE_DRIVER", or(fc.Store.Driver, DriverXLSX)),
		StorePath:          getEnv("STORE_PATH", or(fc.Store.Path, "cartera_clientes.xlsx")),
		DatabaseURL:        getEnv("DATABASE_URL", fc.Store.DatabaseURL),
		ConversationLog:    getEnv("LOG_FILE", or(fc.Log.ConversationFile, "log_conversaciones.txt")),
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", fc.Model.APIKey),
		ModelName:          getEnv("MODEL_NAME", or(fc.Model.Name, "gemini-2.5-flash")),
		ElevenLabsAPIKey:   getEnv("ELEVENLABS_API_KEY", fc.Speech.APIKey),
		ElevenLabsVoiceID:  getEnv("ELEVENLABS_VOICE_ID", fc.Speech.VoiceID),
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", fc.Notify.AccountSID),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", fc.Notify.AuthToken),
		TwilioPhoneNumber:  getEnv("TWILIO_PHONE_NUMBER", fc.Notify.PhoneNumber),
		AlertPhoneNumber:   getEnv("ALERT_PHONE_NUMBER", fc.Notify.AlertNumber),
		StripeAPIKeyLive:   getEnv("STRIPE_API_KEY_LIVE", fc.Payments.KeyLive),
		StripeAPIKeyTest:   getEnv("STRIPE_API_KEY_TEST", fc.Payments.KeyTest),
		PaymentCurrency:    getEnv("PAYMENT_CURRENCY", or(fc.Payments.Currency, "usd")),
		PaymentRedirectURL: getEnv("PAYMENT_REDIRECT_URL", fc.Payments.RedirectURL),
	}

	// Validate required environment variables
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverXLSX, DriverSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("missing required environment variable: STORE_PATH")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing required environment variable: DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// ValidateServe checks the settings only the chat server needs.
func (c *Config) ValidateServe() error {
	required := map[string]string{
		"GOOGLE_API_KEY": c.GoogleAPIKey,
	}

	for name, value := range required {
		if value == "" {
			return fmt.Errorf("missing required environment variable: %s", name)
		}
	}

	return nil
}

func (c *Config) SpeechEnabled() bool {
	return c.ElevenLabsAPIKey != "" && c.ElevenLabsVoiceID != ""
}

func (c *Config) AlertsEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" &&
		c.TwilioPhoneNumber != "" && c.AlertPhoneNumber != ""
}

// StripeKey picks the live key only in production.
func (c *Config) StripeKey() string {
	if c.Environment == "production" {
		return c.StripeAPIKeyLive
	}
	return c.StripeAPIKeyTest
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
