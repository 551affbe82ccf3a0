package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SMTPConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	From          string
	FromName      string
	TLSMode       string // "", "tls", "starttls"
	SkipVerifyTLS bool
}

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
}

type Config struct {
	Env     string
	Addr    string
	DBDSN   string
	BaseURL string

	SessionCookie string
	SessionTTL    time.Duration

	Paystack PaystackConfig
	SMTP     SMTPConfig
}

// Load reads configuration from the environment. A .env file, if present,
// is loaded by main before this runs. PAYSTACK_SECRET_KEY has no default:
// an empty webhook secret would make every signature check satisfiable.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("SESSION_COOKIE", "marketdotcom_session")
	v.SetDefault("SESSION_TTL_HOURS", 24*7)
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", "1025")
	v.SetDefault("SMTP_FROM", "no-reply@marketdotcom.local")
	v.SetDefault("SMTP_FROM_NAME", "MarketDotCom")
	v.SetDefault("SMTP_TLS_MODE", "")

	cfg := Config{
		Env:           v.GetString("APP_ENV"),
		Addr:          v.GetString("APP_ADDR"),
		DBDSN:         v.GetString("DB_DSN"),
		BaseURL:       v.GetString("APP_BASE_URL"),
		SessionCookie: v.GetString("SESSION_COOKIE"),
		SessionTTL:    time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		Paystack: PaystackConfig{
			SecretKey: v.GetString("PAYSTACK_SECRET_KEY"),
			BaseURL:   v.GetString("PAYSTACK_BASE_URL"),
		},
		SMTP: SMTPConfig{
			Host:          v.GetString("SMTP_HOST"),
			Port:          v.GetString("SMTP_PORT"),
			User:          v.GetString("SMTP_USER"),
			Pass:          v.GetString("SMTP_PASS"),
			From:          v.GetString("SMTP_FROM"),
			FromName:      v.GetString("SMTP_FROM_NAME"),
			TLSMode:       v.GetString("SMTP_TLS_MODE"),
			SkipVerifyTLS: v.GetBool("SMTP_SKIP_VERIFY_TLS"),
		},
	}

	if cfg.DBDSN == "" {
		return Config{}, errors.New("DB_DSN is required")
	}
	if cfg.Paystack.SecretKey == "" {
		return Config{}, errors.New("PAYSTACK_SECRET_KEY is required")
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }
