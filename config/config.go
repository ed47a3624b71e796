// Package config loads the environment-provided configuration.
package config

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/layer-3/mailgate/core"
	"github.com/layer-3/mailgate/secure"
)

// Config is the full service configuration.
type Config struct {
	HTTPPort string
	AppEnv   string // "production" enables strict content validation

	RedisURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTo       string

	RateLimitWindow time.Duration
	RateLimitMax    int

	AllowedSenderDomains []string
	VerifyMX             bool

	HMACKey       []byte // signs published audit events
	EncryptionKey []byte // 32 bytes, AES-256; decrypts SMTP_PASSWORD_ENC
}

// Load reads configuration from the environment (with .env bootstrap) and
// fails fast on anything the service cannot run without.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:     getEnv("HTTP_PORT", "9000"),
		AppEnv:       getEnv("APP_ENV", "development"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailTo:       os.Getenv("MAIL_TO"),
		VerifyMX:     getEnv("VERIFY_MX", "false") == "true",
	}

	if key := os.Getenv("MAILGATE_HMAC_KEY"); key != "" {
		cfg.HMACKey = []byte(key)
	}
	if keyHex := os.Getenv("MAILGATE_ENC_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return Config{}, &core.ConfigError{Field: "MAILGATE_ENC_KEY", Reason: "must be 64 hex characters (32 bytes)"}
		}
		cfg.EncryptionKey = key
	}

	// The SMTP password may be stored encrypted at rest; when the encrypted
	// form is present it wins over SMTP_PASSWORD.
	if encrypted := os.Getenv("SMTP_PASSWORD_ENC"); encrypted != "" {
		if len(cfg.EncryptionKey) == 0 {
			return Config{}, &core.ConfigError{Field: "SMTP_PASSWORD_ENC", Reason: "requires MAILGATE_ENC_KEY"}
		}
		password, err := secure.DecryptSensitiveData(encrypted, cfg.EncryptionKey)
		if err != nil {
			return Config{}, &core.ConfigError{Field: "SMTP_PASSWORD_ENC", Reason: "cannot be decrypted with MAILGATE_ENC_KEY"}
		}
		cfg.SMTPPassword = string(password)
	}

	// Transport credentials are the one thing the service must refuse to
	// start without.
	if cfg.SMTPHost == "" {
		return Config{}, &core.ConfigError{Field: "SMTP_HOST", Reason: "is required"}
	}
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return Config{}, &core.ConfigError{Field: "SMTP_USERNAME/SMTP_PASSWORD", Reason: "are required"}
	}
	if cfg.MailFrom == "" || cfg.MailTo == "" {
		return Config{}, &core.ConfigError{Field: "MAIL_FROM/MAIL_TO", Reason: "are required"}
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "465"))
	if err != nil {
		return Config{}, &core.ConfigError{Field: "SMTP_PORT", Reason: "must be an integer"}
	}
	cfg.SMTPPort = smtpPort

	windowMs, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_MS", "60000"))
	if err != nil || windowMs <= 0 {
		return Config{}, &core.ConfigError{Field: "RATE_LIMIT_WINDOW_MS", Reason: "must be a positive integer"}
	}
	cfg.RateLimitWindow = time.Duration(windowMs) * time.Millisecond

	maxRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "3"))
	if err != nil || maxRequests <= 0 {
		return Config{}, &core.ConfigError{Field: "RATE_LIMIT_MAX", Reason: "must be a positive integer"}
	}
	cfg.RateLimitMax = maxRequests

	for _, d := range strings.Split(getEnv("ALLOWED_SENDER_DOMAINS", ""), ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.AllowedSenderDomains = append(cfg.AllowedSenderDomains, d)
		}
	}
	if len(cfg.AllowedSenderDomains) == 0 {
		return Config{}, &core.ConfigError{Field: "ALLOWED_SENDER_DOMAINS", Reason: "at least one domain is required"}
	}

	return cfg, nil
}

// Production reports whether strict-mode heuristics should be enabled.
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
