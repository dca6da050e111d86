package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Email       EmailConfig
	Logging     LoggingConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MigrationsPath string
}

type AuthConfig struct {
	// TokenSecret is the shared secret the identity provider signs
	// id-tokens with.
	TokenSecret string
	TokenIssuer string

	// UltimateAdminEmails is the allow-list of emails promoted to
	// ULTIMATE_ADMIN at identity-resolution time.
	UltimateAdminEmails []string

	// DevToken is a reserved bearer token that resolves to the user
	// identified by DevEmail. Ignored when Environment is production.
	DevToken string
	DevEmail string
}

type CORSConfig struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
}

type RateLimitConfig struct {
	PublicPerMinute int
	AuthPerMinute   int
	AdminPerMinute  int
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	environment := getEnv("ENVIRONMENT", "development")

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MigrationsPath: getEnv("DATABASE_MIGRATIONS_PATH", ""),
		},
		Auth: AuthConfig{
			TokenSecret:         getEnv("AUTH_TOKEN_SECRET", ""),
			TokenIssuer:         getEnv("AUTH_TOKEN_ISSUER", ""),
			UltimateAdminEmails: splitList(getEnv("ULTIMATE_ADMIN_EMAILS", "")),
			DevToken:            getEnv("AUTH_DEV_TOKEN", ""),
			DevEmail:            getEnv("AUTH_DEV_EMAIL", ""),
		},
		CORS: CORSConfig{
			AllowAllOrigins: environment != "production",
			AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 120),
			AuthPerMinute:   getEnvInt("RATE_LIMIT_AUTH", 300),
			AdminPerMinute:  getEnvInt("RATE_LIMIT_ADMIN", 0),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			From:         getEnv("EMAIL_FROM", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: environment,
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.TokenSecret == "" {
		return Config{}, fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}
	if cfg.Environment == "production" && cfg.Auth.DevToken != "" {
		return Config{}, fmt.Errorf("AUTH_DEV_TOKEN must not be set in production")
	}
	if cfg.Email.Enabled && (cfg.Email.From == "" || cfg.Email.ResendAPIKey == "") {
		return Config{}, fmt.Errorf("EMAIL_FROM and RESEND_API_KEY are required when EMAIL_ENABLED is true")
	}
	return cfg, nil
}

// IsUltimateAdminEmail reports whether email is on the configured
// allow-list. Comparison is case-insensitive.
func (c AuthConfig) IsUltimateAdminEmail(email string) bool {
	for _, candidate := range c.UltimateAdminEmails {
		if strings.EqualFold(candidate, email) {
			return true
		}
	}
	return false
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
