package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port            int
	Database        DatabaseConfig
	AppBaseURL      string
	StateTTLSeconds int
	CORSOrigins     []string
	OAuth           OAuthConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string // postgres or memory
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// OAuthConfig holds the per-provider OAuth2 client configuration
type OAuthConfig struct {
	Spotify ProviderConfig
	GitHub  ProviderConfig
}

// ProviderConfig holds the client credentials for one OAuth provider.
// Credentials are only ever read from the environment: a provider with no
// credentials stays disabled, and there is no built-in fallback secret.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Configured reports whether all required credentials are present
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

func (p ProviderConfig) empty() bool {
	return p.ClientID == "" && p.ClientSecret == "" && p.RedirectURI == ""
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Database: DatabaseConfig{
			Type:         getEnv("DATABASE_TYPE", "postgres"),
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		StateTTLSeconds: getEnvInt("STATE_TTL_SECONDS", 300),
		CORSOrigins:     splitAndTrim(getEnv("CORS_ORIGINS", "*"), ","),
		OAuth: OAuthConfig{
			Spotify: loadProviderConfig("SPOTIFY"),
			GitHub:  loadProviderConfig("GITHUB"),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "linkbroker")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "linkbroker")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Type != "postgres" && c.Database.Type != "memory" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.StateTTLSeconds <= 0 {
		return fmt.Errorf("STATE_TTL_SECONDS must be positive")
	}

	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}

	// A provider must be configured completely or not at all. Partial
	// credentials are an operator error and abort startup rather than
	// surfacing as request-time failures.
	if err := validateProvider("SPOTIFY", c.OAuth.Spotify); err != nil {
		return err
	}
	if err := validateProvider("GITHUB", c.OAuth.GitHub); err != nil {
		return err
	}

	return nil
}

func validateProvider(prefix string, p ProviderConfig) error {
	if p.empty() || p.Configured() {
		return nil
	}
	return fmt.Errorf("%s_CLIENT_ID, %s_CLIENT_SECRET and %s_REDIRECT_URI must be set together", prefix, prefix, prefix)
}

func loadProviderConfig(prefix string) ProviderConfig {
	return ProviderConfig{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		RedirectURI:  os.Getenv(prefix + "_REDIRECT_URI"),
	}
}

func splitAndTrim(s, sep string) []string {
	parts := []string{}
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && string(s[j]) != sep {
			j++
		}
		part := s[i:j]
		// Trim spaces
		start, end := 0, len(part)
		for start < end && part[start] == ' ' {
			start++
		}
		for end > start && part[end-1] == ' ' {
			end--
		}
		if start < end {
			parts = append(parts, part[start:end])
		}
		i = j + 1
	}
	return parts
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
