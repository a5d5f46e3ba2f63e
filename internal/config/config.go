package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, read from the environment.
type Config struct {
	Port         string
	DatabasePath string

	// SessionSecret signs API bearer tokens; at least 32 bytes for HMAC-SHA256.
	SessionSecret string
	BcryptCost    int
	CookieSecure  bool

	// Google OAuth. The OAuth routes are disabled when ClientID is empty.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// ProtectedPrefixes lists path prefixes that require a valid session.
	ProtectedPrefixes []string
	// LoginPath is where the gate redirects unauthenticated browsers.
	LoginPath string
}

const (
	defaultPort         = "8080"
	defaultDatabasePath = "vidyasetu.db"
	defaultBcryptCost   = 12
	defaultLoginPath    = "/login"
)

var defaultProtectedPrefixes = []string{"/dashboard", "/profile", "/settings"}

// Load reads configuration from a .env file (if present) and the
// environment, applying defaults and failing fast on invalid values.
func Load() (*Config, error) {
	// Best effort; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               envOrDefault("PORT", defaultPort),
		DatabasePath:       envOrDefault("DATABASE_PATH", defaultDatabasePath),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		BcryptCost:         defaultBcryptCost,
		CookieSecure:       os.Getenv("COOKIE_SECURE") != "false",
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		ProtectedPrefixes:  defaultProtectedPrefixes,
		LoginPath:          envOrDefault("LOGIN_PATH", defaultLoginPath),
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		if parsed < 4 || parsed > 14 {
			return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", parsed)
		}
		cfg.BcryptCost = parsed
	}

	if v := os.Getenv("PROTECTED_PREFIXES"); v != "" {
		cfg.ProtectedPrefixes = splitPrefixes(v)
		if len(cfg.ProtectedPrefixes) == 0 {
			return nil, fmt.Errorf("PROTECTED_PREFIXES must contain at least one absolute path prefix")
		}
	}

	if cfg.GoogleClientID != "" && cfg.GoogleRedirectURL == "" {
		return nil, fmt.Errorf("GOOGLE_REDIRECT_URL is required when GOOGLE_CLIENT_ID is set")
	}

	return cfg, nil
}

// OAuthEnabled reports whether Google sign-in is configured.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != ""
}

func splitPrefixes(v string) []string {
	var prefixes []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" || !strings.HasPrefix(p, "/") {
			continue
		}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
