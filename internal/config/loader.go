package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config captures environment driven configuration values for the club API server.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	TokenSecret     string
	TokenTTL        time.Duration
	RedisAddr       string
	RedisPassword   string
	AuthRate        int
	AuthRateWindow  time.Duration
	Location        *time.Location
	PrincipalTTL    time.Duration
	ShutdownTimeout time.Duration
}

const defaultTimezone = "Asia/Seoul"

// ClientConfig captures environment driven configuration for the command-line client.
type ClientConfig struct {
	APIURL      string
	StateDir    string
	HTTPTimeout time.Duration
	// Location selects the default calendar month, matching the server.
	Location    *time.Location
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:club.db?_pragma=foreign_keys(1)",
		TokenTTL:        7 * 24 * time.Hour,
		AuthRate:        10,
		AuthRateWindow:  time.Minute,
		PrincipalTTL:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	var env envReader

	cfg.HTTPPort = env.positiveInt("CLUB_HTTP_PORT", cfg.HTTPPort)
	cfg.SQLiteDSN = env.optional("CLUB_SQLITE_DSN", cfg.SQLiteDSN)
	cfg.TokenSecret = env.required("CLUB_TOKEN_SECRET")
	if cfg.TokenSecret != "" && len(cfg.TokenSecret) < 16 {
		env.invalid = append(env.invalid, "CLUB_TOKEN_SECRET")
	}
	cfg.TokenTTL = env.duration("CLUB_TOKEN_TTL", cfg.TokenTTL)
	cfg.RedisAddr = env.optional("CLUB_REDIS_ADDR", "")
	cfg.RedisPassword = env.optional("CLUB_REDIS_PASSWORD", "")
	cfg.AuthRate = env.positiveInt("CLUB_AUTH_RATE", cfg.AuthRate)
	cfg.AuthRateWindow = env.duration("CLUB_AUTH_RATE_WINDOW", cfg.AuthRateWindow)
	cfg.PrincipalTTL = env.duration("CLUB_PRINCIPAL_CACHE_TTL", cfg.PrincipalTTL)

	cfg.Location = env.location("CLUB_TIMEZONE", defaultTimezone)

	if err := env.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadClient parses the command-line client configuration.
func LoadClient() (ClientConfig, error) {
	cfg := ClientConfig{
		APIURL:      "http://localhost:8080",
		HTTPTimeout: 10 * time.Second,
	}

	var env envReader

	cfg.APIURL = strings.TrimRight(env.optional("CLUB_API_URL", cfg.APIURL), "/")
	if parsed, err := url.Parse(cfg.APIURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		env.invalid = append(env.invalid, "CLUB_API_URL")
	}
	cfg.HTTPTimeout = env.duration("CLUB_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Location = env.location("CLUB_TIMEZONE", defaultTimezone)

	cfg.StateDir = env.optional("CLUB_STATE_DIR", "")
	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			env.missing = append(env.missing, "CLUB_STATE_DIR")
		} else {
			cfg.StateDir = filepath.Join(base, "clubctl")
		}
	}

	if err := env.err(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// envReader accumulates missing and invalid keys so that every problem is
// reported at once.
type envReader struct {
	missing []string
	invalid []string
}

func (e *envReader) location(key, fallback string) *time.Location {
	location, err := time.LoadLocation(e.optional(key, fallback))
	if err != nil {
		e.invalid = append(e.invalid, key)
		return nil
	}
	return location
}

func (e *envReader) optional(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func (e *envReader) required(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		e.missing = append(e.missing, key)
	}
	return value
}

func (e *envReader) positiveInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return parsed
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return parsed
}

func (e *envReader) err() error {
	if len(e.missing) > 0 {
		return fmt.Errorf("필수 환경 변수가 설정되지 않았습니다: %s", strings.Join(e.missing, ", "))
	}
	if len(e.invalid) > 0 {
		return fmt.Errorf("환경 변수 값이 올바르지 않습니다: %s", strings.Join(e.invalid, ", "))
	}
	return nil
}
