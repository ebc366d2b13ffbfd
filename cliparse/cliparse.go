package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	JWTSecret    string
	InviteSalt   string
	BaseURL      string

	TokenTTL         time.Duration
	RealtimeInterval time.Duration
	Location         *time.Location
}

// ParseFlags merges CLI flags, environment variables and an optional .env
// file into a Config. Flags win over env, env wins over defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var tokenTTL, realtimeInterval, timezone string

	fs := flag.NewFlagSet("eboto", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in invitation links")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Session token signing secret (prefer env)")
	fs.StringVar(&cfg.InviteSalt, "invite-salt", "", "Invitation token salt (prefer env)")

	fs.StringVar(&tokenTTL, "token-ttl", "", "Session token lifetime, e.g. 72h")
	fs.StringVar(&realtimeInterval, "realtime-interval", "", "Realtime tally refresh interval, e.g. 5s")
	fs.StringVar(&timezone, "tz", "", "Timezone for voting hours, e.g. Asia/Manila")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port out of range: %d", cfg.Port)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
		}
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if cfg.InviteSalt == "" {
		cfg.InviteSalt = os.Getenv("INVITE_SALT")
	}
	if cfg.InviteSalt == "" {
		return Config{}, errors.New("INVITE_SALT required")
	}

	var err error
	if cfg.TokenTTL, err = durationSetting(tokenTTL, "TOKEN_TTL", 72*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RealtimeInterval, err = durationSetting(realtimeInterval, "REALTIME_INTERVAL", 5*time.Second); err != nil {
		return Config{}, err
	}

	if timezone == "" {
		timezone = os.Getenv("TIMEZONE")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	cfg.Location, err = time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	return cfg, nil
}

func durationSetting(flagValue, envKey string, fallback time.Duration) (time.Duration, error) {
	raw := flagValue
	if raw == "" {
		raw = os.Getenv(envKey)
	}
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", envKey)
	}
	return d, nil
}
