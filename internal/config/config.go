// Package config loads AWSLens settings from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultMaxParallel  = 10
	defaultPollInterval = 5 * time.Minute
	defaultCostInterval = time.Hour
	defaultPort         = 8080
	defaultDataDir      = "/var/lib/awslens"

	minPollInterval = 30 * time.Second
	minCostInterval = 10 * time.Minute
	maxParallelCap  = 64
)

// Config holds all application configuration
type Config struct {
	// Regions to monitor; empty means discover the account's enabled regions
	Regions []string

	// Fan-out and polling
	MaxParallel  int
	PollInterval time.Duration
	CostInterval time.Duration

	// Server settings
	Host string
	Port int

	// Demo mode serves a canned fleet without touching AWS
	DemoMode bool

	// Security settings
	AuthUser       string
	AuthPass       string // bcrypt hash after Load
	APIToken       string
	AllowedOrigins string

	// Alerting
	MutePatterns []string

	// Storage
	DataDir string

	// Logging settings
	LogLevel  string
	LogFormat string

	// EnvFile is the .env path that was loaded, if any (watched for changes)
	EnvFile string
}

// IsPasswordHashed checks if a string looks like a bcrypt hash
func IsPasswordHashed(password string) bool {
	if !strings.HasPrefix(password, "$2") {
		return false
	}

	length := len(password)
	if length == 60 {
		return true
	}

	if length >= 55 && length < 60 {
		log.Error().
			Int("length", length).
			Msg("Bcrypt hash appears truncated! Should be 60 characters. Password will be treated as plaintext.")
	}
	return false
}

// Load reads configuration from the environment. A .env file in the working
// directory (or at AWSLENS_ENV_FILE) is loaded first when present; a missing
// file is not an error.
func Load() (*Config, error) {
	cfg := &Config{
		MaxParallel:    defaultMaxParallel,
		PollInterval:   defaultPollInterval,
		CostInterval:   defaultCostInterval,
		Port:           defaultPort,
		AllowedOrigins: "*",
		DataDir:        defaultDataDir,
		LogLevel:       "info",
		LogFormat:      "auto",
	}

	envFile := strings.TrimSpace(os.Getenv("AWSLENS_ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err == nil {
		cfg.EnvFile = envFile
		log.Info().Str("path", envFile).Msg("Loaded environment from file")
	} else if !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", envFile).Msg("Failed to load env file")
	}

	if regions := os.Getenv("AWSLENS_REGIONS"); regions != "" {
		cfg.Regions = SplitList(regions)
	}

	if v := os.Getenv("AWSLENS_MAX_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AWSLENS_MAX_PARALLEL %q: %w", v, err)
		}
		cfg.MaxParallel = n
	}
	if cfg.MaxParallel < 1 {
		log.Warn().Int("value", cfg.MaxParallel).Msg("AWSLENS_MAX_PARALLEL below 1, clamping")
		cfg.MaxParallel = 1
	}
	if cfg.MaxParallel > maxParallelCap {
		log.Warn().Int("value", cfg.MaxParallel).Int("cap", maxParallelCap).Msg("AWSLENS_MAX_PARALLEL above cap, clamping")
		cfg.MaxParallel = maxParallelCap
	}

	if v := os.Getenv("AWSLENS_POLL_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AWSLENS_POLL_INTERVAL %q: %w", v, err)
		}
		cfg.PollInterval = d
	}
	if cfg.PollInterval < minPollInterval {
		log.Warn().Dur("value", cfg.PollInterval).Dur("min", minPollInterval).Msg("AWSLENS_POLL_INTERVAL below minimum, clamping")
		cfg.PollInterval = minPollInterval
	}

	if v := os.Getenv("AWSLENS_COST_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AWSLENS_COST_INTERVAL %q: %w", v, err)
		}
		cfg.CostInterval = d
	}
	if cfg.CostInterval < minCostInterval {
		log.Warn().Dur("value", cfg.CostInterval).Dur("min", minCostInterval).Msg("AWSLENS_COST_INTERVAL below minimum, clamping")
		cfg.CostInterval = minCostInterval
	}

	cfg.Host = os.Getenv("AWSLENS_HOST")
	if v := os.Getenv("AWSLENS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid AWSLENS_PORT %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("AWSLENS_DEMO_MODE"); v != "" {
		cfg.DemoMode = parseBool(v)
	}

	cfg.AuthUser = strings.Trim(os.Getenv("AWSLENS_AUTH_USER"), "'\"")
	cfg.AuthPass = strings.Trim(os.Getenv("AWSLENS_AUTH_PASS"), "'\"")
	cfg.APIToken = strings.Trim(os.Getenv("AWSLENS_API_TOKEN"), "'\"")

	if cfg.AuthPass != "" && !IsPasswordHashed(cfg.AuthPass) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AuthPass), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash AWSLENS_AUTH_PASS: %w", err)
		}
		cfg.AuthPass = string(hashed)
		log.Info().Msg("Hashed plaintext AWSLENS_AUTH_PASS for runtime use")
	}

	if v := os.Getenv("AWSLENS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = v
	}

	if v := os.Getenv("AWSLENS_MUTES"); v != "" {
		cfg.MutePatterns = SplitList(v)
	}

	if v := os.Getenv("AWSLENS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.DataDir = ensureWritableDir(cfg.DataDir)

	if v := os.Getenv("AWSLENS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AWSLENS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg, nil
}

// SplitList splits a comma-separated env value, trimming blanks.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseInterval accepts Go durations ("5m") and bare seconds ("300").
func parseInterval(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ensureWritableDir creates dir if needed and falls back to ./data when the
// preferred location is not writable (typical when running unprivileged).
func ensureWritableDir(dir string) string {
	if err := os.MkdirAll(dir, 0o755); err == nil {
		probe := dir + "/.probe"
		if f, err := os.Create(probe); err == nil {
			f.Close()
			os.Remove(probe)
			return dir
		}
	}

	fallback := "./data"
	if err := os.MkdirAll(fallback, 0o755); err != nil {
		log.Warn().Str("dir", dir).Str("fallback", fallback).Msg("No writable data directory available")
		return dir
	}
	log.Warn().Str("dir", dir).Str("fallback", fallback).Msg("Data directory not writable, using fallback")
	return fallback
}

// ResolveOrigins parses the allowed origins setting into a list; "*" allows
// any origin.
func (c *Config) ResolveOrigins() []string {
	return SplitList(c.AllowedOrigins)
}

// AuthEnabled reports whether any authentication is configured.
func (c *Config) AuthEnabled() bool {
	return (c.AuthUser != "" && c.AuthPass != "") || c.APIToken != ""
}

// ListenAddr formats the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
