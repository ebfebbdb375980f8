// Package config loads server settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"errors"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host            string
	Port            string
	Env             string // "development" or "production"
	LogLevel        string
	RankingsPath    string
	AllowedOrigins  []string
	TickInterval    time.Duration
	ReapInterval    time.Duration
	DatabaseURL     string // empty disables the round archive
	ShutdownTimeout time.Duration
}

// Load reads .env files if present, then the environment. Variables already
// set in the environment win over .env.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RankingsPath:    getEnv("RANKINGS_PATH", "top_10000_domains.txt"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TickInterval:    getEnvDuration("TICK_INTERVAL", time.Second),
		ReapInterval:    getEnvDuration("REAP_INTERVAL", time.Minute),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvDuration falls back to defaultValue on anything unparsable or non-positive.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
