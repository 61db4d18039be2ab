// Package config loads the TAXI_* environment settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration of every command.
type Config struct {
	HTTPAddr        string        `env:"TAXI_HTTP_ADDR" envDefault:":8000"`
	DBDialect       string        `env:"TAXI_DB_DIALECT" envDefault:"sqlite"`
	DBDSN           string        `env:"TAXI_DB_DSN" envDefault:"taxi.db"`
	DBMaxOpenConns  int           `env:"TAXI_DB_MAX_OPEN_CONNS" envDefault:"10"`
	LogLevel        string        `env:"TAXI_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"TAXI_LOG_FORMAT" envDefault:"text"`
	DebugSQL        bool          `env:"TAXI_DEBUG_SQL" envDefault:"false"`
	SessionTTL      time.Duration `env:"TAXI_SESSION_TTL" envDefault:"336h"`
	SecureCookies   bool          `env:"TAXI_SECURE_COOKIES" envDefault:"false"`
	PageSize        int           `env:"TAXI_PAGE_SIZE" envDefault:"5"`
	ShutdownTimeout time.Duration `env:"TAXI_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the process environment. The result is not validated, so
// command-line overrides can still fix it; call Validate once they are
// applied.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	switch {
	case c.PageSize < 1:
		return fmt.Errorf("config: TAXI_PAGE_SIZE must be positive, got %d", c.PageSize)
	case c.SessionTTL <= 0:
		return fmt.Errorf("config: TAXI_SESSION_TTL must be positive, got %s", c.SessionTTL)
	case c.DBDSN == "":
		return fmt.Errorf("config: TAXI_DB_DSN is required")
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
