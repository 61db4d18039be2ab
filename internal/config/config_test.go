package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.DBDialect != "sqlite" || cfg.DBDSN != "taxi.db" {
		t.Errorf("db = %s %s, want sqlite taxi.db", cfg.DBDialect, cfg.DBDSN)
	}
	if cfg.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", cfg.PageSize)
	}
	if cfg.SessionTTL != 14*24*time.Hour {
		t.Errorf("SessionTTL = %s, want 336h", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TAXI_DB_DIALECT", "postgres")
	t.Setenv("TAXI_PAGE_SIZE", "10")
	t.Setenv("TAXI_DEBUG_SQL", "true")
	t.Setenv("TAXI_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDialect != "postgres" || cfg.PageSize != 10 || !cfg.DebugSQL || cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad int", "TAXI_PAGE_SIZE", "many", "parse env:"},
		{"bad duration", "TAXI_SESSION_TTL", "soon", "parse env:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadLeavesValidationToCaller(t *testing.T) {
	t.Setenv("TAXI_PAGE_SIZE", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 0 {
		t.Fatalf("PageSize = %d, want 0", cfg.PageSize)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "TAXI_PAGE_SIZE") {
		t.Fatalf("Validate = %v, want TAXI_PAGE_SIZE error", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{DBDSN: "taxi.db", PageSize: 5, SessionTTL: time.Hour}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "TAXI_PAGE_SIZE"},
		{"negative session ttl", func(c *Config) { c.SessionTTL = -time.Second }, "TAXI_SESSION_TTL"},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }, "TAXI_DB_DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
