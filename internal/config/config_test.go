package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "JWT_SECRET", "CLIENT_ORIGIN", "COOKIE_NAME", "NODE_ENV", "SESSION_TTL"} {
		t.Setenv(k, "") // restores the original value after the test
		os.Unsetenv(k)
	}
	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5175 {
		t.Errorf("expected port 5175, got %d", cfg.Port)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h ttl, got %v", cfg.SessionTTL)
	}
	if cfg.CookieName != "guess_token" || cfg.Production() || cfg.Console {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", cfg.Level())
	}
}

func TestLoadEnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("SESSION_TTL", "15m")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9000 || cfg.SessionTTL != 15*time.Minute || !cfg.Production() {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", cfg.Level())
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg, err := Load([]string{"-port", "8080", "-console"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("flag should override env: expected 8080, got %d", cfg.Port)
	}
	if !cfg.Console {
		t.Error("expected console mode")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "70000"},
		{"non-numeric port", "PORT", "abc"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"bad format", "LOG_FORMAT", "xml"},
		{"bad ttl", "SESSION_TTL", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(nil); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
