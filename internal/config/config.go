// internal/config/config.go
//
// Process configuration.
// Values come from the environment (optionally seeded from a .env file by
// main), then command-line flags override the few settings that make sense
// to change per invocation.
//
// Environment variables:
//   PORT=5175                         HTTP listen port
//   LOG_LEVEL=info                    zerolog level
//   LOG_FORMAT=json                   json | console
//   JWT_SECRET=dev_secret_change_me   HMAC key for session tokens
//   CLIENT_ORIGIN=http://localhost:5173
//   COOKIE_NAME=guess_token
//   NODE_ENV=                         "production" enables secure cookies
//   SESSION_TTL=2h                    session token lifetime
//
// Flags:
//   -port N     overrides PORT
//   -console    play in the terminal instead of serving HTTP

package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config is the fully resolved process configuration.
type Config struct {
	Port         int           `env:"PORT" envDefault:"5175"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT" envDefault:"json"`
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	ClientOrigin string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	CookieName   string        `env:"COOKIE_NAME" envDefault:"guess_token"`
	NodeEnv      string        `env:"NODE_ENV"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	Console bool
}

// Production reports whether NODE_ENV is "production".
func (c Config) Production() bool { return c.NodeEnv == "production" }

// Level returns the parsed zerolog level.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Load parses the environment and then args (without the program name).
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("guesstheword", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.BoolVar(&cfg.Console, "console", false, "play in the terminal instead of serving HTTP")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}
