// Package config loads server configuration from the environment.
//
// Precedence: a .env file (if present) fills the environment, env vars fill
// the struct via caarlos0/env tags, and command-line flags override whatever
// the environment produced. Flags default to the env-derived values, so
// `-port` wins only when actually passed.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/editor.db"`

	// JWTSecret signs and verifies access tokens. The server refuses to
	// start without it — every endpoint depends on token validation.
	JWTSecret string `env:"JWT_SECRET"`

	// LegacyAuthErrors keeps the historical behavior of reporting token
	// decode failures as 500 with the endpoint's generic failure message
	// instead of 401. On by default for client compatibility.
	LegacyAuthErrors bool `env:"LEGACY_AUTH_ERRORS" envDefault:"true"`

	// GitHub OAuth sign-in. Optional: when ClientID is empty the OAuth
	// routes are not registered and only email/password auth is available.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	// EnableRunner controls the Docker-backed run endpoint. When off (or
	// when Docker is unreachable) /run responds 503 but everything else
	// works normally.
	EnableRunner bool `env:"ENABLE_RUNNER" envDefault:"true"`
}

// Load builds the Config from .env, environment variables, and flags.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	fs := flag.NewFlagSet("code-editor-backend", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database file")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "secret for signing access tokens")
	fs.BoolVar(&cfg.LegacyAuthErrors, "legacy-auth-errors", cfg.LegacyAuthErrors,
		"report token decode failures as 500 (legacy behavior) instead of 401")
	fs.BoolVar(&cfg.EnableRunner, "runner", cfg.EnableRunner, "enable the Docker code runner")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parsing flags: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}
