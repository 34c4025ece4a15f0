package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct, composed from
// domain-specific configuration in separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See the individual files for the
// available variables:
//   - auth.go: session/authentication configuration
//   - database.go: document store and cache configuration
//   - http.go: HTTP server configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Session configuration (allow-list, provider, claims).
	Session SessionConfig

	// Document store configuration.
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	// HTTP server configuration.
	HTTP HTTPConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// Call after loading from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Cache.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks NODE_ENV as a fallback for DEV (common in
// frontend tooling around the dashboard).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
