package config

import "time"

// DBConfig contains PostgreSQL document store configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"classboard"`
	Password string `env:"PASSWORD" envDefault:"classboard"`
	Name     string `env:"NAME"     envDefault:"classboard"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // 'disable' for local dev, 'require' for production
}

// RedisConfig contains Redis connection configuration for the document
// cache.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig contains document cache tuning.
type CacheConfig struct {
	// DocumentTTL is how long role/profile documents stay cached.
	DocumentTTL time.Duration `env:"CACHE_DOCUMENT_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.DocumentTTL <= 0 {
		c.DocumentTTL = 5 * time.Minute
	}
}
