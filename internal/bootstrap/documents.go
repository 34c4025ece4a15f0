package bootstrap

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/classboard-app/classboard/internal/data"
	"github.com/classboard-app/classboard/internal/ports"
	"github.com/redis/go-redis/v9"
)

// DocumentStoreConfig contains dependencies for the document store.
type DocumentStoreConfig struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient // optional, enables the read-through cache
	TTL         time.Duration
	Logger      *slog.Logger
}

// BuildDocumentStore creates the role/profile document store. When a
// Redis client is available the store is fronted by a read-through
// cache; without one it queries PostgreSQL directly.
//
//nolint:ireturn // callers depend on the DocumentStore port, not a concrete store.
func BuildDocumentStore(cfg DocumentStoreConfig) ports.DocumentStore {
	repo := data.NewDocumentRepo(cfg.DB)
	if cfg.RedisClient == nil {
		return repo
	}

	return data.NewCachedDocumentStore(data.CachedDocumentStoreOptions{
		Source: repo,
		Cache:  data.NewRedisCacheRepo(cfg.RedisClient),
		TTL:    cfg.TTL,
		Logger: cfg.Logger,
	})
}
