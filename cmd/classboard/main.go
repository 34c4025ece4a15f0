package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/classboard-app/classboard/config"
	"github.com/classboard-app/classboard/internal/bootstrap"
	"github.com/classboard-app/classboard/internal/data"
	"github.com/classboard-app/classboard/internal/ports"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	documents := buildDocuments(&cfg, db, redisClient, logger)

	session, err := bootstrap.BuildSessionLayer(bootstrap.SessionLayerConfig{
		Session: cfg.Session,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	server := bootstrap.NewHTTPServer(&bootstrap.HTTPServerConfig{
		Config:    &cfg,
		Session:   session,
		Documents: documents,
		Logger:    logger,
	})

	return bootstrap.Run(bootstrap.RunConfig{
		Server:  server,
		Session: session,
		Logger:  logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting classboard service",
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"auth_mode", string(cfg.Session.Mode),
		"allowed_domain", cfg.Session.AllowedDomain)
}

// initInfrastructure connects shared dependencies used by the service
// runtime. In dev auth mode both backends are optional: a failed connect
// is logged and the role lookup falls back to the configured dev role.
//
//nolint:ireturn // returning redis.UniversalClient keeps the cache layer decoupled from the client type.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	devMode := cfg.Session.Mode == config.AuthModeDev

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		if !devMode {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		logger.WarnContext(ctx, "database unavailable, using dev role fallback", "error", err)
		return nil, nil, nil
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		if devMode {
			logger.WarnContext(ctx, "redis unavailable, document cache disabled", "error", err)
			return db, nil, nil
		}
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database after redis connect failure", "error", cerr)
			return nil, nil, fmt.Errorf("connect redis: %w", errors.Join(err, fmt.Errorf("close database: %w", cerr)))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return db, redisClient, nil
}

// buildDocuments selects the document store backing: the database-backed
// store when a connection exists, the static dev store otherwise.
//
//nolint:ireturn // callers depend on the DocumentStore port.
func buildDocuments(
	cfg *config.AppConfig,
	db *sql.DB,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
) ports.DocumentStore {
	if db == nil {
		dev := cfg.Session.DevAuth
		return data.NewStaticDocumentStore(dev.UserID, dev.Role, dev.DisplayName)
	}
	return bootstrap.BuildDocumentStore(bootstrap.DocumentStoreConfig{
		DB:          db,
		RedisClient: redisClient,
		TTL:         cfg.Cache.DocumentTTL,
		Logger:      logger,
	})
}
