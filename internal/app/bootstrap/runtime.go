package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/campusride/internal/audit"
	appconfig "github.com/wolfman30/campusride/internal/config"
	"github.com/wolfman30/campusride/internal/records"
	"github.com/wolfman30/campusride/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRecordStore selects the record store named by STORE_BACKEND and makes
// sure every list exists. The returned close func releases the backend.
func BuildRecordStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (records.Store, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("records")
	backend := appconfig.BackendMemory
	if cfg != nil && cfg.StoreBackend != "" {
		backend = cfg.StoreBackend
	}

	var (
		store   records.Store
		closeFn = func() {}
	)
	switch backend {
	case appconfig.BackendMemory:
		store = records.NewMemoryStore(logger)
	case appconfig.BackendRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis store unavailable at %q", cfg.RedisAddr)
		}
		store = records.NewRedisStore(client, logger)
		closeFn = func() { _ = client.Close() }
	case appconfig.BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, fmt.Errorf("bootstrap: DATABASE_URL required for postgres store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		store = records.NewPostgresStore(pool, logger)
		closeFn = pool.Close
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown store backend %q", backend)
	}

	if err := records.EnsureAll(ctx, store); err != nil {
		closeFn()
		return nil, nil, err
	}
	logger.Info("record store ready", "backend", backend)
	return store, closeFn, nil
}

// BuildAuditLog opens the submission audit trail when AUDIT_ENABLED is set.
// It returns nil without error when auditing is off. The trail goes through
// lib/pq so pq.Array values reach their native driver.
func BuildAuditLog(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*audit.Log, func(), error) {
	if cfg == nil || !cfg.AuditEnabled {
		return nil, func() {}, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil, fmt.Errorf("bootstrap: DATABASE_URL required for audit log")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: open audit db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping audit db: %w", err)
	}
	logger.Info("submission audit enabled")
	return audit.NewLog(db), func() { _ = db.Close() }, nil
}
