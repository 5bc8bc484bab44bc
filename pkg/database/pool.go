package database

import (
	"context"
	"sync"
	"time"

	"venue-crm-backend/pkg/config"
)

// databasePool caches one connection per process so serverless warm
// invocations reuse it.
type databasePool struct {
	instance    DatabaseInterface
	config      DatabaseConfig
	lastUsed    time.Time
	lastChecked time.Time
}

var (
	globalPool *databasePool
	poolMutex  sync.Mutex
	poolNow    = time.Now
)

const (
	poolIdleExpiry     = 30 * time.Minute
	poolHealthInterval = 30 * time.Second
)

// GetDatabase returns the process-wide database, reconnecting when the
// config changed, the pool sat idle too long, or a health check fails.
// Callers compare the returned instance with the one they hold to notice a
// reconnect.
func GetDatabase(cfg DatabaseConfig) (DatabaseInterface, error) {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	now := poolNow()
	if globalPool != nil && !shouldRecreateConnection(globalPool, cfg, now) {
		globalPool.lastUsed = now
		return globalPool.instance, nil
	}

	if globalPool != nil && globalPool.instance != nil {
		_ = globalPool.instance.Close()
	}

	instance, err := NewDatabase(cfg)
	if err != nil {
		globalPool = nil
		return nil, err
	}
	globalPool = &databasePool{
		instance:    instance,
		config:      cfg,
		lastUsed:    now,
		lastChecked: now,
	}
	return instance, nil
}

// shouldRecreateConnection runs with poolMutex held. The health check is
// throttled to one ping per poolHealthInterval.
func shouldRecreateConnection(pool *databasePool, newConfig DatabaseConfig, now time.Time) bool {
	if pool.instance == nil {
		return true
	}
	if pool.config != newConfig {
		config.GetLogger().Info("database configuration changed, recreating connection")
		return true
	}
	if now.Sub(pool.lastUsed) > poolIdleExpiry {
		config.GetLogger().Info("database connection idle too long, recreating")
		return true
	}
	if now.Sub(pool.lastChecked) < poolHealthInterval {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.instance.HealthCheck(ctx); err != nil {
		config.GetLogger().WithError(err).Warn("database health check failed, recreating")
		return true
	}
	pool.lastChecked = now
	return false
}

// CloseDatabase closes the cached connection, if any.
func CloseDatabase() error {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	if globalPool == nil || globalPool.instance == nil {
		return nil
	}
	err := globalPool.instance.Close()
	globalPool = nil
	return err
}
