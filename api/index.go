package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/router"
	"venue-crm-backend/pkg/utils"
)

var routes routerCache

// Handler is the Vercel function entry point. Every invocation asks the pool
// for the database; the chi router is rebuilt only when that connection changes.
func Handler(w http.ResponseWriter, r *http.Request) {
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		utils.WriteError(w, r, utils.NewInternalError(fmt.Errorf("configuration: %w", err)))
		return
	}

	db, err := database.GetDatabase(database.ConfigFromApp(cfg))
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	h, err := routes.get(r.Context(), cfg, db)
	if err != nil {
		utils.WriteError(w, r, utils.NewInternalError(err))
		return
	}
	h.ServeHTTP(w, r)
}

// routerCache holds the router built for one database instance. Deps other
// than the database (sessions, limiter, locker) survive a reconnect so the
// in-process revocation list and rate windows are kept.
type routerCache struct {
	mu       sync.Mutex
	db       database.DatabaseInterface
	deps     *router.Deps
	handler  http.Handler
	migrated bool
}

// get keeps a failed build uncached so the next invocation retries.
func (c *routerCache) get(ctx context.Context, cfg *config.Config, db database.DatabaseInterface) (http.Handler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil && c.db == db {
		return c.handler, nil
	}

	if !c.migrated {
		if err := database.AutoMigrate(db.DB(ctx)); err != nil {
			return nil, err
		}
		c.migrated = true
	}

	var deps *router.Deps
	if c.deps == nil {
		built, err := router.NewDeps(ctx, cfg, db)
		if err != nil {
			return nil, err
		}
		deps = built
		config.GetLogger().WithField("driver", db.Driver()).Info("router initialised")
	} else {
		next := *c.deps
		next.DB = db
		deps = &next
		config.GetLogger().WithField("driver", db.Driver()).Info("database reconnected, router rebuilt")
	}

	c.handler = router.NewRouter(deps)
	c.deps = deps
	c.db = db
	return c.handler, nil
}
