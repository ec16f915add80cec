// Package factory wires the coordinator together: storage, the external ban
// database, the session controllers, the event relay and the transports.
package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/averykip/invadersync/internal/api"
	"github.com/averykip/invadersync/internal/banstore"
	banmemory "github.com/averykip/invadersync/internal/banstore/memory"
	banpostgres "github.com/averykip/invadersync/internal/banstore/postgres"
	"github.com/averykip/invadersync/internal/config"
	"github.com/averykip/invadersync/internal/dependencies/clock"
	"github.com/averykip/invadersync/internal/dependencies/random"
	"github.com/averykip/invadersync/internal/dependencies/scheduler"
	"github.com/averykip/invadersync/internal/janitor"
	"github.com/averykip/invadersync/internal/relay"
	"github.com/averykip/invadersync/internal/services/moderation"
	"github.com/averykip/invadersync/internal/services/presence"
	"github.com/averykip/invadersync/internal/services/registry"
	"github.com/averykip/invadersync/internal/storage"
	"github.com/averykip/invadersync/internal/storage/memory"
	redisstorage "github.com/averykip/invadersync/internal/storage/redis"
	"github.com/averykip/invadersync/internal/transport/ws"
)

// Storage backend constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage  storage.Storage
	BanStore banstore.Store

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Scheduler scheduler.Scheduler

	// Controllers
	Registry   *registry.Controller
	Presence   *presence.Controller
	Moderation *moderation.Controller

	// Relay and transports
	Dispatcher *relay.Dispatcher
	Hub        *ws.Hub
	Router     http.Handler
	Janitor    *janitor.Janitor
}

// Config holds configuration for the application factory
type Config struct {
	// App is the loaded application configuration. If nil, config.Default()
	// is used.
	App *config.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Version is reported on the health endpoint
	Version string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	appCfg := cfg.App
	if appCfg == nil {
		appCfg = config.Default()
	}

	var store storage.Storage
	switch appCfg.Storage.Backend {
	case "", StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = appCfg.Storage.RedisURL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid storage backend: must be 'memory' or 'redis'")
	}

	// The ban database is optional: with no DSN configured, bans live in
	// process memory and do not survive restarts.
	var bans banstore.Store
	if appCfg.BanDB.DSN != "" {
		pgStore, err := banpostgres.New(appCfg.BanDB.DSN)
		if err != nil {
			return nil, err
		}
		bans = pgStore
	} else {
		logger.Warn("no ban database configured, bans will not survive restarts")
		bans = banmemory.New()
	}

	app := newWithDependencies(store, bans, clock.New(), random.New(), scheduler.New(), logger)

	app.Janitor = janitor.New(app.Presence, app.Registry, app.Moderation, bans,
		app.Clock, logger, janitorConfig(appCfg.Janitor))

	app.Router = api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Registry:     app.Registry,
		Presence:     app.Presence,
		Dispatcher:   app.Dispatcher,
		BanStore:     bans,
		Clock:        app.Clock,
		Connections:  app.Hub,
		Socket:       app.Hub,
		Version:      cfg.Version,
		AdminKeyHash: appCfg.Admin.KeyHash,
	})

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	bans banstore.Store,
	clk clock.Clock,
	rnd random.Random,
	sched scheduler.Scheduler,
	logger *slog.Logger,
) *App {
	reg := registry.NewController(store, clk, rnd)
	pres := presence.NewController(store, clk)
	mod := moderation.NewController(bans, reg, clk)

	hub := ws.NewHub(reg, logger)
	dispatcher := relay.NewDispatcher(reg, pres, mod, bans, sched, clk, rnd, hub, logger)
	hub.Bind(dispatcher)

	return &App{
		Storage:    store,
		BanStore:   bans,
		Clock:      clk,
		Random:     rnd,
		Scheduler:  sched,
		Registry:   reg,
		Presence:   pres,
		Moderation: mod,
		Dispatcher: dispatcher,
		Hub:        hub,
	}
}

func janitorConfig(cfg config.JanitorConfig) janitor.Config {
	jc := janitor.DefaultConfig()
	if cfg.DisconnectGrace > 0 {
		jc.DisconnectGrace = cfg.DisconnectGrace
		jc.DisconnectEvery = cfg.DisconnectGrace
	}
	if cfg.RoomSweepEvery > 0 {
		jc.RoomEvery = cfg.RoomSweepEvery
	}
	if cfg.MirrorSweepEvery > 0 {
		jc.MirrorEvery = cfg.MirrorSweepEvery
	}
	if cfg.MirrorMaxAge > 0 {
		jc.MirrorMaxAge = cfg.MirrorMaxAge
	}
	if cfg.BanSweepEvery > 0 {
		jc.BanEvery = cfg.BanSweepEvery
	}
	return jc
}
