package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/internal/scenario"
	"github.com/mselser95/parimutuel-house/internal/solvency"
	"github.com/mselser95/parimutuel-house/internal/storage"
	"github.com/mselser95/parimutuel-house/pkg/cache"
	"github.com/mselser95/parimutuel-house/pkg/config"
	"github.com/mselser95/parimutuel-house/pkg/healthprobe"
	"github.com/mselser95/parimutuel-house/pkg/httpserver"
	"github.com/mselser95/parimutuel-house/pkg/websocket"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	house         *house.House
	seed          *scenario.Runner
	solvency      *solvency.Monitor
	hub           *websocket.Hub
	viewCache     *cache.RistrettoCache
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// Seed replays a scenario into the served House on start. The House is
	// then the scenario's own, frozen at the scenario clock.
	Seed *scenario.Scenario

	// Clock overrides the House clock. Ignored when Seed is set.
	Clock house.Clock

	// Storage overrides the configured event storage.
	Storage storage.Storage
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize components
	healthChecker := setupHealthChecker()

	eventStorage := opts.Storage
	if eventStorage == nil {
		var err error
		eventStorage, err = setupStorage(cfg, logger, healthChecker)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup storage: %w", err)
		}
	}

	viewCache, err := setupCache(logger)
	if err != nil {
		cancel()
		_ = eventStorage.Close()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	hub := setupHub(cfg, logger)

	fanout := &eventFanout{
		sinks: []house.Publisher{
			storage.NewEventSink(eventStorage, logger.Named("events")),
			viewCache,
			hub,
		},
	}

	a := &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		hub:           hub,
		viewCache:     viewCache,
		storage:       eventStorage,
		ctx:           ctx,
		cancel:        cancel,
	}

	if opts.Seed != nil {
		a.seed, err = scenario.NewRunner(opts.Seed, fanout, logger.Named("seed"))
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("setup seed scenario: %w", err)
		}
		a.house = a.seed.House()
	} else {
		a.house, err = setupHouse(cfg, logger, opts.Clock, fanout)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("setup house: %w", err)
		}
	}

	a.solvency, err = setupSolvency(cfg, logger, a.house, healthChecker)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("setup solvency monitor: %w", err)
	}

	a.httpServer = setupHTTPServer(cfg, logger, healthChecker, a.house, viewCache, hub)

	return a, nil
}

// House returns the served House.
func (a *App) House() *house.House {
	return a.house
}

func (a *App) closeResources() {
	a.cancel()
	a.viewCache.Close()
	_ = a.storage.Close()
}
