package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("house", a.house.Address().Hex()),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.Start()
	if err != nil {
		return err
	}

	// Wait for shutdown signal
	return a.waitForShutdown()
}

// Start launches the background components, replays the seed scenario if
// one was given and marks the application ready.
func (a *App) Start() error {
	err := a.startComponents()
	if err != nil {
		return err
	}

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Int("bets", len(a.house.BetIDs())))

	return nil
}

func (a *App) startComponents() error {
	// Start event hub before anything can publish to it
	a.wg.Add(1)
	go a.runHub()

	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	err := a.replaySeed()
	if err != nil {
		return fmt.Errorf("replay seed scenario: %w", err)
	}

	// Start escrow monitor once the seeded state is in place
	a.wg.Add(1)
	go a.runSolvencyMonitor()

	return nil
}

func (a *App) runSolvencyMonitor() {
	defer a.wg.Done()
	a.solvency.Run(a.ctx)
}

func (a *App) runHub() {
	defer a.wg.Done()
	a.hub.Run(a.ctx)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) replaySeed() error {
	if a.seed == nil {
		return nil
	}

	report, err := a.seed.Run(a.ctx)
	if err != nil {
		return err
	}

	a.logger.Info("seed-scenario-replayed",
		zap.String("scenario", report.Name),
		zap.Int("steps", len(report.Steps)),
		zap.Uint64("clock", a.house.Now()))

	return nil
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
