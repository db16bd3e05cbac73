// Package solvency watches the House escrow and flags when the assets it
// holds no longer cover what it owes bettors.
package solvency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// ErrInsolvent is returned by Check when any asset is short.
var ErrInsolvent = errors.New("house escrow is short") //nolint:gochecknoglobals // Sentinel error

// Ledger reports the House escrow.
type Ledger interface {
	Escrow(ctx context.Context) ([]house.Escrow, error)
}

// Monitor periodically compares owed and held amounts per asset.
type Monitor struct {
	solvent atomic.Bool // Atomic for lock-free reads

	checkInterval time.Duration
	ledger        Ledger
	logger        *zap.Logger

	// Protected by mutex
	mu        sync.RWMutex
	lastCheck time.Time
	escrow    []house.Escrow
}

// Config holds monitor configuration.
type Config struct {
	CheckInterval time.Duration
	Ledger        Ledger
	Logger        *zap.Logger
}

// Status is the outcome of the last check.
type Status struct {
	Solvent   bool
	LastCheck time.Time
	Escrow    []house.Escrow
}

// New creates a monitor. It reports solvent until the first check says
// otherwise.
func New(cfg *Config) (*Monitor, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("ledger cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, errors.New("check interval must be positive")
	}

	m := &Monitor{
		checkInterval: cfg.CheckInterval,
		ledger:        cfg.Ledger,
		logger:        cfg.Logger,
	}
	m.solvent.Store(true)
	Solvent.Set(1)

	return m, nil
}

// IsSolvent reports the result of the last check.
func (m *Monitor) IsSolvent() bool {
	return m.solvent.Load()
}

// Check reads the escrow once and updates the solvent state. It returns
// ErrInsolvent when any asset is short, so it can back a readiness probe.
func (m *Monitor) Check(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		CheckDuration.Observe(time.Since(start).Seconds())
	}()

	escrow, err := m.ledger.Escrow(ctx)
	if err != nil {
		m.logger.Error("failed-to-read-escrow", zap.Error(err))
		return fmt.Errorf("read escrow: %w", err)
	}

	var short []common.Address
	for _, e := range escrow {
		label := e.Asset.Hex()
		OwedAmount.WithLabelValues(label).Set(types.ToFloat(e.Owed))
		HeldAmount.WithLabelValues(label).Set(types.ToFloat(e.Held))

		gap := e.Shortfall()
		if gap.Sign() > 0 {
			short = append(short, e.Asset)
			m.logger.Error("escrow-shortfall",
				zap.String("asset", label),
				zap.String("owed", e.Owed.String()),
				zap.String("held", e.Held.String()),
				zap.String("shortfall", gap.String()))
		}
	}

	m.mu.Lock()
	m.lastCheck = time.Now()
	m.escrow = escrow
	m.mu.Unlock()

	solvent := len(short) == 0
	was := m.solvent.Swap(solvent)

	switch {
	case was && !solvent:
		Solvent.Set(0)
		StateChanges.Inc()
		m.logger.Warn("house-insolvent", zap.Int("short-assets", len(short)))
	case !was && solvent:
		Solvent.Set(1)
		StateChanges.Inc()
		m.logger.Info("house-solvent-again")
	default:
		m.logger.Debug("escrow-checked",
			zap.Int("assets", len(escrow)),
			zap.Bool("solvent", solvent))
	}

	if !solvent {
		return fmt.Errorf("%w: %d asset(s)", ErrInsolvent, len(short))
	}
	return nil
}

// Start checks once, then keeps checking in the background until ctx is
// cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("solvency-monitor-started",
		zap.Duration("check-interval", m.checkInterval))

	// Check escrow immediately on startup
	if err := m.Check(ctx); err != nil {
		m.logger.Error("initial-escrow-check-failed", zap.Error(err))
	}

	go m.monitorLoop(ctx)
}

// Run is Start for callers that manage the goroutine: it checks once, then
// blocks checking until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("solvency-monitor-started",
		zap.Duration("check-interval", m.checkInterval))

	if err := m.Check(ctx); err != nil {
		m.logger.Error("initial-escrow-check-failed", zap.Error(err))
	}

	m.monitorLoop(ctx)
}

func (m *Monitor) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("solvency-monitor-stopped")
			return
		case <-ticker.C:
			if err := m.Check(ctx); err != nil {
				// Log error but continue monitoring
				m.logger.Error("escrow-check-error", zap.Error(err))
			}
		}
	}
}

// Status returns the last check result.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	escrow := make([]house.Escrow, len(m.escrow))
	copy(escrow, m.escrow)

	return Status{
		Solvent:   m.solvent.Load(),
		LastCheck: m.lastCheck,
		Escrow:    escrow,
	}
}
