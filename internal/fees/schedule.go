package fees

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

const (
	// Base is the basis-point denominator shared by fees and reward rates.
	Base = 10000

	// MaxFeeRate caps the protocol fee at 5%.
	MaxFeeRate = 500
)

// Compute returns amount * rate / Base, rounded down.
func Compute(amount *big.Int, rate uint64) *big.Int {
	if amount == nil || rate == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(rate))
	return fee.Quo(fee, big.NewInt(Base))
}

// Schedule holds a fee rate, the optional owner allowed to change it and a set
// of keys exempt from it. Once renounced the owner is gone for good and the
// rate is pinned at zero.
type Schedule struct {
	mu       sync.RWMutex
	owner    *common.Address
	rate     uint64
	maxRate  uint64
	excluded map[common.Address]bool
	logger   *zap.Logger
}

// Config holds schedule configuration.
type Config struct {
	Owner   common.Address
	Rate    uint64
	MaxRate uint64 // 0 means MaxFeeRate
	Logger  *zap.Logger
}

// New creates a schedule owned by cfg.Owner.
func New(cfg *Config) (*Schedule, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("fee owner: %w", types.ErrZeroAddress)
	}

	maxRate := cfg.MaxRate
	if maxRate == 0 {
		maxRate = MaxFeeRate
	}

	if cfg.Rate > maxRate {
		return nil, fmt.Errorf("fee rate %d above %d: %w", cfg.Rate, maxRate, types.ErrRateTooHigh)
	}

	owner := cfg.Owner
	return &Schedule{
		owner:    &owner,
		rate:     cfg.Rate,
		maxRate:  maxRate,
		excluded: make(map[common.Address]bool),
		logger:   cfg.Logger,
	}, nil
}

// Owner returns the current owner and false once ownership was renounced.
func (s *Schedule) Owner() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.owner == nil {
		return common.Address{}, false
	}
	return *s.owner, true
}

// IsOwner reports whether addr currently owns the schedule.
func (s *Schedule) IsOwner(addr common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.owner != nil && *s.owner == addr
}

// Rate returns the current fee rate in basis points.
func (s *Schedule) Rate() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rate
}

// IsExcluded reports whether key is exempt from fees.
func (s *Schedule) IsExcluded(key common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.excluded[key]
}

// FeeFor returns the fee charged on amount for key; zero when key is excluded.
func (s *Schedule) FeeFor(key common.Address, amount *big.Int) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.excluded[key] {
		return new(big.Int)
	}
	return Compute(amount, s.rate)
}

// SetRate changes the fee rate.
func (s *Schedule) SetRate(caller common.Address, rate uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.requireOwner(caller)
	if err != nil {
		return err
	}

	if rate > s.maxRate {
		return fmt.Errorf("fee rate %d above %d: %w", rate, s.maxRate, types.ErrRateTooHigh)
	}

	s.rate = rate
	s.logger.Info("fee-rate-set", zap.Uint64("rate", rate))
	return nil
}

// SetExcluded adds or removes key from the exemption set.
func (s *Schedule) SetExcluded(caller common.Address, key common.Address, excluded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.requireOwner(caller)
	if err != nil {
		return err
	}

	s.setExcludedLocked(key, excluded)
	return nil
}

// Exclude exempts key without an ownership check. It is meant for wiring done
// at construction time by the component that owns the schedule.
func (s *Schedule) Exclude(key common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setExcludedLocked(key, true)
}

// TransferOwnership hands the schedule to newOwner.
func (s *Schedule) TransferOwnership(caller common.Address, newOwner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.requireOwner(caller)
	if err != nil {
		return err
	}

	if newOwner == (common.Address{}) {
		return fmt.Errorf("new fee owner: %w", types.ErrZeroAddress)
	}

	s.owner = &newOwner
	s.logger.Info("fee-owner-transferred",
		zap.String("previous", caller.Hex()),
		zap.String("new", newOwner.Hex()))
	return nil
}

// Renounce removes the owner and zeroes the rate in one step.
func (s *Schedule) Renounce(caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.requireOwner(caller)
	if err != nil {
		return err
	}

	s.owner = nil
	s.rate = 0
	s.logger.Info("fee-ownership-renounced", zap.String("previous", caller.Hex()))
	return nil
}

func (s *Schedule) setExcludedLocked(key common.Address, excluded bool) {
	if excluded {
		s.excluded[key] = true
	} else {
		delete(s.excluded, key)
	}
	s.logger.Debug("fee-exclusion-set",
		zap.String("key", key.Hex()),
		zap.Bool("excluded", excluded))
}

func (s *Schedule) requireOwner(caller common.Address) error {
	if s.owner == nil || *s.owner != caller {
		return fmt.Errorf("%s: %w", caller.Hex(), types.ErrNotFeeOwner)
	}
	return nil
}
