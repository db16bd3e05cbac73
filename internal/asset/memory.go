package asset

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// MemoryToken is an allowance-checked ERC20-style ledger held in memory.
// An allowance of MaxUint256 is never decremented.
type MemoryToken struct {
	address    common.Address
	symbol     string
	decimals   uint8
	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	logger     *zap.Logger
}

// MemoryTokenConfig holds configuration for an in-memory token.
type MemoryTokenConfig struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
	Logger   *zap.Logger
}

// NewMemoryToken creates an empty token ledger.
func NewMemoryToken(cfg *MemoryTokenConfig) (*MemoryToken, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("token address: %w", types.ErrZeroAddress)
	}

	return &MemoryToken{
		address:    cfg.Address,
		symbol:     cfg.Symbol,
		decimals:   cfg.Decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
		logger:     cfg.Logger,
	}, nil
}

// Address returns the token address.
func (m *MemoryToken) Address() common.Address {
	return m.address
}

// Symbol returns the ticker.
func (m *MemoryToken) Symbol() string {
	return m.symbol
}

// Decimals returns the display precision.
func (m *MemoryToken) Decimals() uint8 {
	return m.decimals
}

// SetBalance overwrites holder's balance. Used to fund accounts.
func (m *MemoryToken) SetBalance(holder common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[holder] = new(big.Int).Set(amount)
	return nil
}

// Approve sets the amount spender may pull from owner.
func (m *MemoryToken) Approve(owner, spender common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.allowances[owner] == nil {
		m.allowances[owner] = make(map[common.Address]*big.Int)
	}
	m.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the amount spender may still pull from owner.
func (m *MemoryToken) Allowance(owner, spender common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.allowanceLocked(owner, spender)
}

// BalanceOf returns holder's balance.
func (m *MemoryToken) BalanceOf(_ context.Context, holder common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balanceLocked(holder), nil
}

// TotalSupply returns the sum of all balances.
func (m *MemoryToken) TotalSupply() *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := new(big.Int)
	for _, bal := range m.balances {
		total.Add(total, bal)
	}
	return total
}

// Transfer moves amount from -> to.
func (m *MemoryToken) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.moveLocked(from, to, amount)
}

// TransferFrom moves amount from -> to against spender's allowance.
func (m *MemoryToken) TransferFrom(_ context.Context, spender, from, to common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	allowance := m.allowanceLocked(from, spender)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%s transferFrom %s: %w", m.symbol, from.Hex(), types.ErrInsufficientAllowance)
	}

	err = m.moveLocked(from, to, amount)
	if err != nil {
		return err
	}

	if allowance.Cmp(math.MaxBig256) != 0 {
		m.allowances[from][spender] = allowance.Sub(allowance, amount)
	}
	return nil
}

func (m *MemoryToken) moveLocked(from, to common.Address, amount *big.Int) error {
	fromBal := m.balanceLocked(from)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%s transfer from %s: %w", m.symbol, from.Hex(), types.ErrInsufficientBalance)
	}

	m.balances[from] = fromBal.Sub(fromBal, amount)
	m.balances[to] = new(big.Int).Add(m.balanceLocked(to), amount)

	m.logger.Debug("asset-transfer",
		zap.String("symbol", m.symbol),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()))
	return nil
}

func (m *MemoryToken) balanceLocked(holder common.Address) *big.Int {
	bal, ok := m.balances[holder]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

func (m *MemoryToken) allowanceLocked(owner, spender common.Address) *big.Int {
	allowance, ok := m.allowances[owner][spender]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(allowance)
}
