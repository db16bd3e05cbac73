// Package playtoken implements PLAY, the incentive token minted by the House.
package playtoken

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/parimutuel-house/internal/fees"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

const (
	Name   = "Play Token"
	Symbol = "PLAY"

	// Decimals matches the usual ERC20 precision.
	Decimals = 18

	// MaxBurnRate caps the per-transfer burn at 5%.
	MaxBurnRate = 500
)

// Token is an in-memory fungible token with a single mint authority, a
// per-transfer burn and a per-transfer fee. Transfers touching an excluded
// account skip both.
type Token struct {
	address     common.Address
	mu          sync.Mutex
	owner       common.Address
	fees        *fees.Schedule
	burnRate    uint64
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	totalSupply *big.Int
	logger      *zap.Logger
}

// Config holds token configuration.
type Config struct {
	Address  common.Address // where the token lives
	Deployer common.Address // initial owner and fee owner
	Logger   *zap.Logger
}

// New deploys a token. The deployer becomes both mint authority and fee owner,
// and the zero address and deployer are excluded from transfer fees.
func New(cfg *Config) (*Token, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Address == (common.Address{}) || cfg.Deployer == (common.Address{}) {
		return nil, fmt.Errorf("play token: %w", types.ErrZeroAddress)
	}

	schedule, err := fees.New(&fees.Config{
		Owner:  cfg.Deployer,
		Logger: cfg.Logger.Named("play-fees"),
	})
	if err != nil {
		return nil, fmt.Errorf("create fee schedule: %w", err)
	}

	schedule.Exclude(common.Address{})
	schedule.Exclude(cfg.Deployer)

	return &Token{
		address:     cfg.Address,
		owner:       cfg.Deployer,
		fees:        schedule,
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		totalSupply: new(big.Int),
		logger:      cfg.Logger,
	}, nil
}

// Address returns the token address.
func (t *Token) Address() common.Address {
	return t.address
}

// Fees exposes the token's fee schedule for owner administration.
func (t *Token) Fees() *fees.Schedule {
	return t.fees
}

// Owner returns the current mint authority.
func (t *Token) Owner() common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.owner
}

// BurnRate returns the per-transfer burn rate in basis points.
func (t *Token) BurnRate() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.burnRate
}

// TotalSupply returns minted minus burned.
func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return new(big.Int).Set(t.totalSupply)
}

// BalanceOf returns holder's balance.
func (t *Token) BalanceOf(_ context.Context, holder common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.balanceLocked(holder), nil
}

// SetBurnRate changes the burn rate. Only the fee owner may call it.
func (t *Token) SetBurnRate(caller common.Address, rate uint64) error {
	if !t.fees.IsOwner(caller) {
		return fmt.Errorf("%s: %w", caller.Hex(), types.ErrNotFeeOwner)
	}

	if rate > MaxBurnRate {
		return fmt.Errorf("burn rate %d above %d: %w", rate, MaxBurnRate, types.ErrRateTooHigh)
	}

	t.mu.Lock()
	t.burnRate = rate
	t.mu.Unlock()

	t.logger.Info("play-burn-rate-set", zap.Uint64("rate", rate))
	return nil
}

// MintTo creates amount new tokens for to. Only the owner may mint.
func (t *Token) MintTo(caller common.Address, to common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return fmt.Errorf("mint by %s: %w", caller.Hex(), types.ErrNotOwner)
	}

	supply := new(big.Int).Add(t.totalSupply, amount)
	if supply.Cmp(math.MaxBig256) > 0 {
		return fmt.Errorf("mint %s: %w", amount, types.ErrInvalidAmount)
	}

	// minting comes from the zero address, which is fee-excluded
	t.totalSupply = supply
	t.balances[to] = new(big.Int).Add(t.balanceLocked(to), amount)

	PlayMintedTotal.Add(types.ToFloat(amount))
	t.logger.Debug("play-minted",
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()))
	return nil
}

// TransferOwnership hands the mint authority to newOwner.
func (t *Token) TransferOwnership(caller common.Address, newOwner common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return fmt.Errorf("transfer ownership by %s: %w", caller.Hex(), types.ErrNotOwner)
	}

	if newOwner == (common.Address{}) {
		return fmt.Errorf("new owner: %w", types.ErrZeroAddress)
	}

	t.owner = newOwner
	t.logger.Info("play-ownership-transferred",
		zap.String("previous", caller.Hex()),
		zap.String("new", newOwner.Hex()))
	return nil
}

// Approve sets the amount spender may pull from owner.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

// Transfer moves amount from -> to, applying burn and fee unless either side
// is excluded.
func (t *Token) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.transferLocked(from, to, amount)
}

// TransferFrom moves amount from -> to against spender's allowance.
func (t *Token) TransferFrom(_ context.Context, spender, from, to common.Address, amount *big.Int) error {
	err := types.ValidateAmount(amount)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := new(big.Int)
	if a, ok := t.allowances[from][spender]; ok {
		allowance.Set(a)
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("PLAY transferFrom %s: %w", from.Hex(), types.ErrInsufficientAllowance)
	}

	err = t.transferLocked(from, to, amount)
	if err != nil {
		return err
	}

	if allowance.Cmp(math.MaxBig256) != 0 {
		t.allowances[from][spender] = allowance.Sub(allowance, amount)
	}
	return nil
}

func (t *Token) transferLocked(from, to common.Address, amount *big.Int) error {
	fromBal := t.balanceLocked(from)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("PLAY transfer from %s: %w", from.Hex(), types.ErrInsufficientBalance)
	}

	burn := new(big.Int)
	fee := new(big.Int)
	if !t.fees.IsExcluded(from) && !t.fees.IsExcluded(to) {
		burn = fees.Compute(amount, t.burnRate)
		fee = t.fees.FeeFor(from, amount)
	}

	received := new(big.Int).Sub(amount, burn)
	received.Sub(received, fee)

	t.balances[from] = fromBal.Sub(fromBal, amount)
	t.balances[to] = new(big.Int).Add(t.balanceLocked(to), received)

	if fee.Sign() > 0 {
		// a positive fee implies an owner; renounce pins the rate at zero
		feeOwner, _ := t.fees.Owner()
		t.balances[feeOwner] = new(big.Int).Add(t.balanceLocked(feeOwner), fee)
	}

	if burn.Sign() > 0 {
		t.totalSupply.Sub(t.totalSupply, burn)
		PlayBurnedTotal.Add(types.ToFloat(burn))
	}

	t.logger.Debug("play-transfer",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()),
		zap.String("burned", burn.String()),
		zap.String("fee", fee.String()))
	return nil
}

func (t *Token) balanceLocked(holder common.Address) *big.Int {
	bal, ok := t.balances[holder]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}
