package house

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/internal/fees"
	"github.com/mselser95/parimutuel-house/internal/playtoken"
)

// minter issues incentive rewards. After migration the House swaps in
// disabledMinter, so every reward is zero and no mint is attempted.
type minter interface {
	enabled() bool
	mint(to common.Address, amount *big.Int) error
}

type playMinter struct {
	token     *playtoken.Token
	authority common.Address
}

func (m *playMinter) enabled() bool {
	return true
}

func (m *playMinter) mint(to common.Address, amount *big.Int) error {
	return m.token.MintTo(m.authority, to, amount)
}

type disabledMinter struct{}

func (disabledMinter) enabled() bool {
	return false
}

func (disabledMinter) mint(common.Address, *big.Int) error {
	return nil
}

// rewardLocked returns the reward for amount at rate, or zero once minting
// was handed away.
func (h *House) rewardLocked(amount *big.Int, rate uint64) *big.Int {
	if !h.minter.enabled() {
		return new(big.Int)
	}
	return fees.Compute(amount, rate)
}
