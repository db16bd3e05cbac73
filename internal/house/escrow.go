package house

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Escrow compares what the House owes bettors in one asset with what it
// holds. Owed is every bet's total less what was already paid out of it.
type Escrow struct {
	Asset common.Address
	Owed  *big.Int
	Held  *big.Int
}

// Shortfall returns how much Held falls short of Owed, or zero.
func (e Escrow) Shortfall() *big.Int {
	gap := new(big.Int).Sub(e.Owed, e.Held)
	if gap.Sign() < 0 {
		return new(big.Int)
	}
	return gap
}

// Escrow reports owed and held amounts for every registered asset. Balances
// are read under the House lock, so no operation lands between the two sides.
func (h *House) Escrow(ctx context.Context) ([]Escrow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owed := make(map[common.Address]*big.Int)
	for _, bet := range h.bets {
		sum, ok := owed[bet.Asset]
		if !ok {
			sum = new(big.Int)
			owed[bet.Asset] = sum
		}
		sum.Add(sum, bet.TotalBalance)
		sum.Sub(sum, bet.Collected)
	}

	addrs := h.assets.Addresses()
	out := make([]Escrow, 0, len(addrs))
	for _, addr := range addrs {
		token, err := h.assets.Lookup(addr)
		if err != nil {
			return nil, err
		}

		held, err := token.BalanceOf(ctx, h.address)
		if err != nil {
			return nil, fmt.Errorf("escrow %s: %w", addr.Hex(), err)
		}

		o := owed[addr]
		if o == nil {
			o = new(big.Int)
		}
		out = append(out, Escrow{Asset: addr, Owed: new(big.Int).Set(o), Held: held})
	}

	return out, nil
}
