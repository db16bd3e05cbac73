package house

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/internal/ratecurve"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// Bet returns a copy of the bet record, or nil if it does not exist.
func (h *House) Bet(id types.BetID) *types.Bet {
	h.mu.Lock()
	defer h.mu.Unlock()

	bet := h.bets[id]
	if !bet.Exists() {
		return nil
	}
	return bet.Clone()
}

// BetView renders a bet as seen now, or nil if it does not exist.
func (h *House) BetView(id types.BetID) *types.BetView {
	h.mu.Lock()
	defer h.mu.Unlock()

	bet := h.bets[id]
	if !bet.Exists() {
		return nil
	}
	return types.NewBetView(bet, h.clock.Now())
}

// BetIDs returns every bet identifier, sorted.
func (h *House) BetIDs() []types.BetID {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]types.BetID, 0, len(h.bets))
	for id := range h.bets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// BalanceOf returns the uncollected stake of bettor in a bet.
func (h *House) BalanceOf(id types.BetID, bettor common.Address) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return new(big.Int).Set(h.positionLocked(id, bettor).Balance)
}

// OptionOf returns the option bettor backed, or the zero option.
func (h *House) OptionOf(id types.BetID, bettor common.Address) types.Option {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.positionLocked(id, bettor).Option
}

// Positions returns a copy of every position held in a bet.
func (h *House) Positions(id types.BetID) map[common.Address]types.Position {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[common.Address]types.Position, len(h.positions[id]))
	for bettor, pos := range h.positions[id] {
		out[bettor] = types.Position{
			Balance: new(big.Int).Set(pos.Balance),
			Option:  pos.Option,
		}
	}
	return out
}

// OptionBalance returns the net stake ever placed on option.
func (h *House) OptionBalance(id types.BetID, option types.Option) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return new(big.Int).Set(h.poolLocked(id, option))
}

// Pools returns a copy of every option pool of a bet.
func (h *House) Pools(id types.BetID) map[types.Option]*big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[types.Option]*big.Int, len(h.pools[id]))
	for option, pool := range h.pools[id] {
		out[option] = new(big.Int).Set(pool)
	}
	return out
}

// PlayRate returns the reward curve value of a bet at time at, or zero when
// the bet is missing or carries no rewards. It does not account for minting
// having been handed away; rewards do.
func (h *House) PlayRate(id types.BetID, at uint64) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	bet := h.bets[id]
	if !bet.Exists() || bet.MaxRate == 0 {
		return 0
	}
	return ratecurve.Rate(at, bet.StartBet, bet.NoMoreBets, bet.MinRate, bet.MaxRate)
}

// Phase returns the lifecycle phase of a bet at time at.
func (h *House) Phase(id types.BetID, at uint64) types.Phase {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.bets[id].PhaseAt(at)
}

// MintingEnabled reports whether the House still holds the PLAY mint
// authority.
func (h *House) MintingEnabled() bool {
	return h.play.Owner() == h.address
}

// CanMigrate reports whether Migrate is still available.
func (h *House) CanMigrate() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.canMigrate
}

// FeeOwner returns the fee owner and false once renounced.
func (h *House) FeeOwner() (common.Address, bool) {
	return h.fees.Owner()
}

// FeeRate returns the protocol fee rate in basis points.
func (h *House) FeeRate() uint64 {
	return h.fees.Rate()
}
