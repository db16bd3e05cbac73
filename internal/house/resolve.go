package house

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// SetWinOption declares option the winner of a closed bet. Only the bet's
// resolver may call it, and only between close and the resolution deadline.
// The resolver is the bet's oracle, or the current fee owner when the oracle
// is the House address itself.
func (h *House) SetWinOption(ctx context.Context, caller common.Address, id types.BetID, option types.Option) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("set-win-option", err) }()

	bet := h.bets[id]
	if !bet.Exists() {
		return fmt.Errorf("set win option %s: %w", id.Hex(), types.ErrNotAuthorized)
	}

	resolver, ok := h.resolverLocked(bet)
	if !ok || resolver != caller {
		return fmt.Errorf("set win option %s by %s: %w", id.Hex(), caller.Hex(), types.ErrNotAuthorized)
	}

	now := h.clock.Now()
	if now >= bet.SetWinTime {
		return fmt.Errorf("set win option %s: %w", id.Hex(), types.ErrInEmergency)
	}

	if now < bet.NoMoreBets {
		return fmt.Errorf("set win option %s: closes at %d: %w", id.Hex(), bet.NoMoreBets, types.ErrNotClosed)
	}

	if bet.Resolved() {
		return fmt.Errorf("set win option %s: %w", id.Hex(), types.ErrAlreadyResolved)
	}

	if option == (types.Option{}) {
		return fmt.Errorf("set win option %s: %w", id.Hex(), types.ErrInvalidOption)
	}

	bet.WinOption = option

	h.logger.Info("win-option-set",
		zap.String("bet-id", id.Hex()),
		zap.String("option", option.Hex()),
		zap.String("win-pool", h.poolLocked(id, option).String()),
		zap.String("total", bet.TotalBalance.String()))

	h.publish(ctx, &types.Event{
		Type:   types.EventSetWinOption,
		BetID:  id,
		Actor:  caller,
		Option: option,
	})

	return nil
}
