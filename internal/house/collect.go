package house

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/internal/asset"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Collect pays out caller's position in a bet.
//
// Past the resolution deadline with no winner declared, the full balance is
// returned with no hook, fee or reward. Otherwise the bet must be resolved:
// winners receive balance * total / winningPool, a winning pool nobody
// backed is a draw that refunds every balance, and anyone else has lost.
// Totals and pools are never reduced, so every winner gets the same share
// regardless of the order they collect in.
func (h *House) Collect(ctx context.Context, caller common.Address, id types.BetID, data []byte) (receipt *CollectReceipt, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("collect", err) }()

	now := h.clock.Now()

	// a missing bet has a zero deadline and lands on the emergency path
	bet := h.bets[id]
	if bet == nil {
		bet = &types.Bet{}
	}
	pos := h.positionLocked(id, caller)

	if now >= bet.SetWinTime && !bet.Resolved() {
		return h.emergencyWithdrawLocked(ctx, caller, bet, pos)
	}

	if !bet.Resolved() {
		return nil, fmt.Errorf("collect %s: %w", id.Hex(), types.ErrNotResolved)
	}

	accepted, err := h.oracles.Bind(bet.Oracle).Collect(ctx, id, caller, data)
	if err != nil {
		return nil, fmt.Errorf("collect %s: oracle hook: %w", id.Hex(), err)
	}
	if !accepted {
		return nil, fmt.Errorf("collect %s: %w", id.Hex(), types.ErrOracleRejectedCollect)
	}

	winPool := h.poolLocked(id, bet.WinOption)
	payout := new(big.Int)
	reward := new(big.Int)
	outcome := ""

	switch {
	case pos.Option == bet.WinOption:
		outcome = "win"
		if winPool.Sign() > 0 {
			payout.Mul(pos.Balance, bet.TotalBalance)
			payout.Quo(payout, winPool)
		}
		reward = h.rewardLocked(pos.Balance, bet.MinRate)
	case winPool.Sign() == 0:
		outcome = "draw"
		payout.Set(pos.Balance)
		if h.rewardDraws {
			reward = h.rewardLocked(pos.Balance, bet.MinRate)
		}
	default:
		return nil, fmt.Errorf("collect %s: %w", id.Hex(), types.ErrLost)
	}

	token, err := h.assets.Lookup(bet.Asset)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", id.Hex(), err)
	}

	err = h.payoutLocked(ctx, token, caller, payout, reward)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", id.Hex(), err)
	}

	// commit
	pos.Balance = new(big.Int)
	bet.Collected = new(big.Int).Add(bet.Collected, payout)

	PaidVolumeTotal.WithLabelValues(outcome).Add(types.ToFloat(payout))
	RewardsMintedTotal.WithLabelValues("collect").Add(types.ToFloat(reward))

	h.logger.Info("collect-paid",
		zap.String("bet-id", id.Hex()),
		zap.String("bettor", caller.Hex()),
		zap.String("outcome", outcome),
		zap.String("payout", payout.String()),
		zap.String("reward", reward.String()))

	h.publish(ctx, &types.Event{
		Type:   types.EventCollect,
		BetID:  id,
		Actor:  caller,
		Amount: new(big.Int).Set(payout),
		Reward: new(big.Int).Set(reward),
		Option: pos.Option,
		Data:   append([]byte(nil), data...),
	})

	return &CollectReceipt{Payout: payout, Reward: reward}, nil
}

func (h *House) emergencyWithdrawLocked(
	ctx context.Context,
	caller common.Address,
	bet *types.Bet,
	pos *types.Position,
) (*CollectReceipt, error) {
	if pos.Balance.Sign() == 0 {
		return nil, fmt.Errorf("emergency withdraw %s: %w", bet.ID.Hex(), types.ErrNoBalance)
	}

	token, err := h.assets.Lookup(bet.Asset)
	if err != nil {
		return nil, fmt.Errorf("emergency withdraw %s: %w", bet.ID.Hex(), err)
	}

	payout := new(big.Int).Set(pos.Balance)
	err = h.payoutLocked(ctx, token, caller, payout, new(big.Int))
	if err != nil {
		return nil, fmt.Errorf("emergency withdraw %s: %w", bet.ID.Hex(), err)
	}

	// commit
	pos.Balance = new(big.Int)
	bet.Collected = new(big.Int).Add(bet.Collected, payout)

	PaidVolumeTotal.WithLabelValues("emergency").Add(types.ToFloat(payout))

	h.logger.Warn("emergency-withdraw",
		zap.String("bet-id", bet.ID.Hex()),
		zap.String("bettor", caller.Hex()),
		zap.String("amount", payout.String()))

	h.publish(ctx, &types.Event{
		Type:   types.EventEmergencyWithdraw,
		BetID:  bet.ID,
		Actor:  caller,
		Amount: new(big.Int).Set(payout),
		Option: pos.Option,
	})

	return &CollectReceipt{Payout: payout, Reward: new(big.Int), Emergency: true}, nil
}

// payoutLocked releases payout to caller and mints reward, undoing the
// release if the mint fails.
func (h *House) payoutLocked(ctx context.Context, token asset.Token, caller common.Address, payout, reward *big.Int) error {
	undo := &undoStack{}

	if payout.Sign() > 0 {
		err := token.Transfer(ctx, h.address, caller, payout)
		if err != nil {
			return fmt.Errorf("release payout: %w", err)
		}
		undo.push("reclaim-payout", func(ctx context.Context) error {
			return token.Transfer(ctx, caller, h.address, payout)
		})
	}

	if reward.Sign() > 0 {
		err := h.minter.mint(caller, reward)
		if err != nil {
			undo.rollback(ctx, h.logger)
			return fmt.Errorf("mint reward: %w", err)
		}
	}

	return nil
}
