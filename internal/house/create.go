package house

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Create registers a new bet and returns its identifier.
//
// Rates requested by anyone other than the current fee owner are clamped to
// zero; the identifier still hashes the requested values.
func (h *House) Create(ctx context.Context, caller common.Address, p *CreateParams) (id types.BetID, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("create", err) }()

	if p == nil {
		return types.BetID{}, fmt.Errorf("create: %w", types.ErrInvalidSchedule)
	}

	now := h.clock.Now()
	err = validateCreate(p, now)
	if err != nil {
		return types.BetID{}, fmt.Errorf("create: %w", err)
	}

	id = ComputeBetID(h.scheme, h.address, caller, p)
	if h.bets[id].Exists() {
		return types.BetID{}, fmt.Errorf("create %s: %w", id.Hex(), types.ErrAlreadyExists)
	}

	minRate, maxRate := p.MinRate, p.MaxRate
	if !h.fees.IsOwner(caller) && (minRate != 0 || maxRate != 0) {
		h.logger.Debug("create-rates-clamped",
			zap.String("creator", caller.Hex()),
			zap.Uint64("min-rate", minRate),
			zap.Uint64("max-rate", maxRate))
		minRate, maxRate = 0, 0
	}

	binding := h.oracles.Bind(p.Oracle)
	accepted, err := binding.Create(ctx, id, p.Data)
	if err != nil {
		return types.BetID{}, fmt.Errorf("create %s: oracle hook: %w", id.Hex(), err)
	}
	if !accepted {
		return types.BetID{}, fmt.Errorf("create %s: %w", id.Hex(), types.ErrOracleRejectedCreate)
	}

	minPlayAmount := new(big.Int)
	if p.MinPlayAmount != nil {
		minPlayAmount.Set(p.MinPlayAmount)
	}

	bet := &types.Bet{
		ID:            id,
		Asset:         p.Asset,
		Oracle:        p.Oracle,
		Creator:       caller,
		TotalBalance:  new(big.Int),
		Collected:     new(big.Int),
		StartBet:      p.StartBet,
		NoMoreBets:    p.NoMoreBets,
		SetWinTime:    p.SetWinTime,
		MinRate:       minRate,
		MaxRate:       maxRate,
		MinPlayAmount: minPlayAmount,
		IncreaseRate:  p.IncreaseRate,
		Data:          append([]byte(nil), p.Data...),
	}
	h.bets[id] = bet
	h.positions[id] = make(map[common.Address]*types.Position)
	h.pools[id] = make(map[types.Option]*big.Int)

	BetsCreatedTotal.WithLabelValues(binding.Kind.String()).Inc()
	h.logger.Info("bet-created",
		zap.String("bet-id", id.Hex()),
		zap.String("creator", caller.Hex()),
		zap.String("asset", p.Asset.Hex()),
		zap.String("oracle", p.Oracle.Hex()),
		zap.String("oracle-kind", binding.Kind.String()),
		zap.Uint64("start-bet", p.StartBet),
		zap.Uint64("no-more-bets", p.NoMoreBets),
		zap.Uint64("set-win-time", p.SetWinTime),
		zap.Uint64("min-rate", minRate),
		zap.Uint64("max-rate", maxRate))

	h.publish(ctx, &types.Event{
		Type:         types.EventCreate,
		BetID:        id,
		Actor:        caller,
		Counterparty: p.Oracle,
		Data:         bet.Data,
	})

	return id, nil
}

func validateCreate(p *CreateParams, now uint64) error {
	if p.Asset == (common.Address{}) {
		return fmt.Errorf("asset: %w", types.ErrZeroAddress)
	}

	if p.Oracle == (common.Address{}) {
		return fmt.Errorf("oracle: %w", types.ErrZeroAddress)
	}

	for _, v := range []uint64{p.StartBet, p.NoMoreBets, p.SetWinTime} {
		if v > types.MaxUint48 {
			return fmt.Errorf("time %d exceeds uint48: %w", v, types.ErrInvalidSchedule)
		}
	}

	if p.StartBet < now {
		return fmt.Errorf("start %d before now %d: %w", p.StartBet, now, types.ErrInvalidSchedule)
	}

	if p.NoMoreBets <= p.StartBet {
		return fmt.Errorf("close %d not after start %d: %w", p.NoMoreBets, p.StartBet, types.ErrInvalidSchedule)
	}

	if p.SetWinTime <= p.NoMoreBets {
		return fmt.Errorf("deadline %d not after close %d: %w", p.SetWinTime, p.NoMoreBets, types.ErrInvalidSchedule)
	}

	if p.MinRate > types.MaxUint48 || p.MaxRate > types.MaxUint48 || p.IncreaseRate > types.MaxUint48 {
		return fmt.Errorf("rate exceeds uint48: %w", types.ErrInvalidRates)
	}

	if p.MinRate > p.MaxRate {
		return fmt.Errorf("min %d > max %d: %w", p.MinRate, p.MaxRate, types.ErrInvalidRates)
	}

	if p.MinPlayAmount != nil {
		err := types.ValidateAmount(p.MinPlayAmount)
		if err != nil {
			return fmt.Errorf("min play amount: %w", err)
		}
	}

	if p.Salt != nil {
		err := types.ValidateAmount(p.Salt)
		if err != nil {
			return fmt.Errorf("salt: %w", err)
		}
	}

	return nil
}
