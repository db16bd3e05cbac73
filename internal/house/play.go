package house

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/parimutuel-house/internal/fees"
	"github.com/mselser95/parimutuel-house/internal/ratecurve"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Play stakes p.Amount of the bet's asset on p.Option for caller.
//
// The protocol fee is skimmed to the fee owner unless the asset is
// fee-excluded; the remaining net amount is credited to the caller's
// position, the option pool and the bet total. While the House still holds
// the mint authority the caller also earns PLAY at the decaying rate.
func (h *House) Play(ctx context.Context, caller common.Address, p *PlayParams) (receipt *PlayReceipt, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("play", err) }()

	if p == nil {
		return nil, fmt.Errorf("play: %w", types.ErrBetClosedOrMissing)
	}

	now := h.clock.Now()
	bet := h.bets[p.BetID]
	if !bet.Exists() || now >= bet.NoMoreBets {
		return nil, fmt.Errorf("play %s: %w", p.BetID.Hex(), types.ErrBetClosedOrMissing)
	}

	if now < bet.StartBet {
		return nil, fmt.Errorf("play %s: not open until %d: %w", p.BetID.Hex(), bet.StartBet, types.ErrBetClosedOrMissing)
	}

	err = types.ValidateAmount(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", p.BetID.Hex(), err)
	}

	if p.Amount.Sign() == 0 {
		return nil, fmt.Errorf("play %s: %w", p.BetID.Hex(), types.ErrZeroAmount)
	}

	if p.Amount.Cmp(bet.MinPlayAmount) < 0 {
		return nil, fmt.Errorf("play %s: %s below %s: %w", p.BetID.Hex(), p.Amount, bet.MinPlayAmount, types.ErrLowAmount)
	}

	if p.Option == (types.Option{}) {
		return nil, fmt.Errorf("play %s: %w", p.BetID.Hex(), types.ErrInvalidOption)
	}

	pos := h.positionLocked(p.BetID, caller)
	if pos.Option != (types.Option{}) && pos.Option != p.Option {
		return nil, fmt.Errorf("play %s: holds %s: %w", p.BetID.Hex(), pos.Option.Hex(), types.ErrOptionLocked)
	}

	token, err := h.assets.Lookup(bet.Asset)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", p.BetID.Hex(), err)
	}

	fee := h.fees.FeeFor(bet.Asset, p.Amount)
	net := new(big.Int).Sub(p.Amount, fee)

	newTotal := new(big.Int).Add(bet.TotalBalance, net)
	if newTotal.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("play %s: total overflows: %w", p.BetID.Hex(), types.ErrInvalidAmount)
	}

	rate := ratecurve.Rate(now, bet.StartBet, bet.NoMoreBets, bet.MinRate, bet.MaxRate)
	reward := new(big.Int)
	if bet.MaxRate != 0 {
		reward = h.rewardLocked(net, rate)
	}

	accepted, err := h.oracles.Bind(bet.Oracle).Play(ctx, p.BetID, caller, p.Amount, p.Option, p.Data)
	if err != nil {
		return nil, fmt.Errorf("play %s: oracle hook: %w", p.BetID.Hex(), err)
	}
	if !accepted {
		return nil, fmt.Errorf("play %s: %w", p.BetID.Hex(), types.ErrOracleRejectedPlay)
	}

	undo := &undoStack{}
	amount := new(big.Int).Set(p.Amount)

	err = token.TransferFrom(ctx, h.address, caller, h.address, amount)
	if err != nil {
		return nil, fmt.Errorf("play %s: pull stake: %w", p.BetID.Hex(), err)
	}
	undo.push("refund-stake", func(ctx context.Context) error {
		return token.Transfer(ctx, h.address, caller, amount)
	})

	if fee.Sign() > 0 {
		// a positive fee implies an owner; renounce pins the rate at zero
		feeOwner, _ := h.fees.Owner()
		err = token.Transfer(ctx, h.address, feeOwner, fee)
		if err != nil {
			undo.rollback(ctx, h.logger)
			return nil, fmt.Errorf("play %s: forward fee: %w", p.BetID.Hex(), err)
		}
		undo.push("reclaim-fee", func(ctx context.Context) error {
			return token.Transfer(ctx, feeOwner, h.address, fee)
		})
	}

	if reward.Sign() > 0 {
		err = h.minter.mint(caller, reward)
		if err != nil {
			undo.rollback(ctx, h.logger)
			return nil, fmt.Errorf("play %s: mint reward: %w", p.BetID.Hex(), err)
		}
	}

	// commit
	if _, ok := h.positions[p.BetID][caller]; !ok {
		h.positions[p.BetID][caller] = pos
	}
	pos.Balance = new(big.Int).Add(pos.Balance, net)
	pos.Option = p.Option
	h.pools[p.BetID][p.Option] = new(big.Int).Add(h.poolLocked(p.BetID, p.Option), net)
	bet.TotalBalance = newTotal
	if bet.IncreaseRate != 0 {
		bet.MinPlayAmount = new(big.Int).Add(bet.MinPlayAmount, fees.Compute(net, bet.IncreaseRate))
	}

	StakedVolumeTotal.Add(types.ToFloat(net))
	FeeVolumeTotal.Add(types.ToFloat(fee))
	RewardsMintedTotal.WithLabelValues("play").Add(types.ToFloat(reward))

	h.logger.Info("play-accepted",
		zap.String("bet-id", p.BetID.Hex()),
		zap.String("bettor", caller.Hex()),
		zap.String("option", p.Option.Hex()),
		zap.String("net-amount", net.String()),
		zap.String("fee", fee.String()),
		zap.String("reward", reward.String()),
		zap.Uint64("rate", rate))

	h.publish(ctx, &types.Event{
		Type:   types.EventPlay,
		BetID:  p.BetID,
		Actor:  caller,
		Amount: new(big.Int).Set(net),
		Reward: new(big.Int).Set(reward),
		Option: p.Option,
		Data:   append([]byte(nil), p.Data...),
	})

	return &PlayReceipt{
		NetAmount: net,
		Fee:       fee,
		Reward:    reward,
		Rate:      rate,
	}, nil
}
