package house

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// SetFeeRate changes the protocol fee charged on new plays.
func (h *House) SetFeeRate(ctx context.Context, caller common.Address, rate uint64) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("set-fee-rate", err) }()

	err = h.fees.SetRate(caller, rate)
	if err != nil {
		return fmt.Errorf("set fee rate: %w", err)
	}

	h.publish(ctx, &types.Event{
		Type:   types.EventFeeRateSet,
		Actor:  caller,
		Amount: new(big.Int).SetUint64(rate),
	})
	return nil
}

// SetFeeExcluded toggles the fee exemption of an asset.
func (h *House) SetFeeExcluded(ctx context.Context, caller common.Address, key common.Address, excluded bool) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("set-fee-excluded", err) }()

	err = h.fees.SetExcluded(caller, key, excluded)
	if err != nil {
		return fmt.Errorf("set fee excluded: %w", err)
	}

	flag := big.NewInt(0)
	if excluded {
		flag.SetInt64(1)
	}
	h.publish(ctx, &types.Event{
		Type:         types.EventFeeExclusionSet,
		Actor:        caller,
		Counterparty: key,
		Amount:       flag,
	})
	return nil
}

// TransferFeeOwnership hands the fee schedule to newOwner. The new owner also
// becomes the resolver of venue-oracle bets.
func (h *House) TransferFeeOwnership(ctx context.Context, caller common.Address, newOwner common.Address) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("transfer-fee-ownership", err) }()

	err = h.fees.TransferOwnership(caller, newOwner)
	if err != nil {
		return fmt.Errorf("transfer fee ownership: %w", err)
	}

	h.publish(ctx, &types.Event{
		Type:         types.EventFeeOwnerTransferred,
		Actor:        caller,
		Counterparty: newOwner,
	})
	return nil
}

// RenounceFeeOwnership removes the fee owner and zeroes the rate for good.
// Venue-oracle bets can no longer be resolved and fall through to the
// emergency path at their deadline.
func (h *House) RenounceFeeOwnership(ctx context.Context, caller common.Address) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("renounce-fee-ownership", err) }()

	err = h.fees.Renounce(caller)
	if err != nil {
		return fmt.Errorf("renounce fee ownership: %w", err)
	}

	h.publish(ctx, &types.Event{
		Type:  types.EventFeeOwnerTransferred,
		Actor: caller,
	})
	return nil
}
