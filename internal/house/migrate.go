package house

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// RenounceMigrate permanently disables Migrate.
func (h *House) RenounceMigrate(ctx context.Context, caller common.Address) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("renounce-migrate", err) }()

	if !h.fees.IsOwner(caller) {
		return fmt.Errorf("renounce migrate by %s: %w", caller.Hex(), types.ErrNotFeeOwner)
	}

	h.canMigrate = false

	h.logger.Warn("migration-renounced", zap.String("caller", caller.Hex()))
	h.publish(ctx, &types.Event{
		Type:  types.EventRenounceMigrate,
		Actor: caller,
	})

	return nil
}

// Migrate hands the PLAY mint authority to successor. From then on every
// play and collect reward is zero. It can run at most once.
func (h *House) Migrate(ctx context.Context, caller common.Address, successor common.Address) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() { h.observe("migrate", err) }()

	if !h.fees.IsOwner(caller) {
		return fmt.Errorf("migrate by %s: %w", caller.Hex(), types.ErrNotFeeOwner)
	}

	if !h.canMigrate {
		return fmt.Errorf("migrate: %w", types.ErrRenounced)
	}

	if successor == (common.Address{}) {
		return fmt.Errorf("migrate successor: %w", types.ErrZeroAddress)
	}

	err = h.play.TransferOwnership(h.address, successor)
	if err != nil {
		return fmt.Errorf("migrate: hand over mint authority: %w", err)
	}

	h.minter = disabledMinter{}
	h.canMigrate = false

	h.logger.Warn("house-migrated",
		zap.String("caller", caller.Hex()),
		zap.String("successor", successor.Hex()))
	h.publish(ctx, &types.Event{
		Type:         types.EventMigrate,
		Actor:        caller,
		Counterparty: successor,
	})

	return nil
}
