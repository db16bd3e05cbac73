package house

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.house.Migrate(ctx, alice, successor)
	assert.ErrorIs(t, err, types.ErrNotFeeOwner)

	err = f.house.RenounceMigrate(ctx, alice)
	assert.ErrorIs(t, err, types.ErrNotFeeOwner)

	err = f.house.Migrate(ctx, feeOwner, common.Address{})
	assert.ErrorIs(t, err, types.ErrZeroAddress)

	assert.True(t, f.house.CanMigrate())
	assert.True(t, f.house.MintingEnabled())
}

func TestMigrate_HandsOverMinting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, feeOwner, params())
	f.clock.Set(startBet)
	f.play(t, id, alice, 1000, optionA)
	assert.Equal(t, int64(200), f.playBalance(t, alice))

	require.NoError(t, f.house.Migrate(ctx, feeOwner, successor))

	assert.Equal(t, successor, f.house.PlayToken().Owner())
	assert.False(t, f.house.MintingEnabled())
	assert.False(t, f.house.CanMigrate())
	// the curve is unchanged, only the reward is zeroed
	assert.Equal(t, uint64(2000), f.house.PlayRate(id, startBet))

	e := f.events.last()
	assert.Equal(t, types.EventMigrate, e.Type)
	assert.Equal(t, successor, e.Counterparty)

	// stakes are still accepted and accounted, rewards are zero
	r := f.play(t, id, bob, 1000, optionB)
	assert.Equal(t, uint64(2000), r.Rate)
	assert.Equal(t, int64(0), r.Reward.Int64())
	assert.Equal(t, int64(1000), r.NetAmount.Int64())
	assert.Equal(t, int64(0), f.playBalance(t, bob))
	assert.Equal(t, int64(2000), f.house.Bet(id).TotalBalance.Int64())

	f.clock.Set(closeBet)
	require.NoError(t, f.house.SetWinOption(ctx, feeOwner, id, optionA))

	c, err := f.house.Collect(ctx, alice, id, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), c.Payout.Int64())
	assert.Equal(t, int64(0), c.Reward.Int64())
	assert.Equal(t, int64(200), f.playBalance(t, alice))

	// the successor now holds the mint authority
	require.NoError(t, f.house.PlayToken().MintTo(successor, carol, bigInt(5)))
	assert.Equal(t, int64(5), f.playBalance(t, carol))

	err = f.house.Migrate(ctx, feeOwner, successor)
	assert.ErrorIs(t, err, types.ErrRenounced)
}

func TestRenounceMigrate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.house.RenounceMigrate(ctx, feeOwner))
	assert.False(t, f.house.CanMigrate())
	assert.Equal(t, types.EventRenounceMigrate, f.events.last().Type)

	err := f.house.Migrate(ctx, feeOwner, successor)
	assert.ErrorIs(t, err, types.ErrRenounced)
	assert.Equal(t, types.KindState, types.KindOf(err))

	// minting is untouched by renouncing
	assert.True(t, f.house.MintingEnabled())
	assert.Equal(t, houseAddr, f.house.PlayToken().Owner())
}
