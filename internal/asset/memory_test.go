package asset

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	tokenAddr = common.HexToAddress("0x0000000000000000000000000000000000000e20")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	venue     = common.HexToAddress("0x0000000000000000000000000000000000000105")
)

func newTestToken(t *testing.T) *MemoryToken {
	t.Helper()

	token, err := NewMemoryToken(&MemoryTokenConfig{
		Address:  tokenAddr,
		Symbol:   "TST",
		Decimals: 18,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return token
}

func TestNewMemoryToken_Validation(t *testing.T) {
	_, err := NewMemoryToken(nil)
	assert.Error(t, err)

	_, err = NewMemoryToken(&MemoryTokenConfig{Address: tokenAddr})
	assert.Error(t, err)

	_, err = NewMemoryToken(&MemoryTokenConfig{Logger: zaptest.NewLogger(t)})
	assert.ErrorIs(t, err, types.ErrZeroAddress)
}

func TestMemoryToken_Transfer(t *testing.T) {
	ctx := context.Background()
	token := newTestToken(t)
	require.NoError(t, token.SetBalance(alice, big.NewInt(100)))

	err := token.Transfer(ctx, alice, bob, big.NewInt(101))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	require.NoError(t, token.Transfer(ctx, alice, bob, big.NewInt(40)))

	aliceBal, _ := token.BalanceOf(ctx, alice)
	bobBal, _ := token.BalanceOf(ctx, bob)
	assert.Equal(t, int64(60), aliceBal.Int64())
	assert.Equal(t, int64(40), bobBal.Int64())
	assert.Equal(t, int64(100), token.TotalSupply().Int64())

	assert.ErrorIs(t, token.Transfer(ctx, alice, bob, big.NewInt(-1)), types.ErrInvalidAmount)
}

func TestMemoryToken_TransferFrom(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		balance       int64
		allowance     *big.Int
		amount        int64
		wantErr       error
		wantAllowance *big.Int
	}{
		{
			name:          "spends-allowance",
			balance:       100,
			allowance:     big.NewInt(70),
			amount:        50,
			wantAllowance: big.NewInt(20),
		},
		{
			name:          "unlimited-allowance-kept",
			balance:       100,
			allowance:     new(big.Int).Set(math.MaxBig256),
			amount:        100,
			wantAllowance: new(big.Int).Set(math.MaxBig256),
		},
		{
			name:          "allowance-too-low",
			balance:       100,
			allowance:     big.NewInt(10),
			amount:        50,
			wantErr:       types.ErrInsufficientAllowance,
			wantAllowance: big.NewInt(10),
		},
		{
			name:          "balance-too-low",
			balance:       10,
			allowance:     big.NewInt(50),
			amount:        50,
			wantErr:       types.ErrInsufficientBalance,
			wantAllowance: big.NewInt(50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := newTestToken(t)
			require.NoError(t, token.SetBalance(alice, big.NewInt(tt.balance)))
			require.NoError(t, token.Approve(alice, venue, tt.allowance))

			err := token.TransferFrom(ctx, venue, alice, venue, big.NewInt(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				bal, _ := token.BalanceOf(ctx, alice)
				assert.Equal(t, tt.balance, bal.Int64(), "failed transfer must not move funds")
			} else {
				require.NoError(t, err)
				bal, _ := token.BalanceOf(ctx, venue)
				assert.Equal(t, tt.amount, bal.Int64())
			}
			assert.Equal(t, 0, token.Allowance(alice, venue).Cmp(tt.wantAllowance))
		})
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	token := newTestToken(t)

	require.NoError(t, registry.Register(token))
	assert.Error(t, registry.Register(nil))

	got, err := registry.Lookup(tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, got.Address())

	_, err = registry.Lookup(alice)
	assert.ErrorIs(t, err, types.ErrUnknownAsset)

	assert.Equal(t, []common.Address{tokenAddr}, registry.Addresses())
}
