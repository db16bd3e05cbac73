package wallet

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var (
	usdc  = common.HexToAddress("0xe20")
	alice = common.HexToAddress("0xa1")
	house = common.HexToAddress("0x105")
)

// fakeToken answers ERC20 view calls from in-memory maps.
type fakeToken struct {
	t          *testing.T
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
	decimals   uint8
	err        error
	calls      int
}

func (f *fakeToken) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	client, err := NewClient(f, zap.NewNop())
	require.NoError(f.t, err)

	method, err := client.abi.MethodById(msg.Data[:4])
	require.NoError(f.t, err)

	args, err := method.Inputs.Unpack(msg.Data[4:])
	require.NoError(f.t, err)

	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(orZero(f.balances[args[0].(common.Address)]))
	case "allowance":
		key := [2]common.Address{args[0].(common.Address), args[1].(common.Address)}
		return method.Outputs.Pack(orZero(f.allowances[key]))
	default:
		return method.Outputs.Pack(f.decimals)
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func newFakeToken(t *testing.T) *fakeToken {
	return &fakeToken{
		t:          t,
		balances:   map[common.Address]*big.Int{alice: big.NewInt(2_500_000)},
		allowances: map[[2]common.Address]*big.Int{{alice, house}: big.NewInt(1_000_000)},
		decimals:   6,
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		caller  ethereum.ContractCaller
		logger  *zap.Logger
		wantErr bool
	}{
		{name: "valid", caller: &fakeToken{}, logger: zap.NewNop()},
		{name: "nil_caller", caller: nil, logger: zap.NewNop(), wantErr: true},
		{name: "nil_logger", caller: &fakeToken{}, logger: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.caller, tt.logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, client.abi.Methods, "balanceOf")
			assert.Contains(t, client.abi.Methods, "allowance")
			assert.Contains(t, client.abi.Methods, "decimals")
		})
	}
}

func TestDial_EmptyURL(t *testing.T) {
	_, err := Dial(context.Background(), "", zap.NewNop())
	assert.Error(t, err)
}

func TestClient_Reads(t *testing.T) {
	token := newFakeToken(t)
	client, err := NewClient(token, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()

	balance, err := client.BalanceOf(ctx, usdc, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2_500_000), balance.Int64())

	balance, err = client.BalanceOf(ctx, usdc, house)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())

	allowance, err := client.Allowance(ctx, usdc, alice, house)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), allowance.Int64())

	decimals, err := client.Decimals(ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)
}

func TestClient_GetBalances(t *testing.T) {
	token := newFakeToken(t)
	client, err := NewClient(token, zaptest.NewLogger(t))
	require.NoError(t, err)

	b, err := client.GetBalances(context.Background(), usdc, alice, house)
	require.NoError(t, err)
	assert.Equal(t, usdc, b.Token)
	assert.Equal(t, alice, b.Owner)
	assert.Equal(t, house, b.Spender)
	assert.Equal(t, int64(2_500_000), b.Balance.Int64())
	assert.Equal(t, int64(1_000_000), b.Allowance.Int64())
	assert.Equal(t, uint8(6), b.Decimals)
	assert.Equal(t, 3, token.calls)
}

func TestClient_CallError(t *testing.T) {
	token := newFakeToken(t)
	token.err = errors.New("execution reverted")
	client, err := NewClient(token, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GetBalances(context.Background(), usdc, alice, house)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get balance")
	assert.Contains(t, err.Error(), "execution reverted")
}

func TestClient_EmptyReturnData(t *testing.T) {
	client, err := NewClient(emptyCaller{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.BalanceOf(context.Background(), usdc, alice)
	assert.Error(t, err, "a non-contract address returns no data")
}

type emptyCaller struct{}

func (emptyCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

// TestDial_JSONRPC runs a balance read through ethclient against a stub node.
func TestDial_JSONRPC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_call", req.Method)

		result := common.LeftPadBytes(big.NewInt(42).Bytes(), 32)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexutil.Encode(result),
		})
	}))
	defer srv.Close()

	client, err := Dial(context.Background(), srv.URL, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	balance, err := client.BalanceOf(context.Background(), usdc, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance.Int64())
}
