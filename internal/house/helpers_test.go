package house

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/parimutuel-house/internal/asset"
	"github.com/mselser95/parimutuel-house/internal/oracle"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	genesis  = uint64(1_000_000)
	startBet = genesis + 100
	closeBet = genesis + 200
	deadline = genesis + 300
	funding  = int64(1_000_000)
)

var (
	houseAddr  = common.HexToAddress("0x0000000000000000000000000000000000000105")
	feeOwner   = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	carol      = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	usdcAddr   = common.HexToAddress("0x0000000000000000000000000000000000000e20")
	oracleAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	gatewayAdr = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	successor  = common.HexToAddress("0x0000000000000000000000000000000000000200")

	optionA = types.OptionFromString("A")
	optionB = types.OptionFromString("B")
	optionC = types.OptionFromString("C")

	errBoom = errors.New("boom")
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []*types.Event
}

func (r *recorder) Publish(_ context.Context, event *types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) kinds() []types.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() *types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// stubGateway answers every hook with a fixed verdict and records plays.
type stubGateway struct {
	mu          sync.Mutex
	create      bool
	play        bool
	collect     bool
	err         error
	playAmounts []*big.Int
	collects    int
}

func acceptAll() *stubGateway {
	return &stubGateway{create: true, play: true, collect: true}
}

func (g *stubGateway) OnCreate(context.Context, types.BetID, []byte) (bool, error) {
	return g.create, g.err
}

func (g *stubGateway) OnPlay(_ context.Context, _ types.BetID, _ common.Address, amount *big.Int, _ types.Option, _ []byte) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.playAmounts = append(g.playAmounts, new(big.Int).Set(amount))
	return g.play, g.err
}

func (g *stubGateway) OnCollect(context.Context, types.BetID, common.Address, []byte) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.collects++
	return g.collect, g.err
}

// faultyToken fails every Transfer towards failTo.
type faultyToken struct {
	*asset.MemoryToken
	failTo common.Address
}

func (f *faultyToken) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if to == f.failTo {
		return errBoom
	}
	return f.MemoryToken.Transfer(ctx, from, to, amount)
}

type fixture struct {
	house   *House
	usdc    *asset.MemoryToken
	assets  *asset.Registry
	oracles *oracle.Directory
	clock   *ManualClock
	events  *recorder
}

type fixtureOption func(*Config)

func withFeeRate(rate uint64) fixtureOption {
	return func(cfg *Config) { cfg.FeeRate = rate }
}

func withRewardDraws() fixtureOption {
	return func(cfg *Config) { cfg.RewardDraws = true }
}

func withScheme(s Scheme) fixtureOption {
	return func(cfg *Config) { cfg.Scheme = s }
}

func newMemoryToken(t *testing.T) *asset.MemoryToken {
	t.Helper()

	token, err := asset.NewMemoryToken(&asset.MemoryTokenConfig{
		Address:  usdcAddr,
		Symbol:   "USDC",
		Decimals: 6,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	for _, holder := range []common.Address{alice, bob, carol, feeOwner} {
		require.NoError(t, token.SetBalance(holder, big.NewInt(funding)))
		require.NoError(t, token.Approve(holder, houseAddr, math.MaxBig256))
	}
	return token
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	return newFixtureWithToken(t, nil, opts...)
}

// newFixtureWithToken registers wrap(usdc) instead of usdc when wrap is set.
func newFixtureWithToken(t *testing.T, wrap func(*asset.MemoryToken) asset.Token, opts ...fixtureOption) *fixture {
	t.Helper()

	usdc := newMemoryToken(t)
	var token asset.Token = usdc
	if wrap != nil {
		token = wrap(usdc)
	}

	assets := asset.NewRegistry()
	require.NoError(t, assets.Register(token))

	f := &fixture{
		usdc:    usdc,
		assets:  assets,
		oracles: oracle.NewDirectory(houseAddr),
		clock:   NewManualClock(genesis),
		events:  &recorder{},
	}

	cfg := &Config{
		Address:   houseAddr,
		FeeOwner:  feeOwner,
		Assets:    assets,
		Oracles:   f.oracles,
		Clock:     f.clock,
		Publisher: f.events,
		Logger:    zaptest.NewLogger(t),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	h, err := New(cfg)
	require.NoError(t, err)
	f.house = h
	return f
}

// params returns a self-oracle bet paying 20% down to 10% PLAY.
func params() *CreateParams {
	return &CreateParams{
		Asset:      usdcAddr,
		Oracle:     houseAddr,
		StartBet:   startBet,
		NoMoreBets: closeBet,
		SetWinTime: deadline,
		MinRate:    1000,
		MaxRate:    2000,
	}
}

func (f *fixture) create(t *testing.T, caller common.Address, p *CreateParams) types.BetID {
	t.Helper()

	id, err := f.house.Create(context.Background(), caller, p)
	require.NoError(t, err)
	return id
}

func (f *fixture) play(t *testing.T, id types.BetID, caller common.Address, amount int64, option types.Option) *PlayReceipt {
	t.Helper()

	receipt, err := f.house.Play(context.Background(), caller, &PlayParams{
		BetID:  id,
		Amount: big.NewInt(amount),
		Option: option,
	})
	require.NoError(t, err)
	return receipt
}

func bigInt(v int64) *big.Int {
	return big.NewInt(v)
}

func (f *fixture) usdcBalance(t *testing.T, holder common.Address) int64 {
	t.Helper()

	bal, err := f.usdc.BalanceOf(context.Background(), holder)
	require.NoError(t, err)
	return bal.Int64()
}

func (f *fixture) playBalance(t *testing.T, holder common.Address) int64 {
	t.Helper()

	bal, err := f.house.PlayToken().BalanceOf(context.Background(), holder)
	require.NoError(t, err)
	return bal.Int64()
}
