package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/internal/scenario"
	"github.com/mselser95/parimutuel-house/internal/storage"
	"github.com/mselser95/parimutuel-house/pkg/config"
	"github.com/mselser95/parimutuel-house/pkg/httpserver"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingStorage struct {
	mu     sync.Mutex
	events []*types.Event
	err    error
	closed bool
}

func (s *recordingStorage) StoreEvent(_ context.Context, event *types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingStorage) eventTypes() []types.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingSink struct {
	events []*types.Event
}

func (s *recordingSink) Publish(_ context.Context, event *types.Event) {
	s.events = append(s.events, event)
}

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:          "debug",
		HTTPPort:          "0",
		HouseAddress:      "0x0000000000000000000000000000000000000105",
		HouseFeeOwner:     "0x00000000000000000000000000000000000000f0",
		HouseFeeRate:      100,
		HouseBetIDScheme:  "escalating",
		AssetAddress:      "0x0000000000000000000000000000000000000e20",
		AssetSymbol:       "USDC",
		AmountDecimals:    6,
		OracleHTTPTimeout: time.Second,
		CacheTTL:          time.Second,
		WSBroadcastBuffer: 16,
		WSSendBuffer:      16,
		StorageMode:       "console",

		SolvencyCheckInterval: time.Minute,
	}
}

func get(t *testing.T, a *App, path string, out any) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.httpServer.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestNew_ConfiguredHouse(t *testing.T) {
	store := &recordingStorage{}
	a, err := New(testConfig(), zaptest.NewLogger(t), &Options{
		Clock:   house.NewManualClock(1_000_000),
		Storage: store,
	})
	require.NoError(t, err)
	defer a.closeResources()

	assert.Equal(t, common.HexToAddress("0x105"), a.House().Address())
	assert.Equal(t, uint64(1_000_000), a.House().Now())
	assert.Equal(t, uint64(100), a.House().FeeRate())
	assert.Equal(t, []types.EventType{types.EventFeeOwnerTransferred}, store.eventTypes())

	var resp httpserver.HouseResponse
	require.Equal(t, http.StatusOK, get(t, a, "/api/house", &resp))
	assert.Equal(t, common.HexToAddress("0xf0").Hex(), resp.FeeOwner)
	assert.Equal(t, uint64(1_000_000), resp.Now)
	assert.True(t, resp.MintingEnabled)
	assert.True(t, resp.CanMigrate)
	assert.Zero(t, resp.BetCount)
}

func TestNew_ConfiguredHouseServesCreatedBet(t *testing.T) {
	store := &recordingStorage{}
	clock := house.NewManualClock(1_000_000)
	a, err := New(testConfig(), zaptest.NewLogger(t), &Options{Clock: clock, Storage: store})
	require.NoError(t, err)
	defer a.closeResources()

	feeOwner := common.HexToAddress("0xf0")
	id, err := a.House().Create(context.Background(), feeOwner, &house.CreateParams{
		Asset:      common.HexToAddress("0xe20"),
		Oracle:     a.House().Address(),
		StartBet:   1_000_000,
		NoMoreBets: 1_000_100,
		SetWinTime: 1_000_200,
		MinRate:    1000,
		MaxRate:    2000,
	})
	require.NoError(t, err)

	var view types.BetView
	require.Equal(t, http.StatusOK, get(t, a, "/api/bets/"+id.Hex(), &view))
	assert.Equal(t, types.PhaseActive, view.Phase)

	// a cached view is dropped by the next event on the bet
	clock.Set(1_000_100)
	require.NoError(t, a.House().SetWinOption(context.Background(), feeOwner, id, types.OptionFromString("A")))
	a.viewCache.Wait()

	require.Equal(t, http.StatusOK, get(t, a, "/api/bets/"+id.Hex(), &view))
	assert.Equal(t, types.PhaseResolved, view.Phase)

	assert.Contains(t, store.eventTypes(), types.EventCreate)
	assert.Contains(t, store.eventTypes(), types.EventSetWinOption)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{
			name:   "bad_scheme",
			mutate: func(c *config.Config) { c.HouseBetIDScheme = "random" },
		},
		{
			name:   "zero_fee_owner",
			mutate: func(c *config.Config) { c.HouseFeeOwner = "0x0000000000000000000000000000000000000000" },
		},
		{
			name: "oracle_on_house_address",
			mutate: func(c *config.Config) {
				c.OracleHTTPURL = "http://oracle.local"
				c.OracleHTTPAddress = c.HouseAddress
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			store := &recordingStorage{}
			a, err := New(cfg, zaptest.NewLogger(t), &Options{Storage: store})
			require.Error(t, err)
			assert.Nil(t, a)
			assert.True(t, store.closed)
		})
	}
}

func TestNew_RegistersOracleGateway(t *testing.T) {
	cfg := testConfig()
	cfg.OracleHTTPURL = "http://oracle.local"
	cfg.OracleHTTPAddress = "0x00000000000000000000000000000000000000c1"

	a, err := New(cfg, zaptest.NewLogger(t), &Options{Storage: &recordingStorage{}})
	require.NoError(t, err)
	defer a.closeResources()

	assert.NotNil(t, a.House())
}

func TestApp_SeededStartAndShutdown(t *testing.T) {
	sc, err := scenario.Load("../scenario/testdata/self_oracle_win.toml")
	require.NoError(t, err)

	store := &recordingStorage{}
	a, err := New(testConfig(), zaptest.NewLogger(t), &Options{Seed: sc, Storage: store})
	require.NoError(t, err)

	require.NoError(t, a.Start())

	id, ok := a.seed.BetID("derby")
	require.True(t, ok)

	var list httpserver.BetListResponse
	require.Equal(t, http.StatusOK, get(t, a, "/api/bets", &list))
	assert.Equal(t, []string{id.Hex()}, list.Bets)

	var pos httpserver.PositionResponse
	require.Equal(t, http.StatusOK, get(t, a, "/api/bets/"+id.Hex()+"/positions/"+common.HexToAddress("0xb0").Hex(), &pos))
	assert.Equal(t, "29700", pos.Balance)

	var view types.BetView
	require.Equal(t, http.StatusOK, get(t, a, "/api/bets/"+id.Hex(), &view))
	assert.Equal(t, types.PhaseResolved, view.Phase)
	assert.Equal(t, "39600", view.TotalBalance)
	assert.Equal(t, "39600", view.Collected)

	assert.Equal(t, http.StatusOK, get(t, a, "/ready", nil))
	assert.True(t, a.solvency.IsSolvent())

	recorded := store.eventTypes()
	require.NotEmpty(t, recorded)
	assert.Equal(t, types.EventFeeOwnerTransferred, recorded[0])
	assert.Contains(t, recorded, types.EventCreate)
	assert.Contains(t, recorded, types.EventPlay)
	assert.Contains(t, recorded, types.EventSetWinOption)
	assert.Contains(t, recorded, types.EventCollect)

	require.NoError(t, a.Shutdown())
	assert.True(t, store.closed)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, a, "/ready", nil))
}

func TestApp_RunReturnsOnCancel(t *testing.T) {
	a, err := New(testConfig(), zaptest.NewLogger(t), &Options{Storage: &recordingStorage{}})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- a.Run()
	}()

	require.Eventually(t, func() bool {
		return get(t, a, "/ready", nil) == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	a.cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestEventFanout_StorageErrorStillDelivers(t *testing.T) {
	store := &recordingStorage{err: errors.New("disk full")}
	first := &recordingSink{}
	second := &recordingSink{}

	fanout := &eventFanout{
		sinks: []house.Publisher{
			storage.NewEventSink(store, zaptest.NewLogger(t)),
			first,
			second,
		},
	}

	event := &types.Event{ID: "e1", Type: types.EventPlay, BetID: common.HexToHash("0x1")}
	fanout.Publish(context.Background(), event)

	assert.Len(t, store.events, 1)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Same(t, event, first.events[0])
	assert.Same(t, event, second.events[0])
}
