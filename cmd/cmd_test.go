package cmd

import (
	"bytes"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"
	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args, starting from default flags.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

// TestCommands_Registered tests every subcommand is wired to the root
func TestCommands_Registered(t *testing.T) {
	for _, name := range []string{"serve", "simulate", "bet-id", "rate", "balance"} {
		t.Run(name, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())
			assert.NotNil(t, c.RunE)
		})
	}
}

func TestServeCommand_Flags(t *testing.T) {
	seed := serveCmd.Flags().Lookup("seed")
	require.NotNil(t, seed)
	assert.Equal(t, "s", seed.Shorthand)
	assert.Equal(t, "", seed.DefValue)
}

func TestBetIDCommand_MatchesHouse(t *testing.T) {
	out, err := executeCommand(t, "bet-id",
		"--creator", "0xf0",
		"--asset", "0xe20",
		"--oracle", "0x105",
		"--start", "1000100",
		"--close", "1000200",
		"--deadline", "1000300",
		"--min-rate", "1000",
		"--max-rate", "2000",
		"--min-play", "1_000",
		"--increase-rate", "50",
		"--data", "derby",
	)
	require.NoError(t, err)

	want := house.ComputeBetID(house.SchemeEscalating, common.HexToAddress("0x105"), common.HexToAddress("0xf0"), &house.CreateParams{
		Asset:         common.HexToAddress("0xe20"),
		Oracle:        common.HexToAddress("0x105"),
		StartBet:      1000100,
		NoMoreBets:    1000200,
		SetWinTime:    1000300,
		MinRate:       1000,
		MaxRate:       2000,
		MinPlayAmount: big.NewInt(1000),
		IncreaseRate:  50,
		Salt:          new(big.Int),
		Data:          []byte("derby"),
	})
	assert.Equal(t, want.Hex(), strings.TrimSpace(out))
}

func TestBetIDCommand_SaltedDiffers(t *testing.T) {
	args := []string{"bet-id", "--creator", "0xf0", "--asset", "0xe20", "--oracle", "0x105",
		"--start", "10", "--close", "20", "--deadline", "30"}

	escalating, err := executeCommand(t, args...)
	require.NoError(t, err)

	salted, err := executeCommand(t, append(args, "--scheme", "salted", "--salt", "0x2a")...)
	require.NoError(t, err)

	assert.NotEqual(t, escalating, salted)
}

func TestBetIDCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing_creator", args: []string{"bet-id", "--asset", "0xe20", "--oracle", "0x105"}},
		{name: "bad_address", args: []string{"bet-id", "--creator", "f0", "--asset", "0xe20", "--oracle", "0x105"}},
		{name: "bad_scheme", args: []string{"bet-id", "--creator", "0xf0", "--asset", "0xe20", "--oracle", "0x105", "--scheme", "random"}},
		{name: "negative_min_play", args: []string{"bet-id", "--creator", "0xf0", "--asset", "0xe20", "--oracle", "0x105", "--min-play", "-1"}},
		{name: "bad_data", args: []string{"bet-id", "--creator", "0xf0", "--asset", "0xe20", "--oracle", "0x105", "--data", "0xzz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRateCommand(t *testing.T) {
	out, err := executeCommand(t, "rate",
		"--at", "150", "--start", "100", "--close", "200",
		"--min-rate", "1000", "--max-rate", "2000",
		"--amount", "10000",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Rate:   1500 bps (15.00%)")
	assert.Contains(t, out, "Reward: 1500 PLAY base units")

	out, err = executeCommand(t, "rate",
		"--at", "250", "--start", "100", "--close", "200",
		"--min-rate", "1000", "--max-rate", "2000",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Rate:   1000 bps (10.00%)")
	assert.NotContains(t, out, "Reward")
}

func TestRateCommand_Errors(t *testing.T) {
	_, err := executeCommand(t, "rate", "--start", "200", "--close", "100")
	assert.Error(t, err)

	_, err = executeCommand(t, "rate", "--start", "100", "--close", "200", "--at", "281474976710656")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	out, err := executeCommand(t, "simulate", "../internal/scenario/testdata/self_oracle_win.toml")
	require.NoError(t, err)

	assert.Contains(t, out, "=== self-oracle win ===")
	assert.Contains(t, out, "rejected=OPTION_LOCKED")
	assert.Contains(t, out, "payout=39600")
	assert.Contains(t, out, "=== Holdings ===")
	assert.Contains(t, out, `Scenario "self-oracle win" passed (13 steps)`)
}

func TestSimulateCommand_Errors(t *testing.T) {
	_, err := executeCommand(t, "simulate", "testdata/missing.toml")
	assert.Error(t, err)

	_, err = executeCommand(t, "simulate")
	assert.Error(t, err)
}

func TestBalanceCommand_StubNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		// every view call answers 6: balance, allowance and decimals alike
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexutil.Encode(common.LeftPadBytes([]byte{6}, 32)),
		})
	}))
	defer srv.Close()

	out, err := executeCommand(t, "balance",
		"--rpc", srv.URL,
		"--token", "0xe20",
		"--owner", "0xa1",
		"--spender", "0x105",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:   0.000006")
	assert.Contains(t, out, "(6 decimals)")
	assert.Contains(t, out, "Allowance: 0.000006 to "+common.HexToAddress("0x105").Hex())
}

func TestBalanceCommand_NoRPC(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	_, err := executeCommand(t, "balance", "--owner", "0xa1", "--token", "0xe20", "--spender", "0x105")
	assert.Error(t, err)
}

func TestFlagAddress(t *testing.T) {
	tests := []struct {
		raw     string
		want    common.Address
		wantErr bool
	}{
		{raw: "0xf0", want: common.HexToAddress("0xf0")},
		{raw: "0x105", want: common.HexToAddress("0x105")},
		{raw: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", want: common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")},
		{raw: "", wantErr: true},
		{raw: "0x", wantErr: true},
		{raw: "f0", wantErr: true},
		{raw: "0xgg", wantErr: true},
		{raw: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa8417400", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := flagAddress("test", tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
