package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var betIDCmd = &cobra.Command{
	Use:   "bet-id",
	Short: "Compute the identifier a create call would produce",
	Long: `Derives a bet identifier offline, exactly as the house does when the
bet is created. The escalating scheme hashes the minimum play amount and its
increase rate; the salted scheme hashes --salt instead.

Example:
  parimutuel-house bet-id --creator 0xf0 --asset 0xe20 --oracle 0x105 \
    --start 1000100 --close 1000200 --deadline 1000300`,
	Args: cobra.NoArgs,
	RunE: runBetID,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(betIDCmd)

	f := betIDCmd.Flags()
	f.String("scheme", string(house.SchemeEscalating), "Identifier scheme: escalating or salted")
	f.String("house", "0x0000000000000000000000000000000000000105", "House address")
	f.String("creator", "", "Creator address")
	f.String("asset", "", "Wagering asset address")
	f.String("oracle", "", "Oracle address")
	f.Uint64("start", 0, "Betting opens (unix seconds)")
	f.Uint64("close", 0, "Betting closes (unix seconds)")
	f.Uint64("deadline", 0, "Resolution deadline (unix seconds)")
	f.Uint64("min-rate", 0, "Floor reward rate (basis points)")
	f.Uint64("max-rate", 0, "Starting reward rate (basis points)")
	f.String("min-play", "0", "Minimum play amount (base units)")
	f.Uint64("increase-rate", 0, "Minimum play escalation (basis points)")
	f.String("salt", "0", "Salt (salted scheme only)")
	f.String("data", "", "Oracle data, 0x-prefixed hex or plain text")

	_ = betIDCmd.MarkFlagRequired("creator")
	_ = betIDCmd.MarkFlagRequired("asset")
	_ = betIDCmd.MarkFlagRequired("oracle")
}

func runBetID(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()

	schemeName, _ := f.GetString("scheme")
	scheme, err := house.ParseScheme(schemeName)
	if err != nil {
		return err
	}

	addrs := make(map[string]common.Address, 4)
	for _, name := range []string{"house", "creator", "asset", "oracle"} {
		raw, _ := f.GetString(name)
		addrs[name], err = flagAddress(name, raw)
		if err != nil {
			return err
		}
	}

	params := &house.CreateParams{
		Asset:  addrs["asset"],
		Oracle: addrs["oracle"],
	}
	params.StartBet, _ = f.GetUint64("start")
	params.NoMoreBets, _ = f.GetUint64("close")
	params.SetWinTime, _ = f.GetUint64("deadline")
	params.MinRate, _ = f.GetUint64("min-rate")
	params.MaxRate, _ = f.GetUint64("max-rate")
	params.IncreaseRate, _ = f.GetUint64("increase-rate")

	raw, _ := f.GetString("min-play")
	params.MinPlayAmount, err = flagAmount("min-play", raw)
	if err != nil {
		return err
	}

	raw, _ = f.GetString("salt")
	params.Salt, err = flagAmount("salt", raw)
	if err != nil {
		return err
	}

	raw, _ = f.GetString("data")
	params.Data, err = flagData(raw)
	if err != nil {
		return err
	}

	id := house.ComputeBetID(scheme, addrs["house"], addrs["creator"], params)
	fmt.Fprintln(cmd.OutOrStdout(), id.Hex())
	return nil
}

// flagAddress accepts full and short 0x forms such as 0xf0.
func flagAddress(name, raw string) (common.Address, error) {
	digits := strings.TrimPrefix(raw, "0x")
	if digits == raw || digits == "" || len(digits) > 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, raw)
	}

	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hexutil.Decode("0x" + digits)
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, raw)
	}
	return common.BytesToAddress(b), nil
}

func flagAmount(name, raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.ReplaceAll(raw, "_", ""), 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("--%s: invalid amount %q", name, raw)
	}
	return v, nil
}

func flagData(raw string) ([]byte, error) {
	if strings.HasPrefix(raw, "0x") {
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("--data: %w", err)
		}
		return b, nil
	}
	return []byte(raw), nil
}
