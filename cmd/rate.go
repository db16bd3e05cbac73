package cmd

import (
	"fmt"

	"github.com/mselser95/parimutuel-house/internal/fees"
	"github.com/mselser95/parimutuel-house/internal/ratecurve"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Show the PLAY reward rate of a schedule at a time",
	Long: `Evaluates the reward curve: the rate is --max-rate up to --start, falls
linearly towards --min-rate and is --min-rate from --close on. The per-second
slope is rounded down first, so a window longer than the rate spread stays
flat at --min-rate.

With --amount, also prints the PLAY reward a play of that net amount earns.`,
	Args: cobra.NoArgs,
	RunE: runRate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(rateCmd)

	f := rateCmd.Flags()
	f.Uint64("at", 0, "Evaluation time (unix seconds)")
	f.Uint64("start", 0, "Betting opens (unix seconds)")
	f.Uint64("close", 0, "Betting closes (unix seconds)")
	f.Uint64("min-rate", 0, "Floor reward rate (basis points)")
	f.Uint64("max-rate", 0, "Starting reward rate (basis points)")
	f.String("amount", "", "Net stake in base units")
}

func runRate(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	at, _ := f.GetUint64("at")
	start, _ := f.GetUint64("start")
	closeAt, _ := f.GetUint64("close")
	minRate, _ := f.GetUint64("min-rate")
	maxRate, _ := f.GetUint64("max-rate")

	for name, v := range map[string]uint64{"at": at, "start": start, "close": closeAt} {
		if v > types.MaxUint48 {
			return fmt.Errorf("--%s: %d exceeds uint48", name, v)
		}
	}

	if closeAt <= start {
		return fmt.Errorf("--close %d must be after --start %d", closeAt, start)
	}

	rate := ratecurve.Rate(at, start, closeAt, minRate, maxRate)
	percent := decimal.NewFromInt(int64(rate)).Div(decimal.NewFromInt(fees.Base)).Mul(decimal.NewFromInt(100))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rate:   %d bps (%s%%)\n", rate, percent.StringFixed(2))

	raw, _ := f.GetString("amount")
	if raw == "" {
		return nil
	}

	amount, err := flagAmount("amount", raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reward: %s PLAY base units\n", fees.Compute(amount, rate))
	return nil
}
