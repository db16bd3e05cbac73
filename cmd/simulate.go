package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/internal/playtoken"
	"github.com/mselser95/parimutuel-house/internal/scenario"
	"github.com/mselser95/parimutuel-house/internal/storage"
	"github.com/mselser95/parimutuel-house/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.toml>",
	Short: "Replay a betting scenario against a fresh house",
	Long: `Builds a house, assets, oracles and funded accounts from a TOML
scenario and runs its steps in order on a manual clock. Steps may assert
amounts, phases, balances and error codes; the first failed assertion stops
the run.

Prints one line per step and the final holdings of every account.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().BoolP("events", "e", false, "Print every committed event")
	simulateCmd.Flags().Int32P("decimals", "d", 6, "Decimals used to print event amounts")
	simulateCmd.Flags().String("log-level", "warn", "Log level")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := config.NewLogger(logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var publisher house.Publisher
	showEvents, _ := cmd.Flags().GetBool("events")
	if showEvents {
		decimals, _ := cmd.Flags().GetInt32("decimals")
		publisher = storage.NewEventSink(storage.NewConsoleStorage(logger, decimals), logger)
	}

	runner, err := scenario.NewRunner(sc, publisher, logger)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	report, runErr := runner.Run(context.Background())
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}
	if runErr != nil {
		if errors.Is(runErr, scenario.ErrExpectation) {
			return fmt.Errorf("scenario %q failed: %w", sc.Name, runErr)
		}
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nScenario %q passed (%d steps)\n", report.Name, len(report.Steps))
	return nil
}

func printReport(w io.Writer, report *scenario.Report) {
	fmt.Fprintf(w, "=== %s ===\n\n", report.Name)

	for _, step := range report.Steps {
		fmt.Fprintf(w, "%3d  t=%-12d %-24s", step.Index, step.At, step.Op)
		if step.BetID != "" {
			fmt.Fprintf(w, " bet=%s", shortHex(step.BetID))
		}
		if step.Code != "" {
			fmt.Fprintf(w, " rejected=%s", step.Code)
		}
		printAmount(w, "net", step.Net)
		printAmount(w, "fee", step.Fee)
		printAmount(w, "payout", step.Payout)
		printAmount(w, "reward", step.Reward)
		fmt.Fprintln(w)
	}

	if len(report.Holdings) == 0 {
		return
	}

	fmt.Fprintf(w, "\n=== Holdings ===\n\n")
	for _, h := range report.Holdings {
		if h.Balance == nil || h.Balance.Sign() == 0 {
			continue
		}
		amount := h.Balance.String()
		if h.Symbol == playtoken.Symbol {
			amount = storage.FormatUnits(h.Balance, playtoken.Decimals) + " (" + amount + ")"
		}
		fmt.Fprintf(w, "%s  %-6s %s\n", h.Holder.Hex(), h.Symbol, amount)
	}
}

func printAmount(w io.Writer, label string, v *big.Int) {
	if v == nil {
		return
	}
	fmt.Fprintf(w, " %s=%s", label, v.String())
}

func shortHex(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:10] + ".." + s[len(s)-4:]
}
