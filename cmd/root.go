package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "parimutuel-house",
	Short: "Escrow-based parimutuel betting house",
	Long: `Escrow-based parimutuel betting house.

Bets pool stakes on options; once an oracle declares the winning option,
backers of that option split the whole pool pro rata. Stakes are escrowed by
the house, a protocol fee is skimmed on every play and players earn PLAY
rewards at a rate that decays as the betting window closes.

The serve command exposes the ledger over HTTP and WebSocket. The simulate
command replays a TOML scenario against a fresh house.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
