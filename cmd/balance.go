package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mselser95/parimutuel-house/internal/storage"
	"github.com/mselser95/parimutuel-house/pkg/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check an ERC20 balance and the allowance granted to the house",
	Long: `Reads a wallet's wagering-asset balance and the allowance it granted the
house over JSON-RPC. A play pulls the full stake with transferFrom, so the
allowance must cover it.

The RPC endpoint defaults to ETH_RPC_URL and the spender to HOUSE_ADDRESS.`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)

	f := balanceCmd.Flags()
	f.StringP("rpc", "r", "", "JSON-RPC endpoint (default $ETH_RPC_URL)")
	f.StringP("token", "t", "", "ERC20 token address (default $ASSET_ADDRESS)")
	f.StringP("owner", "o", "", "Wallet address")
	f.StringP("spender", "s", "", "Spender address (default $HOUSE_ADDRESS)")

	_ = balanceCmd.MarkFlagRequired("owner")
}

func runBalance(cmd *cobra.Command, _ []string) error {
	// a missing .env is fine
	_ = godotenv.Load()

	f := cmd.Flags()
	rpcURL := flagOrEnv(cmd, "rpc", "ETH_RPC_URL")
	if rpcURL == "" {
		return fmt.Errorf("no RPC endpoint: set --rpc or ETH_RPC_URL")
	}

	token, err := flagAddress("token", flagOrEnv(cmd, "token", "ASSET_ADDRESS"))
	if err != nil {
		return err
	}

	rawOwner, _ := f.GetString("owner")
	owner, err := flagAddress("owner", rawOwner)
	if err != nil {
		return err
	}

	spender, err := flagAddress("spender", flagOrEnv(cmd, "spender", "HOUSE_ADDRESS"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client, err := wallet.Dial(ctx, rpcURL, zap.NewNop())
	if err != nil {
		return fmt.Errorf("connect to %s: %w", rpcURL, err)
	}
	defer client.Close()

	balances, err := client.GetBalances(ctx, token, owner, spender)
	if err != nil {
		return err
	}

	decimals := int32(balances.Decimals)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Wallet Balance ===\n\n")
	fmt.Fprintf(out, "Owner:     %s\n", balances.Owner.Hex())
	fmt.Fprintf(out, "Token:     %s (%d decimals)\n", balances.Token.Hex(), balances.Decimals)
	fmt.Fprintf(out, "Balance:   %s\n", storage.FormatUnits(balances.Balance, decimals))
	fmt.Fprintf(out, "Allowance: %s to %s\n", storage.FormatUnits(balances.Allowance, decimals), balances.Spender.Hex())

	if balances.Allowance.Cmp(balances.Balance) < 0 {
		fmt.Fprintf(out, "\nAllowance is below balance: plays above %s will be rejected\n",
			storage.FormatUnits(balances.Allowance, decimals))
	}

	return nil
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	v, _ := cmd.Flags().GetString(flag)
	if v != "" {
		return v
	}
	return os.Getenv(env)
}
