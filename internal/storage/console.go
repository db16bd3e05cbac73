package storage

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	decimals int32
	logger   *zap.Logger
}

// NewConsoleStorage creates a new console storage. Amounts are printed with
// the given number of decimals.
func NewConsoleStorage(logger *zap.Logger, decimals int32) *ConsoleStorage {
	logger.Info("console-storage-initialized", zap.Int32("decimals", decimals))
	return &ConsoleStorage{
		decimals: decimals,
		logger:   logger,
	}
}

// StoreEvent pretty-prints a House event to console.
func (c *ConsoleStorage) StoreEvent(ctx context.Context, event *types.Event) error {
	fmt.Println("\n" + separator)
	fmt.Printf("🎲 %s\n", headline(event.Type))
	fmt.Println(separator)
	fmt.Printf("ID:      %s\n", shortID(event.ID))
	fmt.Printf("Time:    %d\n", event.Timestamp)
	if event.BetID != (types.BetID{}) {
		fmt.Printf("Bet:     %s\n", event.BetID.Hex())
	}
	if event.Actor != (common.Address{}) {
		fmt.Printf("Actor:   %s\n", event.Actor.Hex())
	}
	if event.Counterparty != (common.Address{}) {
		fmt.Printf("Target:  %s\n", event.Counterparty.Hex())
	}
	if event.Option != (types.Option{}) {
		fmt.Printf("Option:  %s\n", event.Option.Hex())
	}
	if event.Amount != nil {
		fmt.Printf("Amount:  %s\n", c.FormatAmount(event.Amount))
	}
	if event.Reward != nil && event.Reward.Sign() > 0 {
		fmt.Printf("Reward:  %s PLAY\n", FormatUnits(event.Reward, 18))
	}
	fmt.Println(separator)

	EventsStoredTotal.WithLabelValues("console", "ok").Inc()
	return nil
}

// FormatAmount renders a base-unit amount with the configured decimals.
func (c *ConsoleStorage) FormatAmount(amount *big.Int) string {
	return FormatUnits(amount, c.decimals)
}

// FormatUnits renders a base-unit amount as a decimal string.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func headline(t types.EventType) string {
	switch t {
	case types.EventCreate:
		return "BET CREATED"
	case types.EventPlay:
		return "STAKE PLACED"
	case types.EventSetWinOption:
		return "WINNER DECLARED"
	case types.EventCollect:
		return "PAYOUT COLLECTED"
	case types.EventEmergencyWithdraw:
		return "EMERGENCY WITHDRAWAL"
	case types.EventMigrate:
		return "HOUSE MIGRATED"
	default:
		return string(t)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
