package oracle

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Resolver declares winning options. The House satisfies it.
type Resolver interface {
	SetWinOption(ctx context.Context, caller common.Address, betID types.BetID, option types.Option) error
}

// DataOracle accepts a hook only when the caller-supplied data equals its
// token. It resolves bets by calling back into the venue as itself.
type DataOracle struct {
	address  common.Address
	token    []byte
	mu       sync.RWMutex
	resolver Resolver
	logger   *zap.Logger
}

// DataOracleConfig holds configuration for a DataOracle.
type DataOracleConfig struct {
	Address common.Address
	Token   []byte
	Logger  *zap.Logger
}

// NewDataOracle creates a data-matching oracle.
func NewDataOracle(cfg *DataOracleConfig) (*DataOracle, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Address == (common.Address{}) {
		return nil, types.ErrZeroAddress
	}

	if len(cfg.Token) == 0 {
		return nil, errors.New("token cannot be empty")
	}

	return &DataOracle{
		address: cfg.Address,
		token:   append([]byte(nil), cfg.Token...),
		logger:  cfg.Logger,
	}, nil
}

// Address returns the oracle's address.
func (o *DataOracle) Address() common.Address {
	return o.address
}

// Attach sets the venue the oracle resolves bets on.
func (o *DataOracle) Attach(resolver Resolver) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resolver = resolver
}

// OnCreate accepts when data matches the token.
func (o *DataOracle) OnCreate(_ context.Context, betID types.BetID, data []byte) (bool, error) {
	return o.check("create", betID, data), nil
}

// OnPlay accepts when data matches the token.
func (o *DataOracle) OnPlay(
	_ context.Context,
	betID types.BetID,
	_ common.Address,
	_ *big.Int,
	_ types.Option,
	data []byte,
) (bool, error) {
	return o.check("play", betID, data), nil
}

// OnCollect accepts when data matches the token.
func (o *DataOracle) OnCollect(_ context.Context, betID types.BetID, _ common.Address, data []byte) (bool, error) {
	return o.check("collect", betID, data), nil
}

// Resolve declares option the winner of betID.
func (o *DataOracle) Resolve(ctx context.Context, betID types.BetID, option types.Option) error {
	o.mu.RLock()
	resolver := o.resolver
	o.mu.RUnlock()

	if resolver == nil {
		return errors.New("oracle not attached to a venue")
	}

	return resolver.SetWinOption(ctx, o.address, betID, option)
}

func (o *DataOracle) check(hook string, betID types.BetID, data []byte) bool {
	ok := bytes.Equal(data, o.token)
	if !ok {
		o.logger.Debug("oracle-hook-rejected",
			zap.String("hook", hook),
			zap.String("bet-id", betID.Hex()))
	}
	return ok
}
