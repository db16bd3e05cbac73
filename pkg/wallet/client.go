// Package wallet reads ERC20 state from an Ethereum JSON-RPC endpoint.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

// Client reads ERC20 balances and allowances.
type Client struct {
	caller ethereum.ContractCaller
	abi    abi.ABI
	closer func()
	logger *zap.Logger
}

// Balances holds one owner's standing with a token.
type Balances struct {
	Token     common.Address
	Owner     common.Address
	Spender   common.Address
	Balance   *big.Int
	Allowance *big.Int // granted by Owner to Spender
	Decimals  uint8
}

// Dial connects to rpcURL and returns a client over it.
func Dial(ctx context.Context, rpcURL string, logger *zap.Logger) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpcURL cannot be empty")
	}

	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	client, err := NewClient(rpc, logger)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	client.closer = rpc.Close

	return client, nil
}

// NewClient wraps an existing contract caller.
func NewClient(caller ethereum.ContractCaller, logger *zap.Logger) (*Client, error) {
	if caller == nil {
		return nil, errors.New("caller cannot be nil")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	return &Client{
		caller: caller,
		abi:    parsed,
		logger: logger,
	}, nil
}

// Close releases the RPC connection, if the client owns one.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// BalanceOf returns the token balance of owner.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Allowance returns how much spender may pull from owner.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := c.call(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Decimals returns the token's display precision.
func (c *Client) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}

	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
	}
	return decimals, nil
}

// GetBalances reads balance, allowance towards spender and decimals in one go.
func (c *Client) GetBalances(ctx context.Context, token, owner, spender common.Address) (*Balances, error) {
	balance, err := c.BalanceOf(ctx, token, owner)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	allowance, err := c.Allowance(ctx, token, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("get allowance: %w", err)
	}

	decimals, err := c.Decimals(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get decimals: %w", err)
	}

	c.logger.Debug("wallet-balances-fetched",
		zap.String("token", token.Hex()),
		zap.String("owner", owner.Hex()),
		zap.String("balance", balance.String()),
		zap.String("allowance", allowance.String()))

	return &Balances{
		Token:     token,
		Owner:     owner,
		Spender:   spender,
		Balance:   balance,
		Allowance: allowance,
		Decimals:  decimals,
	}, nil
}

func (c *Client) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	start := time.Now()
	defer func() {
		RPCCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		RPCCallsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := c.abi.Unpack(method, result)
	if err != nil {
		RPCCallsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}

	RPCCallsTotal.WithLabelValues(method, "ok").Inc()
	return out, nil
}
