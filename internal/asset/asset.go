// Package asset defines the wagering-asset capability the House moves funds
// through, plus an in-memory implementation and an address registry.
package asset

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// Token is a fungible asset. Implementations either move the full amount or
// return an error; they never under-transfer silently.
type Token interface {
	// Address identifies the asset.
	Address() common.Address

	// TransferFrom moves amount from -> to, spending spender's allowance.
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *big.Int) error

	// Transfer moves amount from -> to on behalf of from.
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error

	// BalanceOf returns the holder's balance.
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)
}

// Registry resolves asset addresses to Token capabilities.
type Registry struct {
	mu     sync.RWMutex
	tokens map[common.Address]Token
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tokens: make(map[common.Address]Token),
	}
}

// Register adds or replaces a token.
func (r *Registry) Register(token Token) error {
	if token == nil {
		return fmt.Errorf("register nil token")
	}

	addr := token.Address()
	if addr == (common.Address{}) {
		return fmt.Errorf("register token: %w", types.ErrZeroAddress)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[addr] = token
	return nil
}

// Lookup returns the token registered at addr.
func (r *Registry) Lookup(addr common.Address) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[addr]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", addr.Hex(), types.ErrUnknownAsset)
	}
	return token, nil
}

// Addresses returns every registered asset address in ascending order.
func (r *Registry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addrs := make([]common.Address, 0, len(r.tokens))
	for addr := range r.tokens {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	return addrs
}
