// Package oracle connects bets to the party that vets their operations and
// declares the winning option.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// Gateway receives the hook calls an external oracle can veto.
// Returning (false, nil) is a rejection; an error is a transport failure.
type Gateway interface {
	OnCreate(ctx context.Context, betID types.BetID, data []byte) (bool, error)
	OnPlay(ctx context.Context, betID types.BetID, bettor common.Address, amount *big.Int, option types.Option, data []byte) (bool, error)
	OnCollect(ctx context.Context, betID types.BetID, bettor common.Address, data []byte) (bool, error)
}

// Kind tells how a bet's oracle is reached.
type Kind int

const (
	// KindSelf is the venue acting as its own oracle.
	KindSelf Kind = iota + 1
	// KindAccount is a plain account with no hook endpoint. It resolves bets
	// by calling the venue directly and never vetoes.
	KindAccount
	// KindExternal is an oracle reached through a Gateway.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindSelf:
		return "self"
	case KindAccount:
		return "account"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Binding is the oracle a bet is attached to, resolved once per call.
// Only external bindings call out; the others accept every hook.
type Binding struct {
	Kind    Kind
	Address common.Address
	Gateway Gateway
}

// Create runs the create hook.
func (b Binding) Create(ctx context.Context, betID types.BetID, data []byte) (bool, error) {
	if b.Kind != KindExternal {
		return true, nil
	}
	if b.Gateway == nil {
		return false, nil
	}
	return b.Gateway.OnCreate(ctx, betID, data)
}

// Play runs the play hook.
func (b Binding) Play(
	ctx context.Context,
	betID types.BetID,
	bettor common.Address,
	amount *big.Int,
	option types.Option,
	data []byte,
) (bool, error) {
	if b.Kind != KindExternal {
		return true, nil
	}
	if b.Gateway == nil {
		return false, nil
	}
	return b.Gateway.OnPlay(ctx, betID, bettor, amount, option, data)
}

// Collect runs the collect hook.
func (b Binding) Collect(ctx context.Context, betID types.BetID, bettor common.Address, data []byte) (bool, error) {
	if b.Kind != KindExternal {
		return true, nil
	}
	if b.Gateway == nil {
		return false, nil
	}
	return b.Gateway.OnCollect(ctx, betID, bettor, data)
}

// Directory maps oracle addresses to gateways. Addresses with no gateway
// bind as plain accounts.
type Directory struct {
	venue    common.Address
	mu       sync.RWMutex
	gateways map[common.Address]Gateway
}

// NewDirectory creates a directory for the venue at the given address.
func NewDirectory(venue common.Address) *Directory {
	return &Directory{
		venue:    venue,
		gateways: make(map[common.Address]Gateway),
	}
}

// Register attaches a gateway to an oracle address.
func (d *Directory) Register(addr common.Address, gw Gateway) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("register oracle: %w", types.ErrZeroAddress)
	}

	if addr == d.venue {
		return errors.New("venue address is reserved for the self oracle")
	}

	if gw == nil {
		return errors.New("gateway cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.gateways[addr] = gw
	return nil
}

// Bind resolves addr to a binding.
func (d *Directory) Bind(addr common.Address) Binding {
	if addr == d.venue {
		return Binding{Kind: KindSelf, Address: addr}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	gw, ok := d.gateways[addr]
	if !ok {
		return Binding{Kind: KindAccount, Address: addr}
	}
	return Binding{Kind: KindExternal, Address: addr, Gateway: gw}
}
