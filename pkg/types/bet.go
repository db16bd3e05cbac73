package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// MaxUint48 bounds every time and rate field; they are hashed as uint48.
const MaxUint48 = 1<<48 - 1

// BetID is the Keccak-256 digest that identifies a bet.
type BetID = common.Hash

// Option is a 32-byte outcome tag. The zero tag is never a valid option.
type Option = common.Hash

// OptionFromString right-aligns the bytes of s into an option tag, so "A"
// becomes 0x00..0041. Strings longer than 32 bytes keep their last 32 bytes.
func OptionFromString(s string) Option {
	return common.BytesToHash([]byte(s))
}

// ParseOption accepts either a 0x-prefixed 32-byte hex tag or a short text label.
func ParseOption(s string) (Option, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		raw := common.FromHex(s)
		if len(raw) != common.HashLength {
			return Option{}, fmt.Errorf("option %q must be %d bytes", s, common.HashLength)
		}
		return common.BytesToHash(raw), nil
	}
	if len(s) > common.HashLength {
		return Option{}, fmt.Errorf("option label %q longer than %d bytes", s, common.HashLength)
	}
	return OptionFromString(s), nil
}

// ValidateAmount rejects nil, negative and above-uint256 values.
func ValidateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 || amount.Cmp(math.MaxBig256) > 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ToFloat converts an amount for metrics. Precision loss is accepted.
func ToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// Phase is the lifecycle stage of a bet, derived from its record and a clock reading.
type Phase string

const (
	PhaseMissing   Phase = "missing"
	PhaseCreated   Phase = "created"
	PhaseActive    Phase = "active"
	PhaseClosed    Phase = "closed"
	PhaseResolved  Phase = "resolved"
	PhaseEmergency Phase = "emergency"
)

// Bet is the stored record of a pooled-option wager.
// TotalBalance and the option pools are frozen once betting closes;
// Collected tracks what has been paid back out.
type Bet struct {
	ID            BetID
	Asset         common.Address
	Oracle        common.Address
	Creator       common.Address
	TotalBalance  *big.Int
	Collected     *big.Int
	WinOption     Option
	StartBet      uint64 // decay start; betting opens
	NoMoreBets    uint64 // close time
	SetWinTime    uint64 // resolution deadline
	MinRate       uint64
	MaxRate       uint64
	MinPlayAmount *big.Int
	IncreaseRate  uint64
	Data          []byte
}

// Exists reports whether the record was ever created.
func (b *Bet) Exists() bool {
	return b != nil && b.Asset != (common.Address{})
}

// Resolved reports whether a winning option has been set.
func (b *Bet) Resolved() bool {
	return b != nil && b.WinOption != (Option{})
}

// PhaseAt derives the lifecycle phase at the given unix time.
func (b *Bet) PhaseAt(now uint64) Phase {
	switch {
	case !b.Exists():
		return PhaseMissing
	case b.Resolved():
		return PhaseResolved
	case now >= b.SetWinTime:
		return PhaseEmergency
	case now >= b.NoMoreBets:
		return PhaseClosed
	case now >= b.StartBet:
		return PhaseActive
	default:
		return PhaseCreated
	}
}

// Clone returns a deep copy safe to hand out of the ledger.
func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	c := *b
	c.TotalBalance = cloneInt(b.TotalBalance)
	c.Collected = cloneInt(b.Collected)
	c.MinPlayAmount = cloneInt(b.MinPlayAmount)
	if b.Data != nil {
		c.Data = append([]byte(nil), b.Data...)
	}
	return &c
}

// Position is a bettor's stake in one bet.
type Position struct {
	Balance *big.Int
	Option  Option
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
