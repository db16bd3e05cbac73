package house

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// Scheme selects the tuple hashed into a bet identifier.
type Scheme string

const (
	// SchemeEscalating hashes the minimum play amount and its escalation rate.
	SchemeEscalating Scheme = "escalating"

	// SchemeSalted hashes a caller-chosen salt instead, with asset and oracle
	// swapped, for compatibility with identifiers issued by salted venues.
	SchemeSalted Scheme = "salted"
)

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeEscalating, SchemeSalted:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("unknown bet id scheme %q", s)
	}
}

// ComputeBetID derives the identifier of a bet created by creator on venue.
// Fields use Solidity packed encoding: addresses as 20 bytes, uint256 as 32
// bytes, uint48 as 6 bytes and data as raw bytes.
//
//	escalating: venue, creator, oracle, asset, minPlayAmount, increaseRate,
//	            startBet, noMoreBets, setWinTime, minRate, maxRate, data
//	salted:     venue, creator, asset, oracle,
//	            startBet, noMoreBets, setWinTime, minRate, maxRate, salt, data
func ComputeBetID(scheme Scheme, venue, creator common.Address, p *CreateParams) types.BetID {
	schedule := packUint48s(p.StartBet, p.NoMoreBets, p.SetWinTime, p.MinRate, p.MaxRate)

	if scheme == SchemeSalted {
		return crypto.Keccak256Hash(
			venue.Bytes(),
			creator.Bytes(),
			p.Asset.Bytes(),
			p.Oracle.Bytes(),
			schedule,
			packUint256(p.Salt),
			p.Data,
		)
	}

	return crypto.Keccak256Hash(
		venue.Bytes(),
		creator.Bytes(),
		p.Oracle.Bytes(),
		p.Asset.Bytes(),
		packUint256(p.MinPlayAmount),
		packUint48s(p.IncreaseRate),
		schedule,
		p.Data,
	)
}

func packUint256(v *big.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return math.U256Bytes(new(big.Int).Set(v))
}

func packUint48s(values ...uint64) []byte {
	out := make([]byte, 0, 6*len(values))
	var buf [8]byte
	for _, v := range values {
		binary.BigEndian.PutUint64(buf[:], v)
		out = append(out, buf[2:]...)
	}
	return out
}
