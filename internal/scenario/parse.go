package scenario

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mselser95/parimutuel-house/pkg/types"
)

// parseAddress accepts short forms such as 0xa1, right-aligned like
// common.HexToAddress.
func parseAddress(field string, s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, fmt.Errorf("%s: %q is not 0x-prefixed", field, s)
	}

	digits := s[2:]
	if len(digits) == 0 || len(digits) > 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%s: %q has bad length", field, s)
	}

	for _, c := range digits {
		if !isHexDigit(c) {
			return common.Address{}, fmt.Errorf("%s: %q is not hex", field, s)
		}
	}

	return common.HexToAddress(s), nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// parseAmount reads a base-unit integer. Empty means zero.
func parseAmount(field string, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}

	v, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 0)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not an integer", field, s)
	}
	return v, nil
}

// parseOptionalAmount is parseAmount that keeps nil for empty.
func parseOptionalAmount(field string, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return parseAmount(field, s)
}

// parseData treats 0x-prefixed values as hex and anything else as text.
func parseData(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		return b, nil
	}
	return []byte(s), nil
}

func parseOption(s string) (types.Option, error) {
	if s == "" {
		return types.Option{}, nil
	}
	return types.ParseOption(s)
}
