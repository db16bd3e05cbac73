// Package scenario replays scripted House sessions described in TOML.
//
// A scenario sets up a House on a manual clock, funds accounts with
// in-memory assets, registers data-matching oracles and then runs steps in
// order. Each step can move the clock and assert the outcome, so a scenario
// doubles as an executable test case.
package scenario

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// Defaults for a scenario that leaves the house table out.
const (
	DefaultHouseAddress = "0x0000000000000000000000000000000000000105"
	DefaultFeeOwner     = "0x00000000000000000000000000000000000000f0"
)

// Scenario is a decoded scenario file.
type Scenario struct {
	Name     string        `toml:"name"`
	Start    uint64        `toml:"start"` // initial clock reading
	House    HouseSpec     `toml:"house"`
	Assets   []AssetSpec   `toml:"assets"`
	Accounts []AccountSpec `toml:"accounts"`
	Oracles  []OracleSpec  `toml:"oracles"`
	Steps    []Step        `toml:"steps"`
}

// HouseSpec configures the venue.
type HouseSpec struct {
	Address     string `toml:"address"`
	FeeOwner    string `toml:"fee_owner"`
	FeeRate     uint64 `toml:"fee_rate"`
	Scheme      string `toml:"scheme"`
	RewardDraws bool   `toml:"reward_draws"`
}

// AssetSpec declares an in-memory wagering asset.
type AssetSpec struct {
	Address  string `toml:"address"`
	Symbol   string `toml:"symbol"`
	Decimals uint8  `toml:"decimals"`
}

// AccountSpec funds an account with an asset.
type AccountSpec struct {
	Address      string `toml:"address"`
	Asset        string `toml:"asset"`
	Balance      string `toml:"balance"`
	ApproveHouse bool   `toml:"approve_house"` // unlimited allowance to the venue
}

// OracleSpec registers an oracle that accepts hooks whose data equals Token.
type OracleSpec struct {
	Address string `toml:"address"`
	Token   string `toml:"token"`
}

// Step is one scripted action. Which fields apply depends on Op.
type Step struct {
	Op      string `toml:"op"`
	At      uint64 `toml:"at"`      // move the clock here first
	Advance uint64 `toml:"advance"` // then forward by this many seconds
	Caller  string `toml:"caller"`

	// create
	Name          string `toml:"name"` // label later steps use in bet
	Asset         string `toml:"asset"`
	Oracle        string `toml:"oracle"`
	StartIn       uint64 `toml:"start_in"` // schedule, relative to the step time
	CloseIn       uint64 `toml:"close_in"`
	DeadlineIn    uint64 `toml:"deadline_in"`
	MinRate       uint64 `toml:"min_rate"`
	MaxRate       uint64 `toml:"max_rate"`
	MinPlayAmount string `toml:"min_play_amount"`
	IncreaseRate  uint64 `toml:"increase_rate"`
	Salt          string `toml:"salt"`

	// play, set-win-option, collect
	Bet    string `toml:"bet"` // a create label or a 0x bet id
	Amount string `toml:"amount"`
	Option string `toml:"option"`
	Data   string `toml:"data"` // text, or 0x-prefixed hex

	// admin and migration
	Rate     uint64 `toml:"rate"`
	Key      string `toml:"key"`
	Excluded bool   `toml:"excluded"`
	To       string `toml:"to"`

	// expectations
	ExpectError  string `toml:"expect_error"` // error code, e.g. LOW_AMOUNT
	ExpectNet    string `toml:"expect_net"`
	ExpectFee    string `toml:"expect_fee"`
	ExpectPayout string `toml:"expect_payout"`
	ExpectReward string `toml:"expect_reward"`
	ExpectPhase  string `toml:"expect_phase"`
}

// Load reads a scenario file. Unknown keys are rejected so typos surface.
func Load(path string) (*Scenario, error) {
	var sc Scenario
	md, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	err = checkUndecoded(md)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &sc, nil
}

// Parse decodes a scenario document.
func Parse(doc string) (*Scenario, error) {
	var sc Scenario
	md, err := toml.Decode(doc, &sc)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	err = checkUndecoded(md)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	return &sc, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return fmt.Errorf("unknown keys %v", keys)
}
