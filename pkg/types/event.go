package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EventType names a ledger notification.
type EventType string

// Event types emitted by the House.
const (
	EventCreate              EventType = "create"
	EventPlay                EventType = "play"
	EventSetWinOption        EventType = "set-win-option"
	EventCollect             EventType = "collect"
	EventEmergencyWithdraw   EventType = "emergency-withdraw"
	EventMigrate             EventType = "migrate"
	EventRenounceMigrate     EventType = "renounce-migrate"
	EventFeeOwnerTransferred EventType = "fee-owner-transferred"
	EventFeeRateSet          EventType = "fee-rate-set"
	EventFeeExclusionSet     EventType = "fee-exclusion-set"
)

// Event is a committed ledger change. Events are only emitted after the
// operation that produced them has fully succeeded.
type Event struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	BetID        BetID          `json:"bet_id"`
	Actor        common.Address `json:"actor"`
	Counterparty common.Address `json:"counterparty"`
	Amount       *big.Int       `json:"amount,omitempty"`
	Reward       *big.Int       `json:"reward,omitempty"`
	Option       Option         `json:"option"`
	Data         []byte         `json:"data,omitempty"`
	Timestamp    uint64         `json:"timestamp"`
}

// BetView is the JSON representation of a bet served over HTTP.
// Amounts are decimal strings so clients never lose precision.
type BetView struct {
	ID            string `json:"id"`
	Phase         Phase  `json:"phase"`
	Asset         string `json:"asset"`
	Oracle        string `json:"oracle"`
	Creator       string `json:"creator"`
	TotalBalance  string `json:"total_balance"`
	Collected     string `json:"collected"`
	WinOption     string `json:"win_option,omitempty"`
	StartBet      uint64 `json:"start_bet"`
	NoMoreBets    uint64 `json:"no_more_bets"`
	SetWinTime    uint64 `json:"set_win_time"`
	MinRate       uint64 `json:"min_rate"`
	MaxRate       uint64 `json:"max_rate"`
	MinPlayAmount string `json:"min_play_amount"`
	IncreaseRate  uint64 `json:"increase_rate"`
}

// NewBetView renders a bet for the phase observed at the given time.
func NewBetView(b *Bet, now uint64) *BetView {
	view := &BetView{
		ID:            b.ID.Hex(),
		Phase:         b.PhaseAt(now),
		Asset:         b.Asset.Hex(),
		Oracle:        b.Oracle.Hex(),
		Creator:       b.Creator.Hex(),
		TotalBalance:  cloneInt(b.TotalBalance).String(),
		Collected:     cloneInt(b.Collected).String(),
		StartBet:      b.StartBet,
		NoMoreBets:    b.NoMoreBets,
		SetWinTime:    b.SetWinTime,
		MinRate:       b.MinRate,
		MaxRate:       b.MaxRate,
		MinPlayAmount: cloneInt(b.MinPlayAmount).String(),
		IncreaseRate:  b.IncreaseRate,
	}
	if b.Resolved() {
		view.WinOption = b.WinOption.Hex()
	}
	return view
}

// EventView is the JSON representation of an event pushed to clients.
type EventView struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	BetID        string    `json:"bet_id,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	Reward       string    `json:"reward,omitempty"`
	Option       string    `json:"option,omitempty"`
	Data         string    `json:"data,omitempty"`
	Timestamp    uint64    `json:"timestamp"`
}

// NewEventView renders an event, leaving zero-valued identities out.
func NewEventView(e *Event) *EventView {
	view := &EventView{
		ID:        e.ID,
		Type:      e.Type,
		Timestamp: e.Timestamp,
	}
	if e.BetID != (BetID{}) {
		view.BetID = e.BetID.Hex()
	}
	if e.Actor != (common.Address{}) {
		view.Actor = e.Actor.Hex()
	}
	if e.Counterparty != (common.Address{}) {
		view.Counterparty = e.Counterparty.Hex()
	}
	if e.Amount != nil {
		view.Amount = e.Amount.String()
	}
	if e.Reward != nil {
		view.Reward = e.Reward.String()
	}
	if e.Option != (Option{}) {
		view.Option = e.Option.Hex()
	}
	if len(e.Data) > 0 {
		view.Data = hexutil.Encode(e.Data)
	}
	return view
}
