package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestNewEventView(t *testing.T) {
	e := &Event{
		ID:        "id-1",
		Type:      EventPlay,
		BetID:     common.HexToHash("0xbe7"),
		Actor:     common.HexToAddress("0xa1"),
		Amount:    big.NewInt(990),
		Reward:    big.NewInt(0),
		Option:    OptionFromString("A"),
		Data:      []byte{0xca, 0xfe},
		Timestamp: 7,
	}

	view := NewEventView(e)
	assert.Equal(t, "id-1", view.ID)
	assert.Equal(t, EventPlay, view.Type)
	assert.Equal(t, e.BetID.Hex(), view.BetID)
	assert.Equal(t, e.Actor.Hex(), view.Actor)
	assert.Empty(t, view.Counterparty)
	assert.Equal(t, "990", view.Amount)
	assert.Equal(t, "0", view.Reward)
	assert.Equal(t, e.Option.Hex(), view.Option)
	assert.Equal(t, "0xcafe", view.Data)
	assert.Equal(t, uint64(7), view.Timestamp)
}

func TestNewEventView_GlobalEvent(t *testing.T) {
	view := NewEventView(&Event{Type: EventMigrate, Counterparty: common.HexToAddress("0x200")})
	assert.Empty(t, view.BetID)
	assert.Empty(t, view.Actor)
	assert.Empty(t, view.Amount)
	assert.Empty(t, view.Option)
	assert.Equal(t, common.HexToAddress("0x200").Hex(), view.Counterparty)
}

func TestNewBetView(t *testing.T) {
	b := &Bet{
		ID:           common.HexToHash("0x01"),
		Asset:        common.HexToAddress("0xe20"),
		TotalBalance: big.NewInt(500),
		StartBet:     10,
		NoMoreBets:   20,
		SetWinTime:   30,
	}

	view := NewBetView(b, 15)
	assert.Equal(t, PhaseActive, view.Phase)
	assert.Equal(t, "500", view.TotalBalance)
	assert.Equal(t, "0", view.Collected)
	assert.Equal(t, "0", view.MinPlayAmount)
	assert.Empty(t, view.WinOption)

	b.WinOption = OptionFromString("A")
	view = NewBetView(b, 25)
	assert.Equal(t, PhaseResolved, view.Phase)
	assert.Equal(t, b.WinOption.Hex(), view.WinOption)
}
