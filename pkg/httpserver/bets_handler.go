package httpserver

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/mselser95/parimutuel-house/pkg/cache"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Ledger is the read side of the House served over HTTP.
type Ledger interface {
	Address() common.Address
	Now() uint64
	BetView(id types.BetID) *types.BetView
	BetIDs() []types.BetID
	BalanceOf(id types.BetID, bettor common.Address) *big.Int
	OptionOf(id types.BetID, bettor common.Address) types.Option
	OptionBalance(id types.BetID, option types.Option) *big.Int
	PlayRate(id types.BetID, at uint64) uint64
	FeeOwner() (common.Address, bool)
	FeeRate() uint64
	MintingEnabled() bool
	CanMigrate() bool
}

// BetsHandler handles HTTP requests for bet state.
type BetsHandler struct {
	ledger   Ledger
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewBetsHandler creates a new bets handler. viewCache may be nil.
func NewBetsHandler(ledger Ledger, viewCache cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *BetsHandler {
	return &BetsHandler{
		ledger:   ledger,
		cache:    viewCache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// HouseResponse summarizes venue-wide state.
type HouseResponse struct {
	Address        string `json:"address"`
	FeeOwner       string `json:"fee_owner,omitempty"`
	FeeRate        uint64 `json:"fee_rate"`
	MintingEnabled bool   `json:"minting_enabled"`
	CanMigrate     bool   `json:"can_migrate"`
	Now            uint64 `json:"now"`
	BetCount       int    `json:"bet_count"`
}

// BetListResponse lists bet identifiers.
type BetListResponse struct {
	Bets []string `json:"bets"`
}

// PositionResponse is one bettor's stake in a bet.
type PositionResponse struct {
	BetID   string `json:"bet_id"`
	Bettor  string `json:"bettor"`
	Option  string `json:"option,omitempty"`
	Balance string `json:"balance"`
}

// PoolResponse is the net stake on one option.
type PoolResponse struct {
	BetID   string `json:"bet_id"`
	Option  string `json:"option"`
	Balance string `json:"balance"`
}

// RateResponse is the PLAY reward rate of a bet at a time.
type RateResponse struct {
	BetID string `json:"bet_id"`
	At    uint64 `json:"at"`
	Rate  uint64 `json:"rate"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleHouse handles GET /api/house.
func (h *BetsHandler) HandleHouse(w http.ResponseWriter, r *http.Request) {
	resp := HouseResponse{
		Address:        h.ledger.Address().Hex(),
		FeeRate:        h.ledger.FeeRate(),
		MintingEnabled: h.ledger.MintingEnabled(),
		CanMigrate:     h.ledger.CanMigrate(),
		Now:            h.ledger.Now(),
		BetCount:       len(h.ledger.BetIDs()),
	}
	if owner, ok := h.ledger.FeeOwner(); ok {
		resp.FeeOwner = owner.Hex()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /api/bets.
func (h *BetsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ids := h.ledger.BetIDs()
	resp := BetListResponse{Bets: make([]string, 0, len(ids))}
	for _, id := range ids {
		resp.Bets = append(resp.Bets, id.Hex())
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleBet handles GET /api/bets/{betID}.
func (h *BetsHandler) HandleBet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.betID(w, r)
	if !ok {
		return
	}

	if h.cache != nil {
		if view, found := h.cache.Get(id); found {
			h.writeJSON(w, http.StatusOK, view)
			return
		}
	}

	view := h.ledger.BetView(id)
	if view == nil {
		h.writeError(w, "bet not found", http.StatusNotFound)
		return
	}

	if h.cache != nil {
		h.cache.Set(id, view, h.cacheTTL)
	}

	h.writeJSON(w, http.StatusOK, view)
}

// HandlePosition handles GET /api/bets/{betID}/positions/{address}.
func (h *BetsHandler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.betID(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		h.writeError(w, "invalid address", http.StatusBadRequest)
		return
	}
	bettor := common.HexToAddress(raw)

	resp := PositionResponse{
		BetID:   id.Hex(),
		Bettor:  bettor.Hex(),
		Balance: h.ledger.BalanceOf(id, bettor).String(),
	}
	if option := h.ledger.OptionOf(id, bettor); option != (types.Option{}) {
		resp.Option = option.Hex()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandlePool handles GET /api/bets/{betID}/options/{option}. The option is a
// 32-byte hex tag or a short text label.
func (h *BetsHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	id, ok := h.betID(w, r)
	if !ok {
		return
	}

	option, err := types.ParseOption(chi.URLParam(r, "option"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, PoolResponse{
		BetID:   id.Hex(),
		Option:  option.Hex(),
		Balance: h.ledger.OptionBalance(id, option).String(),
	})
}

// HandleRate handles GET /api/bets/{betID}/rate?at=<unix-seconds>. Without
// at, the House clock is used.
func (h *BetsHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.betID(w, r)
	if !ok {
		return
	}

	at := h.ledger.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed > types.MaxUint48 {
			h.writeError(w, "invalid query parameter: at", http.StatusBadRequest)
			return
		}
		at = parsed
	}

	h.writeJSON(w, http.StatusOK, RateResponse{
		BetID: id.Hex(),
		At:    at,
		Rate:  h.ledger.PlayRate(id, at),
	})
}

func (h *BetsHandler) betID(w http.ResponseWriter, r *http.Request) (types.BetID, bool) {
	raw, err := hexutil.Decode(chi.URLParam(r, "betID"))
	if err != nil || len(raw) != common.HashLength {
		h.writeError(w, "invalid bet id", http.StatusBadRequest)
		return types.BetID{}, false
	}

	return common.BytesToHash(raw), true
}

func (h *BetsHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *BetsHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
