// Package house implements the parimutuel betting ledger: bet creation,
// staking, resolution, payout and the incentive-token hand-off.
//
// Every exported operation takes the House lock for its full duration, so
// callers observe operations in a strict global order. External effects
// (asset transfers, reward mints) are applied before state is committed and
// are compensated in reverse if a later step fails.
package house

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/mselser95/parimutuel-house/internal/asset"
	"github.com/mselser95/parimutuel-house/internal/fees"
	"github.com/mselser95/parimutuel-house/internal/oracle"
	"github.com/mselser95/parimutuel-house/internal/playtoken"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// Publisher receives committed events in the order they happened.
type Publisher interface {
	Publish(ctx context.Context, event *types.Event)
}

// House is the betting venue.
type House struct {
	address     common.Address
	mu          sync.Mutex
	bets        map[types.BetID]*types.Bet
	positions   map[types.BetID]map[common.Address]*types.Position
	pools       map[types.BetID]map[types.Option]*big.Int
	fees        *fees.Schedule
	play        *playtoken.Token
	minter      minter
	canMigrate  bool
	scheme      Scheme
	rewardDraws bool
	assets      *asset.Registry
	oracles     *oracle.Directory
	clock       Clock
	publisher   Publisher
	logger      *zap.Logger
}

// Config holds House configuration.
type Config struct {
	Address     common.Address // the venue's own address
	FeeOwner    common.Address
	FeeRate     uint64
	PlayAddress common.Address // defaults to the first contract address derived from Address
	Scheme      Scheme         // defaults to SchemeEscalating
	RewardDraws bool           // mint the floor-rate reward on draws too
	Assets      *asset.Registry
	Oracles     *oracle.Directory // defaults to an empty directory for Address
	Clock       Clock             // defaults to SystemClock
	Publisher   Publisher
	Logger      *zap.Logger
}

// CreateParams describes a new bet.
type CreateParams struct {
	Asset         common.Address
	Oracle        common.Address
	StartBet      uint64 // betting opens and the reward rate starts decaying
	NoMoreBets    uint64 // betting closes
	SetWinTime    uint64 // resolution deadline
	MinRate       uint64
	MaxRate       uint64
	MinPlayAmount *big.Int // optional stake floor
	IncreaseRate  uint64   // floor escalation per play, in basis points of the net stake
	Salt          *big.Int // only hashed by SchemeSalted
	Data          []byte
}

// PlayParams describes a stake.
type PlayParams struct {
	BetID  types.BetID
	Amount *big.Int
	Option types.Option
	Data   []byte
}

// PlayReceipt reports what a successful play moved.
type PlayReceipt struct {
	NetAmount *big.Int
	Fee       *big.Int
	Reward    *big.Int
	Rate      uint64
}

// CollectReceipt reports what a successful collect paid.
type CollectReceipt struct {
	Payout    *big.Int
	Reward    *big.Int
	Emergency bool
}

// New creates a House. It deploys the PLAY token with itself as mint
// authority and PLAY fee owner, and exempts PLAY from House fees.
func New(cfg *Config) (*House, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Assets == nil {
		return nil, errors.New("asset registry cannot be nil")
	}

	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("house address: %w", types.ErrZeroAddress)
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = SchemeEscalating
	}
	_, err := ParseScheme(string(scheme))
	if err != nil {
		return nil, err
	}

	schedule, err := fees.New(&fees.Config{
		Owner:  cfg.FeeOwner,
		Rate:   cfg.FeeRate,
		Logger: cfg.Logger.Named("house-fees"),
	})
	if err != nil {
		return nil, fmt.Errorf("create fee schedule: %w", err)
	}

	playAddress := cfg.PlayAddress
	if playAddress == (common.Address{}) {
		playAddress = crypto.CreateAddress(cfg.Address, 0)
	}

	play, err := playtoken.New(&playtoken.Config{
		Address:  playAddress,
		Deployer: cfg.Address,
		Logger:   cfg.Logger.Named("play"),
	})
	if err != nil {
		return nil, fmt.Errorf("deploy play token: %w", err)
	}

	schedule.Exclude(play.Address())

	oracles := cfg.Oracles
	if oracles == nil {
		oracles = oracle.NewDirectory(cfg.Address)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	h := &House{
		address:     cfg.Address,
		bets:        make(map[types.BetID]*types.Bet),
		positions:   make(map[types.BetID]map[common.Address]*types.Position),
		pools:       make(map[types.BetID]map[types.Option]*big.Int),
		fees:        schedule,
		play:        play,
		minter:      &playMinter{token: play, authority: cfg.Address},
		canMigrate:  true,
		scheme:      scheme,
		rewardDraws: cfg.RewardDraws,
		assets:      cfg.Assets,
		oracles:     oracles,
		clock:       clock,
		publisher:   cfg.Publisher,
		logger:      cfg.Logger,
	}

	h.publish(context.Background(), &types.Event{
		Type:         types.EventFeeOwnerTransferred,
		Counterparty: cfg.FeeOwner,
	})

	h.logger.Info("house-deployed",
		zap.String("address", h.address.Hex()),
		zap.String("play", play.Address().Hex()),
		zap.String("fee-owner", cfg.FeeOwner.Hex()),
		zap.Uint64("fee-rate", cfg.FeeRate),
		zap.String("scheme", string(scheme)))

	return h, nil
}

// Address returns the venue address.
func (h *House) Address() common.Address {
	return h.address
}

// PlayToken returns the incentive token.
func (h *House) PlayToken() *playtoken.Token {
	return h.play
}

// Fees returns the House fee schedule.
func (h *House) Fees() *fees.Schedule {
	return h.fees
}

// Scheme returns the identifier scheme.
func (h *House) Scheme() Scheme {
	return h.scheme
}

// Now returns the House clock reading.
func (h *House) Now() uint64 {
	return h.clock.Now()
}

// publish stamps and forwards an event. Callers hold h.mu, except during New.
func (h *House) publish(ctx context.Context, event *types.Event) {
	event.ID = uuid.New().String()
	event.Timestamp = h.clock.Now()

	EventsEmittedTotal.WithLabelValues(string(event.Type)).Inc()

	if h.publisher == nil {
		return
	}
	h.publisher.Publish(ctx, event)
}

// observe records the outcome of an operation.
func (h *House) observe(op string, err error) {
	if err == nil {
		OperationsTotal.WithLabelValues(op, "ok").Inc()
		return
	}

	OperationsTotal.WithLabelValues(op, "rejected").Inc()
	code := types.CodeOf(err)
	if code == "" {
		code = "CAPABILITY_FAILURE"
	}
	RejectionsTotal.WithLabelValues(op, code).Inc()

	h.logger.Debug("operation-rejected",
		zap.String("op", op),
		zap.String("code", code),
		zap.Error(err))
}

func (h *House) positionLocked(id types.BetID, bettor common.Address) *types.Position {
	pos, ok := h.positions[id][bettor]
	if !ok {
		return &types.Position{Balance: new(big.Int)}
	}
	return pos
}

func (h *House) poolLocked(id types.BetID, option types.Option) *big.Int {
	pool, ok := h.pools[id][option]
	if !ok {
		return new(big.Int)
	}
	return pool
}

// resolverLocked returns who may set the win option of bet. A venue-oracle
// bet is resolved by the current fee owner.
func (h *House) resolverLocked(bet *types.Bet) (common.Address, bool) {
	if bet.Oracle == h.address {
		return h.fees.Owner()
	}
	return bet.Oracle, true
}
