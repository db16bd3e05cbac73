package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/parimutuel-house/internal/asset"
	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/internal/oracle"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// ErrExpectation marks a step whose outcome differs from what it asserted.
var ErrExpectation = errors.New("expectation failed") //nolint:gochecknoglobals // Sentinel error

// Runner executes a scenario against a fresh House.
type Runner struct {
	scenario *Scenario
	house    *house.House
	clock    *house.ManualClock
	tokens   map[common.Address]*asset.MemoryToken
	oracles  map[common.Address]*oracle.DataOracle
	accounts []common.Address
	bets     map[string]types.BetID
	logger   *zap.Logger
}

// Report summarizes a run.
type Report struct {
	Name     string
	Steps    []StepResult
	Holdings []Holding
}

// StepResult records what one step did.
type StepResult struct {
	Index  int
	Op     string
	At     uint64
	BetID  string
	Code   string // error code when the step was rejected
	Net    *big.Int
	Fee    *big.Int
	Payout *big.Int
	Reward *big.Int
}

// Holding is an account balance at the end of a run.
type Holding struct {
	Holder  common.Address
	Symbol  string
	Balance *big.Int
}

// NewRunner builds the House, assets and oracles a scenario declares.
// publisher may be nil.
func NewRunner(sc *Scenario, publisher house.Publisher, logger *zap.Logger) (*Runner, error) {
	if sc == nil {
		return nil, errors.New("scenario cannot be nil")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	houseAddr, err := parseAddress("house.address", orDefault(sc.House.Address, DefaultHouseAddress))
	if err != nil {
		return nil, err
	}

	feeOwner, err := parseAddress("house.fee_owner", orDefault(sc.House.FeeOwner, DefaultFeeOwner))
	if err != nil {
		return nil, err
	}

	scheme, err := house.ParseScheme(orDefault(sc.House.Scheme, string(house.SchemeEscalating)))
	if err != nil {
		return nil, err
	}

	r := &Runner{
		scenario: sc,
		clock:    house.NewManualClock(sc.Start),
		tokens:   make(map[common.Address]*asset.MemoryToken),
		oracles:  make(map[common.Address]*oracle.DataOracle),
		bets:     make(map[string]types.BetID),
		logger:   logger,
	}

	registry := asset.NewRegistry()
	for i, def := range sc.Assets {
		addr, err := parseAddress(fmt.Sprintf("assets[%d].address", i), def.Address)
		if err != nil {
			return nil, err
		}

		token, err := asset.NewMemoryToken(&asset.MemoryTokenConfig{
			Address:  addr,
			Symbol:   def.Symbol,
			Decimals: def.Decimals,
			Logger:   logger.Named("asset"),
		})
		if err != nil {
			return nil, fmt.Errorf("assets[%d]: %w", i, err)
		}

		err = registry.Register(token)
		if err != nil {
			return nil, fmt.Errorf("assets[%d]: %w", i, err)
		}
		r.tokens[addr] = token
	}

	directory := oracle.NewDirectory(houseAddr)
	for i, def := range sc.Oracles {
		addr, err := parseAddress(fmt.Sprintf("oracles[%d].address", i), def.Address)
		if err != nil {
			return nil, err
		}

		o, err := oracle.NewDataOracle(&oracle.DataOracleConfig{
			Address: addr,
			Token:   []byte(def.Token),
			Logger:  logger.Named("oracle"),
		})
		if err != nil {
			return nil, fmt.Errorf("oracles[%d]: %w", i, err)
		}

		err = directory.Register(addr, o)
		if err != nil {
			return nil, fmt.Errorf("oracles[%d]: %w", i, err)
		}
		r.oracles[addr] = o
	}

	h, err := house.New(&house.Config{
		Address:     houseAddr,
		FeeOwner:    feeOwner,
		FeeRate:     sc.House.FeeRate,
		Scheme:      scheme,
		RewardDraws: sc.House.RewardDraws,
		Assets:      registry,
		Oracles:     directory,
		Clock:       r.clock,
		Publisher:   publisher,
		Logger:      logger.Named("house"),
	})
	if err != nil {
		return nil, fmt.Errorf("create house: %w", err)
	}
	r.house = h

	for _, o := range r.oracles {
		o.Attach(h)
	}

	err = r.fundAccounts(houseAddr)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Runner) fundAccounts(houseAddr common.Address) error {
	seen := make(map[common.Address]bool)

	for i, def := range r.scenario.Accounts {
		field := fmt.Sprintf("accounts[%d]", i)

		holder, err := parseAddress(field+".address", def.Address)
		if err != nil {
			return err
		}

		token, err := r.token(field+".asset", def.Asset)
		if err != nil {
			return err
		}

		balance, err := parseAmount(field+".balance", def.Balance)
		if err != nil {
			return err
		}

		err = token.SetBalance(holder, balance)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}

		if def.ApproveHouse {
			err = token.Approve(holder, houseAddr, math.MaxBig256)
			if err != nil {
				return fmt.Errorf("%s: %w", field, err)
			}
		}

		if !seen[holder] {
			seen[holder] = true
			r.accounts = append(r.accounts, holder)
		}
	}

	return nil
}

// House returns the venue under test.
func (r *Runner) House() *house.House {
	return r.house
}

// BetID returns the identifier of a bet created under label.
func (r *Runner) BetID(label string) (types.BetID, bool) {
	id, ok := r.bets[label]
	return id, ok
}

// Run executes every step in order and stops at the first step whose outcome
// differs from its expectations.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{Name: r.scenario.Name}

	for i := range r.scenario.Steps {
		step := &r.scenario.Steps[i]

		if step.At != 0 {
			r.clock.Set(step.At)
		}
		r.clock.Advance(step.Advance)

		result := StepResult{Index: i, Op: step.Op, At: r.clock.Now()}

		err := r.exec(ctx, step, &result)
		if err != nil {
			result.Code = types.CodeOf(err)
		}
		report.Steps = append(report.Steps, result)

		err = r.check(step, &result, err)
		if err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		r.logger.Debug("scenario-step-done",
			zap.Int("index", i),
			zap.String("op", step.Op),
			zap.Uint64("at", result.At),
			zap.String("code", result.Code))
	}

	report.Holdings = r.holdings(ctx)
	return report, nil
}

func (r *Runner) exec(ctx context.Context, step *Step, result *StepResult) error {
	switch step.Op {
	case "create":
		return r.create(ctx, step, result)
	case "play":
		return r.play(ctx, step, result)
	case "set-win-option":
		return r.setWinOption(ctx, step, result)
	case "collect":
		return r.collect(ctx, step, result)
	case "set-fee-rate":
		return r.withCaller(step, func(caller common.Address) error {
			return r.house.SetFeeRate(ctx, caller, step.Rate)
		})
	case "set-fee-excluded":
		key, err := parseAddress("key", step.Key)
		if err != nil {
			return err
		}
		return r.withCaller(step, func(caller common.Address) error {
			return r.house.SetFeeExcluded(ctx, caller, key, step.Excluded)
		})
	case "transfer-fee-ownership":
		to, err := parseAddress("to", step.To)
		if err != nil {
			return err
		}
		return r.withCaller(step, func(caller common.Address) error {
			return r.house.TransferFeeOwnership(ctx, caller, to)
		})
	case "renounce-fee-ownership":
		return r.withCaller(step, func(caller common.Address) error {
			return r.house.RenounceFeeOwnership(ctx, caller)
		})
	case "migrate":
		to, err := parseAddress("to", orDefault(step.To, "0x0"))
		if err != nil {
			return err
		}
		return r.withCaller(step, func(caller common.Address) error {
			return r.house.Migrate(ctx, caller, to)
		})
	case "renounce-migrate":
		return r.withCaller(step, func(caller common.Address) error {
			return r.house.RenounceMigrate(ctx, caller)
		})
	case "expect-phase":
		id, err := r.betID(step.Bet)
		if err != nil {
			return err
		}
		result.BetID = id.Hex()
		return nil
	case "expect-balance":
		return nil
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (r *Runner) create(ctx context.Context, step *Step, result *StepResult) error {
	caller, err := parseAddress("caller", step.Caller)
	if err != nil {
		return err
	}

	assetAddr, err := parseAddress("asset", step.Asset)
	if err != nil {
		return err
	}

	oracleAddr := r.house.Address()
	if step.Oracle != "" {
		oracleAddr, err = parseAddress("oracle", step.Oracle)
		if err != nil {
			return err
		}
	}

	minPlay, err := parseOptionalAmount("min_play_amount", step.MinPlayAmount)
	if err != nil {
		return err
	}

	salt, err := parseOptionalAmount("salt", step.Salt)
	if err != nil {
		return err
	}

	data, err := parseData(step.Data)
	if err != nil {
		return err
	}

	now := r.clock.Now()
	id, err := r.house.Create(ctx, caller, &house.CreateParams{
		Asset:         assetAddr,
		Oracle:        oracleAddr,
		StartBet:      now + step.StartIn,
		NoMoreBets:    now + step.CloseIn,
		SetWinTime:    now + step.DeadlineIn,
		MinRate:       step.MinRate,
		MaxRate:       step.MaxRate,
		MinPlayAmount: minPlay,
		IncreaseRate:  step.IncreaseRate,
		Salt:          salt,
		Data:          data,
	})
	if err != nil {
		return err
	}

	result.BetID = id.Hex()
	if step.Name != "" {
		r.bets[step.Name] = id
	}
	return nil
}

func (r *Runner) play(ctx context.Context, step *Step, result *StepResult) error {
	caller, err := parseAddress("caller", step.Caller)
	if err != nil {
		return err
	}

	id, err := r.betID(step.Bet)
	if err != nil {
		return err
	}
	result.BetID = id.Hex()

	amount, err := parseAmount("amount", step.Amount)
	if err != nil {
		return err
	}

	option, err := parseOption(step.Option)
	if err != nil {
		return err
	}

	data, err := parseData(step.Data)
	if err != nil {
		return err
	}

	receipt, err := r.house.Play(ctx, caller, &house.PlayParams{
		BetID:  id,
		Amount: amount,
		Option: option,
		Data:   data,
	})
	if err != nil {
		return err
	}

	result.Net = receipt.NetAmount
	result.Fee = receipt.Fee
	result.Reward = receipt.Reward
	return nil
}

// setWinOption resolves through a registered data oracle when the caller is
// one, and calls the venue directly otherwise.
func (r *Runner) setWinOption(ctx context.Context, step *Step, result *StepResult) error {
	caller, err := parseAddress("caller", step.Caller)
	if err != nil {
		return err
	}

	id, err := r.betID(step.Bet)
	if err != nil {
		return err
	}
	result.BetID = id.Hex()

	option, err := parseOption(step.Option)
	if err != nil {
		return err
	}

	if o, ok := r.oracles[caller]; ok {
		return o.Resolve(ctx, id, option)
	}
	return r.house.SetWinOption(ctx, caller, id, option)
}

func (r *Runner) collect(ctx context.Context, step *Step, result *StepResult) error {
	caller, err := parseAddress("caller", step.Caller)
	if err != nil {
		return err
	}

	id, err := r.betID(step.Bet)
	if err != nil {
		return err
	}
	result.BetID = id.Hex()

	data, err := parseData(step.Data)
	if err != nil {
		return err
	}

	receipt, err := r.house.Collect(ctx, caller, id, data)
	if err != nil {
		return err
	}

	result.Payout = receipt.Payout
	result.Reward = receipt.Reward
	return nil
}

func (r *Runner) withCaller(step *Step, fn func(caller common.Address) error) error {
	caller, err := parseAddress("caller", step.Caller)
	if err != nil {
		return err
	}
	return fn(caller)
}

func (r *Runner) check(step *Step, result *StepResult, opErr error) error {
	if step.ExpectError != "" {
		if opErr == nil {
			return fmt.Errorf("%w: want error %s, got success", ErrExpectation, step.ExpectError)
		}
		if result.Code != step.ExpectError {
			return fmt.Errorf("%w: want error %s, got %v", ErrExpectation, step.ExpectError, opErr)
		}
		return nil
	}

	if opErr != nil {
		return opErr
	}

	checks := []struct {
		name string
		want string
		got  *big.Int
	}{
		{"net", step.ExpectNet, result.Net},
		{"fee", step.ExpectFee, result.Fee},
		{"payout", step.ExpectPayout, result.Payout},
		{"reward", step.ExpectReward, result.Reward},
	}
	for _, c := range checks {
		err := expectAmount(c.name, c.want, c.got)
		if err != nil {
			return err
		}
	}

	switch step.Op {
	case "expect-phase":
		id, _ := r.betID(step.Bet)
		got := r.house.Phase(id, r.clock.Now())
		if string(got) != step.ExpectPhase {
			return fmt.Errorf("%w: want phase %s, got %s", ErrExpectation, step.ExpectPhase, got)
		}
	case "expect-balance":
		return r.checkBalance(step)
	}

	return nil
}

// checkBalance compares a holder's balance of step.Asset, or of PLAY when
// the asset is "play", with step.Amount.
func (r *Runner) checkBalance(step *Step) error {
	holder, err := parseAddress("caller", step.Caller)
	if err != nil {
		return err
	}

	var got *big.Int
	if strings.EqualFold(step.Asset, "play") {
		got, err = r.house.PlayToken().BalanceOf(context.Background(), holder)
	} else {
		var token *asset.MemoryToken
		token, err = r.token("asset", step.Asset)
		if err != nil {
			return err
		}
		got, err = token.BalanceOf(context.Background(), holder)
	}
	if err != nil {
		return err
	}

	return expectAmount("balance", step.Amount, got)
}

func expectAmount(name string, want string, got *big.Int) error {
	if want == "" {
		return nil
	}

	wantValue, err := parseAmount("expect_"+name, want)
	if err != nil {
		return err
	}

	if got == nil {
		got = new(big.Int)
	}
	if got.Cmp(wantValue) != 0 {
		return fmt.Errorf("%w: want %s %s, got %s", ErrExpectation, name, wantValue, got)
	}
	return nil
}

func (r *Runner) betID(ref string) (types.BetID, error) {
	if id, ok := r.bets[ref]; ok {
		return id, nil
	}

	if strings.HasPrefix(ref, "0x") {
		raw := common.FromHex(ref)
		if len(raw) == common.HashLength {
			return common.BytesToHash(raw), nil
		}
	}

	return types.BetID{}, fmt.Errorf("bet %q is neither a label nor a bet id", ref)
}

func (r *Runner) token(field string, s string) (*asset.MemoryToken, error) {
	addr, err := parseAddress(field, s)
	if err != nil {
		return nil, err
	}

	token, ok := r.tokens[addr]
	if !ok {
		return nil, fmt.Errorf("%s: %s: %w", field, addr.Hex(), types.ErrUnknownAsset)
	}
	return token, nil
}

func (r *Runner) holdings(ctx context.Context) []Holding {
	holders := append([]common.Address{r.house.Address()}, r.accounts...)
	if owner, ok := r.house.FeeOwner(); ok {
		holders = append(holders, owner)
	}

	var out []Holding
	seen := make(map[common.Address]bool)
	for _, holder := range holders {
		if seen[holder] {
			continue
		}
		seen[holder] = true

		for _, def := range r.scenario.Assets {
			token := r.tokens[common.HexToAddress(def.Address)]
			balance, _ := token.BalanceOf(ctx, holder)
			out = append(out, Holding{Holder: holder, Symbol: token.Symbol(), Balance: balance})
		}

		play, _ := r.house.PlayToken().BalanceOf(ctx, holder)
		out = append(out, Holding{Holder: holder, Symbol: "PLAY", Balance: play})
	}

	return out
}

func orDefault(s string, def string) string {
	if s == "" {
		return def
	}
	return s
}
