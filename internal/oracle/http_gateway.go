package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"
	"github.com/mselser95/parimutuel-house/pkg/types"
	"go.uber.org/zap"
)

// HTTPGateway forwards hook calls to a remote oracle service.
//
//	POST {baseURL}/hooks/{create|play|collect}
//	-> {"accept": true}
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// HTTPGatewayConfig holds configuration for the HTTP gateway.
type HTTPGatewayConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// hookRequest is the body posted to the remote oracle.
type hookRequest struct {
	BetID  string        `json:"bet_id"`
	Bettor string        `json:"bettor,omitempty"`
	Amount string        `json:"amount,omitempty"`
	Option string        `json:"option,omitempty"`
	Data   hexutil.Bytes `json:"data"`
}

// hookResponse is the remote oracle's verdict.
type hookResponse struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason,omitempty"`
}

// NewHTTPGateway creates a gateway for the oracle at cfg.BaseURL.
func NewHTTPGateway(cfg *HTTPGatewayConfig) (*HTTPGateway, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: cfg.Logger,
	}, nil
}

// OnCreate asks the remote oracle to vet a new bet.
func (g *HTTPGateway) OnCreate(ctx context.Context, betID types.BetID, data []byte) (bool, error) {
	return g.call(ctx, "create", &hookRequest{
		BetID: betID.Hex(),
		Data:  data,
	})
}

// OnPlay asks the remote oracle to vet a play.
func (g *HTTPGateway) OnPlay(
	ctx context.Context,
	betID types.BetID,
	bettor common.Address,
	amount *big.Int,
	option types.Option,
	data []byte,
) (bool, error) {
	return g.call(ctx, "play", &hookRequest{
		BetID:  betID.Hex(),
		Bettor: bettor.Hex(),
		Amount: amount.String(),
		Option: option.Hex(),
		Data:   data,
	})
}

// OnCollect asks the remote oracle to vet a collect.
func (g *HTTPGateway) OnCollect(ctx context.Context, betID types.BetID, bettor common.Address, data []byte) (bool, error) {
	return g.call(ctx, "collect", &hookRequest{
		BetID:  betID.Hex(),
		Bettor: bettor.Hex(),
		Data:   data,
	})
}

func (g *HTTPGateway) call(ctx context.Context, hook string, payload *hookRequest) (accepted bool, err error) {
	start := time.Now()
	defer func() {
		OracleRequestDuration.WithLabelValues(hook).Observe(time.Since(start).Seconds())
		OracleRequestsTotal.WithLabelValues(hook, outcomeLabel(accepted, err)).Inc()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal %s hook: %w", hook, err)
	}

	url := fmt.Sprintf("%s/hooks/%s", g.baseURL, hook)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("oracle %s hook: %w", hook, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("oracle %s hook: status %d: %s", hook, resp.StatusCode, string(respBody))
	}

	var verdict hookResponse
	err = json.NewDecoder(resp.Body).Decode(&verdict)
	if err != nil {
		return false, fmt.Errorf("decode %s hook response: %w", hook, err)
	}

	if !verdict.Accept {
		g.logger.Info("oracle-hook-rejected",
			zap.String("hook", hook),
			zap.String("bet-id", payload.BetID),
			zap.String("reason", verdict.Reason))
	}

	return verdict.Accept, nil
}

func outcomeLabel(accepted bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case accepted:
		return "accepted"
	default:
		return "rejected"
	}
}
