package app

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/parimutuel-house/internal/asset"
	"github.com/mselser95/parimutuel-house/internal/house"
	"github.com/mselser95/parimutuel-house/internal/oracle"
	"github.com/mselser95/parimutuel-house/internal/solvency"
	"github.com/mselser95/parimutuel-house/internal/storage"
	"github.com/mselser95/parimutuel-house/pkg/cache"
	"github.com/mselser95/parimutuel-house/pkg/config"
	"github.com/mselser95/parimutuel-house/pkg/healthprobe"
	"github.com/mselser95/parimutuel-house/pkg/httpserver"
	"github.com/mselser95/parimutuel-house/pkg/websocket"
	"go.uber.org/zap"
)

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	h *house.House,
	viewCache cache.Cache,
	hub *websocket.Hub,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Ledger:        h,
		Cache:         viewCache,
		CacheTTL:      cfg.CacheTTL,
		EventsHandler: hub.HandleWS,
	})
}

func setupCache(logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000, // 10x expected max bets
		MaxCost:     10000,  // Maximum 10000 views in cache
		BufferItems: 64,     // Buffer size for Get operations
		Logger:      logger.Named("cache"),
	})
}

func setupHub(cfg *config.Config, logger *zap.Logger) *websocket.Hub {
	return websocket.New(websocket.Config{
		BroadcastBuffer: cfg.WSBroadcastBuffer,
		SendBuffer:      cfg.WSSendBuffer,
		Logger:          logger.Named("ws"),
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger, healthChecker *healthprobe.HealthChecker) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		healthChecker.AddCheck("postgres", pgStorage.Ping)
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger, int32(cfg.AmountDecimals)), nil
}

func setupSolvency(
	cfg *config.Config,
	logger *zap.Logger,
	h *house.House,
	healthChecker *healthprobe.HealthChecker,
) (*solvency.Monitor, error) {
	monitor, err := solvency.New(&solvency.Config{
		CheckInterval: cfg.SolvencyCheckInterval,
		Ledger:        h,
		Logger:        logger.Named("solvency"),
	})
	if err != nil {
		return nil, err
	}

	healthChecker.AddCheck("solvency", monitor.Check)
	return monitor, nil
}

func setupAssets(cfg *config.Config, logger *zap.Logger) (*asset.Registry, error) {
	token, err := asset.NewMemoryToken(&asset.MemoryTokenConfig{
		Address:  common.HexToAddress(cfg.AssetAddress),
		Symbol:   cfg.AssetSymbol,
		Decimals: uint8(cfg.AmountDecimals),
		Logger:   logger.Named("asset"),
	})
	if err != nil {
		return nil, fmt.Errorf("create asset %s: %w", cfg.AssetSymbol, err)
	}

	registry := asset.NewRegistry()
	err = registry.Register(token)
	if err != nil {
		return nil, err
	}
	return registry, nil
}

func setupOracles(cfg *config.Config, logger *zap.Logger) (*oracle.Directory, error) {
	directory := oracle.NewDirectory(common.HexToAddress(cfg.HouseAddress))
	if cfg.OracleHTTPURL == "" {
		return directory, nil
	}

	gateway, err := oracle.NewHTTPGateway(&oracle.HTTPGatewayConfig{
		BaseURL: cfg.OracleHTTPURL,
		Timeout: cfg.OracleHTTPTimeout,
		Logger:  logger.Named("oracle-gateway"),
	})
	if err != nil {
		return nil, fmt.Errorf("create oracle gateway: %w", err)
	}

	err = directory.Register(common.HexToAddress(cfg.OracleHTTPAddress), gateway)
	if err != nil {
		return nil, fmt.Errorf("register oracle gateway: %w", err)
	}

	logger.Info("oracle-gateway-registered",
		zap.String("address", cfg.OracleHTTPAddress),
		zap.String("url", cfg.OracleHTTPURL))

	return directory, nil
}

func setupHouse(cfg *config.Config, logger *zap.Logger, clock house.Clock, publisher house.Publisher) (*house.House, error) {
	assets, err := setupAssets(cfg, logger)
	if err != nil {
		return nil, err
	}

	oracles, err := setupOracles(cfg, logger)
	if err != nil {
		return nil, err
	}

	scheme, err := house.ParseScheme(cfg.HouseBetIDScheme)
	if err != nil {
		return nil, err
	}

	return house.New(&house.Config{
		Address:     common.HexToAddress(cfg.HouseAddress),
		FeeOwner:    common.HexToAddress(cfg.HouseFeeOwner),
		FeeRate:     cfg.HouseFeeRate,
		Scheme:      scheme,
		RewardDraws: cfg.HouseRewardDraws,
		Assets:      assets,
		Oracles:     oracles,
		Clock:       clock,
		Publisher:   publisher,
		Logger:      logger.Named("house"),
	})
}
