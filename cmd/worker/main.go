package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/config"
	"github.com/plinko-game/backend/internal/db"
	"github.com/plinko-game/backend/internal/events"
	"github.com/plinko-game/backend/internal/repositories"
	"github.com/plinko-game/backend/internal/services"
	"github.com/plinko-game/backend/internal/ton"
)

const (
	autoBatchSize  = 20
	stuckBatchSize = 50
)

// Воркер гоняет очередь автообработки выводов и разбирает заявки,
// зависшие в processing после падения процесса.
func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TONWalletSeed == "" {
		log.Fatal("TON_WALLET_SEED is required for the withdrawal worker")
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	api, err := ton.Connect(ctx, ton.ConnectOptions{
		Network:        cfg.TONNetwork,
		LiteServerHost: cfg.LiteServerHost,
		LiteServerPort: cfg.LiteServerPort,
		LiteServerKey:  cfg.LiteServerKey,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to TON network", zap.Error(err))
	}

	wallet, err := ton.NewWallet(api, cfg.TONWalletSeed, log)
	if err != nil {
		log.Fatal("failed to init hot wallet", zap.Error(err))
	}

	userRepo := repositories.NewUserRepo(pool)
	withdrawalRepo := repositories.NewWithdrawalRepo(pool)
	depositRepo := repositories.NewDepositRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)

	withdrawalService := services.NewWithdrawalService(
		pool, userRepo, withdrawalRepo, depositRepo, wallet, cfg.WithdrawalLimits(), publisher, log)

	log.Info("withdrawal worker started",
		zap.String("hot_wallet", wallet.Address()),
		zap.String("network", cfg.TONNetwork),
		zap.Duration("poll_interval", cfg.WithdrawalPollInterval),
	)

	processTicker := time.NewTicker(cfg.WithdrawalPollInterval)
	defer processTicker.Stop()
	// Зависшие заявки проверяем реже: это дорогой скан истории кошелька
	stuckTicker := time.NewTicker(cfg.WithdrawalStuckThreshold)
	defer stuckTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-processTicker.C:
			withdrawalService.ProcessAutoPending(ctx, autoBatchSize)
		case <-stuckTicker.C:
			withdrawalService.RecoverStuck(ctx, cfg.WithdrawalStuckThreshold, stuckBatchSize)
		case <-sigCh:
			log.Info("shutting down withdrawal worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
