package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/config"
	"github.com/plinko-game/backend/internal/db"
	"github.com/plinko-game/backend/internal/events"
	apphttp "github.com/plinko-game/backend/internal/http"
	"github.com/plinko-game/backend/internal/http/handlers"
	"github.com/plinko-game/backend/internal/repositories"
	"github.com/plinko-game/backend/internal/services"
	"github.com/plinko-game/backend/internal/ton"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	betRepo := repositories.NewBetRepo(pool)
	withdrawalRepo := repositories.NewWithdrawalRepo(pool)
	depositRepo := repositories.NewDepositRepo(pool)
	starRepo := repositories.NewStarRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Горячий кошелёк — только если задан сид. API без него живёт:
	// ручная обработка выводов уходит воркеру.
	var wallet services.TransferClient
	var chain services.IncomingLister
	if cfg.TONWalletSeed != "" {
		api, err := ton.Connect(ctx, ton.ConnectOptions{
			Network:        cfg.TONNetwork,
			LiteServerHost: cfg.LiteServerHost,
			LiteServerPort: cfg.LiteServerPort,
			LiteServerKey:  cfg.LiteServerKey,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to TON network", zap.Error(err))
		}
		hw, err := ton.NewWallet(api, cfg.TONWalletSeed, log)
		if err != nil {
			log.Fatal("failed to init hot wallet", zap.Error(err))
		}
		wallet = hw
		chain = hw
		log.Info("hot wallet ready", zap.String("address", hw.Address()))
	}

	depositAddress := cfg.TONDepositAddress
	if depositAddress == "" && wallet != nil {
		depositAddress = wallet.Address()
	}

	// Services
	botClient := services.NewBotClient(cfg.BotToken, log)
	userService := services.NewUserService(userRepo, cfg, log)
	betService := services.NewBetService(pool, userRepo, betRepo, publisher, log)
	withdrawalService := services.NewWithdrawalService(pool, userRepo, withdrawalRepo, depositRepo, wallet, cfg.WithdrawalLimits(), publisher, log)
	depositService := services.NewDepositService(pool, userRepo, depositRepo, chain, depositAddress, services.DepositConfig{
		Min:       cfg.DepositMin,
		Tolerance: cfg.DepositTolerance,
	}, publisher, log)
	starsService := services.NewStarsService(pool, userRepo, starRepo, botClient, cfg.StarsMinPurchase, cfg.StarsMaxPurchase, publisher, log)
	walletService := services.NewWalletService(userRepo, rdb, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	betHandler := handlers.NewBetHandler(betService, log)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService, userService, log)
	depositHandler := handlers.NewDepositHandler(depositService, cfg.DepositMin, log)
	starsHandler := handlers.NewStarsHandler(starsService, botClient, log)
	walletHandler := handlers.NewWalletHandler(walletService, userService, log)
	adminHandler := handlers.NewAdminHandler(withdrawalService, cfg.WithdrawalStuckThreshold, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb,
		authHandler, userHandler, betHandler, withdrawalHandler,
		depositHandler, starsHandler, walletHandler, adminHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
