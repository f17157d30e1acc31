package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/config"
	"github.com/plinko-game/backend/internal/http/handlers"
	"github.com/plinko-game/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	betHandler *handlers.BetHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	depositHandler *handlers.DepositHandler,
	starsHandler *handlers.StarsHandler,
	walletHandler *handlers.WalletHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/telegram", authHandler.TelegramAuth)

	// Платёжный webhook бота: аутентифицируется секретностью пути
	api.Post("/stars/webhook", starsHandler.Webhook)

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Get("/me/balance", userHandler.GetBalances)

	// Wallet (TON Connect + Proof)
	protected.Post("/me/wallet/proof-payload", walletHandler.GeneratePayload)
	protected.Post("/me/wallet/connect", walletHandler.ConnectWallet)
	protected.Delete("/me/wallet", walletHandler.DisconnectWallet)
	protected.Get("/me/wallet", walletHandler.GetWallet)

	// Bets
	protected.Post("/bets", betHandler.PlaceBet)
	protected.Post("/bets/settle-pending", betHandler.SettlePending)
	protected.Get("/bets", betHandler.ListBets)
	protected.Get("/bets/:id", betHandler.GetBet)
	protected.Post("/bets/:id/resolve", betHandler.ResolveBet)

	// Withdrawals
	protected.Post("/withdrawals", withdrawalHandler.Create)
	protected.Get("/withdrawals", withdrawalHandler.List)
	protected.Get("/withdrawals/:id", withdrawalHandler.Get)
	protected.Post("/withdrawals/:id/cancel", withdrawalHandler.Cancel)

	// Deposits
	protected.Get("/deposits/info", depositHandler.Info)
	protected.Post("/deposits/verify", depositHandler.Verify)
	protected.Post("/deposits/check", depositHandler.Check)
	protected.Get("/deposits", depositHandler.List)

	// Stars
	protected.Post("/stars/invoice", starsHandler.CreateInvoice)
	protected.Post("/stars/verify", starsHandler.Verify)
	protected.Get("/stars/transactions", starsHandler.List)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware(cfg))
	admin.Get("/withdrawals", adminHandler.ListWithdrawals)
	admin.Get("/withdrawals/stuck", adminHandler.ListStuck)
	admin.Post("/withdrawals/auto-process", adminHandler.AutoProcess)
	admin.Post("/withdrawals/:id/approve", adminHandler.Approve)
	admin.Post("/withdrawals/:id/reject", adminHandler.Reject)
	admin.Post("/withdrawals/:id/cancel", adminHandler.Cancel)
	admin.Post("/withdrawals/:id/note", adminHandler.AddNote)
	admin.Post("/withdrawals/:id/process", adminHandler.Process)
	admin.Post("/withdrawals/:id/reset", adminHandler.ResetStuck)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
