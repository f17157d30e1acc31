package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/models"
	"github.com/plinko-game/backend/internal/services"
)

type BetHandler struct {
	betService *services.BetService
	log        *zap.Logger
}

func NewBetHandler(betService *services.BetService, log *zap.Logger) *BetHandler {
	return &BetHandler{betService: betService, log: log}
}

// PlaceBet списывает ставку и создаёт незавершённую игру.
// POST /bets
func (h *BetHandler) PlaceBet(c *fiber.Ctx) error {
	var req dto.PlaceBetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	bet, bp, err := h.betService.InitiateBet(c.Context(),
		middleware.GetUserID(c), amount,
		models.Currency(req.Currency), models.RiskLevel(req.RiskLevel), req.RowsCount)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.BetResponse{Bet: bet, Balances: bp})
}

// ResolveBet фиксирует исход, присланный клиентом после анимации.
// POST /bets/:id/resolve
func (h *BetHandler) ResolveBet(c *fiber.Ctx) error {
	betID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bet id"})
	}

	var req dto.ResolveBetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	multiplier, err := decimal.NewFromString(req.Multiplier)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid multiplier"})
	}

	var clientPayout *decimal.Decimal
	if req.Payout != nil {
		p, err := decimal.NewFromString(*req.Payout)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid payout"})
		}
		clientPayout = &p
	}

	bet, bp, err := h.betService.ResolveBet(c.Context(), middleware.GetUserID(c), betID, multiplier, req.BallPath, clientPayout)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.BetResponse{Bet: bet, Balances: bp})
}

// SettlePending досчитывает все незавершённые ставки пользователя.
// POST /bets/settle-pending
func (h *BetHandler) SettlePending(c *fiber.Ctx) error {
	res, err := h.betService.SettlePending(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

// ListBets — история игр.
// GET /bets
func (h *BetHandler) ListBets(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	bets, err := h.betService.ListBets(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bets})
}

// GetBet — одна ставка.
// GET /bets/:id
func (h *BetHandler) GetBet(c *fiber.Ctx) error {
	betID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bet id"})
	}
	bet, err := h.betService.GetBet(c.Context(), middleware.GetUserID(c), betID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bet})
}
