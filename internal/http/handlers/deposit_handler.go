package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/services"
)

type DepositHandler struct {
	depositService *services.DepositService
	minDeposit     decimal.Decimal
	log            *zap.Logger
}

func NewDepositHandler(depositService *services.DepositService, minDeposit decimal.Decimal, log *zap.Logger) *DepositHandler {
	return &DepositHandler{depositService: depositService, minDeposit: minDeposit, log: log}
}

// Info — куда и сколько минимум слать.
// GET /deposits/info
func (h *DepositHandler) Info(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.DepositInfoResponse{
		DepositAddress: h.depositService.DepositAddress(),
		MinDeposit:     h.minDeposit.String(),
	}})
}

// Check сканирует историю кошелька и зачисляет новые депозиты.
// POST /deposits/check
func (h *DepositHandler) Check(c *fiber.Ctx) error {
	deposits, bp, err := h.depositService.CheckDeposits(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DepositCheckResponse{Deposits: deposits, Balances: bp})
}

// Verify подтверждает конкретный перевод: сумма плюс адрес отправителя.
// POST /deposits/verify
func (h *DepositHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyDepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	dep, bp, err := h.depositService.VerifyDeposit(c.Context(), middleware.GetUserID(c), amount, req.WalletAddress)
	if err != nil {
		return respondError(c, err)
	}
	if dep == nil {
		return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
			"confirmed": false,
			"balances":  bp,
		}})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"confirmed": true,
		"deposit":   dep,
		"balances":  bp,
	}})
}

// List — история депозитов.
// GET /deposits
func (h *DepositHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	ds, err := h.depositService.ListByUser(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ds})
}
