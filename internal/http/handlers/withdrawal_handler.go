package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/services"
)

type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
	userService       *services.UserService
	log               *zap.Logger
}

func NewWithdrawalHandler(withdrawalService *services.WithdrawalService, userService *services.UserService, log *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService, userService: userService, log: log}
}

// Create резервирует сумму и ставит заявку в очередь.
// POST /withdrawals
func (h *WithdrawalHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid amount"})
	}

	userID := middleware.GetUserID(c)

	// Без явного адреса выводим на привязанный кошелёк
	address := req.WalletAddress
	if address == "" {
		user, err := h.userService.GetUser(c.Context(), userID)
		if err != nil {
			return respondError(c, err)
		}
		if user.WalletAddress == nil || *user.WalletAddress == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "no wallet linked and no wallet_address given"})
		}
		address = *user.WalletAddress
	}

	w, bp, err := h.withdrawalService.Create(c.Context(), userID, amount, address)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.WithdrawalResponse{Withdrawal: w, Balances: bp})
}

// List — история выводов пользователя.
// GET /withdrawals
func (h *WithdrawalHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	ws, err := h.withdrawalService.ListByUser(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ws})
}

// Get — одна заявка.
// GET /withdrawals/:id
func (h *WithdrawalHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	w, err := h.withdrawalService.Get(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}

// Cancel — отмена своей pending-заявки с возвратом средств.
// POST /withdrawals/:id/cancel
func (h *WithdrawalHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	w, bp, err := h.withdrawalService.Cancel(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.WithdrawalResponse{Withdrawal: w, Balances: bp})
}
