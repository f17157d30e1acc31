package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/services"
)

type AdminHandler struct {
	withdrawalService *services.WithdrawalService
	stuckThreshold    time.Duration
	log               *zap.Logger
}

func NewAdminHandler(withdrawalService *services.WithdrawalService, stuckThreshold time.Duration, log *zap.Logger) *AdminHandler {
	return &AdminHandler{withdrawalService: withdrawalService, stuckThreshold: stuckThreshold, log: log}
}

// ListWithdrawals — заявки по статусу, по умолчанию очередь ручной проверки.
// GET /admin/withdrawals?status=manual_review
func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	status := c.Query("status", "manual_review")
	limit := c.QueryInt("limit", 100)
	ws, err := h.withdrawalService.ListByStatus(c.Context(), status, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ws})
}

// Approve выпускает заявку с ручной проверки в очередь обработки.
// POST /admin/withdrawals/:id/approve
func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	var req dto.ReviewWithdrawalRequest
	_ = c.BodyParser(&req)

	w, err := h.withdrawalService.Approve(c.Context(), middleware.GetUserID(c), id, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}

// Reject отклоняет заявку, средства возвращаются пользователю.
// POST /admin/withdrawals/:id/reject
func (h *AdminHandler) Reject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	var req dto.ReviewWithdrawalRequest
	_ = c.BodyParser(&req)

	w, err := h.withdrawalService.Reject(c.Context(), middleware.GetUserID(c), id, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}

// Cancel — аварийная отмена с возвратом средств.
// POST /admin/withdrawals/:id/cancel
func (h *AdminHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	var req dto.ReviewWithdrawalRequest
	_ = c.BodyParser(&req)

	w, err := h.withdrawalService.CancelRefund(c.Context(), middleware.GetUserID(c), id, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}

// AddNote — комментарий к заявке без смены статуса.
// POST /admin/withdrawals/:id/note
func (h *AdminHandler) AddNote(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil || req.Note == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "note is required"})
	}

	w, err := h.withdrawalService.AddNote(c.Context(), middleware.GetUserID(c), id, req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}

// Process запускает он-чейн обработку заявки вручную.
// POST /admin/withdrawals/:id/process
func (h *AdminHandler) Process(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	w, err := h.withdrawalService.Process(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}

// AutoProcess прогоняет очередь автообработки один раз и возвращает сводку.
// POST /admin/withdrawals/auto-process
func (h *AdminHandler) AutoProcess(c *fiber.Ctx) error {
	batch := c.QueryInt("batch", 10)
	if batch <= 0 || batch > 50 {
		batch = 10
	}
	res := h.withdrawalService.ProcessAutoPending(c.Context(), batch)
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

// ListStuck — заявки, зависшие в processing дольше порога.
// GET /admin/withdrawals/stuck
func (h *AdminHandler) ListStuck(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	ws, err := h.withdrawalService.ListStuck(c.Context(), h.stuckThreshold, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ws})
}

// ResetStuck возвращает зависшую заявку без хеша обратно в очередь.
// POST /admin/withdrawals/:id/reset
func (h *AdminHandler) ResetStuck(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid withdrawal id"})
	}
	w, err := h.withdrawalService.ResetStuck(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: w})
}
