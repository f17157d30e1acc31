package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/plinko-game/backend/internal/errs"
	"github.com/plinko-game/backend/internal/http/dto"
)

// respondError отображает доменные ошибки в HTTP-статусы. Внутренние
// ошибки наружу не просачиваются.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, errs.ErrInsufficientFunds):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrLimitExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrAlreadyProcessed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "already processed"})
	case errors.Is(err, errs.ErrTransferFailed):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "transfer failed, funds refunded"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
}
