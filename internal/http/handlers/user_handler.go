package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// GetMe возвращает профиль с балансами.
// GET /me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.userService.GetUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

// GetBalances — только пара балансов, для частых поллов.
// GET /me/balance
func (h *UserHandler) GetBalances(c *fiber.Ctx) error {
	bp, err := h.userService.GetBalances(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bp})
}
