package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/services"
)

type AuthHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

func NewAuthHandler(userService *services.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, log: log}
}

// TelegramAuth обменивает initData мини-аппа на JWT.
// POST /auth/telegram
func (h *AuthHandler) TelegramAuth(c *fiber.Ctx) error {
	var req dto.AuthTelegramRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.InitData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "init_data is required"})
	}

	res, err := h.userService.Authenticate(c.Context(), req.InitData)
	if err != nil {
		h.log.Debug("auth failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "authentication failed"})
	}

	return c.JSON(dto.AuthResponse{Token: res.Token, User: res.User})
}
