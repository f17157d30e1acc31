package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/services"
	"github.com/plinko-game/backend/internal/ton"
)

type WalletHandler struct {
	walletService *services.WalletService
	userService   *services.UserService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, userService *services.UserService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, userService: userService, log: log}
}

// GeneratePayload создаёт nonce для TON Proof.
// POST /me/wallet/proof-payload
func (h *WalletHandler) GeneratePayload(c *fiber.Ctx) error {
	payload, err := h.walletService.GeneratePayload(c.Context(), middleware.GetUserID(c))
	if err != nil {
		h.log.Error("failed to generate proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(fiber.Map{"payload": payload})
}

// ConnectWallet подключает кошелёк после проверки TON Proof.
// POST /me/wallet/connect
func (h *WalletHandler) ConnectWallet(c *fiber.Ctx) error {
	var req struct {
		Address         string    `json:"address"`
		AddressFriendly string    `json:"address_friendly"`
		Network         string    `json:"network"`
		PublicKey       string    `json:"public_key"`
		Proof           ton.Proof `json:"proof"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" || req.PublicKey == "" || req.Proof.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address, public_key, and proof.signature are required"})
	}

	address, err := h.walletService.ConnectWallet(c.Context(), middleware.GetUserID(c), services.ConnectWalletRequest{
		Address:         req.Address,
		AddressFriendly: req.AddressFriendly,
		Network:         req.Network,
		PublicKey:       req.PublicKey,
		Proof:           req.Proof,
	})
	if err != nil {
		h.log.Debug("wallet connect failed", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{"wallet_address": address}})
}

// DisconnectWallet отключает кошелёк.
// DELETE /me/wallet
func (h *WalletHandler) DisconnectWallet(c *fiber.Ctx) error {
	if err := h.walletService.DisconnectWallet(c.Context(), middleware.GetUserID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to disconnect wallet"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetWallet возвращает привязанный адрес.
// GET /me/wallet
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	user, err := h.userService.GetUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{"wallet_address": user.WalletAddress}})
}
