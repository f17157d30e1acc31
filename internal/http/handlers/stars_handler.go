package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/http/dto"
	"github.com/plinko-game/backend/internal/middleware"
	"github.com/plinko-game/backend/internal/services"
)

type StarsHandler struct {
	starsService *services.StarsService
	bot          *services.BotClient
	log          *zap.Logger
}

func NewStarsHandler(starsService *services.StarsService, bot *services.BotClient, log *zap.Logger) *StarsHandler {
	return &StarsHandler{starsService: starsService, bot: bot, log: log}
}

// CreateInvoice — ссылка на оплату Stars.
// POST /stars/invoice
func (h *StarsHandler) CreateInvoice(c *fiber.Ctx) error {
	var req dto.StarsInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	res, err := h.starsService.CreateInvoice(c.Context(), middleware.GetUserID(c), req.Stars)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: res})
}

// List — история покупок Stars.
// GET /stars/transactions
func (h *StarsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	sts, err := h.starsService.ListByUser(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: sts})
}

// Verify — клиентское подтверждение оплаты. Сходится с webhook'ом в одном
// переходе ConfirmPayment, так что порядок их прихода не важен.
// POST /stars/verify
func (h *StarsHandler) Verify(c *fiber.Ctx) error {
	var req dto.StarsVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Payload == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "payload is required"})
	}

	st, err := h.starsService.ConfirmPayment(c.Context(),
		middleware.GetTelegramUserID(c), req.Payload, req.Stars, req.TelegramChargeID, req.ProviderChargeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: st})
}

// Телеграмный апдейт в объёме, который нужен webhook'у платежей.
type telegramUpdate struct {
	PreCheckoutQuery *struct {
		ID             string `json:"id"`
		TotalAmount    int64  `json:"total_amount"`
		InvoicePayload string `json:"invoice_payload"`
	} `json:"pre_checkout_query"`
	Message *struct {
		From *struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Chat *struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		SuccessfulPayment *struct {
			Currency                string `json:"currency"`
			TotalAmount             int64  `json:"total_amount"`
			InvoicePayload          string `json:"invoice_payload"`
			TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
			ProviderPaymentChargeID string `json:"provider_payment_charge_id"`
		} `json:"successful_payment"`
	} `json:"message"`
}

// Webhook принимает платёжные апдейты бота: подтверждает pre-checkout и
// зачисляет successful_payment. Телеграм ретраит доставку, поэтому хендлер
// обязан быть идемпотентным — это гарантирует ConfirmPayment.
// POST /stars/webhook
func (h *StarsHandler) Webhook(c *fiber.Ctx) error {
	var upd telegramUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid update"})
	}

	if q := upd.PreCheckoutQuery; q != nil {
		if err := h.bot.AnswerPreCheckoutQuery(c.Context(), q.ID, true, ""); err != nil {
			h.log.Error("answer pre-checkout failed", zap.String("query_id", q.ID), zap.Error(err))
		}
		return c.JSON(dto.SuccessResponse{OK: true})
	}

	if m := upd.Message; m != nil && m.SuccessfulPayment != nil {
		p := m.SuccessfulPayment
		if p.Currency != "XTR" {
			h.log.Warn("unexpected payment currency", zap.String("currency", p.Currency))
			return c.JSON(dto.SuccessResponse{OK: true})
		}
		var tgCharge, provCharge *string
		if p.TelegramPaymentChargeID != "" {
			tgCharge = &p.TelegramPaymentChargeID
		}
		if p.ProviderPaymentChargeID != "" {
			provCharge = &p.ProviderPaymentChargeID
		}
		var senderID int64
		if m.From != nil {
			senderID = m.From.ID
		} else if m.Chat != nil {
			senderID = m.Chat.ID
		}
		if _, err := h.starsService.ConfirmPayment(c.Context(), senderID, p.InvoicePayload, p.TotalAmount, tgCharge, provCharge); err != nil {
			h.log.Error("confirm stars payment failed",
				zap.String("payload", p.InvoicePayload),
				zap.Error(err),
			)
			// 200 отдаём всегда: иначе Телеграм будет ретраить вечно
		}
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
