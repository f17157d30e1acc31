package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StarTxStatusPending   = "pending"
	StarTxStatusCompleted = "completed"
	StarTxStatusFailed    = "failed"
)

// StarTransaction — покупка Telegram Stars. Payload уникален и служит
// идемпотентным ключом: из pending транзакция переходит в терминальный
// статус ровно один раз, повторный verify по completed — no-op.
type StarTransaction struct {
	ID                      uuid.UUID       `json:"id"`
	UserID                  uuid.UUID       `json:"user_id"`
	TelegramID              int64           `json:"telegram_id"`
	Amount                  decimal.Decimal `json:"amount"`
	Payload                 string          `json:"payload"`
	Status                  string          `json:"status"`
	TelegramPaymentChargeID *string         `json:"telegram_payment_charge_id,omitempty"`
	ProviderPaymentChargeID *string         `json:"provider_payment_charge_id,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	CompletedAt             *time.Time      `json:"completed_at,omitempty"`
}
