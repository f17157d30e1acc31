package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DepositStatusPending   = "pending"
	DepositStatusConfirmed = "confirmed"
)

// Deposit создаётся только после того, как входящая он-чейн транзакция
// найдена; запись и зачисление баланса происходят в одной транзакции БД,
// спекулятивных pending-депозитов не бывает.
type Deposit struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	WalletAddress   string          `json:"wallet_address"`
	Status          string          `json:"status"`
	TransactionHash *string         `json:"transaction_hash,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
