package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

const (
	BetStatusPending   = "pending"
	BetStatusCompleted = "completed"

	MinRows = 8
	MaxRows = 16
)

// Bet — одна игра. Ставка списывается при создании (initiate), выплата
// начисляется ровно один раз при завершении (resolve). Multiplier == nil
// означает незавершённую ставку; это же поле служит идемпотентным
// ограничителем повторного resolve.
type Bet struct {
	ID         uuid.UUID        `json:"id"`
	UserID     uuid.UUID        `json:"user_id"`
	Amount     decimal.Decimal  `json:"bet_amount"`
	Currency   Currency         `json:"currency"`
	RiskLevel  RiskLevel        `json:"risk_level"`
	RowsCount  int              `json:"rows_count"`
	Multiplier *decimal.Decimal `json:"multiplier,omitempty"`
	Payout     decimal.Decimal  `json:"payout"`
	Profit     decimal.Decimal  `json:"profit"`
	IsWin      bool             `json:"is_win"`
	BallPath   []int            `json:"ball_path"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (b *Bet) Resolved() bool { return b.Multiplier != nil }
