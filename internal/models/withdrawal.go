package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending      = "pending"
	WithdrawalStatusProcessing   = "processing"
	WithdrawalStatusCompleted    = "completed"
	WithdrawalStatusFailed       = "failed"
	WithdrawalStatusCancelled    = "cancelled"
	WithdrawalStatusManualReview = "manual_review"
)

// ValidWithdrawalTransitions описывает жизненный цикл заявки на вывод.
// Gross списывается с баланса при создании; failed и cancelled обязаны
// сопровождаться возвратом gross, completed — никогда.
var ValidWithdrawalTransitions = map[string][]string{
	WithdrawalStatusPending:      {WithdrawalStatusProcessing, WithdrawalStatusCancelled},
	WithdrawalStatusProcessing:   {WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusCancelled, WithdrawalStatusPending},
	WithdrawalStatusManualReview: {WithdrawalStatusPending, WithdrawalStatusCancelled},
	WithdrawalStatusCompleted:    {},
	WithdrawalStatusFailed:       {},
	WithdrawalStatusCancelled:    {},
}

func IsValidWithdrawalTransition(from, to string) bool {
	allowed, ok := ValidWithdrawalTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// RefundableWithdrawalStatus reports whether a withdrawal in the given
// status still holds reserved funds that a cancellation must return.
func RefundableWithdrawalStatus(status string) bool {
	switch status {
	case WithdrawalStatusPending, WithdrawalStatusProcessing, WithdrawalStatusManualReview:
		return true
	}
	return false
}

type Withdrawal struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"` // gross, reserved at creation
	Fee             decimal.Decimal `json:"fee"`
	NetAmount       decimal.Decimal `json:"net_amount"` // amount sent on-chain
	WalletAddress   string          `json:"wallet_address"`
	Status          string          `json:"status"`
	AutoProcess     bool            `json:"auto_process"`
	TransactionHash *string         `json:"transaction_hash,omitempty"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	AdminNotes      *string         `json:"admin_notes,omitempty"`
	ReviewedBy      *uuid.UUID      `json:"reviewed_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ProcessingAt    *time.Time      `json:"processing_at,omitempty"` // последний вход в processing
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}
