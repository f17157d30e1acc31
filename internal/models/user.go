package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency игрового баланса. Stars — Telegram Stars, TON — он-чейн монета.
// Оба баланса живут на одной строке users.
type Currency string

const (
	CurrencyStars Currency = "STARS"
	CurrencyTON   Currency = "TON"
)

func (c Currency) Valid() bool {
	return c == CurrencyStars || c == CurrencyTON
}

type User struct {
	ID            uuid.UUID       `json:"id"`
	TelegramID    int64           `json:"telegram_id"`
	Username      *string         `json:"username,omitempty"`
	WalletAddress *string         `json:"wallet_address,omitempty"`
	StarsBalance  decimal.Decimal `json:"stars_balance"`
	TONBalance    decimal.Decimal `json:"ton_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Balance returns the balance for the given currency.
func (u *User) Balance(c Currency) decimal.Decimal {
	if c == CurrencyTON {
		return u.TONBalance
	}
	return u.StarsBalance
}

// BalancePair возвращается после каждой мутации баланса, чтобы клиент
// никогда не считал баланс локально.
type BalancePair struct {
	StarsBalance decimal.Decimal `json:"stars_balance"`
	TONBalance   decimal.Decimal `json:"ton_balance"`
}
