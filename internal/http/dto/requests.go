package dto

type AuthTelegramRequest struct {
	InitData string `json:"init_data"`
}

type PlaceBetRequest struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`   // STARS / TON
	RiskLevel string `json:"risk_level"` // LOW / MEDIUM / HIGH
	RowsCount int    `json:"rows_count"` // 8 / 12 / 16
}

type ResolveBetRequest struct {
	Multiplier string  `json:"multiplier"`
	BallPath   []int   `json:"ball_path,omitempty"`
	Payout     *string `json:"payout,omitempty"` // контрольная сумма клиента
}

type CreateWithdrawalRequest struct {
	Amount        string `json:"amount"`
	WalletAddress string `json:"wallet_address,omitempty"` // по умолчанию привязанный
}

type ReviewWithdrawalRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type StarsInvoiceRequest struct {
	Stars int64 `json:"stars"`
}

type StarsVerifyRequest struct {
	Payload          string  `json:"payload"`
	Stars            int64   `json:"stars"`
	TelegramChargeID *string `json:"telegram_charge_id,omitempty"`
	ProviderChargeID *string `json:"provider_charge_id,omitempty"`
}

type VerifyDepositRequest struct {
	Amount        string `json:"amount"`
	WalletAddress string `json:"wallet_address"`
}

type AddNoteRequest struct {
	Note string `json:"note"`
}
