package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// BetResponse отдаёт ставку вместе со свежими балансами: клиент никогда не
// пересчитывает баланс сам.
type BetResponse struct {
	Bet      any `json:"bet"`
	Balances any `json:"balances"`
}

type WithdrawalResponse struct {
	Withdrawal any `json:"withdrawal"`
	Balances   any `json:"balances,omitempty"`
}

type DepositCheckResponse struct {
	Deposits any `json:"deposits"`
	Balances any `json:"balances"`
}

type DepositInfoResponse struct {
	DepositAddress string `json:"deposit_address"`
	MinDeposit     string `json:"min_deposit"`
}
