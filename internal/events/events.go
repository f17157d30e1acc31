package events

import "context"

// Event types
const (
	EventBalanceChanged      = "balance_changed"
	EventBetResolved         = "bet_resolved"
	EventDepositConfirmed    = "deposit_confirmed"
	EventStarsPaymentDone    = "stars_payment_done"
	EventWithdrawalUpdated   = "withdrawal_status_changed"
	EventWithdrawalCompleted = "withdrawal_completed"
	EventBotNotification     = "bot_notification"
)

// Streams
const (
	StreamPayments = "events:payments"
	StreamGame     = "events:game"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
