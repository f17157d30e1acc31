package models

import "testing"

func TestWithdrawalTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusProcessing, true},
		{WithdrawalStatusPending, WithdrawalStatusCancelled, true},
		{WithdrawalStatusPending, WithdrawalStatusCompleted, false},
		{WithdrawalStatusProcessing, WithdrawalStatusCompleted, true},
		{WithdrawalStatusProcessing, WithdrawalStatusFailed, true},
		{WithdrawalStatusProcessing, WithdrawalStatusPending, true}, // возврат зависшей заявки
		{WithdrawalStatusManualReview, WithdrawalStatusPending, true},
		{WithdrawalStatusManualReview, WithdrawalStatusCancelled, true},
		{WithdrawalStatusManualReview, WithdrawalStatusCompleted, false},
		{WithdrawalStatusCompleted, WithdrawalStatusFailed, false},
		{WithdrawalStatusFailed, WithdrawalStatusPending, false},
		{WithdrawalStatusCancelled, WithdrawalStatusPending, false},
		{"garbage", WithdrawalStatusPending, false},
	}
	for _, c := range cases {
		if got := IsValidWithdrawalTransition(c.from, c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, s := range []string{WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusCancelled} {
		if len(ValidWithdrawalTransitions[s]) != 0 {
			t.Errorf("status %s must be terminal", s)
		}
	}
}

func TestRefundableWithdrawalStatus(t *testing.T) {
	refundable := map[string]bool{
		WithdrawalStatusPending:      true,
		WithdrawalStatusProcessing:   true,
		WithdrawalStatusManualReview: true,
		WithdrawalStatusCompleted:    false,
		WithdrawalStatusFailed:       false,
		WithdrawalStatusCancelled:    false,
	}
	for s, want := range refundable {
		if got := RefundableWithdrawalStatus(s); got != want {
			t.Errorf("RefundableWithdrawalStatus(%s) = %v, want %v", s, got, want)
		}
	}
}
