package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/plinko-game/backend/internal/models"
)

func TestTransferComment(t *testing.T) {
	id := uuid.MustParse("c7b9f6e2-1a34-4d9b-8f21-0123456789ab")

	got := transferComment(id)
	if got != "plinko:wd:c7b9f6e2-1a34-4d9b-8f21-0123456789ab" {
		t.Errorf("transferComment() = %q", got)
	}

	// Детерминизм: повторный вызов даёт тот же комментарий, по нему заявка
	// находит свой перевод после рестарта
	if again := transferComment(id); again != got {
		t.Errorf("transferComment not deterministic: %q vs %q", got, again)
	}

	other := transferComment(uuid.New())
	if other == got {
		t.Error("different withdrawals produced the same comment")
	}
	if !strings.HasPrefix(other, "plinko:wd:") {
		t.Errorf("comment %q missing prefix", other)
	}
}

func TestClaimEligibility(t *testing.T) {
	cases := []struct {
		status  string
		claim   bool
		wantErr bool
	}{
		{models.WithdrawalStatusPending, true, false},
		// Повторный Process по завершённой или уже взятой заявке — не ошибка
		{models.WithdrawalStatusCompleted, false, false},
		{models.WithdrawalStatusProcessing, false, false},
		{models.WithdrawalStatusFailed, false, true},
		{models.WithdrawalStatusCancelled, false, true},
		{models.WithdrawalStatusManualReview, false, true},
	}
	for _, c := range cases {
		claim, err := claimEligibility(c.status)
		if claim != c.claim {
			t.Errorf("claimEligibility(%s) claim = %v, want %v", c.status, claim, c.claim)
		}
		if (err != nil) != c.wantErr {
			t.Errorf("claimEligibility(%s) err = %v, wantErr %v", c.status, err, c.wantErr)
		}
	}
}
