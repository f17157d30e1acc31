package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/errs"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateAmountBounds(t *testing.T) {
	l := DefaultLimits()
	cases := []struct {
		amount string
		ok     bool
	}{
		{"0.09", false},
		{"0.1", true}, // ровно минимум проходит
		{"50", true},
		{"100", true}, // ровно максимум проходит
		{"100.01", false},
	}
	for _, c := range cases {
		err := l.ValidateAmount(d(c.amount))
		if c.ok && err != nil {
			t.Errorf("amount %s: unexpected error %v", c.amount, err)
		}
		if !c.ok && !errors.Is(err, errs.ErrValidation) {
			t.Errorf("amount %s: want validation error, got %v", c.amount, err)
		}
	}
}

func TestValidateAmountMustCoverFee(t *testing.T) {
	l := DefaultLimits()
	l.Min = d("0.001")
	l.Fees = FixedFee{Amount: d("0.01")}
	if err := l.ValidateAmount(d("0.01")); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("amount equal to fee must be rejected, got %v", err)
	}
	if err := l.ValidateAmount(d("0.011")); err != nil {
		t.Errorf("amount above fee must pass, got %v", err)
	}
}

func TestFixedFee(t *testing.T) {
	f := FixedFee{Amount: d("0.01")}
	if got := f.Fee(d("99")); !got.Equal(d("0.01")) {
		t.Errorf("fixed fee: got %s", got)
	}
}

func TestProportionalFeeFloor(t *testing.T) {
	p := ProportionalFee{Rate: d("0.02"), Minimum: d("0.01")}
	// 0.2 TON * 2% = 0.004 < минимум
	if got := p.Fee(d("0.2")); !got.Equal(d("0.01")) {
		t.Errorf("small amount: got %s, want floor 0.01", got)
	}
	if got := p.Fee(d("10")); !got.Equal(d("0.2")) {
		t.Errorf("large amount: got %s, want 0.2", got)
	}
}

func TestNewFeePolicy(t *testing.T) {
	if _, ok := NewFeePolicy("proportional", d("0.01"), d("0.02")).(ProportionalFee); !ok {
		t.Error("proportional mode must build ProportionalFee")
	}
	if _, ok := NewFeePolicy("fixed", d("0.01"), d("0.02")).(FixedFee); !ok {
		t.Error("fixed mode must build FixedFee")
	}
	if _, ok := NewFeePolicy("", d("0.01"), d("0.02")).(FixedFee); !ok {
		t.Error("unknown mode must fall back to FixedFee")
	}
}

func TestValidateAccountAge(t *testing.T) {
	l := DefaultLimits()
	now := time.Now()
	if err := l.ValidateAccountAge(now.Add(-23*time.Hour), now); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("young account: want validation error, got %v", err)
	}
	if err := l.ValidateAccountAge(now.Add(-25*time.Hour), now); err != nil {
		t.Errorf("old account: unexpected error %v", err)
	}
}

func TestValidateDaily(t *testing.T) {
	l := DefaultLimits()
	if err := l.ValidateDaily(d("1"), d("0"), 10); !errors.Is(err, errs.ErrLimitExceeded) {
		t.Errorf("count limit: want limit error, got %v", err)
	}
	if err := l.ValidateDaily(d("1"), d("499.5"), 3); !errors.Is(err, errs.ErrLimitExceeded) {
		t.Errorf("amount limit: want limit error, got %v", err)
	}
	if err := l.ValidateDaily(d("1"), d("499"), 3); err != nil {
		t.Errorf("exactly at limit must pass, got %v", err)
	}
}

func TestValidatePriorDeposit(t *testing.T) {
	l := DefaultLimits()
	if err := l.ValidatePriorDeposit(d("0.04")); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("below minimum: want validation error, got %v", err)
	}
	if err := l.ValidatePriorDeposit(d("0.05")); err != nil {
		t.Errorf("exactly at minimum must pass, got %v", err)
	}
	if err := l.ValidatePriorDeposit(d("1")); err != nil {
		t.Errorf("above minimum: unexpected error %v", err)
	}

	// Нулевой порог выключает проверку целиком
	l.MinPriorDeposit = decimal.Zero
	if err := l.ValidatePriorDeposit(d("0")); err != nil {
		t.Errorf("disabled check must pass, got %v", err)
	}
}

func TestRoute(t *testing.T) {
	l := DefaultLimits()
	cases := []struct {
		amount string
		want   Decision
	}{
		{"0.5", DecisionAuto},
		{"10", DecisionAuto}, // порог включительно
		{"10.01", DecisionQueue},
		{"49.99", DecisionQueue},
		{"50", DecisionManualReview},
		{"100", DecisionManualReview},
	}
	for _, c := range cases {
		if got := l.Route(d(c.amount)); got != c.want {
			t.Errorf("route(%s) = %s, want %s", c.amount, got, c.want)
		}
	}
}
