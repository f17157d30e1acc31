// Package policy собирает правила вывода средств: лимиты, комиссии и
// маршрутизацию заявок между автообработкой и ручной проверкой.
package policy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/errs"
)

// Пороговые значения в TON.
var (
	DefaultMinWithdrawal        = decimal.RequireFromString("0.1")
	DefaultMaxWithdrawal        = decimal.RequireFromString("100")
	DefaultDailyAmountLimit     = decimal.RequireFromString("500")
	DefaultFixedFee             = decimal.RequireFromString("0.01")
	DefaultPercentageFee        = decimal.RequireFromString("0.02")
	DefaultAutoProcessThreshold = decimal.RequireFromString("10")
	DefaultManualReviewLimit    = decimal.RequireFromString("50")
	DefaultMinPriorDeposit      = decimal.RequireFromString("0.05")
)

const (
	DefaultDailyCountLimit = 10
	DefaultMinAccountAge   = 24 * time.Hour
)

// FeePolicy вычисляет комиссию за вывод. Net = gross - fee; меньше нуля
// net быть не может, это проверяет Limits.ValidateAmount.
type FeePolicy interface {
	Fee(amount decimal.Decimal) decimal.Decimal
}

// FixedFee снимает одну и ту же комиссию с любой суммы.
type FixedFee struct {
	Amount decimal.Decimal
}

func (f FixedFee) Fee(decimal.Decimal) decimal.Decimal { return f.Amount }

// ProportionalFee берёт процент от суммы, но не меньше фиксированного
// минимума — иначе мелкие выводы уходили бы почти бесплатно.
type ProportionalFee struct {
	Rate    decimal.Decimal
	Minimum decimal.Decimal
}

func (p ProportionalFee) Fee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(p.Rate)
	if fee.LessThan(p.Minimum) {
		return p.Minimum
	}
	return fee
}

// NewFeePolicy выбирает стратегию по значению WITHDRAWAL_FEE_MODE.
func NewFeePolicy(mode string, fixed, rate decimal.Decimal) FeePolicy {
	if mode == "proportional" {
		return ProportionalFee{Rate: rate, Minimum: fixed}
	}
	return FixedFee{Amount: fixed}
}

// Decision — куда отправляется свежесозданная заявка.
type Decision string

const (
	DecisionAuto         Decision = "auto"          // воркер обрабатывает сам
	DecisionQueue        Decision = "queue"         // ждёт ручного запуска админом
	DecisionManualReview Decision = "manual_review" // требует явного approve
)

// Limits — конфигурируемые правила допуска заявок.
type Limits struct {
	Min              decimal.Decimal
	Max              decimal.Decimal
	DailyAmountLimit decimal.Decimal
	DailyCountLimit  int
	MinAccountAge    time.Duration
	MinPriorDeposit  decimal.Decimal // 0 — проверка отключена
	AutoThreshold    decimal.Decimal
	ReviewThreshold  decimal.Decimal
	Fees             FeePolicy
}

func DefaultLimits() Limits {
	return Limits{
		Min:              DefaultMinWithdrawal,
		Max:              DefaultMaxWithdrawal,
		DailyAmountLimit: DefaultDailyAmountLimit,
		DailyCountLimit:  DefaultDailyCountLimit,
		MinAccountAge:    DefaultMinAccountAge,
		MinPriorDeposit:  DefaultMinPriorDeposit,
		AutoThreshold:    DefaultAutoProcessThreshold,
		ReviewThreshold:  DefaultManualReviewLimit,
		Fees:             FixedFee{Amount: DefaultFixedFee},
	}
}

// ValidateAmount проверяет границы одной заявки.
func (l Limits) ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(l.Min) {
		return errs.Validationf("minimum withdrawal is %s TON", l.Min)
	}
	if amount.GreaterThan(l.Max) {
		return errs.Validationf("maximum withdrawal is %s TON", l.Max)
	}
	fee := l.Fees.Fee(amount)
	if !amount.Sub(fee).IsPositive() {
		return errs.Validationf("amount %s does not cover the %s TON fee", amount, fee)
	}
	return nil
}

// ValidateAccountAge не пускает на вывод совсем свежие аккаунты.
func (l Limits) ValidateAccountAge(createdAt, now time.Time) error {
	if now.Sub(createdAt) < l.MinAccountAge {
		return errs.Validationf("account must be at least %d hours old to withdraw", int(l.MinAccountAge.Hours()))
	}
	return nil
}

// ValidatePriorDeposit требует хотя бы один подтверждённый депозит на
// минимальную сумму до первого вывода. Нулевой порог отключает проверку.
func (l Limits) ValidatePriorDeposit(totalDeposited decimal.Decimal) error {
	if !l.MinPriorDeposit.IsPositive() {
		return nil
	}
	if totalDeposited.LessThan(l.MinPriorDeposit) {
		return errs.Validationf("a deposit of at least %s TON is required before withdrawing", l.MinPriorDeposit)
	}
	return nil
}

// ValidateDaily сверяет заявку с суточными лимитами. usedAmount и usedCount
// считаются по заявкам за последние 24 часа, кроме failed и cancelled.
func (l Limits) ValidateDaily(amount, usedAmount decimal.Decimal, usedCount int) error {
	if usedCount >= l.DailyCountLimit {
		return errs.LimitExceededf("daily withdrawal count limit of %d reached", l.DailyCountLimit)
	}
	if usedAmount.Add(amount).GreaterThan(l.DailyAmountLimit) {
		return errs.LimitExceededf("daily withdrawal amount limit of %s TON exceeded", l.DailyAmountLimit)
	}
	return nil
}

// Route решает судьбу заявки по её сумме.
func (l Limits) Route(amount decimal.Decimal) Decision {
	if amount.GreaterThanOrEqual(l.ReviewThreshold) {
		return DecisionManualReview
	}
	if amount.LessThanOrEqual(l.AutoThreshold) {
		return DecisionAuto
	}
	return DecisionQueue
}
