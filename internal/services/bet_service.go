package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/errs"
	"github.com/plinko-game/backend/internal/events"
	"github.com/plinko-game/backend/internal/models"
	"github.com/plinko-game/backend/internal/plinko"
	"github.com/plinko-game/backend/internal/repositories"
)

// Расхождение между присланной клиентом выплатой и пересчитанной на
// сервере, которое ещё считается ошибкой округления, а не подлогом.
var payoutTolerance = decimal.New(1, -6)

// settleAmounts — вся денежная арифметика исхода ставки. Выплата считается
// только на сервере: payout = stake * multiplier, profit = payout - stake.
func settleAmounts(stake, multiplier decimal.Decimal) (payout, profit decimal.Decimal, isWin bool) {
	payout = stake.Mul(multiplier)
	profit = payout.Sub(stake)
	isWin = multiplier.GreaterThan(decimal.NewFromInt(1))
	return payout, profit, isWin
}

// payoutWithinTolerance сверяет клиентскую выплату с серверной.
func payoutWithinTolerance(client, server decimal.Decimal) bool {
	return client.Sub(server).Abs().LessThanOrEqual(payoutTolerance)
}

type BetService struct {
	pool      *pgxpool.Pool
	users     *repositories.UserRepo
	bets      *repositories.BetRepo
	publisher events.Publisher
	log       *zap.Logger
}

func NewBetService(
	pool *pgxpool.Pool,
	users *repositories.UserRepo,
	bets *repositories.BetRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *BetService {
	return &BetService{pool: pool, users: users, bets: bets, publisher: publisher, log: log}
}

// InitiateBet списывает ставку и создаёт незавершённую запись. Выплата
// начисляется позже, когда клиентская анимация доиграет (ResolveBet) или
// при досчёте (SettlePending).
func (s *BetService) InitiateBet(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency models.Currency, risk models.RiskLevel, rows int) (*models.Bet, models.BalancePair, error) {
	var bp models.BalancePair

	if !amount.IsPositive() {
		return nil, bp, errs.Validationf("bet amount must be positive")
	}
	if !currency.Valid() {
		return nil, bp, errs.Validationf("unknown currency: %s", currency)
	}
	if !risk.Valid() {
		return nil, bp, errs.Validationf("unknown risk level: %s", risk)
	}
	// Таблица должна существовать, иначе ставку никогда не досчитать
	if _, err := plinko.Table(risk, rows); err != nil {
		return nil, bp, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, bp, err
	}
	defer tx.Rollback(ctx)

	user, err := s.users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}

	if user.Balance(currency).LessThan(amount) {
		return nil, bp, errs.InsufficientFunds(user.Balance(currency), amount)
	}

	bp, err = s.users.AdjustBalance(ctx, tx, userID, currency, amount.Neg())
	if err != nil {
		return nil, bp, fmt.Errorf("debit stake: %w", err)
	}

	bet, err := s.bets.InsertPending(ctx, tx, userID, amount, currency, risk, rows)
	if err != nil {
		return nil, bp, fmt.Errorf("insert bet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bp, err
	}

	s.publishBalance(ctx, user.TelegramID, bp)
	return bet, bp, nil
}

// ResolveBet записывает исход ставки и начисляет выплату. Множитель
// обязан существовать в таблице ставки; если клиент прислал и путь шарика,
// конечная позиция должна давать тот же множитель. Повторный вызов по уже
// завершённой ставке возвращает сохранённый результат без движения денег.
func (s *BetService) ResolveBet(ctx context.Context, userID, betID uuid.UUID, multiplier decimal.Decimal, ballPath []int, clientPayout *decimal.Decimal) (*models.Bet, models.BalancePair, error) {
	var bp models.BalancePair

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, bp, err
	}
	defer tx.Rollback(ctx)

	// Порядок блокировок фиксированный: сначала пользователь, потом ставка
	user, err := s.users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}

	bet, err := s.bets.GetByIDForUpdate(ctx, tx, betID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}
	if bet.UserID != userID {
		return nil, bp, errs.ErrNotFound
	}

	if bet.Resolved() {
		bp, err = s.users.Balances(ctx, userID)
		if err != nil {
			return nil, bp, err
		}
		return bet, bp, nil
	}

	table, err := plinko.Table(bet.RiskLevel, bet.RowsCount)
	if err != nil {
		return nil, bp, err
	}
	known := false
	for _, m := range table {
		if m.Equal(multiplier) {
			known = true
			break
		}
	}
	if !known {
		return nil, bp, errs.Validationf("multiplier %s is not in the %s/%d table", multiplier, bet.RiskLevel, bet.RowsCount)
	}

	if len(ballPath) > 0 {
		if len(ballPath) != bet.RowsCount {
			return nil, bp, errs.Validationf("ball path must have %d steps, got %d", bet.RowsCount, len(ballPath))
		}
		fromPath, err := plinko.MultiplierFor(bet.RiskLevel, bet.RowsCount, ballPath[len(ballPath)-1])
		if err != nil {
			return nil, bp, err
		}
		if !fromPath.Equal(multiplier) {
			return nil, bp, errs.Validationf("ball path ends at multiplier %s, claimed %s", fromPath, multiplier)
		}
	}

	payout, profit, isWin := settleAmounts(bet.Amount, multiplier)

	if clientPayout != nil && !payoutWithinTolerance(*clientPayout, payout) {
		return nil, bp, errs.Validationf("payout mismatch: client %s, server %s", clientPayout, payout)
	}

	resolved, err := s.bets.Resolve(ctx, tx, betID, multiplier, payout, profit, isWin, ballPath)
	if err != nil {
		return nil, bp, fmt.Errorf("resolve bet: %w", err)
	}
	if !resolved {
		// Гонка: кто-то завершил между нашим SELECT и UPDATE
		return nil, bp, errs.ErrAlreadyProcessed
	}

	if payout.IsPositive() {
		bp, err = s.users.AdjustBalance(ctx, tx, userID, bet.Currency, payout)
		if err != nil {
			return nil, bp, fmt.Errorf("credit payout: %w", err)
		}
	} else {
		bp = models.BalancePair{StarsBalance: user.StarsBalance, TONBalance: user.TONBalance}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bp, err
	}

	bet, _ = s.bets.GetByID(ctx, betID)
	s.publishBetResolved(ctx, user.TelegramID, bet, bp)
	return bet, bp, nil
}

type SettleResult struct {
	Settled     int                `json:"settled"`
	StarsPayout decimal.Decimal    `json:"stars_payout"`
	TONPayout   decimal.Decimal    `json:"ton_payout"`
	Balances    models.BalancePair `json:"balances"`
}

// SettlePending досчитывает все незавершённые ставки пользователя
// серверной симуляцией. Ставка уже списана при создании, поэтому на баланс
// начисляется полная выплата, по одному зачислению на валюту.
func (s *BetService) SettlePending(ctx context.Context, userID uuid.UUID) (*SettleResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user, err := s.users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	pending, err := s.bets.ListPendingForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	res := &SettleResult{StarsPayout: decimal.Zero, TONPayout: decimal.Zero}
	for _, bet := range pending {
		sim, err := plinko.Simulate(bet.RiskLevel, bet.RowsCount)
		if err != nil {
			// Непросчитываемая ставка остаётся pending
			s.log.Warn("cannot settle bet",
				zap.String("bet_id", bet.ID.String()),
				zap.Error(err),
			)
			continue
		}

		payout, profit, isWin := settleAmounts(bet.Amount, sim.Multiplier)

		ok, err := s.bets.Resolve(ctx, tx, bet.ID, sim.Multiplier, payout, profit, isWin, sim.BallPath)
		if err != nil {
			return nil, fmt.Errorf("settle bet %s: %w", bet.ID, err)
		}
		if !ok {
			continue
		}

		if bet.Currency == models.CurrencyTON {
			res.TONPayout = res.TONPayout.Add(payout)
		} else {
			res.StarsPayout = res.StarsPayout.Add(payout)
		}
		res.Settled++
	}

	bp := models.BalancePair{StarsBalance: user.StarsBalance, TONBalance: user.TONBalance}
	if res.StarsPayout.IsPositive() {
		bp, err = s.users.AdjustBalance(ctx, tx, userID, models.CurrencyStars, res.StarsPayout)
		if err != nil {
			return nil, err
		}
	}
	if res.TONPayout.IsPositive() {
		bp, err = s.users.AdjustBalance(ctx, tx, userID, models.CurrencyTON, res.TONPayout)
		if err != nil {
			return nil, err
		}
	}
	res.Balances = bp

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if res.Settled > 0 {
		s.log.Info("pending bets settled",
			zap.String("user_id", userID.String()),
			zap.Int("count", res.Settled),
		)
		s.publishBalance(ctx, user.TelegramID, bp)
	}
	return res, nil
}

func (s *BetService) ListBets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.bets.ListByUser(ctx, userID, limit, offset)
}

func (s *BetService) GetBet(ctx context.Context, userID, betID uuid.UUID) (*models.Bet, error) {
	bet, err := s.bets.GetByID(ctx, betID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if bet.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return bet, nil
}

func (s *BetService) publishBalance(ctx context.Context, telegramID int64, bp models.BalancePair) {
	_ = s.publisher.Publish(ctx, events.StreamGame, events.Event{
		Type: events.EventBalanceChanged,
		Payload: map[string]any{
			"telegram_id":   telegramID,
			"stars_balance": bp.StarsBalance.String(),
			"ton_balance":   bp.TONBalance.String(),
		},
	})
}

func (s *BetService) publishBetResolved(ctx context.Context, telegramID int64, bet *models.Bet, bp models.BalancePair) {
	if bet == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.StreamGame, events.Event{
		Type: events.EventBetResolved,
		Payload: map[string]any{
			"telegram_id":   telegramID,
			"bet_id":        bet.ID.String(),
			"payout":        bet.Payout.String(),
			"is_win":        bet.IsWin,
			"stars_balance": bp.StarsBalance.String(),
			"ton_balance":   bp.TONBalance.String(),
		},
	})
}
