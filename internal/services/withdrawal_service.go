package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/errs"
	"github.com/plinko-game/backend/internal/events"
	"github.com/plinko-game/backend/internal/models"
	"github.com/plinko-game/backend/internal/policy"
	"github.com/plinko-game/backend/internal/repositories"
	"github.com/plinko-game/backend/internal/ton"
)

// TransferClient — то, что сервису нужно от горячего кошелька. В проде это
// *ton.Wallet, в тестах — фейк.
type TransferClient interface {
	Address() string
	Seqno(ctx context.Context) (uint64, error)
	SubmitTransfer(ctx context.Context, to string, amount decimal.Decimal, comment string) error
	WaitForConfirmation(ctx context.Context, prevSeqno uint64) error
	FindOutgoingByComment(ctx context.Context, comment string, limit int) (*ton.TransferRecord, error)
}

const outgoingSearchDepth = 200

type WithdrawalService struct {
	pool        *pgxpool.Pool
	users       *repositories.UserRepo
	withdrawals *repositories.WithdrawalRepo
	deposits    *repositories.DepositRepo
	wallet      TransferClient // nil, если сид не задан — выводы отключены
	limits      policy.Limits
	publisher   events.Publisher
	log         *zap.Logger
}

func NewWithdrawalService(
	pool *pgxpool.Pool,
	users *repositories.UserRepo,
	withdrawals *repositories.WithdrawalRepo,
	deposits *repositories.DepositRepo,
	wallet TransferClient,
	limits policy.Limits,
	publisher events.Publisher,
	log *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		pool:        pool,
		users:       users,
		withdrawals: withdrawals,
		deposits:    deposits,
		wallet:      wallet,
		limits:      limits,
		publisher:   publisher,
		log:         log,
	}
}

// transferComment — детерминированный комментарий он-чейн перевода.
// По нему заявка находит свой перевод в истории кошелька, в том числе
// после падения воркера между отправкой и записью результата.
func transferComment(id uuid.UUID) string {
	return "plinko:wd:" + id.String()
}

// Create валидирует заявку, резервирует gross с баланса и кладёт заявку
// в очередь. Крупные суммы уходят на ручную проверку.
func (s *WithdrawalService) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, walletAddress string) (*models.Withdrawal, models.BalancePair, error) {
	var bp models.BalancePair

	normalized, err := ton.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, bp, err
	}
	if err := s.limits.ValidateAmount(amount); err != nil {
		return nil, bp, err
	}

	// Суточные лимиты до открытия транзакции: дешёвый отказ без блокировок.
	// Под блокировкой они перепроверяются ещё раз
	usedAmount, usedCount, err := s.withdrawals.DailyUsage(ctx, userID)
	if err != nil {
		return nil, bp, err
	}
	if err := s.limits.ValidateDaily(amount, usedAmount, usedCount); err != nil {
		return nil, bp, err
	}

	// Сумма депозитов только растёт, так что проверка вне блокировки не
	// пропустит того, кого должна была отсечь
	deposited, err := s.deposits.SumConfirmed(ctx, userID)
	if err != nil {
		return nil, bp, err
	}
	if err := s.limits.ValidatePriorDeposit(deposited); err != nil {
		return nil, bp, err
	}

	fee := s.limits.Fees.Fee(amount)
	net := amount.Sub(fee)

	decision := s.limits.Route(amount)
	status := models.WithdrawalStatusPending
	if decision == policy.DecisionManualReview {
		status = models.WithdrawalStatusManualReview
	}
	autoProcess := decision == policy.DecisionAuto

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

	if err := s.limits.ValidateAccountAge(user.CreatedAt, time.Now()); err != nil {
		return nil, bp, err
	}
	if user.TONBalance.LessThan(amount) {
		return nil, bp, errs.InsufficientFunds(user.TONBalance, amount)
	}

	// Повтор суточной проверки под блокировкой строки пользователя: два
	// параллельных Create сериализуются здесь и видят заявки друг друга,
	// снимок до блокировки мог устареть
	usedAmount, usedCount, err = s.withdrawals.DailyUsageTx(ctx, tx, userID)
	if err != nil {
		return nil, bp, err
	}
	if err := s.limits.ValidateDaily(amount, usedAmount, usedCount); err != nil {
		return nil, bp, err
	}

	bp, err = s.users.AdjustBalance(ctx, tx, userID, models.CurrencyTON, amount.Neg())
	if err != nil {
		return nil, bp, fmt.Errorf("reserve gross: %w", err)
	}

	w, err := s.withdrawals.Insert(ctx, tx, userID, amount, fee, net, normalized, status, autoProcess)
	if err != nil {
		return nil, bp, fmt.Errorf("insert withdrawal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bp, err
	}

	s.log.Info("withdrawal created",
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("amount", amount.String()),
		zap.String("status", status),
		zap.Bool("auto_process", autoProcess),
	)
	s.publishStatus(ctx, user.TelegramID, w)

	// Создание отвечает сразу, перевод уходит в фоне. Воркер подстрахует,
	// если процесс упадёт до завершения
	if autoProcess && s.wallet != nil {
		go func(id uuid.UUID) {
			if _, err := s.Process(context.Background(), id); err != nil {
				s.log.Warn("async withdrawal processing failed",
					zap.String("withdrawal_id", id.String()),
					zap.Error(err),
				)
			}
		}(w.ID)
	}
	return w, bp, nil
}

// Process выполняет он-чейн перевод по заявке. Идемпотентен: по уже
// завершённой заявке возвращает сохранённый результат. Блокировка строки
// держится только на время смены статуса — сеть опрашивается без неё.
func (s *WithdrawalService) Process(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	if s.wallet == nil {
		return nil, fmt.Errorf("hot wallet is not configured")
	}

	// Фаза 1: pending -> processing под блокировкой
	w, claimed, err := s.claimForProcessing(ctx, withdrawalID)
	if err != nil || !claimed {
		return w, err
	}

	comment := transferComment(w.ID)

	// Перевод мог уйти в прошлой попытке, упавшей до записи результата
	if rec, err := s.wallet.FindOutgoingByComment(ctx, comment, outgoingSearchDepth); err == nil && rec != nil {
		s.log.Warn("transfer already on-chain, completing without resend",
			zap.String("withdrawal_id", w.ID.String()),
			zap.String("tx_hash", rec.Hash),
		)
		return s.complete(ctx, w.ID, rec.Hash)
	}

	seqnoBefore, err := s.wallet.Seqno(ctx)
	if err != nil {
		// До отправки дело не дошло, возврат безопасен
		return s.fail(ctx, w.ID, fmt.Sprintf("seqno read failed: %v", err))
	}

	if err := s.wallet.SubmitTransfer(ctx, w.WalletAddress, w.NetAmount, comment); err != nil {
		// Отправка не прошла — денег в сети нет, заявку проваливаем с возвратом
		return s.fail(ctx, w.ID, fmt.Sprintf("transfer failed: %v", err))
	}

	if err := s.wallet.WaitForConfirmation(ctx, seqnoBefore); err != nil {
		// Таймаут подтверждения — решение окончательное: провал и возврат.
		// Но сперва ищем перевод в истории: он мог уйти, а подтверждение
		// опоздать; провалить такой — раздать деньги дважды
		if rec, lerr := s.wallet.FindOutgoingByComment(ctx, comment, outgoingSearchDepth); lerr == nil && rec != nil {
			return s.complete(ctx, w.ID, rec.Hash)
		}
		return s.fail(ctx, w.ID, fmt.Sprintf("confirmation timeout: %v", err))
	}

	txHash := ""
	if rec, err := s.wallet.FindOutgoingByComment(ctx, comment, outgoingSearchDepth); err == nil && rec != nil {
		txHash = rec.Hash
	}
	if txHash == "" {
		// Хеш best-effort: синтетическая ссылка лучше пустой
		txHash = fmt.Sprintf("seqno_%d_w%s", seqnoBefore+1, w.ID)
	}

	return s.complete(ctx, w.ID, txHash)
}

/// claimEligibility решает судьбу вызова Process по текущему статусу:
// pending — берём в работу; completed и processing — спокойный no-op
// (результат уже есть или заявка в полёте у другого исполнителя);
// остальное — ошибка.
func claimEligibility(status string) (claim bool, err error) {
	switch status {
	case models.WithdrawalStatusPending:
		return true, nil
	case models.WithdrawalStatusCompleted, models.WithdrawalStatusProcessing:
		return false, nil
	default:
		return false, errs.Validationf("cannot process withdrawal in status %s", status)
	}
}

func (s *WithdrawalService) claimForProcessing(ctx context.Context, id uuid.UUID) (*models.Withdrawal, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, errs.ErrNotFound
		}
		return nil, false, err
	}

	claim, err := claimEligibility(w.Status)
	if err != nil {
		return nil, false, err
	}
	if !claim {
		return w, false, nil
	}

	ok, err := s.withdrawals.UpdateStatus(ctx, tx, id, models.WithdrawalStatusPending, models.WithdrawalStatusProcessing)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// Гонка: другой исполнитель забрал заявку между SELECT и UPDATE
		return w, false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	w.Status = models.WithdrawalStatusProcessing
	return w, true, nil
}

func (s *WithdrawalService) complete(ctx context.Context, id uuid.UUID, txHash string) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if w.Status == models.WithdrawalStatusCompleted {
		return w, nil
	}
	if !models.IsValidWithdrawalTransition(w.Status, models.WithdrawalStatusCompleted) {
		return nil, errs.Validationf("cannot complete withdrawal in status %s", w.Status)
	}

	if err := s.withdrawals.MarkCompleted(ctx, tx, id, txHash); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	w, err = s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal completed",
		zap.String("withdrawal_id", id.String()),
		zap.String("tx_hash", txHash),
		zap.String("net_amount", w.NetAmount.String()),
	)
	s.publishCompleted(ctx, w)
	return w, nil
}

// fail переводит заявку в failed и возвращает gross на баланс в одной
// транзакции.
func (s *WithdrawalService) fail(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	// Хозяина узнаём без блокировки: порядок везде один — сначала строка
	// пользователя, потом заявка, иначе дедлок с Cancel
	peek, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.GetByIDForUpdate(ctx, tx, peek.UserID); err != nil {
		return nil, err
	}
	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !models.IsValidWithdrawalTransition(w.Status, models.WithdrawalStatusFailed) {
		return nil, errs.Validationf("cannot fail withdrawal in status %s", w.Status)
	}

	if err := s.withdrawals.MarkFailed(ctx, tx, id, reason); err != nil {
		return nil, err
	}
	if _, err := s.users.AdjustBalance(ctx, tx, w.UserID, models.CurrencyTON, w.Amount); err != nil {
		return nil, fmt.Errorf("refund gross: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Warn("withdrawal failed, gross refunded",
		zap.String("withdrawal_id", id.String()),
		zap.String("reason", reason),
	)
	w, _ = s.withdrawals.GetByID(ctx, id)
	if w != nil {
		s.publishStatusByUser(ctx, w)
	}
	return w, errs.ErrTransferFailed
}

// requeue возвращает заявку из processing в pending для повторной попытки.
// Деньги не трогаем: исход перевода неизвестен.
func (s *WithdrawalService) requeue(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.withdrawals.UpdateStatus(ctx, tx, id, models.WithdrawalStatusProcessing, models.WithdrawalStatusPending)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if ok {
		s.log.Warn("withdrawal requeued",
			zap.String("withdrawal_id", id.String()),
			zap.String("reason", reason),
		)
	}
	w, _ := s.withdrawals.GetByID(ctx, id)
	return w, fmt.Errorf("withdrawal requeued: %s", reason)
}

// Cancel — пользователь отменяет собственную заявку, пока она pending.
// Gross возвращается на баланс.
func (s *WithdrawalService) Cancel(ctx context.Context, userID, withdrawalID uuid.UUID) (*models.Withdrawal, models.BalancePair, error) {
	var bp models.BalancePair

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, bp, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.GetByIDForUpdate(ctx, tx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}
	if w.UserID != userID {
		return nil, bp, errs.ErrNotFound
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, bp, errs.Validationf("only pending withdrawals can be cancelled, status is %s", w.Status)
	}

	if err := s.withdrawals.MarkCancelled(ctx, tx, withdrawalID, "cancelled by user"); err != nil {
		return nil, bp, err
	}
	bp, err = s.users.AdjustBalance(ctx, tx, userID, models.CurrencyTON, w.Amount)
	if err != nil {
		return nil, bp, fmt.Errorf("refund gross: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bp, err
	}

	s.log.Info("withdrawal cancelled by user", zap.String("withdrawal_id", withdrawalID.String()))
	w, _ = s.withdrawals.GetByID(ctx, withdrawalID)
	if w != nil {
		s.publishStatusByUser(ctx, w)
	}
	return w, bp, nil
}

// Approve — админ выпускает заявку с ручной проверки обратно в очередь.
func (s *WithdrawalService) Approve(ctx context.Context, adminID, withdrawalID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if w.Status != models.WithdrawalStatusManualReview {
		return nil, errs.Validationf("withdrawal is not awaiting review, status is %s", w.Status)
	}

	if _, err := s.withdrawals.UpdateStatus(ctx, tx, withdrawalID, models.WithdrawalStatusManualReview, models.WithdrawalStatusPending); err != nil {
		return nil, err
	}
	if err := s.withdrawals.SetReview(ctx, tx, withdrawalID, adminID, notes); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Info("withdrawal approved",
		zap.String("withdrawal_id", withdrawalID.String()),
		zap.String("reviewed_by", adminID.String()),
	)
	w, _ = s.withdrawals.GetByID(ctx, withdrawalID)
	if w != nil {
		s.publishStatusByUser(ctx, w)
		if w.AutoProcess && s.wallet != nil {
			go func(id uuid.UUID) {
				if _, err := s.Process(context.Background(), id); err != nil {
					s.log.Warn("post-approve processing failed",
						zap.String("withdrawal_id", id.String()),
						zap.Error(err),
					)
				}
			}(w.ID)
		}
	}
	return w, nil
}

// Reject — админ отклоняет заявку (pending или manual_review), gross
// возвращается.
func (s *WithdrawalService) Reject(ctx context.Context, adminID, withdrawalID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	return s.adminCancel(ctx, adminID, withdrawalID, notes, "rejected by admin", func(status string) error {
		if status != models.WithdrawalStatusManualReview && status != models.WithdrawalStatusPending {
			return errs.Validationf("cannot reject withdrawal in status %s", status)
		}
		return nil
	})
}

// CancelRefund — аварийная отмена любой незавершённой заявки с возвратом
// gross. По completed запрещена: деньги уже ушли он-чейн.
func (s *WithdrawalService) CancelRefund(ctx context.Context, adminID, withdrawalID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	return s.adminCancel(ctx, adminID, withdrawalID, notes, "cancelled by admin", func(status string) error {
		if !models.RefundableWithdrawalStatus(status) {
			return errs.Validationf("cannot cancel withdrawal in status %s", status)
		}
		return nil
	})
}

func (s *WithdrawalService) adminCancel(ctx context.Context, adminID, withdrawalID uuid.UUID, notes *string, reason string, allowed func(status string) error) (*models.Withdrawal, error) {
	// Хозяина узнаём без блокировки, статус перепроверяется под замком.
	// Порядок блокировок: пользователь, затем заявка
	peek, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.GetByIDForUpdate(ctx, tx, peek.UserID); err != nil {
		return nil, err
	}
	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if err := allowed(w.Status); err != nil {
		return nil, err
	}

	if err := s.withdrawals.MarkCancelled(ctx, tx, withdrawalID, reason); err != nil {
		return nil, err
	}
	if err := s.withdrawals.SetReview(ctx, tx, withdrawalID, adminID, notes); err != nil {
		return nil, err
	}
	if _, err := s.users.AdjustBalance(ctx, tx, w.UserID, models.CurrencyTON, w.Amount); err != nil {
		return nil, fmt.Errorf("refund gross: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Info("withdrawal cancelled by admin",
		zap.String("withdrawal_id", withdrawalID.String()),
		zap.String("reviewed_by", adminID.String()),
		zap.String("reason", reason),
	)
	w, _ = s.withdrawals.GetByID(ctx, withdrawalID)
	if w != nil {
		s.publishStatusByUser(ctx, w)
	}
	return w, nil
}

// AddNote дописывает админский комментарий, статус не меняется.
func (s *WithdrawalService) AddNote(ctx context.Context, adminID, withdrawalID uuid.UUID, note string) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.withdrawals.GetByIDForUpdate(ctx, tx, withdrawalID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if err := s.withdrawals.SetReview(ctx, tx, withdrawalID, adminID, &note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.withdrawals.GetByID(ctx, withdrawalID)
}

// BatchItem — исход обработки одной заявки в проходе автообработки.
type BatchItem struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// BatchResult — сводка прохода по очереди автообработки.
type BatchResult struct {
	ProcessedCount int         `json:"processed_count"`
	Results        []BatchItem `json:"results"`
}

// ProcessAutoPending — один проход по очереди автообработки. Ошибка одной
// заявки не прерывает проход.
func (s *WithdrawalService) ProcessAutoPending(ctx context.Context, batch int) BatchResult {
	var res BatchResult
	if s.wallet == nil {
		return res
	}
	ws, err := s.withdrawals.ListAutoPending(ctx, batch)
	if err != nil {
		s.log.Error("list auto pending failed", zap.Error(err))
		return res
	}
	for _, w := range ws {
		item := BatchItem{WithdrawalID: w.ID}
		processed, err := s.Process(ctx, w.ID)
		if err != nil {
			item.Error = err.Error()
			s.log.Error("auto process failed",
				zap.String("withdrawal_id", w.ID.String()),
				zap.Error(err),
			)
		}
		if processed != nil {
			item.Status = processed.Status
		}
		if item.Status == models.WithdrawalStatusCompleted {
			res.ProcessedCount++
		}
		res.Results = append(res.Results, item)
	}
	return res
}

// ListStuck — заявки, зависшие в processing дольше порога. Для ручной
// сверки админом.
func (s *WithdrawalService) ListStuck(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Withdrawal, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.withdrawals.ListStuckProcessing(ctx, olderThan, limit)
}

// ResetStuck возвращает зависшую заявку в очередь. Только для заявок без
// хеша: если перевод ушёл, повторная отправка раздаст деньги дважды.
func (s *WithdrawalService) ResetStuck(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	w, err := s.withdrawals.GetByIDForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if w.Status != models.WithdrawalStatusProcessing {
		return nil, errs.Validationf("withdrawal is not stuck, status is %s", w.Status)
	}
	if w.TransactionHash != nil {
		return nil, errs.Validationf("withdrawal already has a transaction hash, refusing to requeue")
	}

	if _, err := s.withdrawals.UpdateStatus(ctx, tx, withdrawalID, models.WithdrawalStatusProcessing, models.WithdrawalStatusPending); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Info("stuck withdrawal reset to pending", zap.String("withdrawal_id", withdrawalID.String()))
	return s.withdrawals.GetByID(ctx, withdrawalID)
}

// RecoverStuck разбирает заявки, зависшие в processing: если перевод нашёлся
// в истории кошелька — завершает, иначе возвращает в очередь.
func (s *WithdrawalService) RecoverStuck(ctx context.Context, olderThan time.Duration, batch int) {
	if s.wallet == nil {
		return
	}
	stuck, err := s.withdrawals.ListStuckProcessing(ctx, olderThan, batch)
	if err != nil {
		s.log.Error("list stuck failed", zap.Error(err))
		return
	}
	for _, w := range stuck {
		rec, err := s.wallet.FindOutgoingByComment(ctx, transferComment(w.ID), outgoingSearchDepth)
		if err != nil {
			s.log.Warn("stuck recovery lookup failed",
				zap.String("withdrawal_id", w.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if rec != nil {
			if _, err := s.complete(ctx, w.ID, rec.Hash); err != nil {
				s.log.Error("stuck recovery complete failed", zap.String("withdrawal_id", w.ID.String()), zap.Error(err))
			}
			continue
		}
		if _, err := s.requeue(ctx, w.ID, "stuck in processing, no transfer on-chain"); err != nil {
			s.log.Debug("stuck requeue", zap.String("withdrawal_id", w.ID.String()), zap.Error(err))
		}
	}
}

func (s *WithdrawalService) Get(ctx context.Context, userID, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if w.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return w, nil
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.withdrawals.ListByUser(ctx, userID, limit, offset)
}

func (s *WithdrawalService) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Withdrawal, error) {
	if _, ok := models.ValidWithdrawalTransitions[status]; !ok {
		return nil, errs.Validationf("unknown status: %s", status)
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.withdrawals.ListByStatus(ctx, status, limit)
}

func (s *WithdrawalService) publishStatus(ctx context.Context, telegramID int64, w *models.Withdrawal) {
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventWithdrawalUpdated,
		Payload: map[string]any{
			"telegram_id":   telegramID,
			"withdrawal_id": w.ID.String(),
			"status":        w.Status,
			"amount":        w.Amount.String(),
		},
	})
}

func (s *WithdrawalService) publishStatusByUser(ctx context.Context, w *models.Withdrawal) {
	user, err := s.users.GetByID(ctx, w.UserID)
	if err != nil {
		return
	}
	s.publishStatus(ctx, user.TelegramID, w)
}

func (s *WithdrawalService) publishCompleted(ctx context.Context, w *models.Withdrawal) {
	user, err := s.users.GetByID(ctx, w.UserID)
	if err != nil {
		return
	}
	hash := ""
	if w.TransactionHash != nil {
		hash = *w.TransactionHash
	}
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventWithdrawalCompleted,
		Payload: map[string]any{
			"telegram_id":   user.TelegramID,
			"withdrawal_id": w.ID.String(),
			"net_amount":    w.NetAmount.String(),
			"tx_hash":       hash,
		},
	})
}
