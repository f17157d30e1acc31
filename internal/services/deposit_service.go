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
	"github.com/plinko-game/backend/internal/repositories"
	"github.com/plinko-game/backend/internal/ton"
)

// IncomingLister отдаёт недавние входящие переводы депозитного кошелька.
type IncomingLister interface {
	ListRecentIncoming(ctx context.Context, limit int) ([]ton.TransferRecord, error)
}

const incomingScanDepth = 100

type DepositService struct {
	pool           *pgxpool.Pool
	users          *repositories.UserRepo
	deposits       *repositories.DepositRepo
	chain          IncomingLister
	depositAddress string
	cfg            DepositConfig
	publisher      events.Publisher
	log            *zap.Logger
}

type DepositConfig struct {
	Min       decimal.Decimal
	Tolerance decimal.Decimal
}

func NewDepositService(
	pool *pgxpool.Pool,
	users *repositories.UserRepo,
	deposits *repositories.DepositRepo,
	chain IncomingLister,
	depositAddress string,
	cfg DepositConfig,
	publisher events.Publisher,
	log *zap.Logger,
) *DepositService {
	return &DepositService{
		pool:           pool,
		users:          users,
		deposits:       deposits,
		chain:          chain,
		depositAddress: depositAddress,
		cfg:            cfg,
		publisher:      publisher,
		log:            log,
	}
}

// DepositAddress — адрес, на который игроки шлют TON.
func (s *DepositService) DepositAddress() string {
	return s.depositAddress
}

// CheckDeposits ищет в истории кошелька свежие переводы с привязанного
// адреса пользователя и зачисляет ненайденные ранее. Зачисление и запись
// депозита происходят в одной транзакции, по хешу — строго один раз.
func (s *DepositService) CheckDeposits(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, models.BalancePair, error) {
	var bp models.BalancePair

	if s.chain == nil {
		return nil, bp, fmt.Errorf("deposit confirmation is not configured")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return nil, bp, errs.Validationf("link a wallet before checking deposits")
	}

	records, err := s.chain.ListRecentIncoming(ctx, incomingScanDepth)
	if err != nil {
		return nil, bp, fmt.Errorf("scan incoming transfers: %w", err)
	}

	bp, err = s.users.Balances(ctx, userID)
	if err != nil {
		return nil, bp, err
	}

	var credited []*models.Deposit
	for _, rec := range records {
		if !depositCandidate(rec, *user.WalletAddress, s.cfg) {
			continue
		}

		exists, err := s.deposits.ExistsByTxHash(ctx, rec.Hash)
		if err != nil {
			return nil, bp, err
		}
		if exists {
			continue
		}

		dep, newBalances, err := s.credit(ctx, user, rec)
		if err != nil {
			s.log.Error("deposit credit failed",
				zap.String("user_id", userID.String()),
				zap.String("tx_hash", rec.Hash),
				zap.Error(err),
			)
			continue
		}
		if dep == nil {
			continue
		}
		credited = append(credited, dep)
		bp = newBalances
	}

	return credited, bp, nil
}

// VerifyDeposit подтверждает конкретную заявку: ищет входящий перевод на
// заявленную сумму (в пределах допуска) с заявленного адреса. Без
// совпадения ничего не пишется — депозиты никогда не заводятся авансом.
func (s *DepositService) VerifyDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, walletAddress string) (*models.Deposit, models.BalancePair, error) {
	var bp models.BalancePair

	if s.chain == nil {
		return nil, bp, fmt.Errorf("deposit confirmation is not configured")
	}
	if !amount.IsPositive() {
		return nil, bp, errs.Validationf("deposit amount must be positive")
	}
	normalized, err := ton.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, bp, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bp, errs.ErrNotFound
		}
		return nil, bp, err
	}

	records, err := s.chain.ListRecentIncoming(ctx, incomingScanDepth)
	if err != nil {
		return nil, bp, fmt.Errorf("scan incoming transfers: %w", err)
	}

	bp, err = s.users.Balances(ctx, userID)
	if err != nil {
		return nil, bp, err
	}

	for _, rec := range records {
		if rec.Hash == "" || !ton.SameAddress(rec.Counterparty, normalized) {
			continue
		}
		if rec.Amount.Sub(amount).Abs().GreaterThan(s.cfg.Tolerance) {
			continue
		}
		exists, err := s.deposits.ExistsByTxHash(ctx, rec.Hash)
		if err != nil {
			return nil, bp, err
		}
		if exists {
			continue
		}
		return s.credit(ctx, user, rec)
	}

	// Не найдено — не ошибка, перевод мог ещё не дойти
	return nil, bp, nil
}

// depositCandidate отбирает переводы, пригодные к зачислению: с хешем,
// с привязанного адреса и не меньше минимума. Допуск покрывает комиссию
// сети, съеденную кошельком отправителя.
func depositCandidate(rec ton.TransferRecord, walletAddress string, cfg DepositConfig) bool {
	if rec.Hash == "" {
		return false
	}
	if !ton.SameAddress(rec.Counterparty, walletAddress) {
		return false
	}
	return !rec.Amount.Add(cfg.Tolerance).LessThan(cfg.Min)
}

func (s *DepositService) credit(ctx context.Context, user *models.User, rec ton.TransferRecord) (*models.Deposit, models.BalancePair, error) {
	var bp models.BalancePair

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, bp, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.users.GetByIDForUpdate(ctx, tx, user.ID); err != nil {
		return nil, bp, err
	}

	// Повторная проверка под блокировкой: два параллельных запроса не
	// зачислят один перевод дважды, уникальный индекс по хешу — последняя линия
	exists, err := s.deposits.ExistsByTxHash(ctx, rec.Hash)
	if err != nil {
		return nil, bp, err
	}
	if exists {
		return nil, bp, nil
	}

	dep, err := s.deposits.InsertConfirmed(ctx, tx, user.ID, rec.Amount, rec.Counterparty, rec.Hash)
	if err != nil {
		return nil, bp, fmt.Errorf("insert deposit: %w", err)
	}
	bp, err = s.users.AdjustBalance(ctx, tx, user.ID, models.CurrencyTON, rec.Amount)
	if err != nil {
		return nil, bp, fmt.Errorf("credit balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bp, err
	}

	s.log.Info("deposit confirmed",
		zap.String("user_id", user.ID.String()),
		zap.String("amount", rec.Amount.String()),
		zap.String("tx_hash", rec.Hash),
	)
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventDepositConfirmed,
		Payload: map[string]any{
			"telegram_id": user.TelegramID,
			"deposit_id":  dep.ID.String(),
			"amount":      rec.Amount.String(),
			"tx_hash":     rec.Hash,
		},
	})
	return dep, bp, nil
}

func (s *DepositService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Deposit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.deposits.ListByUser(ctx, userID, limit, offset)
}
