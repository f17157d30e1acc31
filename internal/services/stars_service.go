package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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
	"github.com/plinko-game/backend/internal/repositories"
)

type StarsService struct {
	pool      *pgxpool.Pool
	users     *repositories.UserRepo
	stars     *repositories.StarRepo
	bot       *BotClient
	minStars  int64
	maxStars  int64
	publisher events.Publisher
	log       *zap.Logger
}

func NewStarsService(
	pool *pgxpool.Pool,
	users *repositories.UserRepo,
	stars *repositories.StarRepo,
	bot *BotClient,
	minStars, maxStars int64,
	publisher events.Publisher,
	log *zap.Logger,
) *StarsService {
	return &StarsService{
		pool:      pool,
		users:     users,
		stars:     stars,
		bot:       bot,
		minStars:  minStars,
		maxStars:  maxStars,
		publisher: publisher,
		log:       log,
	}
}

// makePayload собирает уникальный payload инвойса. Формат стабильный:
// по нему webhook находит транзакцию.
func makePayload(telegramID int64) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("stars_%d_%d_%s", time.Now().Unix(), telegramID, hex.EncodeToString(buf)), nil
}

type InvoiceResult struct {
	InvoiceLink string `json:"invoice_link"`
	Payload     string `json:"payload"`
}

// CreateInvoice регистрирует pending-покупку и выдаёт ссылку на оплату.
// Баланс не трогается до подтверждения платежа.
func (s *StarsService) CreateInvoice(ctx context.Context, userID uuid.UUID, stars int64) (*InvoiceResult, error) {
	if stars < s.minStars || stars > s.maxStars {
		return nil, errs.Validationf("stars amount must be between %d and %d", s.minStars, s.maxStars)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	payload, err := makePayload(user.TelegramID)
	if err != nil {
		return nil, err
	}

	if _, err := s.stars.InsertPending(ctx, userID, user.TelegramID, decimal.NewFromInt(stars), payload); err != nil {
		return nil, fmt.Errorf("insert star transaction: %w", err)
	}

	link, err := s.bot.CreateStarsInvoiceLink(ctx,
		"Plinko Stars",
		fmt.Sprintf("%d Stars for Plinko", stars),
		payload, stars)
	if err != nil {
		return nil, fmt.Errorf("create invoice link: %w", err)
	}

	s.log.Info("stars invoice created",
		zap.String("user_id", userID.String()),
		zap.Int64("stars", stars),
	)
	return &InvoiceResult{InvoiceLink: link, Payload: payload}, nil
}

// ConfirmPayment зачисляет оплаченные звёзды. Одна и та же точка схода
// для webhook-а бота и клиентского verify: оба пути упираются в один
// идемпотентный переход pending -> completed. Повторный вызов с тем же
// payload вернёт уже завершённую транзакцию без второго зачисления.
func (s *StarsService) ConfirmPayment(ctx context.Context, telegramID int64, payload string, paidStars int64, telegramChargeID, providerChargeID *string) (*models.StarTransaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	st, err := s.stars.GetByPayloadForUpdate(ctx, tx, payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	// Чужой payload неотличим от несуществующего
	if st.TelegramID != telegramID {
		return nil, errs.ErrNotFound
	}

	if st.Status == models.StarTxStatusCompleted {
		return st, nil
	}
	if st.Status != models.StarTxStatusPending {
		return nil, errs.ErrAlreadyProcessed
	}
	if !st.Amount.Equal(decimal.NewFromInt(paidStars)) {
		return nil, errs.Validationf("paid %d stars, invoice was for %s", paidStars, st.Amount)
	}

	user, err := s.users.GetByIDForUpdate(ctx, tx, st.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.stars.MarkCompleted(ctx, tx, st.ID, telegramChargeID, providerChargeID); err != nil {
		return nil, err
	}
	bp, err := s.users.AdjustBalance(ctx, tx, st.UserID, models.CurrencyStars, st.Amount)
	if err != nil {
		return nil, fmt.Errorf("credit stars: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Info("stars payment confirmed",
		zap.String("user_id", st.UserID.String()),
		zap.String("amount", st.Amount.String()),
	)
	_ = s.publisher.Publish(ctx, events.StreamPayments, events.Event{
		Type: events.EventStarsPaymentDone,
		Payload: map[string]any{
			"telegram_id":   user.TelegramID,
			"amount":        st.Amount.String(),
			"stars_balance": bp.StarsBalance.String(),
		},
	})
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.bot.SendNotification(nctx, user.TelegramID, fmt.Sprintf("⭐ %s Stars credited to your balance", st.Amount))
	}()

	return s.stars.GetByPayload(ctx, payload)
}

func (s *StarsService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.StarTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.stars.ListByUser(ctx, userID, limit, offset)
}
