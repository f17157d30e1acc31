package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/models"
)

const starTxColumns = `id, user_id, telegram_id, amount, payload, status,
	telegram_payment_charge_id, provider_payment_charge_id, created_at, completed_at`

type StarRepo struct {
	pool *pgxpool.Pool
}

func NewStarRepo(pool *pgxpool.Pool) *StarRepo {
	return &StarRepo{pool: pool}
}

func scanStarTx(row pgx.Row) (*models.StarTransaction, error) {
	var st models.StarTransaction
	err := row.Scan(
		&st.ID, &st.UserID, &st.TelegramID, &st.Amount, &st.Payload, &st.Status,
		&st.TelegramPaymentChargeID, &st.ProviderPaymentChargeID, &st.CreatedAt, &st.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *StarRepo) InsertPending(ctx context.Context, userID uuid.UUID, telegramID int64, amount decimal.Decimal, payload string) (*models.StarTransaction, error) {
	return scanStarTx(r.pool.QueryRow(ctx, `
		INSERT INTO star_transactions (user_id, telegram_id, amount, payload, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+starTxColumns,
		userID, telegramID, amount, payload, models.StarTxStatusPending))
}

func (r *StarRepo) GetByPayload(ctx context.Context, payload string) (*models.StarTransaction, error) {
	return scanStarTx(r.pool.QueryRow(ctx, `
		SELECT `+starTxColumns+` FROM star_transactions WHERE payload = $1
	`, payload))
}

// GetByPayloadForUpdate блокирует транзакцию по её уникальному payload.
// Верификация платежа работает только через эту блокировку.
func (r *StarRepo) GetByPayloadForUpdate(ctx context.Context, tx pgx.Tx, payload string) (*models.StarTransaction, error) {
	return scanStarTx(tx.QueryRow(ctx, `
		SELECT `+starTxColumns+` FROM star_transactions WHERE payload = $1 FOR UPDATE
	`, payload))
}

func (r *StarRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID, telegramChargeID, providerChargeID *string) error {
	_, err := tx.Exec(ctx, `
		UPDATE star_transactions
		SET status = $1, telegram_payment_charge_id = $2, provider_payment_charge_id = $3, completed_at = now()
		WHERE id = $4
	`, models.StarTxStatusCompleted, telegramChargeID, providerChargeID, id)
	return err
}

func (r *StarRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE star_transactions SET status = $1, completed_at = now() WHERE id = $2
	`, models.StarTxStatusFailed, id)
	return err
}

func (r *StarRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.StarTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+starTxColumns+`
		FROM star_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sts []*models.StarTransaction
	for rows.Next() {
		st, err := scanStarTx(rows)
		if err != nil {
			return nil, err
		}
		sts = append(sts, st)
	}
	return sts, rows.Err()
}
