package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/models"
)

const depositColumns = `id, user_id, amount, wallet_address, status, transaction_hash, confirmed_at, created_at`

type DepositRepo struct {
	pool *pgxpool.Pool
}

func NewDepositRepo(pool *pgxpool.Pool) *DepositRepo {
	return &DepositRepo{pool: pool}
}

func scanDeposit(row pgx.Row) (*models.Deposit, error) {
	var d models.Deposit
	err := row.Scan(
		&d.ID, &d.UserID, &d.Amount, &d.WalletAddress, &d.Status,
		&d.TransactionHash, &d.ConfirmedAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ExistsByTxHash — идемпотентный барьер: один он-чейн перевод зачисляется
// не больше одного раза.
func (r *DepositRepo) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM deposits WHERE transaction_hash = $1)
	`, txHash).Scan(&exists)
	return exists, err
}

// InsertConfirmed пишет депозит сразу подтверждённым, в одной транзакции
// с зачислением баланса.
func (r *DepositRepo) InsertConfirmed(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, walletAddress, txHash string) (*models.Deposit, error) {
	return scanDeposit(tx.QueryRow(ctx, `
		INSERT INTO deposits (user_id, amount, wallet_address, status, transaction_hash, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+depositColumns,
		userID, amount, walletAddress, models.DepositStatusConfirmed, txHash))
}

// SumConfirmed — суммарный подтверждённый депозит пользователя. Нужен
// для допуска к выводу средств.
func (r *DepositRepo) SumConfirmed(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM deposits WHERE user_id = $1 AND status = 'confirmed'
	`, userID).Scan(&total)
	return total, err
}

func (r *DepositRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Deposit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ds []*models.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, rows.Err()
}
