package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/models"
)

const withdrawalColumns = `id, user_id, amount, fee, net_amount, wallet_address, status,
	auto_process, transaction_hash, error_message, admin_notes, reviewed_by, created_at, processing_at, completed_at`

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &w.Fee, &w.NetAmount, &w.WalletAddress, &w.Status,
		&w.AutoProcess, &w.TransactionHash, &w.ErrorMessage, &w.AdminNotes, &w.ReviewedBy,
		&w.CreatedAt, &w.ProcessingAt, &w.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Insert создаёт заявку в той же транзакции, где списывается gross.
func (r *WithdrawalRepo) Insert(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount, fee, net decimal.Decimal, walletAddress, status string, autoProcess bool) (*models.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, amount, fee, net_amount, wallet_address, status, auto_process)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+withdrawalColumns,
		userID, amount, fee, net, walletAddress, status, autoProcess))
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
}

// UpdateStatus переводит заявку из from в to. Сравнение со старым статусом
// в WHERE страхует от гонки двух воркеров: выигрывает ровно один. Вход в
// processing фиксирует processing_at — от него отсчитывается зависание.
func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $1,
		    processing_at = CASE WHEN $1 = $4 THEN now() ELSE processing_at END
		WHERE id = $2 AND status = $3
	`, to, id, from, models.WithdrawalStatusProcessing)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WithdrawalRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID, txHash string) error {
	_, err := tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $1, transaction_hash = $2, error_message = NULL, completed_at = now()
		WHERE id = $3
	`, models.WithdrawalStatusCompleted, txHash, id)
	return err
}

func (r *WithdrawalRepo) MarkFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errMsg string) error {
	_, err := tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $1, error_message = $2, completed_at = now()
		WHERE id = $3
	`, models.WithdrawalStatusFailed, errMsg, id)
	return err
}

func (r *WithdrawalRepo) MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = $1, error_message = $2, completed_at = now()
		WHERE id = $3
	`, models.WithdrawalStatusCancelled, reason, id)
	return err
}

// SetReview фиксирует решение админа по заявке на ручной проверке.
func (r *WithdrawalRepo) SetReview(ctx context.Context, tx pgx.Tx, id uuid.UUID, reviewedBy uuid.UUID, notes *string) error {
	_, err := tx.Exec(ctx, `
		UPDATE withdrawals SET reviewed_by = $1, admin_notes = $2 WHERE id = $3
	`, reviewedBy, notes, id)
	return err
}

const dailyUsageSQL = `
	SELECT COALESCE(SUM(amount), 0), COUNT(*)
	FROM withdrawals
	WHERE user_id = $1
	  AND created_at > now() - interval '24 hours'
	  AND status NOT IN ($2, $3)`

// DailyUsage считает сумму и число заявок за последние 24 часа, кроме
// проваленных и отменённых — их gross уже вернулся на баланс.
func (r *WithdrawalRepo) DailyUsage(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int, error) {
	return scanDailyUsage(r.pool.QueryRow(ctx, dailyUsageSQL,
		userID, models.WithdrawalStatusFailed, models.WithdrawalStatusCancelled))
}

// DailyUsageTx — то же самое внутри транзакции. Вызывается под блокировкой
// строки пользователя, чтобы параллельные Create видели заявки друг друга.
func (r *WithdrawalRepo) DailyUsageTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (decimal.Decimal, int, error) {
	return scanDailyUsage(tx.QueryRow(ctx, dailyUsageSQL,
		userID, models.WithdrawalStatusFailed, models.WithdrawalStatusCancelled))
}

func scanDailyUsage(row pgx.Row) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := row.Scan(&total, &count)
	return total, count, err
}

func (r *WithdrawalRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func (r *WithdrawalRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

// ListAutoPending отдаёт заявки, которые воркер обрабатывает без участия
// человека.
func (r *WithdrawalRepo) ListAutoPending(ctx context.Context, limit int) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = $1 AND auto_process
		ORDER BY created_at ASC
		LIMIT $2
	`, models.WithdrawalStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

// ListStuckProcessing находит заявки, зависшие в processing дольше порога:
// воркер упал между отправкой и записью результата. Порог отсчитывается от
// входа в processing, не от создания — одобренная после долгой ручной
// проверки заявка не считается зависшей в момент взятия в работу.
func (r *WithdrawalRepo) ListStuckProcessing(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = $1 AND processing_at IS NOT NULL AND processing_at < now() - $2::interval
		ORDER BY processing_at ASC
		LIMIT $3
	`, models.WithdrawalStatusProcessing, olderThan.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func collectWithdrawals(rows pgx.Rows) ([]*models.Withdrawal, error) {
	var ws []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}
