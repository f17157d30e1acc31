package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/models"
)

const betColumns = `id, user_id, bet_amount, currency, risk_level, rows_count,
	multiplier, payout, profit, is_win, ball_path, status, created_at, updated_at`

type BetRepo struct {
	pool *pgxpool.Pool
}

func NewBetRepo(pool *pgxpool.Pool) *BetRepo {
	return &BetRepo{pool: pool}
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var b models.Bet
	err := row.Scan(
		&b.ID, &b.UserID, &b.Amount, &b.Currency, &b.RiskLevel, &b.RowsCount,
		&b.Multiplier, &b.Payout, &b.Profit, &b.IsWin, &b.BallPath, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertPending создаёт незавершённую ставку: multiplier NULL, выплата ноль.
// Выполняется в той же транзакции, что и списание ставки с баланса.
func (r *BetRepo) InsertPending(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, currency models.Currency, risk models.RiskLevel, rows int) (*models.Bet, error) {
	return scanBet(tx.QueryRow(ctx, `
		INSERT INTO game_bets (user_id, bet_amount, currency, risk_level, rows_count, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING `+betColumns,
		userID, amount, currency, risk, rows))
}

func (r *BetRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	return scanBet(r.pool.QueryRow(ctx, `SELECT `+betColumns+` FROM game_bets WHERE id = $1`, id))
}

func (r *BetRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Bet, error) {
	return scanBet(tx.QueryRow(ctx, `SELECT `+betColumns+` FROM game_bets WHERE id = $1 FOR UPDATE`, id))
}

// Resolve записывает исход ставки. Условие multiplier IS NULL делает
// операцию идемпотентной: повторный вызов не заденет ни одной строки.
func (r *BetRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, multiplier, payout, profit decimal.Decimal, isWin bool, ballPath []int) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE game_bets
		SET multiplier = $1, payout = $2, profit = $3, is_win = $4,
			ball_path = $5, status = 'completed', updated_at = now()
		WHERE id = $6 AND multiplier IS NULL
	`, multiplier, payout, profit, isWin, ballPath, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPendingForUpdate выбирает незавершённые ставки пользователя в порядке
// создания. Строка пользователя должна быть уже заблокирована.
func (r *BetRepo) ListPendingForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]*models.Bet, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+betColumns+`
		FROM game_bets
		WHERE user_id = $1 AND multiplier IS NULL
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBets(rows)
}

func (r *BetRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Bet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+betColumns+`
		FROM game_bets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]*models.Bet, error) {
	var bets []*models.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
