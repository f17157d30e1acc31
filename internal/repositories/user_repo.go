package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/models"
)

const userColumns = `id, telegram_id, username, wallet_address, stars_balance, ton_balance, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.WalletAddress,
		&u.StarsBalance, &u.TONBalance, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpsertByTelegramID(ctx context.Context, telegramID int64, username *string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = COALESCE(EXCLUDED.username, users.username),
			updated_at = now()
		RETURNING `+userColumns,
		telegramID, username))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

// GetByIDForUpdate блокирует строку пользователя до конца транзакции.
// Все мутации балансов начинаются с этого вызова.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// AdjustBalance меняет баланс в валюте на delta (может быть отрицательной)
// внутри транзакции и возвращает обе новые цифры. CHECK-ограничения в
// схеме не дадут уйти в минус даже при ошибке в вызывающем коде.
func (r *UserRepo) AdjustBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, currency models.Currency, delta decimal.Decimal) (models.BalancePair, error) {
	column := "stars_balance"
	if currency == models.CurrencyTON {
		column = "ton_balance"
	}
	var bp models.BalancePair
	err := tx.QueryRow(ctx, `
		UPDATE users
		SET `+column+` = `+column+` + $1, updated_at = now()
		WHERE id = $2
		RETURNING stars_balance, ton_balance
	`, delta, id).Scan(&bp.StarsBalance, &bp.TONBalance)
	return bp, err
}

func (r *UserRepo) SetWalletAddress(ctx context.Context, id uuid.UUID, addr *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET wallet_address = $1, updated_at = now() WHERE id = $2
	`, addr, id)
	return err
}

// WalletAddressTaken проверяет, не привязан ли адрес к другому аккаунту.
func (r *UserRepo) WalletAddressTaken(ctx context.Context, addr string, exceptUserID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE wallet_address = $1 AND id <> $2)
	`, addr, exceptUserID).Scan(&exists)
	return exists, err
}

func (r *UserRepo) Balances(ctx context.Context, id uuid.UUID) (models.BalancePair, error) {
	var bp models.BalancePair
	err := r.pool.QueryRow(ctx, `
		SELECT stars_balance, ton_balance FROM users WHERE id = $1
	`, id).Scan(&bp.StarsBalance, &bp.TONBalance)
	return bp, err
}
