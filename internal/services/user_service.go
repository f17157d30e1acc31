package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/auth"
	"github.com/plinko-game/backend/internal/config"
	"github.com/plinko-game/backend/internal/errs"
	"github.com/plinko-game/backend/internal/models"
	"github.com/plinko-game/backend/internal/repositories"
)

type UserService struct {
	users *repositories.UserRepo
	cfg   *config.Config
	log   *zap.Logger
}

func NewUserService(users *repositories.UserRepo, cfg *config.Config, log *zap.Logger) *UserService {
	return &UserService{users: users, cfg: cfg, log: log}
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Authenticate проверяет initData мини-аппа, заводит пользователя при
// первом входе и выдаёт JWT.
func (s *UserService) Authenticate(ctx context.Context, initData string) (*AuthResult, error) {
	vals, err := auth.ValidateTelegramWebAppData(initData, s.cfg.WebAppSecret, s.cfg.InitDataMaxAge)
	if err != nil {
		return nil, errs.Validationf("initData validation failed: %v", err)
	}

	tgUser, err := auth.ParseWebAppUser(vals)
	if err != nil {
		return nil, errs.Validationf("bad user in initData: %v", err)
	}

	var username *string
	if tgUser.Username != "" {
		username = &tgUser.Username
	}

	user, err := s.users.UpsertByTelegramID(ctx, tgUser.ID, username)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, user.ID, user.TelegramID, s.cfg.JWTExpiration)
	if err != nil {
		return nil, err
	}

	s.log.Info("user authenticated",
		zap.String("user_id", user.ID.String()),
		zap.Int64("telegram_id", user.TelegramID),
	)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetBalances(ctx context.Context, userID uuid.UUID) (models.BalancePair, error) {
	bp, err := s.users.Balances(ctx, userID)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return bp, errs.ErrNotFound
	}
	return bp, err
}

// GetByTelegramID нужен webhook'у платежей: апдейты Телеграма несут только
// telegram_id.
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
