package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plinko-game/backend/internal/config"
	"github.com/plinko-game/backend/internal/errs"
	"github.com/plinko-game/backend/internal/repositories"
	"github.com/plinko-game/backend/internal/ton"
)

const proofPayloadTTL = 5 * time.Minute

type WalletService struct {
	users *repositories.UserRepo
	rdb   *redis.Client
	cfg   *config.Config
	log   *zap.Logger
}

func NewWalletService(users *repositories.UserRepo, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *WalletService {
	return &WalletService{users: users, rdb: rdb, cfg: cfg, log: log}
}

func proofKey(nonce string) string { return "ton-proof:payload:" + nonce }

// GeneratePayload создаёт nonce для TON Proof.
// Клиент передаёт его в tonconnect при подключении кошелька.
func (s *WalletService) GeneratePayload(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(buf)

	if err := s.rdb.Set(ctx, proofKey(nonce), userID.String(), proofPayloadTTL).Err(); err != nil {
		return "", fmt.Errorf("store proof payload: %w", err)
	}
	return nonce, nil
}

type ConnectWalletRequest struct {
	Address         string    `json:"address"`          // raw: "0:abc..."
	AddressFriendly string    `json:"address_friendly"` // "EQA..." или "UQA..."
	Network         string    `json:"network"`          // "mainnet" / "testnet"
	PublicKey       string    `json:"public_key"`       // hex
	Proof           ton.Proof `json:"proof"`
}

// ConnectWallet проверяет TON Proof и привязывает кошелёк к пользователю.
// Привязанный адрес — единственный, на который разрешён вывод, и
// единственный источник, с которого засчитываются депозиты.
func (s *WalletService) ConnectWallet(ctx context.Context, userID uuid.UUID, req ConnectWalletRequest) (string, error) {
	// 1. Consume payload (nonce) — защита от replay
	owner, err := s.rdb.GetDel(ctx, proofKey(req.Proof.Payload)).Result()
	if err != nil {
		return "", errs.Validationf("invalid or expired proof payload")
	}
	if owner != userID.String() {
		return "", errs.Validationf("proof payload was issued to another user")
	}

	// 2. Парсим raw address
	workchain, addrHash, err := ton.ParseRawAddress(req.Address)
	if err != nil {
		return "", errs.Validationf("invalid TON address: %v", err)
	}

	// 3. Проверяем network
	if req.Network != "" && req.Network != s.cfg.TONNetwork {
		return "", errs.Validationf("network mismatch: expected %s, got %s", s.cfg.TONNetwork, req.Network)
	}

	// 4. Верифицируем TON Proof подпись
	if err := ton.VerifyProof(req.PublicKey, addrHash, workchain, req.Proof, s.cfg.TONProofAllowedDomains); err != nil {
		return "", errs.Validationf("TON Proof verification failed: %v", err)
	}

	// 5. Нормализуем адрес и проверяем, что он свободен
	source := req.AddressFriendly
	if source == "" {
		source = req.Address
	}
	normalized, err := ton.NormalizeAddress(source)
	if err != nil {
		return "", err
	}
	taken, err := s.users.WalletAddressTaken(ctx, normalized, userID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", errs.Validationf("wallet is already linked to another account")
	}

	// 6. Сохраняем
	if err := s.users.SetWalletAddress(ctx, userID, &normalized); err != nil {
		return "", fmt.Errorf("save wallet address: %w", err)
	}

	s.log.Info("wallet connected",
		zap.String("user_id", userID.String()),
		zap.String("address", normalized),
	)
	return normalized, nil
}

// DisconnectWallet отвязывает кошелёк пользователя.
func (s *WalletService) DisconnectWallet(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetWalletAddress(ctx, userID, nil); err != nil {
		return err
	}
	s.log.Info("wallet disconnected", zap.String("user_id", userID.String()))
	return nil
}
