package ton

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"go.uber.org/zap"
)

const (
	txBatchSize = 100

	// Сеть подтверждает перевод обычно за 5-15 секунд; 60 — с запасом.
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 3500 * time.Millisecond
)

// TransferRecord — одна входящая или исходящая транзакция горячего
// кошелька в уже разобранном виде.
type TransferRecord struct {
	LT           uint64
	Hash         string
	Counterparty string
	Amount       decimal.Decimal
	Comment      string
	At           time.Time
}

// Wallet оборачивает горячий кошелёк V4R2. Сид-фраза живёт только внутри
// tonutils-go и никогда не логируется и не сериализуется.
type Wallet struct {
	api ton.APIClientWrapped
	w   *wallet.Wallet
	log *zap.Logger

	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// NewWallet собирает кошелёк из сид-фразы (24 слова через пробел).
func NewWallet(api ton.APIClientWrapped, seedPhrase string, log *zap.Logger) (*Wallet, error) {
	words := strings.Fields(seedPhrase)
	if len(words) != 24 {
		return nil, fmt.Errorf("hot wallet seed phrase must contain 24 words, got %d", len(words))
	}
	w, err := wallet.FromSeed(api, words, wallet.V4R2)
	if err != nil {
		return nil, fmt.Errorf("init hot wallet: %w", err)
	}
	return &Wallet{
		api:            api,
		w:              w,
		log:            log,
		ConfirmTimeout: DefaultConfirmTimeout,
		PollInterval:   DefaultPollInterval,
	}, nil
}

// Address возвращает нормализованный адрес горячего кошелька.
func (hw *Wallet) Address() string {
	return hw.w.WalletAddress().Bounce(false).Testnet(false).String()
}

// Seqno читает текущий seqno контракта кошелька. Неразвёрнутый контракт
// отдаёт 0.
func (hw *Wallet) Seqno(ctx context.Context) (uint64, error) {
	block, err := hw.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("get master block: %w", err)
	}
	res, err := hw.api.RunGetMethod(ctx, block, hw.w.WalletAddress(), "seqno")
	if err != nil {
		if strings.Contains(err.Error(), "exit code") {
			return 0, nil
		}
		return 0, fmt.Errorf("run seqno: %w", err)
	}
	seqno, err := res.Int(0)
	if err != nil {
		return 0, fmt.Errorf("parse seqno: %w", err)
	}
	return seqno.Uint64(), nil
}

// SubmitTransfer отправляет amount TON на адрес to с текстовым комментарием.
// Возврата хеша здесь нет: хеш ищется после подтверждения по комментарию
// через ListRecentOutgoing.
func (hw *Wallet) SubmitTransfer(ctx context.Context, to string, amount decimal.Decimal, comment string) error {
	normalized, err := NormalizeAddress(to)
	if err != nil {
		return err
	}
	dst, err := address.ParseAddr(normalized)
	if err != nil {
		return fmt.Errorf("parse destination: %w", err)
	}
	coins, err := tlb.FromNano(ToNano(amount), 9)
	if err != nil {
		return fmt.Errorf("convert amount %s: %w", amount, err)
	}
	if err := hw.w.Transfer(ctx, dst, coins, comment); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

// WaitForConfirmation ждёт, пока seqno кошелька превысит prevSeqno —
// значит, внешнее сообщение принято и перевод ушёл в сеть.
func (hw *Wallet) WaitForConfirmation(ctx context.Context, prevSeqno uint64) error {
	return waitSeqnoAdvance(ctx, hw.Seqno, prevSeqno, hw.ConfirmTimeout, hw.PollInterval, hw.log)
}

func waitSeqnoAdvance(ctx context.Context, fetch func(context.Context) (uint64, error), prevSeqno uint64, timeout, interval time.Duration, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("transfer confirmation timed out after %s", timeout)
		case <-ticker.C:
			seqno, err := fetch(ctx)
			if err != nil {
				// Разовый сбой лайтсервера не повод сдаваться до таймаута
				log.Warn("seqno poll failed", zap.Error(err))
				continue
			}
			if seqno > prevSeqno {
				return nil
			}
		}
	}
}

// ListRecentOutgoing возвращает последние исходящие переводы кошелька,
// новые первыми.
func (hw *Wallet) ListRecentOutgoing(ctx context.Context, limit int) ([]TransferRecord, error) {
	return hw.listRecent(ctx, limit, false)
}

// ListRecentIncoming возвращает последние входящие переводы кошелька,
// новые первыми. Bounced-сообщения и нулевые суммы отфильтрованы.
func (hw *Wallet) ListRecentIncoming(ctx context.Context, limit int) ([]TransferRecord, error) {
	return hw.listRecent(ctx, limit, true)
}

func (hw *Wallet) listRecent(ctx context.Context, limit int, incoming bool) ([]TransferRecord, error) {
	addr := hw.w.WalletAddress()

	block, err := hw.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get master block: %w", err)
	}
	account, err := hw.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil || !account.IsActive || account.LastTxLT == 0 {
		return nil, nil
	}

	var records []TransferRecord
	lt := account.LastTxLT
	hash := account.LastTxHash

	for len(records) < limit {
		txs, err := hw.api.ListTransactions(ctx, addr, txBatchSize, lt, hash)
		if err != nil {
			return nil, fmt.Errorf("list transactions (lt=%d): %w", lt, err)
		}
		if len(txs) == 0 {
			break
		}

		for _, tx := range txs {
			if incoming {
				if rec, ok := incomingRecord(tx); ok {
					records = append(records, rec)
				}
				continue
			}
			records = append(records, outgoingRecords(tx)...)
		}

		if len(txs) < txBatchSize {
			break
		}
		oldest := txs[0]
		if oldest.PrevTxLT == 0 {
			break
		}
		lt = oldest.PrevTxLT
		hash = oldest.PrevTxHash
	}

	// Новые первыми, чтобы поиск по свежему комментарию был дешёвым.
	sort.Slice(records, func(i, j int) bool { return records[i].LT > records[j].LT })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FindOutgoingByComment ищет среди недавних исходящих перевод с данным
// комментарием и возвращает его хеш.
func (hw *Wallet) FindOutgoingByComment(ctx context.Context, comment string, limit int) (*TransferRecord, error) {
	records, err := hw.ListRecentOutgoing(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Comment == comment {
			return &records[i], nil
		}
	}
	return nil, nil
}

func incomingRecord(tx *tlb.Transaction) (TransferRecord, bool) {
	if tx.IO.In == nil {
		return TransferRecord{}, false
	}
	inMsg, ok := tx.IO.In.Msg.(*tlb.InternalMessage)
	if !ok || inMsg == nil || inMsg.Bounced {
		return TransferRecord{}, false
	}
	if inMsg.Amount.Nano().Sign() <= 0 {
		return TransferRecord{}, false
	}
	return TransferRecord{
		LT:           tx.LT,
		Hash:         hex.EncodeToString(tx.Hash),
		Counterparty: inMsg.SrcAddr.Bounce(false).Testnet(false).String(),
		Amount:       FromNano(inMsg.Amount.Nano()),
		Comment:      extractComment(inMsg),
		At:           time.Unix(int64(tx.Now), 0),
	}, true
}

func outgoingRecords(tx *tlb.Transaction) []TransferRecord {
	if tx.IO.Out == nil {
		return nil
	}
	msgs, err := tx.IO.Out.ToSlice()
	if err != nil {
		return nil
	}
	var out []TransferRecord
	for _, m := range msgs {
		if m.MsgType != tlb.MsgTypeInternal {
			continue
		}
		im := m.AsInternal()
		if im == nil || im.Amount.Nano().Sign() <= 0 {
			continue
		}
		out = append(out, TransferRecord{
			LT:           tx.LT,
			Hash:         hex.EncodeToString(tx.Hash),
			Counterparty: im.DstAddr.Bounce(false).Testnet(false).String(),
			Amount:       FromNano(im.Amount.Nano()),
			Comment:      extractComment(im),
			At:           time.Unix(int64(tx.Now), 0),
		})
	}
	return out
}

// extractComment разбирает текстовый комментарий из тела сообщения:
// opcode 0x00000000 и дальше UTF-8.
func extractComment(inMsg *tlb.InternalMessage) string {
	body := inMsg.Body
	if body == nil {
		return ""
	}

	slice := body.BeginParse()
	if slice.BitsLeft() < 32 {
		return ""
	}

	op, err := slice.LoadUInt(32)
	if err != nil || op != 0 {
		return ""
	}

	remaining := slice.BitsLeft()
	if remaining < 8 {
		return ""
	}

	data, err := slice.LoadSlice(remaining)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
