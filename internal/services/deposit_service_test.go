package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/ton"
)

const testSenderRaw = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"
const testOtherRaw = "0:0000000000000000000000000000000000000000000000000000000000000001"

func testDepositConfig() DepositConfig {
	return DepositConfig{
		Min:       decimal.RequireFromString("0.1"),
		Tolerance: decimal.RequireFromString("0.05"),
	}
}

func TestDepositCandidate(t *testing.T) {
	cfg := testDepositConfig()
	friendly, err := ton.NormalizeAddress(testSenderRaw)
	if err != nil {
		t.Fatalf("NormalizeAddress: %v", err)
	}

	tests := []struct {
		name string
		rec  ton.TransferRecord
		want bool
	}{
		{
			name: "exact match above minimum",
			rec:  ton.TransferRecord{Hash: "abc", Counterparty: testSenderRaw, Amount: decimal.RequireFromString("1")},
			want: true,
		},
		{
			name: "raw counterparty against friendly wallet form",
			rec:  ton.TransferRecord{Hash: "abc", Counterparty: friendly, Amount: decimal.RequireFromString("1")},
			want: true,
		},
		{
			name: "missing hash",
			rec:  ton.TransferRecord{Counterparty: testSenderRaw, Amount: decimal.RequireFromString("1")},
			want: false,
		},
		{
			name: "wrong sender",
			rec:  ton.TransferRecord{Hash: "abc", Counterparty: testOtherRaw, Amount: decimal.RequireFromString("1")},
			want: false,
		},
		{
			name: "below minimum even with tolerance",
			rec:  ton.TransferRecord{Hash: "abc", Counterparty: testSenderRaw, Amount: decimal.RequireFromString("0.04")},
			want: false,
		},
		{
			// Отправитель заплатил комиссию из суммы — допуск покрывает недостачу
			name: "just below minimum within tolerance",
			rec:  ton.TransferRecord{Hash: "abc", Counterparty: testSenderRaw, Amount: decimal.RequireFromString("0.06")},
			want: true,
		},
		{
			name: "exactly at minimum",
			rec:  ton.TransferRecord{Hash: "abc", Counterparty: testSenderRaw, Amount: decimal.RequireFromString("0.1")},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := depositCandidate(tt.rec, testSenderRaw, cfg); got != tt.want {
				t.Errorf("depositCandidate() = %v, want %v", got, tt.want)
			}
		})
	}
}
