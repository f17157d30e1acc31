package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSettleAmounts(t *testing.T) {
	cases := []struct {
		name       string
		stake      string
		multiplier string
		payout     string
		profit     string
		isWin      bool
	}{
		{"win x3", "10", "3", "30", "20", true},
		{"loss x0.5", "10", "0.5", "5", "-5", false},
		{"push x1", "10", "1", "10", "0", false},
		{"total loss x0", "10", "0", "0", "-10", false},
		{"fractional stake", "0.2", "1.5", "0.3", "0.1", true},
		{"high multiplier", "1", "1000", "1000", "999", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			payout, profit, isWin := settleAmounts(dec(c.stake), dec(c.multiplier))
			if !payout.Equal(dec(c.payout)) {
				t.Errorf("payout = %s, want %s", payout, c.payout)
			}
			if !profit.Equal(dec(c.profit)) {
				t.Errorf("profit = %s, want %s", profit, c.profit)
			}
			if isWin != c.isWin {
				t.Errorf("isWin = %v, want %v", isWin, c.isWin)
			}
		})
	}
}

func TestPayoutWithinTolerance(t *testing.T) {
	server := dec("30")
	cases := []struct {
		name   string
		client string
		ok     bool
	}{
		{"exact match", "30", true},
		{"just under tolerance", "30.0000005", true},
		{"exactly at tolerance", "30.000001", true}, // граница включительно
		{"just over tolerance", "30.0000011", false},
		{"below within tolerance", "29.999999", true},
		{"below over tolerance", "29.9999989", false},
		{"way off", "31", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := payoutWithinTolerance(dec(c.client), server); got != c.ok {
				t.Errorf("payoutWithinTolerance(%s, %s) = %v, want %v", c.client, server, got, c.ok)
			}
		})
	}
}
