package plinko

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/models"
)

func TestTablesAreSymmetricAndSized(t *testing.T) {
	for risk, byRows := range multiplierTables {
		for rows, table := range byRows {
			if len(table) != rows+1 {
				t.Errorf("%s/%d: table length %d, want %d", risk, rows, len(table), rows+1)
			}
			for i := 0; i < len(table)/2; i++ {
				if !table[i].Equal(table[len(table)-1-i]) {
					t.Errorf("%s/%d: table not symmetric at slot %d", risk, rows, i)
				}
			}
		}
	}
}

func TestMultiplierFor(t *testing.T) {
	cases := []struct {
		risk models.RiskLevel
		rows int
		pos  int
		want string
	}{
		{models.RiskLow, 8, 0, "5.6"},
		{models.RiskLow, 8, 4, "0.5"},
		{models.RiskLow, 8, 8, "5.6"},
		{models.RiskMedium, 12, 6, "0.4"},
		{models.RiskHigh, 16, 0, "110"},
		{models.RiskHigh, 16, 99, "110"}, // позиция за краем прижимается
		{models.RiskHigh, 16, -3, "110"},
	}
	for _, c := range cases {
		got, err := MultiplierFor(c.risk, c.rows, c.pos)
		if err != nil {
			t.Fatalf("%s/%d pos %d: %v", c.risk, c.rows, c.pos, err)
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s/%d pos %d: got %s, want %s", c.risk, c.rows, c.pos, got, c.want)
		}
	}
}

func TestMultiplierForUnsupported(t *testing.T) {
	if _, err := MultiplierFor(models.RiskLow, 10, 0); err == nil {
		t.Fatal("expected error for unsupported rows count")
	}
	if _, err := MultiplierFor("EXTREME", 8, 0); err == nil {
		t.Fatal("expected error for unknown risk level")
	}
}

func TestSimulatePathWithinBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		res, err := Simulate(models.RiskMedium, 16)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.BallPath) != 16 {
			t.Fatalf("path length %d, want 16", len(res.BallPath))
		}
		for r, pos := range res.BallPath {
			if pos < 0 || pos > r+1 {
				t.Fatalf("step %d: position %d out of range [0,%d]", r, pos, r+1)
			}
		}
		if res.Multiplier.IsNegative() || res.Multiplier.IsZero() {
			t.Fatalf("multiplier must be positive, got %s", res.Multiplier)
		}
	}
}
