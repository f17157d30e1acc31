package ton

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToNano(t *testing.T) {
	cases := []struct {
		ton  string
		nano string
	}{
		{"1", "1000000000"},
		{"1.5", "1500000000"},
		{"0.000000001", "1"},
		{"0.0000000019", "1"}, // суб-нано отбрасывается
		{"100", "100000000000"},
		{"0", "0"},
	}
	for _, c := range cases {
		got := ToNano(decimal.RequireFromString(c.ton))
		if got.String() != c.nano {
			t.Errorf("ToNano(%s) = %s, want %s", c.ton, got, c.nano)
		}
	}
}

func TestFromNanoRoundTrip(t *testing.T) {
	for _, s := range []string{"0.1", "5.123456789", "99.999999999"} {
		d := decimal.RequireFromString(s)
		if back := FromNano(ToNano(d)); !back.Equal(d) {
			t.Errorf("round trip %s -> %s", s, back)
		}
	}
}
