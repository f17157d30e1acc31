package ton

import (
	"strings"

	"github.com/xssnick/tonutils-go/address"

	"github.com/plinko-game/backend/internal/errs"
)

// NormalizeAddress приводит любой поддерживаемый формат TON-адреса
// (EQ/UQ friendly или raw "0:hex") к единой небounceable mainnet-форме.
// Всё, что пишется в БД и сравнивается между собой, проходит через неё —
// иначе один и тот же кошелёк в двух формах записи выглядел бы как два.
func NormalizeAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errs.Validationf("wallet address is required")
	}

	var addr *address.Address
	var err error
	if strings.Contains(raw, ":") {
		addr, err = address.ParseRawAddr(raw)
	} else {
		addr, err = address.ParseAddr(raw)
	}
	if err != nil {
		return "", errs.Validationf("invalid TON address: %s", raw)
	}

	return addr.Bounce(false).Testnet(false).String(), nil
}

// SameAddress сравнивает два адреса в любой форме записи.
func SameAddress(a, b string) bool {
	na, err := NormalizeAddress(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeAddress(b)
	if err != nil {
		return false
	}
	return na == nb
}
