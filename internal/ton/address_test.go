package ton

import (
	"errors"
	"strings"
	"testing"

	"github.com/plinko-game/backend/internal/errs"
)

const rawTestAddr = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"

func TestNormalizeAddressRawForm(t *testing.T) {
	norm, err := NormalizeAddress(rawTestAddr)
	if err != nil {
		t.Fatalf("normalize raw: %v", err)
	}
	if strings.Contains(norm, ":") {
		t.Errorf("normalized form must be friendly, got %s", norm)
	}
	// Нормализация идемпотентна
	again, err := NormalizeAddress(norm)
	if err != nil {
		t.Fatalf("normalize friendly: %v", err)
	}
	if again != norm {
		t.Errorf("normalization not idempotent: %s vs %s", norm, again)
	}
}

func TestNormalizeAddressTrimsWhitespace(t *testing.T) {
	a, err := NormalizeAddress("  " + rawTestAddr + "\n")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NormalizeAddress(rawTestAddr)
	if a != b {
		t.Errorf("whitespace changed result: %s vs %s", a, b)
	}
}

func TestNormalizeAddressRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "not-an-address", "0:zzzz", "0:83dfd5"} {
		if _, err := NormalizeAddress(bad); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("input %q: want validation error, got %v", bad, err)
		}
	}
}

func TestSameAddressAcrossForms(t *testing.T) {
	norm, err := NormalizeAddress(rawTestAddr)
	if err != nil {
		t.Fatal(err)
	}
	if !SameAddress(rawTestAddr, norm) {
		t.Error("raw and friendly forms of the same wallet must match")
	}
	if SameAddress(rawTestAddr, "garbage") {
		t.Error("invalid address must never match")
	}
}
