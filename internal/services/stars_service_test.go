package services

import (
	"strconv"
	"strings"
	"testing"
)

func TestMakePayload(t *testing.T) {
	p, err := makePayload(123456789)
	if err != nil {
		t.Fatalf("makePayload: %v", err)
	}

	parts := strings.Split(p, "_")
	if len(parts) != 4 {
		t.Fatalf("payload %q: want 4 parts, got %d", p, len(parts))
	}
	if parts[0] != "stars" {
		t.Errorf("payload prefix = %q", parts[0])
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		t.Errorf("timestamp part %q is not a number", parts[1])
	}
	if parts[2] != "123456789" {
		t.Errorf("telegram id part = %q", parts[2])
	}
	if len(parts[3]) != 8 {
		t.Errorf("random suffix %q: want 8 hex chars", parts[3])
	}

	// Случайный хвост разводит два инвойса, созданные в одну секунду
	q, err := makePayload(123456789)
	if err != nil {
		t.Fatalf("makePayload: %v", err)
	}
	if p == q {
		t.Error("two payloads for the same user collided")
	}
}
