package handlers

import (
	"encoding/json"
	"testing"

	"github.com/plinko-game/backend/internal/events"
)

func TestEventRecipient(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		wantID  int64
		wantOK  bool
	}{
		{"in-process int64", map[string]any{"telegram_id": int64(42)}, 42, true},
		{"json float64", map[string]any{"telegram_id": float64(42)}, 42, true},
		{"no telegram_id", map[string]any{"amount": "1.5"}, 0, false},
		{"wrong type", map[string]any{"telegram_id": "42"}, 0, false},
		{"nil payload", nil, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id, ok := eventRecipient(events.Event{Type: "balance_changed", Payload: c.payload})
			if ok != c.wantOK {
				t.Fatalf("ok = %v, want %v", ok, c.wantOK)
			}
			if ok && id != c.wantID {
				t.Errorf("id = %d, want %d", id, c.wantID)
			}
		})
	}
}

// После json round-trip (путь через Redis) telegram_id приходит как float64
// и всё равно должен резолвиться в адресата.
func TestEventRecipientAfterJSONRoundTrip(t *testing.T) {
	src := events.Event{
		Type:    "withdrawal_completed",
		Payload: map[string]any{"telegram_id": int64(777), "amount": "5"},
	}
	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	var decoded events.Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	id, ok := eventRecipient(decoded)
	if !ok || id != 777 {
		t.Errorf("eventRecipient after round-trip = (%d, %v), want (777, true)", id, ok)
	}
}
