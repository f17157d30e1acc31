package ton

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWaitSeqnoAdvance(t *testing.T) {
	log := zap.NewNop()

	t.Run("returns once seqno advances", func(t *testing.T) {
		calls := 0
		fetch := func(ctx context.Context) (uint64, error) {
			calls++
			if calls < 3 {
				return 10, nil
			}
			return 11, nil
		}
		err := waitSeqnoAdvance(context.Background(), fetch, 10, time.Second, time.Millisecond, log)
		if err != nil {
			t.Fatalf("waitSeqnoAdvance: %v", err)
		}
		if calls < 3 {
			t.Errorf("fetch called %d times, want at least 3", calls)
		}
	})

	t.Run("survives transient fetch errors", func(t *testing.T) {
		calls := 0
		fetch := func(ctx context.Context) (uint64, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("liteserver hiccup")
			}
			return 6, nil
		}
		if err := waitSeqnoAdvance(context.Background(), fetch, 5, time.Second, time.Millisecond, log); err != nil {
			t.Fatalf("waitSeqnoAdvance: %v", err)
		}
	})

	t.Run("times out when seqno never moves", func(t *testing.T) {
		fetch := func(ctx context.Context) (uint64, error) { return 7, nil }
		err := waitSeqnoAdvance(context.Background(), fetch, 7, 20*time.Millisecond, time.Millisecond, log)
		if err == nil {
			t.Fatal("want timeout error, got nil")
		}
		if !strings.Contains(err.Error(), "timed out") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("honours caller cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fetch := func(ctx context.Context) (uint64, error) { return 7, nil }
		if err := waitSeqnoAdvance(ctx, fetch, 7, time.Minute, time.Millisecond, log); err == nil {
			t.Fatal("want error on cancelled context")
		}
	})
}
