package httpx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"429", statusErr(429), true},
		{"503", statusErr(503), true},
		{"401", fmt.Errorf("wrapped: %w", statusErr(401)), false},
		{"plain", errors.New("bad json"), true},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestBackoff(t *testing.T) {
	if got := Backoff(1, time.Second, 10*time.Second); got != time.Second {
		t.Fatalf("attempt 1: got=%v", got)
	}
	if got := Backoff(3, time.Second, 10*time.Second); got != 4*time.Second {
		t.Fatalf("attempt 3: got=%v", got)
	}
	if got := Backoff(9, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("attempt 9: got=%v", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	base := time.Second
	for i := 0; i < 50; i++ {
		got := JitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", got)
		}
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}
