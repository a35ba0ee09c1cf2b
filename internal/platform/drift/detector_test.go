package drift_test

import (
	"sync"
	"testing"
	"time"

	"focustrack/internal/platform/drift"
	"focustrack/internal/platform/logger"
)

type settableClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *settableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func TestDetectorReportsWallClockJump(t *testing.T) {
	t.Parallel()
	clk := &settableClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
	det := drift.New(clk, logger.Default(), drift.WithInterval(5*time.Millisecond))
	gaps := make(chan time.Duration, 1)
	det.Register("test", func(gap time.Duration) { gaps <- gap })
	det.Start()
	defer det.Stop()

	// The fake clock stands still, so ordinary ticks see a zero delta; a
	// single jump past the threshold simulates waking from suspend.
	clk.Advance(3 * time.Second)

	select {
	case gap := <-gaps:
		if gap < 3*time.Second {
			t.Fatalf("reported gap must cover the jump, got %s", gap)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("jump was never reported")
	}

	// Back to a frozen clock: no further reports.
	select {
	case gap := <-gaps:
		t.Fatalf("unexpected second report of %s", gap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDetectorIgnoresSmallDeltas(t *testing.T) {
	t.Parallel()
	clk := &settableClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
	det := drift.New(clk, logger.Default(),
		drift.WithInterval(5*time.Millisecond),
		drift.WithThreshold(time.Second))
	gaps := make(chan time.Duration, 1)
	det.Register("test", func(gap time.Duration) { gaps <- gap })
	det.Start()
	defer det.Stop()

	clk.Advance(500 * time.Millisecond)

	select {
	case gap := <-gaps:
		t.Fatalf("sub-threshold delta of %s must not be reported", gap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDetectorIsolatesPanickingCallback(t *testing.T) {
	t.Parallel()
	clk := &settableClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
	det := drift.New(clk, logger.Default(), drift.WithInterval(5*time.Millisecond))
	det.Register("bad", func(time.Duration) { panic("boom") })
	survived := make(chan struct{}, 1)
	det.Register("good", func(time.Duration) {
		select {
		case survived <- struct{}{}:
		default:
		}
	})
	det.Start()
	defer det.Stop()

	clk.Advance(5 * time.Second)

	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatalf("a panicking sibling must not silence other callbacks")
	}
}

func TestDetectorUnregisterStopsDelivery(t *testing.T) {
	t.Parallel()
	clk := &settableClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
	det := drift.New(clk, logger.Default(), drift.WithInterval(5*time.Millisecond))
	gaps := make(chan time.Duration, 1)
	det.Register("test", func(gap time.Duration) { gaps <- gap })
	det.Unregister("test")
	det.Start()
	defer det.Stop()

	clk.Advance(5 * time.Second)

	select {
	case <-gaps:
		t.Fatalf("unregistered callback must not fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	t.Parallel()
	clk := &settableClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
	det := drift.New(clk, logger.Default(), drift.WithInterval(5*time.Millisecond))
	det.Start()
	det.Start()
	det.Stop()
	det.Stop()
	det.Start()
	det.Stop()
}
