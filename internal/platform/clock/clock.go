package clock

import "time"

// Clock abstracts wall-clock reads so time accounting stays deterministic in
// tests. Elapsed values are always derived from absolute instants taken with
// a single Now() per computation, never from accumulated ticks.
type Clock interface {
	Now() time.Time
}

// Sleeper abstracts blocking waits (retry backoff) so tests never sleep.
type Sleeper interface {
	Sleep(d time.Duration)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
