package drift

import (
	"fmt"
	"sync"
	"time"

	"focustrack/internal/platform/clock"
	"focustrack/internal/platform/logger"
)

const (
	// DefaultGapThreshold is the wall-clock jump between consecutive ticks
	// above which the host is assumed to have been suspended (or the loop
	// severely starved).
	DefaultGapThreshold = time.Second

	defaultTickInterval = 250 * time.Millisecond
)

// Callback receives the size of a detected wall-clock gap. Detection only:
// elapsed time is recomputed from absolute instants on every read, so no
// correction is applied here.
type Callback func(gap time.Duration)

// Detector is a free-running loop that watches for large deltas between
// consecutive wall-clock reads. Start and Stop are idempotent. Callbacks are
// keyed by caller-supplied id and isolated from one another.
type Detector struct {
	clock     clock.Clock
	log       *logger.Logger
	interval  time.Duration
	threshold time.Duration

	mu        sync.Mutex
	callbacks map[string]Callback
	stop      chan struct{}
	running   bool
}

type Option func(*Detector)

func WithInterval(d time.Duration) Option {
	return func(det *Detector) { det.interval = d }
}

func WithThreshold(d time.Duration) Option {
	return func(det *Detector) { det.threshold = d }
}

func New(clk clock.Clock, log *logger.Logger, opts ...Option) *Detector {
	det := &Detector{
		clock:     clk,
		log:       log,
		interval:  defaultTickInterval,
		threshold: DefaultGapThreshold,
		callbacks: map[string]Callback{},
	}
	for _, opt := range opts {
		opt(det)
	}
	return det
}

// Register adds a callback under the given id, replacing any previous
// callback with the same id.
func (d *Detector) Register(id string, cb Callback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks[id] = cb
}

func (d *Detector) Unregister(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.callbacks, id)
}

func (d *Detector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	go d.run(stop)
}

func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stop)
	d.mu.Unlock()
}

func (d *Detector) run(stop chan struct{}) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	last := d.clock.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := d.clock.Now()
			gap := now.Sub(last)
			last = now
			if gap <= d.threshold {
				continue
			}
			d.notify(gap)
		}
	}
}

func (d *Detector) notify(gap time.Duration) {
	d.mu.Lock()
	callbacks := make(map[string]Callback, len(d.callbacks))
	for id, cb := range d.callbacks {
		callbacks[id] = cb
	}
	d.mu.Unlock()

	for id, cb := range callbacks {
		d.invoke(id, cb, gap)
	}
}

// invoke shields the loop and sibling callbacks from a panicking subscriber.
func (d *Detector) invoke(id string, cb Callback, gap time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("drift callback panicked", logger.F("id", id), logger.F("panic", fmt.Sprint(r)))
		}
	}()
	cb(gap)
}
