package out

import (
	"context"
	"sync"

	broadcastout "focustrack/internal/modules/broadcast/port/out"
	apperrors "focustrack/internal/platform/errors"
)

// MemoryBus is a process-local bus used when no redis address is configured
// (broadcast degrades to local-only) and by tests, where several channels
// share one MemoryBus to simulate concurrent tabs.
type MemoryBus struct {
	mu     sync.Mutex
	sinks  []func(payload []byte)
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(_ context.Context, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return apperrors.ErrChannelClosed
	}
	sinks := make([]func([]byte), len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	for _, sink := range sinks {
		sink(buf)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, sink func(payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return apperrors.ErrChannelClosed
	}
	b.sinks = append(b.sinks, sink)
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.sinks = nil
	return nil
}

var _ broadcastout.Bus = (*MemoryBus)(nil)
