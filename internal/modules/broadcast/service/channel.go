package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"focustrack/internal/modules/broadcast/domain"
	broadcastout "focustrack/internal/modules/broadcast/port/out"
	"focustrack/internal/platform/clock"
	apperrors "focustrack/internal/platform/errors"
	"focustrack/internal/platform/id"
	"focustrack/internal/platform/logger"
)

// Listener receives every inbound message that did not originate from this
// tab.
type Listener func(msg domain.Message)

// Channel is the per-process endpoint of the shared bus. It stamps outbound
// messages with this tab's id, drops inbound self-echo, and fans the rest out
// to registered listeners with per-listener isolation.
type Channel struct {
	tabID string
	bus   broadcastout.Bus
	clk   clock.Clock
	log   *logger.Logger

	mu        sync.Mutex
	listeners map[string]Listener
	closed    bool
}

func NewChannel(bus broadcastout.Bus, ids id.Generator, clk clock.Clock, log *logger.Logger) *Channel {
	return &Channel{
		tabID:     ids.New(),
		bus:       bus,
		clk:       clk,
		log:       log,
		listeners: map[string]Listener{},
	}
}

func (c *Channel) TabID() string {
	return c.tabID
}

// Start begins delivery of inbound messages. Call once after construction.
func (c *Channel) Start(ctx context.Context) error {
	return c.bus.Subscribe(ctx, c.receive)
}

// Publish stamps the envelope and sends it. Fire-and-forget by contract; the
// caller still sees transport errors so it can log them.
func (c *Channel) Publish(ctx context.Context, msg domain.Message) error {
	if err := msg.Kind.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrChannelClosed
	}
	c.mu.Unlock()

	msg.TabID = c.tabID
	if msg.SentAt.IsZero() {
		msg.SentAt = c.clk.Now()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode broadcast message: %w", err)
	}
	if err := c.bus.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish broadcast message: %w", err)
	}
	return nil
}

// AddListener registers a listener under the given id, replacing any previous
// listener with the same id.
func (c *Channel) AddListener(listenerID string, fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[listenerID] = fn
}

func (c *Channel) RemoveListener(listenerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, listenerID)
}

func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.listeners = map[string]Listener{}
	c.mu.Unlock()
	return c.bus.Close()
}

func (c *Channel) receive(payload []byte) {
	msg := domain.Message{}
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.log.Warn("dropping undecodable broadcast message", logger.Err(err))
		return
	}
	if msg.TabID == c.tabID {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	listeners := make(map[string]Listener, len(c.listeners))
	for id, fn := range c.listeners {
		listeners[id] = fn
	}
	c.mu.Unlock()

	for id, fn := range listeners {
		c.dispatch(id, fn, msg)
	}
}

// dispatch shields sibling listeners from a panicking one.
func (c *Channel) dispatch(listenerID string, fn Listener, msg domain.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("broadcast listener panicked",
				logger.F("listener", listenerID),
				logger.F("kind", string(msg.Kind)),
				logger.F("panic", fmt.Sprint(r)))
		}
	}()
	fn(msg)
}
