package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"focustrack/internal/modules/syncqueue/domain"
	syncqueueout "focustrack/internal/modules/syncqueue/port/out"
	"focustrack/internal/platform/clock"
	apperrors "focustrack/internal/platform/errors"
	"focustrack/internal/platform/id"
	"focustrack/internal/platform/logger"
	"focustrack/internal/platform/netstatus"
)

// QueueService guarantees that state-changing operations issued while the
// remote API was unreachable are replayed in FIFO order once connectivity
// returns. At-least-once: deduplication is the server's concern.
type QueueService struct {
	store syncqueueout.Store
	exec  syncqueueout.Executor
	net   netstatus.Status
	clk   clock.Clock
	sleep clock.Sleeper
	ids   id.Generator
	log   *logger.Logger

	mu       sync.Mutex
	draining bool
}

func NewQueueService(
	store syncqueueout.Store,
	exec syncqueueout.Executor,
	net netstatus.Status,
	clk clock.Clock,
	sleep clock.Sleeper,
	ids id.Generator,
	log *logger.Logger,
) *QueueService {
	return &QueueService{
		store: store,
		exec:  exec,
		net:   net,
		clk:   clk,
		sleep: sleep,
		ids:   ids,
		log:   log,
	}
}

// Enqueue appends an action with a fresh retry budget and drains immediately
// when the monitor believes we are online.
func (s *QueueService) Enqueue(ctx context.Context, action domain.Action) error {
	if action.ID == "" {
		action.ID = s.ids.New()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = s.clk.Now()
	}
	action.RetryCount = 0
	if action.MaxRetries <= 0 {
		action.MaxRetries = domain.DefaultMaxRetries
	}
	if err := action.Validate(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	if err := s.store.Append(ctx, action); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	if err := s.refreshStatus(ctx, false); err != nil {
		s.log.Warn("persist sync status", logger.Err(err))
	}

	if s.net.Online() {
		return s.Drain(ctx)
	}
	return nil
}

// Drain processes a snapshot of the queue in FIFO order. No-op when a drain
// is already in flight, the monitor reports offline, or the queue is empty.
// A connectivity-shaped failure aborts the remaining actions of the pass;
// other failures cost the action a retry and the pass waits the action's
// backoff before moving on.
func (s *QueueService) Drain(ctx context.Context) error {
	s.mu.Lock()
	if s.draining || !s.net.Online() {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.draining = false
		s.mu.Unlock()
	}()

	snapshot, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	if len(snapshot) == 0 {
		return nil
	}

	status, err := s.store.LoadStatus(ctx)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	status.Syncing = true
	status.Online = true
	status.LastAttempt = s.clk.Now()
	if err := s.store.SaveStatus(ctx, status); err != nil {
		s.log.Warn("persist sync status", logger.Err(err))
	}

	done := map[string]bool{}
	retries := map[string]int{}
	dropped := 0

	for _, action := range snapshot {
		if action.Exhausted() {
			dropped++
			done[action.ID] = true
			s.log.Warn("dropping action after exhausted retries",
				logger.F("action", string(action.Kind)),
				logger.F("session", action.SessionID),
				logger.F("retries", strconv.Itoa(action.RetryCount)))
			continue
		}

		execErr := s.exec.Execute(ctx, action)
		if execErr == nil {
			done[action.ID] = true
			continue
		}

		action.RetryCount++
		retries[action.ID] = action.RetryCount

		if errors.Is(execErr, apperrors.ErrUnreachable) {
			// Went offline mid-pass; no point burning through the rest.
			s.net.SetOnline(false)
			s.log.Warn("drain aborted, remote unreachable", logger.Err(execErr))
			break
		}
		s.log.Warn("action replay failed",
			logger.F("action", string(action.Kind)),
			logger.Err(execErr))
		s.sleep.Sleep(action.Backoff())
	}

	// Reload before committing: enqueues that raced the pass must survive.
	current, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("drain commit: %w", err)
	}
	remaining := make([]domain.Action, 0, len(current))
	for _, action := range current {
		if done[action.ID] {
			continue
		}
		if count, ok := retries[action.ID]; ok {
			action.RetryCount = count
		}
		remaining = append(remaining, action)
	}
	if err := s.store.Replace(ctx, remaining); err != nil {
		return fmt.Errorf("drain commit: %w", err)
	}

	status.Syncing = false
	status.Online = s.net.Online()
	status.Pending = len(remaining)
	status.Dropped += dropped
	if err := s.store.SaveStatus(ctx, status); err != nil {
		s.log.Warn("persist sync status", logger.Err(err))
	}
	return nil
}

func (s *QueueService) Pending(ctx context.Context) ([]domain.Action, error) {
	return s.store.List(ctx)
}

func (s *QueueService) Status(ctx context.Context) (domain.SyncStatus, error) {
	return s.store.LoadStatus(ctx)
}

func (s *QueueService) refreshStatus(ctx context.Context, syncing bool) error {
	status, err := s.store.LoadStatus(ctx)
	if err != nil {
		return err
	}
	pending, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	status.Online = s.net.Online()
	status.Syncing = syncing
	status.Pending = len(pending)
	return s.store.SaveStatus(ctx, status)
}
