package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	adapterout "focustrack/internal/modules/syncqueue/adapter/out"
	"focustrack/internal/modules/syncqueue/domain"
	"focustrack/internal/modules/syncqueue/service"
	apperrors "focustrack/internal/platform/errors"
	"focustrack/internal/platform/id"
	"focustrack/internal/platform/logger"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
}

type fakeNet struct {
	mu     sync.Mutex
	online bool
}

func (f *fakeNet) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeNet) SetOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = online
}

// scriptedExecutor fails actions by session id until the scripted failure
// count runs out, recording execution order.
type scriptedExecutor struct {
	mu       sync.Mutex
	failures map[string]int
	errs     map[string]error
	executed []string
}

func (e *scriptedExecutor) Execute(_ context.Context, action domain.Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, action.SessionID+"/"+string(action.Kind))
	if e.failures[action.SessionID] > 0 {
		e.failures[action.SessionID]--
		if err, ok := e.errs[action.SessionID]; ok {
			return err
		}
		return apperrors.ErrRemoteRejected
	}
	return nil
}

func newService(t *testing.T, exec *scriptedExecutor, net *fakeNet) (*service.QueueService, *recordingSleeper) {
	t.Helper()
	sleeper := &recordingSleeper{}
	svc := service.NewQueueService(
		adapterout.NewFileStore(t.TempDir()),
		exec,
		net,
		fixedClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)},
		sleeper,
		id.UUID{},
		logger.Default(),
	)
	return svc, sleeper
}

func enqueue(t *testing.T, svc *service.QueueService, kind domain.Kind, sessionID string) {
	t.Helper()
	if err := svc.Enqueue(context.Background(), domain.Action{Kind: kind, SessionID: sessionID}); err != nil {
		t.Fatalf("enqueue %s: %v", kind, err)
	}
}

func TestOfflineActionsDrainInOrderWhenBackOnline(t *testing.T) {
	t.Parallel()
	exec := &scriptedExecutor{}
	net := &fakeNet{online: false}
	svc, _ := newService(t, exec, net)

	enqueue(t, svc, domain.KindPause, "s1")
	enqueue(t, svc, domain.KindResume, "s1")
	enqueue(t, svc, domain.KindComplete, "s1")
	if len(exec.executed) != 0 {
		t.Fatalf("nothing should execute while offline, got %v", exec.executed)
	}

	net.SetOnline(true)
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	want := []string{"s1/pause", "s1/resume", "s1/complete"}
	if len(exec.executed) != len(want) {
		t.Fatalf("expected %d executions, got %v", len(want), exec.executed)
	}
	for i, w := range want {
		if exec.executed[i] != w {
			t.Fatalf("execution order mismatch at %d: expected %s, got %s", i, w, exec.executed[i])
		}
	}
	pending, err := svc.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("queue must be empty after successful drain, got %d", len(pending))
	}
}

func TestFailingActionRetriesWithBackoffThenDrops(t *testing.T) {
	t.Parallel()
	exec := &scriptedExecutor{failures: map[string]int{"bad": 99}}
	net := &fakeNet{online: true}
	svc, sleeper := newService(t, exec, net)

	enqueue(t, svc, domain.KindPause, "bad")
	// Enqueue drained once already (retry 0 -> 1); two more passes reach the
	// budget of three, the fourth pass drops the action.
	for i := 0; i < 3; i++ {
		if err := svc.Drain(context.Background()); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}

	pending, err := svc.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("exhausted action must be dropped, still pending: %+v", pending)
	}
	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Dropped != 1 {
		t.Fatalf("dropped counter must record the discarded action, got %d", status.Dropped)
	}
	if len(sleeper.waits) != 3 {
		t.Fatalf("expected 3 backoff waits, got %v", sleeper.waits)
	}
	if sleeper.waits[0] != 2*time.Second || sleeper.waits[1] != 4*time.Second || sleeper.waits[2] != 8*time.Second {
		t.Fatalf("expected exponential backoff 2s,4s,8s, got %v", sleeper.waits)
	}
}

func TestConnectivityLossAbortsPassAndKeepsRemainder(t *testing.T) {
	t.Parallel()
	exec := &scriptedExecutor{
		failures: map[string]int{"s2": 1},
		errs:     map[string]error{"s2": apperrors.ErrUnreachable},
	}
	net := &fakeNet{online: false}
	svc, sleeper := newService(t, exec, net)

	enqueue(t, svc, domain.KindPause, "s1")
	enqueue(t, svc, domain.KindPause, "s2")
	enqueue(t, svc, domain.KindPause, "s3")

	net.SetOnline(true)
	if err := svc.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if len(exec.executed) != 2 {
		t.Fatalf("pass must abort at the unreachable action, executed %v", exec.executed)
	}
	if net.Online() {
		t.Fatalf("unreachable failure must flip the monitor offline")
	}
	if len(sleeper.waits) != 0 {
		t.Fatalf("connectivity aborts must not wait a backoff, got %v", sleeper.waits)
	}
	pending, err := svc.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("failed and unattempted actions must survive, got %d", len(pending))
	}
	if pending[0].SessionID != "s2" || pending[0].RetryCount != 1 {
		t.Fatalf("aborting action must keep its retry increment, got %+v", pending[0])
	}
	if pending[1].SessionID != "s3" || pending[1].RetryCount != 0 {
		t.Fatalf("unattempted action must stay untouched, got %+v", pending[1])
	}
}

func TestQueueSurvivesRestart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	net := &fakeNet{online: false}
	clk := fixedClock{at: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}

	first := service.NewQueueService(adapterout.NewFileStore(dir), &scriptedExecutor{}, net, clk, &recordingSleeper{}, id.UUID{}, logger.Default())
	if err := first.Enqueue(context.Background(), domain.Action{Kind: domain.KindFinishLater, SessionID: "s1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	exec := &scriptedExecutor{}
	second := service.NewQueueService(adapterout.NewFileStore(dir), exec, net, clk, &recordingSleeper{}, id.UUID{}, logger.Default())
	net.SetOnline(true)
	if err := second.Drain(context.Background()); err != nil {
		t.Fatalf("drain after restart: %v", err)
	}
	if len(exec.executed) != 1 || exec.executed[0] != "s1/finish-later" {
		t.Fatalf("queued action must survive a restart, executed %v", exec.executed)
	}
}
