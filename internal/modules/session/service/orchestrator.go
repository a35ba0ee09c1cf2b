package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	broadcastdomain "focustrack/internal/modules/broadcast/domain"
	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	sessionout "focustrack/internal/modules/session/port/out"
	syncdomain "focustrack/internal/modules/syncqueue/domain"
	"focustrack/internal/platform/clock"
	apperrors "focustrack/internal/platform/errors"
	"focustrack/internal/platform/id"
	"focustrack/internal/platform/logger"
	"focustrack/internal/platform/netstatus"
)

// BroadcastListenerID names the orchestrator's subscription on the tab
// channel.
const BroadcastListenerID = "session-orchestrator"

// Orchestrator owns the single in-memory active session and decides, per
// operation, between the remote API, the offline queue, and the broadcast
// channel. State machine: no session -> active <-> paused -> no session;
// completion leaves no client-side resting state, the completed record lives
// only in remote history.
type Orchestrator struct {
	clk     clock.Clock
	remote  sessionout.RemoteAPI
	store   sessionout.ActiveStore
	queue   sessionout.ActionQueue
	channel sessionout.Broadcaster
	net     netstatus.Status
	ids     id.Generator
	log     *logger.Logger

	mu         sync.Mutex
	current    *domain.Session
	minimized  bool
	syncing    bool
	lockHolder string
	lockToken  string
}

func NewOrchestrator(
	clk clock.Clock,
	remote sessionout.RemoteAPI,
	store sessionout.ActiveStore,
	queue sessionout.ActionQueue,
	channel sessionout.Broadcaster,
	net netstatus.Status,
	ids id.Generator,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		clk:     clk,
		remote:  remote,
		store:   store,
		queue:   queue,
		channel: channel,
		net:     net,
		ids:     ids,
		log:     log,
	}
}

// Start creates the session remotely and adopts it running. An unfinished
// session, in memory or persisted, blocks a new start: it is only ever
// discarded through an explicit finish-later or complete. On remote failure
// local state is left untouched and the error propagates; starting never
// falls back to the offline queue because the server assigns the id.
func (o *Orchestrator) Start(ctx context.Context, input dto.StartInput) (domain.Session, error) {
	o.mu.Lock()
	if o.current != nil {
		o.mu.Unlock()
		return domain.Session{}, apperrors.ErrActiveSessionExists
	}
	o.mu.Unlock()

	// This process may not have restored yet; the persisted session counts
	// just the same.
	if _, err := o.store.Load(ctx); err == nil {
		return domain.Session{}, apperrors.ErrActiveSessionExists
	} else if !errors.Is(err, apperrors.ErrNoActiveSession) {
		return domain.Session{}, fmt.Errorf("check persisted session: %w", err)
	}

	o.setSyncing(true)
	defer o.setSyncing(false)

	remote, err := o.remote.Create(ctx, input)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnreachable) {
			o.net.SetOnline(false)
		}
		return domain.Session{}, fmt.Errorf("start session: %w", err)
	}

	now := o.clk.Now()
	session := domain.FromRemote(remote, now)
	// A freshly created session is always running, whatever the server
	// echoed back.
	session.Running = true
	session.Status = domain.StatusActive
	session.StartedAt = now
	session.PausedAt = nil
	if err := session.Validate(); err != nil {
		return domain.Session{}, fmt.Errorf("start session: %w", err)
	}

	o.mu.Lock()
	o.current = &session
	o.mu.Unlock()

	if err := o.store.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}
	o.publishState(ctx, broadcastdomain.KindSessionUpdate, &session)
	return session, nil
}

// Pause closes the open interval. Already-paused is a silent no-op so a
// double pause never re-submits or changes elapsed.
func (o *Orchestrator) Pause(ctx context.Context) (domain.Session, error) {
	o.mu.Lock()
	if o.current == nil {
		o.mu.Unlock()
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	if !o.current.Running {
		session := *o.current
		o.mu.Unlock()
		return session, nil
	}
	session := *o.current
	o.mu.Unlock()

	o.setSyncing(true)
	defer o.setSyncing(false)

	now := o.clk.Now()
	elapsed := session.VisibleElapsed(now)

	if err := o.submit(ctx, syncdomain.KindPause, session.SessionID, dto.ProgressInput{
		Estado:  string(domain.RemoteStatePending),
		Elapsed: elapsed,
	}); err != nil {
		return domain.Session{}, fmt.Errorf("pause session: %w", err)
	}

	session.Elapsed = elapsed
	session.Running = false
	session.PausedAt = &now
	session.Status = domain.StatusPaused

	o.mu.Lock()
	o.current = &session
	o.mu.Unlock()

	if err := o.store.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}
	o.publishState(ctx, broadcastdomain.KindSessionPaused, nil)
	return session, nil
}

// Resume reopens the interval from now; closed intervals are untouched.
// There is no resume endpoint server-side, so online resume is client-local;
// offline, a resume marker is queued to keep the replayed order faithful.
func (o *Orchestrator) Resume(ctx context.Context) (domain.Session, error) {
	o.mu.Lock()
	if o.current == nil {
		o.mu.Unlock()
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	if o.current.Running {
		session := *o.current
		o.mu.Unlock()
		return session, nil
	}
	session := *o.current
	o.mu.Unlock()

	o.setSyncing(true)
	defer o.setSyncing(false)

	if !o.net.Online() {
		if err := o.enqueue(ctx, syncdomain.KindResume, session.SessionID, dto.ProgressInput{
			Estado:  string(domain.RemoteStatePending),
			Elapsed: session.Elapsed,
		}); err != nil {
			return domain.Session{}, fmt.Errorf("resume session: %w", err)
		}
	}

	now := o.clk.Now()
	session.StartedAt = now
	session.Running = true
	session.PausedAt = nil
	session.Status = domain.StatusActive

	o.mu.Lock()
	o.current = &session
	o.mu.Unlock()

	if err := o.store.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}
	o.publishState(ctx, broadcastdomain.KindSessionResumed, nil)
	return session, nil
}

// FinishLater submits current progress as still-pending and clears the local
// session. Terminal locally even though the remote record stays resumable
// from history.
func (o *Orchestrator) FinishLater(ctx context.Context, notes string) error {
	return o.finish(ctx, notes, false)
}

// Complete submits the session as completed with its total duration, then
// clears local state.
func (o *Orchestrator) Complete(ctx context.Context, notes string) error {
	return o.finish(ctx, notes, true)
}

func (o *Orchestrator) finish(ctx context.Context, notes string, complete bool) error {
	o.mu.Lock()
	if o.current == nil {
		o.mu.Unlock()
		return apperrors.ErrNoActiveSession
	}
	session := *o.current
	o.mu.Unlock()

	o.setSyncing(true)
	defer o.setSyncing(false)

	now := o.clk.Now()
	elapsed := session.VisibleElapsed(now)

	kind := syncdomain.KindFinishLater
	input := dto.ProgressInput{
		Estado:  string(domain.RemoteStatePending),
		Elapsed: elapsed,
		Notes:   notes,
	}
	if complete {
		kind = syncdomain.KindComplete
		input.Estado = string(domain.RemoteStateCompleted)
		input.Duration = elapsed
	}
	if err := o.submit(ctx, kind, session.SessionID, input); err != nil {
		return fmt.Errorf("%s session: %w", kind, err)
	}

	o.mu.Lock()
	o.current = nil
	o.minimized = false
	o.mu.Unlock()

	if err := o.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if complete {
		o.publishState(ctx, broadcastdomain.KindSessionCompleted, nil)
	}
	o.publishState(ctx, broadcastdomain.KindSessionUpdate, nil)
	return nil
}

// Adopt installs a session restored by the persistence layer.
func (o *Orchestrator) Adopt(ctx context.Context, session domain.Session, minimized bool) error {
	o.mu.Lock()
	o.current = &session
	o.minimized = minimized
	o.mu.Unlock()
	// Refresh persisted-at so a restored session does not creep toward
	// expiry while in active use.
	if err := o.store.Save(ctx, session); err != nil {
		return fmt.Errorf("persist restored session: %w", err)
	}
	return nil
}

// Current returns a copy of the active session, if any.
func (o *Orchestrator) Current() (domain.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return domain.Session{}, false
	}
	return *o.current, true
}

// VisibleNow reads the clock once and reports the displayable elapsed time.
func (o *Orchestrator) VisibleNow() (time.Duration, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return 0, false
	}
	return o.current.VisibleElapsed(o.clk.Now()), true
}

func (o *Orchestrator) Minimize() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.minimized = true
}

func (o *Orchestrator) Maximize() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.minimized = false
}

func (o *Orchestrator) Minimized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.minimized
}

func (o *Orchestrator) Syncing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.syncing
}

// AcquireTimerLock announces this tab as the timer driver. Advisory only:
// nothing gates writes on it and concurrent acquirers are not fenced.
func (o *Orchestrator) AcquireTimerLock(ctx context.Context) error {
	token := o.ids.New()
	o.mu.Lock()
	o.lockToken = token
	o.lockHolder = o.channel.TabID()
	o.mu.Unlock()
	return o.channel.Publish(ctx, broadcastdomain.Message{
		Kind:      broadcastdomain.KindLockAcquired,
		LockToken: token,
	})
}

func (o *Orchestrator) ReleaseTimerLock(ctx context.Context) error {
	o.mu.Lock()
	token := o.lockToken
	o.lockToken = ""
	if o.lockHolder == o.channel.TabID() {
		o.lockHolder = ""
	}
	o.mu.Unlock()
	if token == "" {
		return nil
	}
	return o.channel.Publish(ctx, broadcastdomain.Message{
		Kind:      broadcastdomain.KindLockReleased,
		LockToken: token,
	})
}

// TimerLockHolder reports the last advisory holder seen, own tab included.
func (o *Orchestrator) TimerLockHolder() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lockHolder
}

// HandleBroadcast merges a peer tab's message. Update messages replace local
// state with the broadcast one; transition messages trigger an authoritative
// refetch instead, since their exact timing must come from the server.
// Errors are absorbed: this runs as an isolated channel listener.
func (o *Orchestrator) HandleBroadcast(ctx context.Context, msg broadcastdomain.Message) {
	switch msg.Kind {
	case broadcastdomain.KindSessionUpdate:
		if len(msg.State) == 0 {
			o.mu.Lock()
			o.current = nil
			o.mu.Unlock()
			return
		}
		session := domain.Session{}
		if err := json.Unmarshal(msg.State, &session); err != nil {
			o.log.Warn("ignoring undecodable session update", logger.Err(err))
			return
		}
		if session.Validate() != nil {
			return
		}
		o.mu.Lock()
		o.current = &session
		o.mu.Unlock()

	case broadcastdomain.KindSessionPaused, broadcastdomain.KindSessionResumed:
		o.refetch(ctx)

	case broadcastdomain.KindSessionCompleted:
		o.mu.Lock()
		o.current = nil
		o.mu.Unlock()
		if err := o.store.Clear(ctx); err != nil {
			o.log.Warn("clear session after peer completion", logger.Err(err))
		}

	case broadcastdomain.KindLockAcquired:
		o.mu.Lock()
		o.lockHolder = msg.TabID
		o.mu.Unlock()

	case broadcastdomain.KindLockReleased:
		o.mu.Lock()
		if o.lockHolder == msg.TabID {
			o.lockHolder = ""
		}
		o.mu.Unlock()
	}
}

func (o *Orchestrator) refetch(ctx context.Context) {
	o.mu.Lock()
	if o.current == nil {
		o.mu.Unlock()
		return
	}
	sessionID := o.current.SessionID
	o.mu.Unlock()

	remote, err := o.remote.Get(ctx, sessionID)
	if err != nil {
		o.log.Warn("refetch after peer transition", logger.Err(err))
		return
	}
	now := o.clk.Now()
	session := domain.FromRemote(remote, now)
	if session.Status == domain.StatusCompleted {
		o.mu.Lock()
		o.current = nil
		o.mu.Unlock()
		return
	}
	if session.Running {
		session.StartedAt = now
	}
	o.mu.Lock()
	o.current = &session
	o.mu.Unlock()
}

// submit sends a progress update, falling back to the queue when offline or
// when the transport fails mid-request. Reachable rejections propagate.
func (o *Orchestrator) submit(ctx context.Context, kind syncdomain.Kind, sessionID string, input dto.ProgressInput) error {
	if !o.net.Online() {
		return o.enqueue(ctx, kind, sessionID, input)
	}
	err := o.remote.UpdateProgress(ctx, sessionID, input)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrUnreachable) {
		o.net.SetOnline(false)
		o.log.Warn("remote unreachable, queueing action",
			logger.F("action", string(kind)),
			logger.Err(err))
		return o.enqueue(ctx, kind, sessionID, input)
	}
	return err
}

func (o *Orchestrator) enqueue(ctx context.Context, kind syncdomain.Kind, sessionID string, input dto.ProgressInput) error {
	return o.queue.Enqueue(ctx, syncdomain.Action{
		Kind:      kind,
		SessionID: sessionID,
		Elapsed:   input.Elapsed,
		Duration:  input.Duration,
		Notes:     input.Notes,
	})
}

func (o *Orchestrator) publishState(ctx context.Context, kind broadcastdomain.Kind, session *domain.Session) {
	msg := broadcastdomain.Message{Kind: kind}
	if session != nil {
		state, err := json.Marshal(session)
		if err != nil {
			o.log.Warn("encode broadcast state", logger.Err(err))
			return
		}
		msg.State = state
	}
	if err := o.channel.Publish(ctx, msg); err != nil {
		// Broadcast is best-effort; a dead bus must not fail the operation.
		o.log.Warn("publish broadcast", logger.F("kind", string(kind)), logger.Err(err))
	}
}

func (o *Orchestrator) setSyncing(v bool) {
	o.mu.Lock()
	o.syncing = v
	o.mu.Unlock()
}
