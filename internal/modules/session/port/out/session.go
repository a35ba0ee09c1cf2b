package out

import (
	"context"

	broadcastdomain "focustrack/internal/modules/broadcast/domain"
	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	syncdomain "focustrack/internal/modules/syncqueue/domain"
)

// RemoteAPI is the black-box server. Transport-level failures are reported
// wrapping apperrors.ErrUnreachable so callers can route to the offline
// queue; reachable rejections wrap apperrors.ErrRemoteRejected and
// propagate.
type RemoteAPI interface {
	Create(ctx context.Context, input dto.StartInput) (domain.RemoteSession, error)
	UpdateProgress(ctx context.Context, sessionID string, input dto.ProgressInput) error
	Get(ctx context.Context, sessionID string) (domain.RemoteSession, error)
	List(ctx context.Context, filter dto.ListFilter) ([]domain.RemoteSession, error)
}

// ActiveStore is durable local storage for the single active session plus
// the direct-resume flag. Load enforces expiry and validity; corrupt or
// invalid records are cleared and reported as absence.
type ActiveStore interface {
	Save(ctx context.Context, session domain.Session) error
	Load(ctx context.Context) (domain.Session, error)
	Clear(ctx context.Context) error
	SetDirectResume(ctx context.Context) error
	// ConsumeDirectResume reports and clears the flag in one step; the flag
	// is observed at most once.
	ConsumeDirectResume(ctx context.Context) (bool, error)
}

// Broadcaster is the cross-instance channel as seen from this module.
type Broadcaster interface {
	TabID() string
	Publish(ctx context.Context, msg broadcastdomain.Message) error
}

// ActionQueue accepts operations that could not reach the remote API.
type ActionQueue interface {
	Enqueue(ctx context.Context, action syncdomain.Action) error
}

// HistoryProjector caches fetched session lists locally so list keeps
// working offline. Read-side only, never authoritative.
type HistoryProjector interface {
	Upsert(ctx context.Context, session domain.RemoteSession) error
	Query(ctx context.Context, filter dto.ListFilter) ([]domain.RemoteSession, error)
}
