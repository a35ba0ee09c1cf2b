package out

import (
	"context"

	"focustrack/internal/modules/syncqueue/domain"
)

// Store persists the pending actions and the sync-status record.
type Store interface {
	Append(ctx context.Context, action domain.Action) error
	List(ctx context.Context) ([]domain.Action, error)
	// Replace rewrites the whole queue; used after a drain pass to commit
	// removals and retry-count updates in one write.
	Replace(ctx context.Context, actions []domain.Action) error
	SaveStatus(ctx context.Context, status domain.SyncStatus) error
	LoadStatus(ctx context.Context) (domain.SyncStatus, error)
}

// Executor replays one action against the remote API. Implemented by the
// session module's remote adapter wiring.
type Executor interface {
	Execute(ctx context.Context, action domain.Action) error
}
