package in

import (
	"context"

	"focustrack/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error)
	Pause(ctx context.Context) (dto.SessionOutput, error)
	Resume(ctx context.Context) (dto.SessionOutput, error)
	FinishLater(ctx context.Context, notes string) error
	Complete(ctx context.Context, notes string) error
	Current(ctx context.Context) (dto.SessionOutput, error)
	Restore(ctx context.Context) (dto.RestoreOutput, error)
	List(ctx context.Context, filter dto.ListFilter) ([]dto.HistoryOutput, error)
	Minimize()
	Maximize()
	// Timer-driver lock, advisory only: announced to peers, never enforced.
	AcquireTimerLock(ctx context.Context) error
	ReleaseTimerLock(ctx context.Context) error
}
