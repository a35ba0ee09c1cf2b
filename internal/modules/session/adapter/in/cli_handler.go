package in

import (
	"context"
	"time"

	"focustrack/internal/modules/session/dto"
	sessionin "focustrack/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, title, description, kind, eventID, methodID, albumID string) (dto.SessionOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{
		Title:       title,
		Description: description,
		Kind:        kind,
		EventID:     eventID,
		MethodID:    methodID,
		AlbumID:     albumID,
	})
}

func (h CLIHandler) Pause(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Resume(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Resume(ctx)
}

func (h CLIHandler) FinishLater(ctx context.Context, notes string) error {
	return h.usecase.FinishLater(ctx, notes)
}

func (h CLIHandler) Complete(ctx context.Context, notes string) error {
	return h.usecase.Complete(ctx, notes)
}

func (h CLIHandler) Current(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Current(ctx)
}

func (h CLIHandler) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	return h.usecase.Restore(ctx)
}

func (h CLIHandler) List(ctx context.Context, estado string, from, to time.Time) ([]dto.HistoryOutput, error) {
	return h.usecase.List(ctx, dto.ListFilter{Estado: estado, From: from, To: to})
}

func (h CLIHandler) Minimize() { h.usecase.Minimize() }
func (h CLIHandler) Maximize() { h.usecase.Maximize() }

func (h CLIHandler) AcquireTimerLock(ctx context.Context) error {
	return h.usecase.AcquireTimerLock(ctx)
}

func (h CLIHandler) ReleaseTimerLock(ctx context.Context) error {
	return h.usecase.ReleaseTimerLock(ctx)
}
