package usecase

import (
	"context"
	"errors"
	"fmt"

	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	sessionin "focustrack/internal/modules/session/port/in"
	sessionout "focustrack/internal/modules/session/port/out"
	"focustrack/internal/modules/session/service"
	"focustrack/internal/platform/clock"
	apperrors "focustrack/internal/platform/errors"
	"focustrack/internal/platform/logger"
	"focustrack/internal/platform/netstatus"
)

type Interactor struct {
	orch    *service.Orchestrator
	store   sessionout.ActiveStore
	remote  sessionout.RemoteAPI
	history sessionout.HistoryProjector
	net     netstatus.Status
	clk     clock.Clock
	log     *logger.Logger
}

func NewInteractor(
	orch *service.Orchestrator,
	store sessionout.ActiveStore,
	remote sessionout.RemoteAPI,
	history sessionout.HistoryProjector,
	net netstatus.Status,
	clk clock.Clock,
	log *logger.Logger,
) sessionin.Usecase {
	return &Interactor{
		orch:    orch,
		store:   store,
		remote:  remote,
		history: history,
		net:     net,
		clk:     clk,
		log:     log,
	}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error) {
	if input.Title == "" {
		return dto.SessionOutput{}, fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if input.Kind == "" {
		input.Kind = string(domain.KindRapid)
	}
	if input.Kind == string(domain.KindScheduled) && input.EventID == "" {
		return dto.SessionOutput{}, fmt.Errorf("%w: scheduled sessions need an event id", apperrors.ErrInvalidInput)
	}
	session, err := i.orch.Start(ctx, input)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return i.toOutput(session), nil
}

func (i *Interactor) Pause(ctx context.Context) (dto.SessionOutput, error) {
	session, err := i.orch.Pause(ctx)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return i.toOutput(session), nil
}

func (i *Interactor) Resume(ctx context.Context) (dto.SessionOutput, error) {
	session, err := i.orch.Resume(ctx)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return i.toOutput(session), nil
}

func (i *Interactor) FinishLater(ctx context.Context, notes string) error {
	return i.orch.FinishLater(ctx, notes)
}

func (i *Interactor) Complete(ctx context.Context, notes string) error {
	return i.orch.Complete(ctx, notes)
}

func (i *Interactor) Current(_ context.Context) (dto.SessionOutput, error) {
	session, ok := i.orch.Current()
	if !ok {
		return dto.SessionOutput{}, apperrors.ErrNoActiveSession
	}
	return i.toOutput(session), nil
}

// Restore is the initialization read path: load the persisted session (the
// store enforces expiry and validity) and consume the direct-resume flag to
// decide between a silent minimized restore and a confirmation prompt.
// Re-entrant safe; the flag is observed at most once.
func (i *Interactor) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	session, err := i.store.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			return dto.RestoreOutput{}, nil
		}
		return dto.RestoreOutput{}, fmt.Errorf("restore session: %w", err)
	}

	direct, err := i.store.ConsumeDirectResume(ctx)
	if err != nil {
		i.log.Warn("consume direct-resume flag", logger.Err(err))
		direct = false
	}
	if err := i.orch.Adopt(ctx, session, direct); err != nil {
		return dto.RestoreOutput{}, err
	}
	return dto.RestoreOutput{
		Restored:  true,
		Prompt:    !direct,
		Minimized: direct,
		Session:   i.toOutput(session),
	}, nil
}

// List prefers the remote API and refreshes the local projection from it;
// when the API is unreachable the projection answers instead.
func (i *Interactor) List(ctx context.Context, filter dto.ListFilter) ([]dto.HistoryOutput, error) {
	if i.net.Online() {
		sessions, err := i.remote.List(ctx, filter)
		if err == nil {
			for _, s := range sessions {
				if upsertErr := i.history.Upsert(ctx, s); upsertErr != nil {
					i.log.Warn("project session history", logger.Err(upsertErr))
				}
			}
			return toHistory(sessions), nil
		}
		if !errors.Is(err, apperrors.ErrUnreachable) {
			return nil, err
		}
		i.net.SetOnline(false)
	}

	sessions, err := i.history.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return toHistory(sessions), nil
}

func (i *Interactor) Minimize() { i.orch.Minimize() }
func (i *Interactor) Maximize() { i.orch.Maximize() }

func (i *Interactor) AcquireTimerLock(ctx context.Context) error {
	return i.orch.AcquireTimerLock(ctx)
}

func (i *Interactor) ReleaseTimerLock(ctx context.Context) error {
	return i.orch.ReleaseTimerLock(ctx)
}

func (i *Interactor) toOutput(session domain.Session) dto.SessionOutput {
	visible := session.VisibleElapsed(i.clk.Now())
	return dto.SessionOutput{
		SessionID:   session.SessionID,
		Title:       session.Title,
		Description: session.Description,
		Kind:        string(session.Kind),
		EventID:     session.EventID,
		Status:      string(session.Status),
		Running:     session.Running,
		Elapsed:     session.Elapsed,
		Visible:     visible,
		Clock:       domain.FormatClock(visible),
		StartedAt:   session.StartedAt,
		PausedAt:    session.PausedAt,
		Minimized:   i.orch.Minimized(),
		Syncing:     i.orch.Syncing(),
	}
}

func toHistory(sessions []domain.RemoteSession) []dto.HistoryOutput {
	out := make([]dto.HistoryOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.HistoryOutput{
			SessionID:   s.ID,
			Title:       s.Title,
			Estado:      string(s.Estado),
			StartedAt:   s.StartedAt,
			Elapsed:     s.Elapsed,
			CompletedAt: s.CompletedAt,
		})
	}
	return out
}
