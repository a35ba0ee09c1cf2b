package out

import (
	"context"
	"fmt"

	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	sessionout "focustrack/internal/modules/session/port/out"
	syncdomain "focustrack/internal/modules/syncqueue/domain"
	syncqueueout "focustrack/internal/modules/syncqueue/port/out"
)

// QueueExecutor replays offline actions against the remote API. Every kind
// collapses to a progress update; resume has no server endpoint, so its
// replay re-sends the elapsed recorded at enqueue time. The server already
// holds that value, which is harmless under at-least-once delivery.
type QueueExecutor struct {
	remote sessionout.RemoteAPI
}

func NewQueueExecutor(remote sessionout.RemoteAPI) syncqueueout.Executor {
	return &QueueExecutor{remote: remote}
}

func (e *QueueExecutor) Execute(ctx context.Context, action syncdomain.Action) error {
	input := dto.ProgressInput{
		Estado:  string(domain.RemoteStatePending),
		Elapsed: action.Elapsed,
		Notes:   action.Notes,
	}
	switch action.Kind {
	case syncdomain.KindPause, syncdomain.KindResume, syncdomain.KindFinishLater:
	case syncdomain.KindComplete:
		input.Estado = string(domain.RemoteStateCompleted)
		input.Duration = action.Duration
	default:
		return fmt.Errorf("unknown queued action kind: %s", action.Kind)
	}
	return e.remote.UpdateProgress(ctx, action.SessionID, input)
}
