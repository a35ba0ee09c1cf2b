package out_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	adapterout "focustrack/internal/modules/session/adapter/out"
	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	sessionout "focustrack/internal/modules/session/port/out"
)

func newProjector(t *testing.T) sessionout.HistoryProjector {
	t.Helper()
	projector, err := adapterout.NewSQLiteHistoryProjector(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open projector: %v", err)
	}
	return projector
}

func seedHistory(t *testing.T, p sessionout.HistoryProjector, sessions ...domain.RemoteSession) {
	t.Helper()
	for _, s := range sessions {
		if err := p.Upsert(context.Background(), s); err != nil {
			t.Fatalf("upsert %s: %v", s.ID, err)
		}
	}
}

func TestHistoryUpsertReplacesRow(t *testing.T) {
	t.Parallel()
	projector := newProjector(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)

	seedHistory(t, projector, domain.RemoteSession{
		ID: "sess-1", Title: "Reading", Kind: domain.KindRapid,
		Estado: domain.RemoteStatePending, StartedAt: started, Elapsed: time.Minute,
	})
	// Same id again with fresher progress: one row, new values.
	seedHistory(t, projector, domain.RemoteSession{
		ID: "sess-1", Title: "Reading", Kind: domain.KindRapid,
		Estado: domain.RemoteStateCompleted, StartedAt: started, Elapsed: time.Hour,
		CompletedAt: started.Add(time.Hour),
	})

	rows, err := projector.Query(ctx, dto.ListFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("upsert must replace, got %d rows", len(rows))
	}
	row := rows[0]
	if row.Estado != domain.RemoteStateCompleted || row.Elapsed != time.Hour {
		t.Fatalf("row not refreshed: %+v", row)
	}
	if !row.CompletedAt.Equal(started.Add(time.Hour)) {
		t.Fatalf("completed_at must round-trip, got %s", row.CompletedAt)
	}
}

func TestHistoryQueryFilters(t *testing.T) {
	t.Parallel()
	projector := newProjector(t)
	ctx := context.Background()

	seedHistory(t, projector,
		domain.RemoteSession{
			ID: "old", Title: "Old", Kind: domain.KindRapid,
			Estado:    domain.RemoteStateCompleted,
			StartedAt: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC), Elapsed: time.Hour,
		},
		domain.RemoteSession{
			ID: "recent-done", Title: "Recent done", Kind: domain.KindScheduled,
			Estado:    domain.RemoteStateCompleted,
			StartedAt: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC), Elapsed: 30 * time.Minute,
		},
		domain.RemoteSession{
			ID: "recent-open", Title: "Recent open", Kind: domain.KindRapid,
			Estado:    domain.RemoteStatePending,
			StartedAt: time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC), Elapsed: 5 * time.Minute,
		},
	)

	completed, err := projector.Query(ctx, dto.ListFilter{Estado: "completada"})
	if err != nil {
		t.Fatalf("query estado: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed rows, got %d", len(completed))
	}
	// Newest first.
	if completed[0].ID != "recent-done" || completed[1].ID != "old" {
		t.Fatalf("rows must order newest first, got %s, %s", completed[0].ID, completed[1].ID)
	}

	august, err := projector.Query(ctx, dto.ListFilter{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("query from: %v", err)
	}
	if len(august) != 2 {
		t.Fatalf("expected 2 august rows, got %d", len(august))
	}

	window, err := projector.Query(ctx, dto.ListFilter{
		Estado: "completada",
		From:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(window) != 1 || window[0].ID != "recent-done" {
		t.Fatalf("combined filters must intersect, got %+v", window)
	}
}
