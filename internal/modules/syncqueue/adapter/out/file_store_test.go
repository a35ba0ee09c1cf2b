package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	adapterout "focustrack/internal/modules/syncqueue/adapter/out"
	"focustrack/internal/modules/syncqueue/domain"
)

func TestAppendListReplace(t *testing.T) {
	t.Parallel()
	store := adapterout.NewFileStore(t.TempDir())
	ctx := context.Background()

	for _, sid := range []string{"a", "b", "c"} {
		action := domain.Action{ID: sid, Kind: domain.KindPause, SessionID: sid, MaxRetries: 3}
		if err := store.Append(ctx, action); err != nil {
			t.Fatalf("append %s: %v", sid, err)
		}
	}
	actions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(actions) != 3 || actions[0].ID != "a" || actions[2].ID != "c" {
		t.Fatalf("expected FIFO a,b,c, got %+v", actions)
	}

	if err := store.Replace(ctx, actions[1:]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	actions, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list after replace: %v", err)
	}
	if len(actions) != 2 || actions[0].ID != "b" {
		t.Fatalf("expected b,c after replace, got %+v", actions)
	}
}

func TestCorruptLineLosesOnlyThatAction(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := adapterout.NewFileStore(dir)
	ctx := context.Background()

	if err := store.Append(ctx, domain.Action{ID: "a", Kind: domain.KindPause, SessionID: "s"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	path := filepath.Join(dir, ".focustrack", "offline-queue.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open queue file: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	_ = f.Close()
	if err := store.Append(ctx, domain.Action{ID: "b", Kind: domain.KindResume, SessionID: "s"}); err != nil {
		t.Fatalf("append after garbage: %v", err)
	}

	actions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(actions) != 2 || actions[0].ID != "a" || actions[1].ID != "b" {
		t.Fatalf("expected a,b around the corrupt line, got %+v", actions)
	}
}

func TestStatusRoundTripAndDefaults(t *testing.T) {
	t.Parallel()
	store := adapterout.NewFileStore(t.TempDir())
	ctx := context.Background()

	status, err := store.LoadStatus(ctx)
	if err != nil {
		t.Fatalf("load default status: %v", err)
	}
	if !status.Online || status.Syncing {
		t.Fatalf("default status must be online and not syncing, got %+v", status)
	}

	saved := domain.SyncStatus{
		Online:      false,
		Syncing:     true,
		LastAttempt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Pending:     4,
		Dropped:     1,
	}
	if err := store.SaveStatus(ctx, saved); err != nil {
		t.Fatalf("save status: %v", err)
	}
	status, err = store.LoadStatus(ctx)
	if err != nil {
		t.Fatalf("load status: %v", err)
	}
	if status != saved {
		t.Fatalf("status round trip mismatch: %+v vs %+v", status, saved)
	}
}
