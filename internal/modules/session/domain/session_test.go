package domain_test

import (
	"testing"
	"time"

	"focustrack/internal/modules/session/domain"
)

var base = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func TestVisibleElapsedWhileRunning(t *testing.T) {
	t.Parallel()
	s := domain.Session{
		SessionID: "s1",
		StartedAt: base,
		Elapsed:   5 * time.Second,
		Running:   true,
	}
	if got := s.VisibleElapsed(base.Add(3 * time.Second)); got != 8*time.Second {
		t.Fatalf("expected 8s visible, got %s", got)
	}
	if got := s.VisibleElapsed(base); got != 5*time.Second {
		t.Fatalf("at the start instant only closed intervals count, got %s", got)
	}
}

func TestVisibleElapsedWhilePausedIgnoresClock(t *testing.T) {
	t.Parallel()
	s := domain.Session{
		SessionID: "s1",
		StartedAt: base,
		Elapsed:   5 * time.Second,
		Running:   false,
	}
	for _, at := range []time.Time{base, base.Add(time.Hour), base.Add(240 * time.Hour)} {
		if got := s.VisibleElapsed(at); got != 5*time.Second {
			t.Fatalf("paused session must show 5s at %s, got %s", at, got)
		}
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{3661 * time.Second, "01:01:01"},
		{7265 * time.Second, "02:01:05"},
		{26 * time.Hour, "26:00:00"},
		{-time.Second, "00:00:00"},
	}
	for _, tc := range cases {
		if got := domain.FormatClock(tc.in); got != tc.want {
			t.Fatalf("format %s: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestStatusInferenceRules(t *testing.T) {
	t.Parallel()
	cases := []struct {
		estado  domain.RemoteState
		running bool
		want    domain.Status
	}{
		{domain.RemoteStateCompleted, true, domain.StatusCompleted},
		{domain.RemoteStateCompleted, false, domain.StatusCompleted},
		{domain.RemoteStatePending, true, domain.StatusActive},
		{domain.RemoteStatePending, false, domain.StatusPaused},
	}
	for _, tc := range cases {
		if got := domain.StatusFrom(tc.estado, tc.running); got != tc.want {
			t.Fatalf("estado=%s running=%v: expected %s, got %s", tc.estado, tc.running, tc.want, got)
		}
	}
}

func TestStatusToRemoteStateCollapsesPause(t *testing.T) {
	t.Parallel()
	if domain.StatusActive.RemoteState() != domain.RemoteStatePending {
		t.Fatalf("active must map to pendiente")
	}
	if domain.StatusPaused.RemoteState() != domain.RemoteStatePending {
		t.Fatalf("paused must map to pendiente")
	}
	if domain.StatusCompleted.RemoteState() != domain.RemoteStateCompleted {
		t.Fatalf("completed must map to completada")
	}
}

func TestIsExpired(t *testing.T) {
	t.Parallel()
	if domain.IsExpired(base, base) {
		t.Fatalf("a session persisted now is not expired")
	}
	if domain.IsExpired(base.Add(-6*24*time.Hour), base) {
		t.Fatalf("six days is within the limit")
	}
	if !domain.IsExpired(base.Add(-8*24*time.Hour), base) {
		t.Fatalf("eight days is past the limit")
	}
}

func TestFromRemoteDerivesStatusAndStampsPersistedAt(t *testing.T) {
	t.Parallel()
	r := domain.RemoteSession{
		ID:        "s1",
		Title:     "Linear algebra",
		Kind:      domain.KindScheduled,
		EventID:   "ev-9",
		Estado:    domain.RemoteStatePending,
		Running:   false,
		StartedAt: base,
		Elapsed:   90 * time.Second,
	}
	s := domain.FromRemote(r, base.Add(time.Minute))
	if s.Status != domain.StatusPaused || s.Running {
		t.Fatalf("pending+stopped must restore paused, got %+v", s)
	}
	if s.PersistedAt != base.Add(time.Minute) {
		t.Fatalf("persisted-at must be stamped with now, got %s", s.PersistedAt)
	}
	if s.Elapsed != 90*time.Second || s.EventID != "ev-9" {
		t.Fatalf("remote fields must carry over, got %+v", s)
	}

	r.Estado = domain.RemoteStateCompleted
	r.Running = true
	s = domain.FromRemote(r, base)
	if s.Status != domain.StatusCompleted || s.Running {
		t.Fatalf("completed sessions never run client-side, got %+v", s)
	}
}
