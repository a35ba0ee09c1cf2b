package domain_test

import (
	"testing"
	"time"

	"focustrack/internal/modules/syncqueue/domain"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	t.Parallel()
	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tc := range cases {
		a := domain.Action{RetryCount: tc.retry}
		if got := a.Backoff(); got != tc.want {
			t.Fatalf("backoff at retry %d: expected %s, got %s", tc.retry, tc.want, got)
		}
	}
}

func TestExhausted(t *testing.T) {
	t.Parallel()
	a := domain.Action{RetryCount: 2, MaxRetries: domain.DefaultMaxRetries}
	if a.Exhausted() {
		t.Fatalf("two retries must not exhaust a budget of three")
	}
	a.RetryCount = 3
	if !a.Exhausted() {
		t.Fatalf("three retries must exhaust a budget of three")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	if err := (domain.Action{Kind: domain.KindPause, SessionID: "s1"}).Validate(); err != nil {
		t.Fatalf("valid action rejected: %v", err)
	}
	if err := (domain.Action{Kind: "defer", SessionID: "s1"}).Validate(); err == nil {
		t.Fatalf("unknown kind must be rejected")
	}
	if err := (domain.Action{Kind: domain.KindResume}).Validate(); err == nil {
		t.Fatalf("missing session id must be rejected")
	}
}
