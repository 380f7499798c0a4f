package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

type countingRefresher struct {
	calls int
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls++
	return c.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRegisterRefresh(t *testing.T) {
	s := NewScheduler(context.Background(), &countingRefresher{}, quietLogger())
	if err := s.RegisterRefresh(""); err != nil {
		t.Errorf("empty spec should be accepted: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 0 {
		t.Errorf("expected no entries, got %d", n)
	}
	if err := s.RegisterRefresh("0 0 * * * *"); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
	if err := s.RegisterRefresh("every tuesday"); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestRunRefreshNow(t *testing.T) {
	r := &countingRefresher{err: errors.New("boom")}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ctx, r, quietLogger())

	s.RunRefreshNow()
	if r.calls != 1 {
		t.Fatalf("expected 1 refresh, got %d", r.calls)
	}

	cancel()
	s.RunRefreshNow()
	if r.calls != 1 {
		t.Errorf("expected no refresh after cancel, got %d", r.calls)
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), &countingRefresher{}, quietLogger())
	s.Start()
	s.Stop()
}
