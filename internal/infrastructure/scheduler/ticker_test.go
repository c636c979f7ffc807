package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewTickerScheduler(10 * time.Millisecond)

	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
}

func TestTickerSchedulerStopsOnContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewTickerScheduler(time.Hour)

	started := make(chan struct{}, 1)
	if err := s.Start(ctx, func(time.Time) { started <- struct{}{} }); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	<-started
	done := s.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not exit after context cancel")
	}
}

func TestTickerSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	if err := NewTickerScheduler(0).Stop(context.Background()); err != nil {
		t.Fatalf("Stop without Start must be a no-op: %v", err)
	}
}
