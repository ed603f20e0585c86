package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingSleep struct {
	calls []time.Duration
	err   error
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func TestPacer_Wait(t *testing.T) {
	rec := &recordingSleep{}
	p := NewPacer(1500*time.Millisecond, rec.sleep, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	if len(rec.calls) != 3 {
		t.Fatalf("sleep called %d times, want 3", len(rec.calls))
	}
	for _, d := range rec.calls {
		if d != 1500*time.Millisecond {
			t.Errorf("sleep duration = %v, want 1.5s", d)
		}
	}
}

func TestPacer_Disabled(t *testing.T) {
	rec := &recordingSleep{}
	p := NewPacer(0, rec.sleep, zerolog.Nop())

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("sleep called %d times with pacing disabled", len(rec.calls))
	}
}

func TestPacer_SleepError(t *testing.T) {
	rec := &recordingSleep{err: context.Canceled}
	p := NewPacer(time.Second, rec.sleep, zerolog.Nop())

	if err := p.Wait(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestPacer_DefaultSleep(t *testing.T) {
	p := NewPacer(time.Millisecond, nil, zerolog.Nop())
	if p.Interval() != time.Millisecond {
		t.Errorf("Interval() = %v", p.Interval())
	}
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() did not return promptly on cancelled context")
	}
}

func TestSleep_Elapses(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Sleep() returned before the duration elapsed")
	}
}
