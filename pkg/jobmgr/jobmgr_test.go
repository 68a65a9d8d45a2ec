package jobmgr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) has(job string, s State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Job == job && e.State == s {
			return true
		}
	}
	return false
}

func TestStartAsyncAndStop(t *testing.T) {
	rec := &recorder{}
	m := NewManager(context.Background(), rec.report)

	started := make(chan struct{})
	err := m.StartAsync("loop", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started

	if err := m.StartAsync("loop", func(context.Context) error { return nil }); err == nil {
		t.Error("duplicate name must be rejected")
	}
	if got := m.Status(); got != "Running jobs: loop" {
		t.Errorf("Status = %q", got)
	}

	if err := m.Stop("loop"); err != nil {
		t.Fatal(err)
	}
	m.Wait()

	if !rec.has("loop", StateDone) {
		t.Error("cancelled job should report done")
	}
	if err := m.Stop("loop"); err == nil {
		t.Error("stopping a finished job must fail")
	}
	if got := m.Status(); got != "No jobs are running." {
		t.Errorf("Status = %q", got)
	}
}

func TestJobError(t *testing.T) {
	rec := &recorder{}
	m := NewManager(context.Background(), rec.report)
	_ = m.StartAsync("broken", func(context.Context) error { return errors.New("boom") })
	m.Wait()
	if !rec.has("broken", StateError) {
		t.Error("expected an error event")
	}
}

func TestParentCancelStopsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ctx, nil)
	for _, name := range []string{"a", "b"} {
		_ = m.StartAsync(name, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
	}
	cancel()
	m.Wait()
	if len(m.List()) != 0 {
		t.Errorf("List = %q", m.List())
	}
}

func TestEvery(t *testing.T) {
	m := NewManager(context.Background(), nil)
	var ticks atomic.Int32
	if err := m.Every("tick", time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.StopAll()
	m.Wait()

	if ticks.Load() < 3 {
		t.Errorf("ticks = %d", ticks.Load())
	}
	if err := m.Every("bad", 0, nil); err == nil {
		t.Error("zero interval must be rejected")
	}
}
