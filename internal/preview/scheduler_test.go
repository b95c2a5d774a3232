package preview

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

type fakePaginator struct {
	mu    sync.Mutex
	seen  []string
	gates map[string]chan struct{}
}

func (f *fakePaginator) Paginate(ctx context.Context, data resume.Data, _ bool) (pagination.Layout, error) {
	name := data.PersonalInfo.Name
	f.mu.Lock()
	f.seen = append(f.seen, name)
	gate := f.gates[name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return pagination.Single(data, false), nil
}

func (f *fakePaginator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func named(name string) resume.Data {
	d := resume.Demo()
	d.PersonalInfo.Name = name
	return d
}

func collector() (func(Result), func() []Result) {
	var mu sync.Mutex
	var got []Result
	return func(r Result) {
			mu.Lock()
			got = append(got, r)
			mu.Unlock()
		}, func() []Result {
			mu.Lock()
			defer mu.Unlock()
			return append([]Result(nil), got...)
		}
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerDebouncesBursts(t *testing.T) {
	p := &fakePaginator{}
	commit, results := collector()
	s := NewScheduler(p, 30*time.Millisecond, commit, quiet())
	defer s.Stop()

	s.Submit(named("A"), false)
	s.Submit(named("AB"), false)
	last := s.Submit(named("ABC"), false)

	waitFor(t, func() bool { return len(results()) == 1 })
	time.Sleep(60 * time.Millisecond)

	if calls := p.calls(); len(calls) != 1 || calls[0] != "ABC" {
		t.Fatalf("expected one pass with the latest data, got %v", calls)
	}
	got := results()
	if len(got) != 1 || got[0].Generation != last {
		t.Fatalf("unexpected commits: %+v", got)
	}
	if got[0].Layout.Pages[0].PersonalInfo.Name != "ABC" {
		t.Fatalf("committed stale data: %s", got[0].Layout.Pages[0].PersonalInfo.Name)
	}
}

func TestSchedulerDiscardsSupersededPass(t *testing.T) {
	slow := make(chan struct{})
	p := &fakePaginator{gates: map[string]chan struct{}{"old": slow}}
	commit, results := collector()
	s := NewScheduler(p, 5*time.Millisecond, commit, quiet())
	defer s.Stop()

	s.Submit(named("old"), false)
	waitFor(t, func() bool { return len(p.calls()) == 1 })

	latest := s.Submit(named("new"), false)
	waitFor(t, func() bool { return len(results()) == 1 })
	close(slow)

	waitFor(t, func() bool {
		_, superseded := s.Stats()
		return superseded == 1
	})
	got := results()
	if len(got) != 1 || got[0].Generation != latest {
		t.Fatalf("only the latest pass may commit, got %+v", got)
	}
	if committed, _ := s.Stats(); committed != 1 {
		t.Fatalf("expected one commit, got %d", committed)
	}
}

func TestSchedulerStopPreventsCommit(t *testing.T) {
	p := &fakePaginator{}
	commit, results := collector()
	s := NewScheduler(p, 20*time.Millisecond, commit, quiet())

	s.Submit(named("A"), false)
	s.Stop()
	time.Sleep(60 * time.Millisecond)

	if len(p.calls()) != 0 || len(results()) != 0 {
		t.Fatalf("stopped scheduler ran a pass: calls=%v commits=%d", p.calls(), len(results()))
	}
	s.Submit(named("B"), false)
	time.Sleep(40 * time.Millisecond)
	if len(p.calls()) != 0 {
		t.Fatal("submit after stop must be ignored")
	}
}
