package surface

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDriver struct {
	mu      sync.Mutex
	calls   []string
	active  atomic.Int32
	overlap atomic.Bool
	evalOut string
	loadErr error
	closed  bool
}

func (f *fakeDriver) enter(name string) func() {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	time.Sleep(time.Millisecond)
	return func() { f.active.Add(-1) }
}

func (f *fakeDriver) Load(_ context.Context, doc []byte) error {
	defer f.enter("load:" + string(doc))()
	return f.loadErr
}

func (f *fakeDriver) Eval(_ context.Context, script string) (string, error) {
	name := "eval:settle"
	if strings.Contains(script, "data-scroll-h") {
		name = "eval:measure"
	}
	defer f.enter(name)()
	return f.evalOut, nil
}

func (f *fakeDriver) Screenshot(context.Context) ([]byte, error) {
	defer f.enter("shot")()
	return []byte("png"), nil
}

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

func newTestSurface(d Driver) *Surface {
	return New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSnapshotLoadsThenAnnotates(t *testing.T) {
	d := &fakeDriver{evalOut: `<div id="resume-root"></div>`}
	out, err := newTestSurface(d).Snapshot(context.Background(), []byte("doc"))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if string(out) != d.evalOut {
		t.Fatalf("unexpected snapshot %q", out)
	}
	if strings.Join(d.calls, ",") != "load:doc,eval:measure" {
		t.Fatalf("unexpected driver calls %v", d.calls)
	}
}

func TestCaptureWaitsForLayout(t *testing.T) {
	d := &fakeDriver{}
	s := newTestSurface(d)
	err := s.Session(context.Background(), func(sess *Session) error {
		for _, page := range []string{"p1", "p2"} {
			if _, err := sess.Capture(context.Background(), []byte(page)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	want := "load:p1,eval:settle,shot,load:p2,eval:settle,shot"
	if got := strings.Join(d.calls, ","); got != want {
		t.Fatalf("driver calls = %s, want %s", got, want)
	}
}

func TestSessionsAreExclusive(t *testing.T) {
	d := &fakeDriver{}
	s := newTestSurface(d)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = s.Snapshot(context.Background(), []byte("doc"))
				return
			}
			_ = s.Session(context.Background(), func(sess *Session) error {
				_, err := sess.Capture(context.Background(), []byte("page"))
				return err
			})
		}()
	}
	wg.Wait()
	if d.overlap.Load() {
		t.Fatal("two operations used the surface at the same time")
	}
}

func TestSessionHonoursContextWhileWaiting(t *testing.T) {
	s := newTestSurface(&fakeDriver{})
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = s.Session(context.Background(), func(*Session) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Session(ctx, func(*Session) error { return nil })
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClosedSurfaceRejectsSessions(t *testing.T) {
	d := &fakeDriver{}
	s := newTestSurface(d)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !d.closed {
		t.Fatal("driver was not closed")
	}
	if _, err := s.Snapshot(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestLoadFailureIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestSurface(&fakeDriver{loadErr: boom}).Snapshot(context.Background(), []byte("doc"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}
