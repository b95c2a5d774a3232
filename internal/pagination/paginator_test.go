package pagination

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"resumepager/internal/resume"
)

type fakeMeasurer struct {
	m     Measurement
	err   error
	calls int
}

func (f *fakeMeasurer) Measure(ctx context.Context, _ resume.Data, _ bool) (Measurement, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return Measurement{}, err
	}
	return f.m, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPaginatorFallsBackWhenMeasurementUnavailable(t *testing.T) {
	data := resume.Demo()
	for _, measureErr := range []error{ErrMeasurementUnavailable, errors.New("browser crashed")} {
		p := NewPaginator(&fakeMeasurer{err: measureErr}, DefaultOptions(), discardLogger())
		layout, err := p.Paginate(context.Background(), data, false)
		if err != nil {
			t.Fatalf("fallback must not surface an error, got %v", err)
		}
		if !layout.Fallback || layout.PageCount() != 1 {
			t.Fatalf("expected a single fallback page, got %+v", layout)
		}
		if layout.Pages[0].Summary != data.Summary || len(layout.Pages[0].Experiences) != len(data.Experiences) {
			t.Fatal("fallback page should hold the whole resume")
		}
	}
}

func TestPaginatorReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPaginator(&fakeMeasurer{}, DefaultOptions(), discardLogger())
	if _, err := p.Paginate(ctx, resume.Demo(), false); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPaginatorPacksMeasurement(t *testing.T) {
	data := experienceOnly(resume.Demo(), 1)
	m := Measurement{ContentTop: 200, Blocks: []Block{
		TitleBlock(resume.SectionSummary, 30, 0),
		TextBlock(900, 10),
		TitleBlock(resume.SectionExperiences, 30, 20),
		HeaderBlock("1", 40, 10),
		BodyBlock("1", 120, 0),
	}}
	m.DocumentHeight = m.Extent()
	f := &fakeMeasurer{m: m}
	layout, err := NewPaginator(f, DefaultOptions(), discardLogger()).Paginate(context.Background(), data, true)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("expected one measurement, got %d", f.calls)
	}
	if layout.Fallback || layout.PageCount() != 2 {
		t.Fatalf("expected 2 measured pages, got %d (fallback=%v)", layout.PageCount(), layout.Fallback)
	}
}

func TestSplitAndStitch(t *testing.T) {
	head, tail := Split(300, 120)
	if head != (Window{0, 120}) || tail != (Window{120, 300}) {
		t.Fatalf("unexpected windows %+v %+v", head, tail)
	}
	if err := Stitch(300, []Window{head, tail}); err != nil {
		t.Fatalf("stitch: %v", err)
	}
	if head.Height()+tail.Height() != 300 {
		t.Fatal("windows must cover the block exactly")
	}

	cases := map[string][]Window{
		"gap":     {{0, 100}, {110, 300}},
		"overlap": {{0, 100}, {90, 300}},
		"short":   {{0, 100}, {100, 250}},
		"late":    {{20, 300}},
		"empty":   nil,
	}
	for name, ws := range cases {
		if err := Stitch(300, ws); !errors.Is(err, ErrBrokenContinuation) {
			t.Errorf("%s: expected ErrBrokenContinuation, got %v", name, err)
		}
	}
}

func TestOptionsAndClamp(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("default options: %v", err)
	}
	if opts.Limit() != 1067 {
		t.Fatalf("unexpected limit %.0f", opts.Limit())
	}
	opts.ContinuationTop = 1050
	if err := opts.Validate(); err == nil {
		t.Fatal("continuation top past the limit should be rejected")
	}

	l := Layout{Pages: make([]PageData, 3)}
	for in, want := range map[int]int{-1: 0, 0: 0, 2: 2, 9: 2} {
		if got := l.ClampPage(in); got != want {
			t.Errorf("ClampPage(%d) = %d, want %d", in, got, want)
		}
	}
}
