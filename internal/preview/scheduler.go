package preview

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"resumepager/internal/metrics"
	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

// Paginator 执行一次分页。
type Paginator interface {
	Paginate(ctx context.Context, data resume.Data, demo bool) (pagination.Layout, error)
}

// Result 是一次被采纳的分页结果。
type Result struct {
	Generation uint64
	Layout     pagination.Layout
}

// Scheduler 对编辑做防抖，并用递增的代号丢弃被后续编辑超越的结果。
// commit 在内部锁内串行调用，不能在 commit 中再调用 Submit。
type Scheduler struct {
	paginator Paginator
	delay     time.Duration
	commit    func(Result)
	logger    *slog.Logger

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	data     resume.Data
	demo     bool
	inflight context.CancelFunc
	stopped  bool

	commitMu   sync.Mutex
	committed  atomic.Uint64
	superseded atomic.Uint64
}

func NewScheduler(p Paginator, delay time.Duration, commit func(Result), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{paginator: p, delay: delay, commit: commit, logger: logger}
}

// Submit 记录最新数据并重启防抖计时，返回本次编辑的代号。
func (s *Scheduler) Submit(data resume.Data, demo bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return s.gen
	}
	s.gen++
	s.data, s.demo = data, demo
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.run(gen) })
	return gen
}

func (s *Scheduler) run(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	if s.inflight != nil {
		s.inflight()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.inflight = cancel
	data, demo := s.data, s.demo
	s.mu.Unlock()
	defer cancel()

	layout, err := s.paginator.Paginate(ctx, data, demo)
	metrics.PaginationPasses.WithLabelValues(passOutcome(layout, err)).Inc()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if err != nil || !s.current(gen) {
		s.superseded.Add(1)
		metrics.PreviewSuperseded.Inc()
		s.logger.Debug("pagination pass discarded", slog.Uint64("generation", gen), slog.Any("error", err))
		return
	}
	s.committed.Add(1)
	metrics.PagesPerResume.Observe(float64(layout.PageCount()))
	s.commit(Result{Generation: gen, Layout: layout})
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped && gen == s.gen
}

// Stop 取消计时器和进行中的分页，之后的结果都不会提交。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.inflight != nil {
		s.inflight()
	}
}

// Stats 返回已提交和被丢弃的分页次数。
func (s *Scheduler) Stats() (committed, superseded uint64) {
	return s.committed.Load(), s.superseded.Load()
}

func passOutcome(layout pagination.Layout, err error) string {
	switch {
	case err != nil:
		return "canceled"
	case layout.Fallback:
		return "fallback"
	default:
		return "paginated"
	}
}
