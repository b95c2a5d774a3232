package surface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed 表示测量页面已经释放。
var ErrClosed = errors.New("surface closed")

// Driver 控制一个无头浏览器页面。实现不需要并发安全，Surface 保证同一时刻只有一个调用方。
type Driver interface {
	// Load 用给定 HTML 替换页面内容并等待 load 事件。
	Load(ctx context.Context, document []byte) error
	// Eval 执行一个返回字符串（或 Promise<string>）的函数表达式。
	Eval(ctx context.Context, script string) (string, error)
	// Screenshot 截取 #resume-root 的 PNG。
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// 等字体加载完成，再等两帧让排版稳定。
const settleScript = `async () => {
  if (document.fonts && document.fonts.ready) {
    await Promise.race([
      document.fonts.ready,
      new Promise((resolve) => setTimeout(resolve, 3000))
    ]);
  }
  await new Promise((resolve) => requestAnimationFrame(() => requestAnimationFrame(resolve)));
  return 'settled';
}`

// measureScript 在排版稳定后给 [data-measure] 元素写入相对根节点的几何信息，返回根节点 HTML。
const measureScript = `async () => {
  if (document.fonts && document.fonts.ready) {
    await Promise.race([
      document.fonts.ready,
      new Promise((resolve) => setTimeout(resolve, 3000))
    ]);
  }
  await new Promise((resolve) => requestAnimationFrame(() => requestAnimationFrame(resolve)));
  const root = document.getElementById('resume-root');
  if (!root) return '';
  const top = root.getBoundingClientRect().top;
  root.setAttribute('data-scroll-h', String(root.scrollHeight));
  root.querySelectorAll('[data-measure]').forEach((el) => {
    const r = el.getBoundingClientRect();
    el.setAttribute('data-y', String(r.top - top));
    el.setAttribute('data-h', String(r.height));
  });
  return root.outerHTML;
}`

// Surface 是进程内唯一的离屏渲染页面。测量和导出都必须先取得会话。
type Surface struct {
	driver Driver
	logger *slog.Logger
	slot   chan struct{}

	mu     sync.Mutex
	closed bool
}

func New(driver Driver, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{driver: driver, logger: logger, slot: make(chan struct{}, 1)}
}

// Session 在独占页面的情况下执行 fn。等待期间 ctx 取消则返回 ctx 的错误。
func (s *Surface) Session(ctx context.Context, fn func(*Session) error) error {
	waitStart := time.Now()
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slot }()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if waited := time.Since(waitStart); waited > time.Second {
		s.logger.Debug("surface session waited", slog.Duration("wait", waited))
	}
	return fn(&Session{driver: s.driver})
}

// Snapshot 在一个独立会话中测量文档。
func (s *Surface) Snapshot(ctx context.Context, document []byte) ([]byte, error) {
	var out []byte
	err := s.Session(ctx, func(sess *Session) error {
		var err error
		out, err = sess.Snapshot(ctx, document)
		return err
	})
	return out, err
}

// Close 等当前会话结束后释放浏览器。
func (s *Surface) Close() error {
	s.slot <- struct{}{}
	defer func() { <-s.slot }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.driver.Close()
}

// Session 是对页面的一次独占使用。
type Session struct {
	driver Driver
}

// Snapshot 加载文档，等待排版稳定，返回带几何标注的根节点 HTML。
func (sess *Session) Snapshot(ctx context.Context, document []byte) ([]byte, error) {
	if err := sess.driver.Load(ctx, document); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	html, err := sess.driver.Eval(ctx, measureScript)
	if err != nil {
		return nil, fmt.Errorf("annotate geometry: %w", err)
	}
	return []byte(html), nil
}

// Capture 加载一页文档，等待排版稳定后截图。
func (sess *Session) Capture(ctx context.Context, document []byte) ([]byte, error) {
	if err := sess.driver.Load(ctx, document); err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	if _, err := sess.driver.Eval(ctx, settleScript); err != nil {
		return nil, fmt.Errorf("wait for layout: %w", err)
	}
	png, err := sess.driver.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture page: %w", err)
	}
	return png, nil
}
