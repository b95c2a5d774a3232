package surface

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromedpDriver 是基于 chromedp 的备选驱动。
type ChromedpDriver struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	timeout     time.Duration
}

func NewChromedpDriver(bin string, timeout time.Duration, width, height int, scale float64) (*ChromedpDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	startCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	if err := chromedp.Run(startCtx,
		chromedp.EmulateViewport(int64(width), int64(height), chromedp.EmulateScale(scale)),
		chromedp.Navigate("about:blank"),
	); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &ChromedpDriver{ctx: tabCtx, cancelAlloc: cancelAlloc, cancelTab: cancelTab, timeout: timeout}, nil
}

// run 在浏览器上下文中执行动作，调用方的 ctx 取消时一并中止。
func (d *ChromedpDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (d *ChromedpDriver) Load(ctx context.Context, document []byte) error {
	return d.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(document)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *ChromedpDriver) Eval(ctx context.Context, script string) (string, error) {
	var out string
	err := d.run(ctx, chromedp.Evaluate("("+script+")()", &out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	return out, err
}

func (d *ChromedpDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.Screenshot("#resume-root", &buf, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *ChromedpDriver) Close() error {
	d.cancelTab()
	d.cancelAlloc()
	return nil
}
