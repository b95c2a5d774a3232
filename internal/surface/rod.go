package surface

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver 用 go-rod 驱动一个常驻的 Chromium 页面。
type RodDriver struct {
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
}

// NewRodDriver 启动浏览器并打开测量页面。bin 为空时自动查找 Chromium。
func NewRodDriver(bin string, timeout time.Duration, width, height int, scale float64) (_ *RodDriver, err error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if bin != "" {
		launch = launch.Bin(bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: scale,
	}); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return &RodDriver{launch: launch, browser: browser, page: page, timeout: timeout}, nil
}

func (d *RodDriver) scoped(ctx context.Context) *rod.Page {
	return d.page.Context(ctx).Timeout(d.timeout)
}

func (d *RodDriver) Load(ctx context.Context, document []byte) error {
	page := d.scoped(ctx)
	if err := page.SetDocumentContent(string(document)); err != nil {
		return fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

func (d *RodDriver) Eval(ctx context.Context, script string) (string, error) {
	res, err := d.scoped(ctx).Eval(script)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d *RodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	el, err := d.scoped(ctx).Element("#resume-root")
	if err != nil {
		return nil, fmt.Errorf("find resume root: %w", err)
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

func (d *RodDriver) Close() error {
	if d.page != nil {
		_ = d.page.Close()
	}
	err := d.browser.Close()
	d.launch.Cleanup()
	return err
}
