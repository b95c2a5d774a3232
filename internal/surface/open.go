package surface

import (
	"fmt"
	"log/slog"
	"time"
)

// Config 选择浏览器驱动。
type Config struct {
	Driver      string
	BrowserBin  string
	Timeout     time.Duration
	Width       int
	Height      int
	DeviceScale float64
}

// Open 启动浏览器并返回测量页面，进程退出前需调用 Close。
func Open(cfg Config, logger *slog.Logger) (*Surface, error) {
	var (
		driver Driver
		err    error
	)
	switch cfg.Driver {
	case "", "rod":
		driver, err = NewRodDriver(cfg.BrowserBin, cfg.Timeout, cfg.Width, cfg.Height, cfg.DeviceScale)
	case "chromedp":
		driver, err = NewChromedpDriver(cfg.BrowserBin, cfg.Timeout, cfg.Width, cfg.Height, cfg.DeviceScale)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("measurement surface ready", slog.String("driver", cfg.Driver))
	return New(driver, logger), nil
}
