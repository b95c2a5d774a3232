// Package engine 组装测量、分页与导出所需的组件，供各个入口复用。
package engine

import (
	"fmt"
	"log/slog"

	"resumepager/internal/config"
	"resumepager/internal/export"
	"resumepager/internal/measure"
	"resumepager/internal/pagination"
	"resumepager/internal/render"
	"resumepager/internal/surface"
)

// Engine 持有浏览器页面及其上的分页、导出流程。
type Engine struct {
	Surface   *surface.Surface
	Renderer  *render.Renderer
	Measurer  *measure.Live
	Paginator *pagination.Paginator
	Exporter  *export.Exporter
}

// SurfaceConfig 把浏览器配置转换为 surface.Config。
func SurfaceConfig(cfg config.BrowserConfig) surface.Config {
	return surface.Config{
		Driver:      cfg.Driver,
		BrowserBin:  cfg.Bin,
		Timeout:     cfg.Timeout,
		Width:       cfg.Width,
		Height:      cfg.Height,
		DeviceScale: cfg.DeviceScale,
	}
}

// Open 启动浏览器并连接各组件。调用方负责 Close。
func Open(browser config.BrowserConfig, opts pagination.Options, logger *slog.Logger) (*Engine, error) {
	renderer, err := render.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}
	surf, err := surface.Open(SurfaceConfig(browser), logger)
	if err != nil {
		return nil, fmt.Errorf("open surface: %w", err)
	}
	return New(surf, renderer, opts, logger), nil
}

// New 在已有页面上组装组件。
func New(surf *surface.Surface, renderer *render.Renderer, opts pagination.Options, logger *slog.Logger) *Engine {
	live := measure.NewLive(renderer, surf, measure.NewExtractor(logger))
	return &Engine{
		Surface:   surf,
		Renderer:  renderer,
		Measurer:  live,
		Paginator: pagination.NewPaginator(live, opts, logger),
		Exporter:  export.New(renderer, surf, logger),
	}
}

// Close 关闭浏览器。
func (e *Engine) Close() error {
	return e.Surface.Close()
}
