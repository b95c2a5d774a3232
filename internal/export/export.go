package export

import (
	"context"
	"fmt"
	"log/slog"

	"resumepager/internal/pagination"
	"resumepager/internal/pdf"
	"resumepager/internal/resume"
	"resumepager/internal/surface"
)

// PageRenderer 渲染单页 HTML。
type PageRenderer interface {
	Page(page pagination.PageData, index, total int, demo bool) ([]byte, error)
}

// Result 是一次导出的产物。
type Result struct {
	PDF      []byte
	FileName string
	Pages    int
}

// Exporter 逐页渲染、截图并拼装 PDF。
type Exporter struct {
	renderer PageRenderer
	surface  *surface.Surface
	logger   *slog.Logger
}

func New(renderer PageRenderer, s *surface.Surface, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{renderer: renderer, surface: s, logger: logger}
}

// Export 在同一个会话中按顺序截取每一页，截图之间不并行。
func (e *Exporter) Export(ctx context.Context, data resume.Data, layout pagination.Layout) (Result, error) {
	total := layout.PageCount()
	if total == 0 {
		return Result{}, pdf.ErrNoPages
	}

	shots := make([][]byte, 0, total)
	err := e.surface.Session(ctx, func(sess *surface.Session) error {
		for i, page := range layout.Pages {
			doc, err := e.renderer.Page(page, i, total, false)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			png, err := sess.Capture(ctx, doc)
			if err != nil {
				return fmt.Errorf("capture page %d: %w", i+1, err)
			}
			shots = append(shots, png)
			e.logger.Debug("page captured", slog.Int("page", i+1), slog.Int("bytes", len(png)))
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	fileName := data.FileName()
	out, err := pdf.Assemble(shots, fileName)
	if err != nil {
		return Result{}, fmt.Errorf("assemble pdf: %w", err)
	}
	return Result{PDF: out, FileName: fileName, Pages: total}, nil
}
