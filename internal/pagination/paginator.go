package pagination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"resumepager/internal/resume"
)

// Measurer 渲染整份简历并返回测量块。
type Measurer interface {
	Measure(ctx context.Context, data resume.Data, demo bool) (Measurement, error)
}

// Paginator 把测量和装箱串起来。测量失败时退化为单页，不向调用方报错。
type Paginator struct {
	measurer Measurer
	opts     Options
	logger   *slog.Logger
}

func NewPaginator(measurer Measurer, opts Options, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{measurer: measurer, opts: opts, logger: logger}
}

// Options 返回分页参数。
func (p *Paginator) Options() Options {
	return p.opts
}

// Paginate 执行一次完整的分页。只有 ctx 被取消时才返回错误。
func (p *Paginator) Paginate(ctx context.Context, data resume.Data, demo bool) (Layout, error) {
	m, err := p.measurer.Measure(ctx, data, demo)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Layout{}, ctxErr
		}
		if errors.Is(err, ErrMeasurementUnavailable) {
			p.logger.Warn("measurement unavailable, falling back to a single page", slog.Any("error", err))
		} else {
			p.logger.Error("measurement failed, falling back to a single page", slog.Any("error", err))
		}
		return Single(data, true), nil
	}

	layout := Pack(data, m, p.opts)
	p.logger.Debug("pagination finished",
		slog.Int("blocks", len(m.Blocks)),
		slog.Int("pages", layout.PageCount()),
		slog.Float64("document_height", m.DocumentHeight),
	)
	return layout, nil
}

// Extent 返回测量块按顺序堆叠后的总高度，用于客户端未提供文档高度时。
func (m Measurement) Extent() float64 {
	h := m.ContentTop
	for _, b := range m.Blocks {
		h += b.MarginTop + b.Height
	}
	return h
}

// MaxBlocks 是一次测量允许的块数上限，远大于表单限制下可能出现的块数。
const MaxBlocks = 1000

// Validate 检查外部提供的测量结果，高度与间距不得为负数或非有限值。
func (m Measurement) Validate() error {
	if len(m.Blocks) > MaxBlocks {
		return fmt.Errorf("measurement has %d blocks, at most %d allowed", len(m.Blocks), MaxBlocks)
	}
	if !finite(m.ContentTop) || m.ContentTop < 0 {
		return fmt.Errorf("contentTop %v must be a non-negative number", m.ContentTop)
	}
	if !finite(m.DocumentHeight) {
		return fmt.Errorf("documentHeight %v must be finite", m.DocumentHeight)
	}
	for i, b := range m.Blocks {
		if !finite(b.Height) || b.Height < 0 {
			return fmt.Errorf("block %d (%s): height %v must be a non-negative number", i, b.ID, b.Height)
		}
		if !finite(b.MarginTop) || b.MarginTop < 0 {
			return fmt.Errorf("block %d (%s): marginTop %v must be a non-negative number", i, b.ID, b.MarginTop)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
