package measure

import (
	"bytes"
	"context"
	"fmt"

	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

// DocumentRenderer 渲染测量用的完整文档。
type DocumentRenderer interface {
	Document(data resume.Data, demo bool) ([]byte, error)
}

// Snapshotter 在浏览器中加载文档，等待排版稳定后返回带几何标注的 HTML。
type Snapshotter interface {
	Snapshot(ctx context.Context, document []byte) ([]byte, error)
}

// Live 用真实的浏览器页面测量，实现 pagination.Measurer。
type Live struct {
	renderer  DocumentRenderer
	surface   Snapshotter
	extractor *Extractor
}

func NewLive(renderer DocumentRenderer, surface Snapshotter, extractor *Extractor) *Live {
	return &Live{renderer: renderer, surface: surface, extractor: extractor}
}

func (l *Live) Measure(ctx context.Context, data resume.Data, demo bool) (pagination.Measurement, error) {
	doc, err := l.renderer.Document(data, demo)
	if err != nil {
		return pagination.Measurement{}, fmt.Errorf("render measurement document: %w", err)
	}
	snapshot, err := l.surface.Snapshot(ctx, doc)
	if err != nil {
		return pagination.Measurement{}, fmt.Errorf("snapshot measurement document: %w", err)
	}
	return l.extractor.Extract(bytes.NewReader(snapshot), data)
}
