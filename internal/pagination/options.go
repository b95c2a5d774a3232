package pagination

import "fmt"

// A4 在 96dpi 下的像素尺寸。
const (
	A4Width  = 794
	A4Height = 1123
)

// Options 是分页的几何参数，单位为 CSS 像素。
type Options struct {
	PageHeight      float64
	PageWidth       float64
	BottomMargin    float64
	ContinuationTop float64
	MinSplitHeight  float64
}

// DefaultOptions 返回 A4 默认参数。
func DefaultOptions() Options {
	return Options{
		PageHeight:      A4Height,
		PageWidth:       A4Width,
		BottomMargin:    56,
		ContinuationTop: 56,
		MinSplitHeight:  50,
	}
}

// Limit 是页面内容可到达的最低位置。
func (o Options) Limit() float64 {
	return o.PageHeight - o.BottomMargin
}

// Validate 检查参数是否自洽。
func (o Options) Validate() error {
	if o.PageHeight <= 0 || o.PageWidth <= 0 {
		return fmt.Errorf("page size must be positive, got %.0fx%.0f", o.PageWidth, o.PageHeight)
	}
	if o.BottomMargin < 0 || o.ContinuationTop < 0 || o.MinSplitHeight < 0 {
		return fmt.Errorf("margins and split threshold must not be negative")
	}
	if o.ContinuationTop+o.MinSplitHeight > o.Limit() {
		return fmt.Errorf("continuation top %.0f leaves no room below limit %.0f", o.ContinuationTop, o.Limit())
	}
	return nil
}
