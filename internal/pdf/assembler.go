package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// ErrNoPages 表示没有可写入的页面。
var ErrNoPages = errors.New("no pages to assemble")

// Assemble 把每页的 PNG 截图拼成 A4 PDF，一页一张图片，铺满整页，无文本层。
func Assemble(pages [][]byte, title string) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("resumepager", true)
	if title != "" {
		doc.SetTitle(title, true)
	}
	width, height := doc.GetPageSize()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, png := range pages {
		name := fmt.Sprintf("page-%d", i+1)
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		doc.AddPage()
		doc.ImageOptions(name, 0, 0, width, height, false, opts, 0, "")
		if err := doc.Error(); err != nil {
			return nil, fmt.Errorf("add page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
