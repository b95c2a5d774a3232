package measure

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

// 渲染器与提取器之间约定的标记。
const (
	RootID         = "resume-root"
	SummaryID      = "resume-summary"
	AttrY          = "data-y"
	AttrH          = "data-h"
	AttrScrollH    = "data-scroll-h"
	AttrSection    = "data-section"
	AttrItemID     = "data-item-id"
	ClassTitle     = "section-title"
	ClassExpItem   = "experience-item"
	ClassItem      = "item"
	ClassHeader    = "item-header"
	ClassDesc      = "item-description"
	AttrMeasurable = "data-measure"
)

// Extractor 从浏览器标注过几何信息的 HTML 快照中提取测量块。
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

type box struct {
	y, h float64
}

func (b box) bottom() float64 { return b.y + b.h }

// Extract 按固定的区块顺序生成测量块。
// 根节点、主体容器或必需的区块标题缺失时返回 pagination.ErrMeasurementUnavailable；
// 单个条目缺少几何信息时只记录日志并跳过。
func (e *Extractor) Extract(r io.Reader, data resume.Data) (pagination.Measurement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return pagination.Measurement{}, fmt.Errorf("%w: parse snapshot: %v", pagination.ErrMeasurementUnavailable, err)
	}

	root := find(doc, func(n *html.Node) bool { return attr(n, "id") == RootID })
	if root == nil {
		return pagination.Measurement{}, fmt.Errorf("%w: root #%s not found", pagination.ErrMeasurementUnavailable, RootID)
	}
	scrollH, ok := number(root, AttrScrollH)
	if !ok {
		return pagination.Measurement{}, fmt.Errorf("%w: root has no %s", pagination.ErrMeasurementUnavailable, AttrScrollH)
	}
	main := find(root, func(n *html.Node) bool { return n.Data == "main" })
	if main == nil {
		return pagination.Measurement{}, fmt.Errorf("%w: main container not found", pagination.ErrMeasurementUnavailable)
	}
	mainBox, ok := geometry(main)
	if !ok {
		return pagination.Measurement{}, fmt.Errorf("%w: main container has no geometry", pagination.ErrMeasurementUnavailable)
	}

	w := &walker{log: e.logger, prev: mainBox.y}
	m := pagination.Measurement{DocumentHeight: scrollH, ContentTop: mainBox.y}

	for _, spec := range resume.Sections {
		if !data.HasContent(spec.Section) {
			continue
		}
		sectionEl := find(main, func(n *html.Node) bool { return attr(n, AttrSection) == spec.Key })
		if sectionEl == nil {
			return pagination.Measurement{}, fmt.Errorf("%w: section %s not rendered", pagination.ErrMeasurementUnavailable, spec.Key)
		}

		if spec.Layout == resume.LayoutWhole {
			b, ok := geometry(sectionEl)
			if !ok {
				return pagination.Measurement{}, fmt.Errorf("%w: section %s has no geometry", pagination.ErrMeasurementUnavailable, spec.Key)
			}
			m.Blocks = append(m.Blocks, pagination.SectionBlock(spec.Section, b.h, w.gap(b)))
			continue
		}

		titleEl := find(sectionEl, func(n *html.Node) bool { return hasClass(n, ClassTitle) })
		title, ok := geometry(titleEl)
		if !ok {
			return pagination.Measurement{}, fmt.Errorf("%w: section %s has no measurable title", pagination.ErrMeasurementUnavailable, spec.Key)
		}
		m.Blocks = append(m.Blocks, pagination.TitleBlock(spec.Section, title.h, w.gap(title)))

		switch spec.Layout {
		case resume.LayoutText:
			body, ok := geometry(find(sectionEl, func(n *html.Node) bool { return attr(n, "id") == SummaryID }))
			if !ok {
				w.missing(spec.Key, SummaryID)
				w.skip(sectionEl)
				m.Blocks = append(m.Blocks, pagination.TextBlock(0, 0))
				continue
			}
			m.Blocks = append(m.Blocks, pagination.TextBlock(body.h, w.gap(body)))
		case resume.LayoutHeaderText:
			m.Blocks = append(m.Blocks, w.experiences(sectionEl, data.Experiences)...)
		case resume.LayoutItems:
			for _, id := range data.ItemIDs(spec.Section) {
				b, ok := geometry(findItem(sectionEl, ClassItem, id))
				if !ok {
					w.missing(spec.Key, id)
					m.Blocks = append(m.Blocks, pagination.ItemBlock(spec.Section, id, 0, 0))
					continue
				}
				m.Blocks = append(m.Blocks, pagination.ItemBlock(spec.Section, id, b.h, w.gap(b)))
			}
		}
	}
	return m, nil
}

// walker 跟踪上一个块的下沿，块的上边距取实际间隙，从而包含外边距折叠的效果。
type walker struct {
	log  *slog.Logger
	prev float64
}

func (w *walker) gap(b box) float64 {
	g := b.y - w.prev
	w.prev = b.bottom()
	if g < 0 {
		return 0
	}
	return g
}

// skip 把 prev 推进到第一个有几何信息的节点下沿，被省略元素的高度不会计入下一个块的间隙。
func (w *walker) skip(nodes ...*html.Node) {
	for _, n := range nodes {
		if b, ok := geometry(n); ok {
			w.prev = max(w.prev, b.bottom())
			return
		}
	}
}

func (w *walker) missing(section, what string) {
	w.log.Warn("block geometry missing, placed without height",
		slog.String("section", section),
		slog.String("element", what),
	)
}

// experiences 为每个条目生成头部块和描述块。几何信息缺失的部分以零高度保留，
// 条目内容不会因此从分页结果中消失。
func (w *walker) experiences(sectionEl *html.Node, items []resume.Experience) []pagination.Block {
	var blocks []pagination.Block
	for _, item := range items {
		itemEl := findItem(sectionEl, ClassExpItem, item.ID)
		if itemEl == nil {
			// 没有描述块时描述随头部显示。
			w.missing(resume.SectionExperiences.String(), item.ID)
			blocks = append(blocks, pagination.HeaderBlock(item.ID, 0, 0))
			continue
		}

		descEl := find(itemEl, func(n *html.Node) bool { return hasClass(n, ClassDesc) })
		header, ok := geometry(find(itemEl, func(n *html.Node) bool { return hasClass(n, ClassHeader) }))
		if ok {
			blocks = append(blocks, pagination.HeaderBlock(item.ID, header.h, w.gap(header)))
		} else {
			w.missing(resume.SectionExperiences.String(), item.ID+"-header")
			if desc, ok := geometry(descEl); ok && item.Description != "" {
				w.prev = max(w.prev, desc.y)
			} else {
				w.skip(itemEl)
			}
			blocks = append(blocks, pagination.HeaderBlock(item.ID, 0, 0))
		}

		if item.Description == "" {
			continue
		}
		desc, ok := geometry(descEl)
		if !ok {
			w.missing(resume.SectionExperiences.String(), item.ID)
			w.skip(itemEl)
			continue
		}
		blocks = append(blocks, pagination.BodyBlock(item.ID, desc.h, w.gap(desc)))
	}
	return blocks
}

func findItem(scope *html.Node, class, id string) *html.Node {
	return find(scope, func(n *html.Node) bool { return hasClass(n, class) && attr(n, AttrItemID) == id })
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func number(n *html.Node, key string) (float64, bool) {
	v, err := strconv.ParseFloat(attr(n, key), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func geometry(n *html.Node) (box, bool) {
	if n == nil {
		return box{}, false
	}
	y, okY := number(n, AttrY)
	h, okH := number(n, AttrH)
	if !okY || !okH || h < 0 {
		return box{}, false
	}
	return box{y: y, h: h}, true
}
