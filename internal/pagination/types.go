package pagination

import (
	"errors"

	"resumepager/internal/resume"
)

// ErrMeasurementUnavailable 表示无法从渲染结果中取得几何信息，调用方应退化为单页。
var ErrMeasurementUnavailable = errors.New("measurement unavailable")

// Kind 标识测量块承载的内容。
type Kind int

const (
	KindTitle   Kind = iota + 1 // 区块标题
	KindText                    // 摘要正文
	KindHeader                  // 经历条目头部
	KindBody                    // 经历条目描述
	KindItem                    // 原子条目
	KindSection                 // 整个区块（含标题）
)

// Block 是一次测量得到的可放置单元。每次分页都会重新生成，不会被修改。
type Block struct {
	ID         string         `json:"id"`
	Section    resume.Section `json:"section"`
	ItemID     string         `json:"itemId,omitempty"`
	Kind       Kind           `json:"kind"`
	Height     float64        `json:"height"`
	MarginTop  float64        `json:"marginTop"`
	Splittable bool           `json:"splittable"`
	Title      bool           `json:"title"`
}

// TitleBlock 构造区块标题块。
func TitleBlock(s resume.Section, height, marginTop float64) Block {
	return Block{ID: s.String() + "-title", Section: s, Kind: KindTitle, Height: height, MarginTop: marginTop, Title: true}
}

// TextBlock 构造摘要正文块。
func TextBlock(height, marginTop float64) Block {
	return Block{ID: resume.SectionSummary.String(), Section: resume.SectionSummary, Kind: KindText, Height: height, MarginTop: marginTop, Splittable: true}
}

// HeaderBlock 构造经历条目的头部块。
func HeaderBlock(itemID string, height, marginTop float64) Block {
	return Block{ID: itemID + "-header", Section: resume.SectionExperiences, ItemID: itemID, Kind: KindHeader, Height: height, MarginTop: marginTop}
}

// BodyBlock 构造经历条目的描述块，ID 即条目 ID。
func BodyBlock(itemID string, height, marginTop float64) Block {
	return Block{ID: itemID, Section: resume.SectionExperiences, ItemID: itemID, Kind: KindBody, Height: height, MarginTop: marginTop, Splittable: true}
}

// ItemBlock 构造原子条目块。
func ItemBlock(s resume.Section, itemID string, height, marginTop float64) Block {
	return Block{ID: s.String() + "-" + itemID, Section: s, ItemID: itemID, Kind: KindItem, Height: height, MarginTop: marginTop}
}

// SectionBlock 构造整区块原子块。
func SectionBlock(s resume.Section, height, marginTop float64) Block {
	return Block{ID: s.String(), Section: s, Kind: KindSection, Height: height, MarginTop: marginTop}
}

// Measurement 是一次测量的结果。
type Measurement struct {
	// DocumentHeight 是单页渲染的滚动高度。
	DocumentHeight float64 `json:"documentHeight"`
	// ContentTop 是第一页正文起点：页眉高度加主体上边距。
	ContentTop float64 `json:"contentTop"`
	Blocks     []Block `json:"blocks"`
}

// Window 是拆分块在某一页上显示的纵向窗口 [Offset, TotalHeight)。
type Window struct {
	Offset      float64 `json:"offset"`
	TotalHeight float64 `json:"totalHeight"`
}

// Height 返回窗口高度。
func (w Window) Height() float64 {
	return w.TotalHeight - w.Offset
}

// PageData 是一页所显示的简历切片。
type PageData struct {
	PersonalInfo resume.PersonalInfo `json:"personalInfo"`
	Summary      string              `json:"summary,omitempty"`
	Experiences  []resume.Experience `json:"experiences,omitempty"`
	Education    []resume.Education  `json:"education,omitempty"`
	Courses      []resume.Course     `json:"courses,omitempty"`
	Languages    []resume.Language   `json:"languages,omitempty"`
	Skills       []string            `json:"skills,omitempty"`
	Style        resume.Style        `json:"style"`

	// Continuation 按块 ID 记录显示窗口；缺省表示完整显示。
	Continuation map[string]Window `json:"continuation,omitempty"`
	// Titles 记录本页绘制标题的区块。
	Titles map[resume.Section]bool `json:"titles,omitempty"`
	// BodyOnly 记录头部位于前一页、本页只显示描述的经历条目。
	BodyOnly map[string]bool `json:"bodyOnly,omitempty"`
}

// HasContent 判断本页是否包含至少一个非空区块。
func (p *PageData) HasContent() bool {
	return p.Summary != "" || len(p.Experiences) > 0 || len(p.Education) > 0 ||
		len(p.Courses) > 0 || len(p.Languages) > 0 || len(p.Skills) > 0
}

// Whole 返回显示整份简历的一页。
func Whole(data resume.Data) PageData {
	page := PageData{
		PersonalInfo: data.PersonalInfo,
		Summary:      data.Summary,
		Experiences:  data.Experiences,
		Education:    data.Education,
		Courses:      data.Courses,
		Languages:    data.Languages,
		Skills:       data.Skills,
		Style:        data.Style,
		Titles:       make(map[resume.Section]bool),
	}
	for _, spec := range resume.Sections {
		if data.HasContent(spec.Section) {
			page.Titles[spec.Section] = true
		}
	}
	return page
}

// Placement 记录块被放到哪一页的什么位置。Top 为内容起点（已计入上边距）。
type Placement struct {
	BlockID string  `json:"blockId"`
	Page    int     `json:"page"`
	Top     float64 `json:"top"`
	Height  float64 `json:"height"`
}

// Bottom 返回块在页内的下沿。
func (p Placement) Bottom() float64 {
	return p.Top + p.Height
}

// Layout 是一次分页的结果。
type Layout struct {
	Pages      []PageData  `json:"pages"`
	Placements []Placement `json:"placements,omitempty"`
	// Fallback 为 true 表示测量不可用，结果是未分页的单页。
	Fallback bool `json:"fallback"`
}

// PageCount 返回页数。
func (l Layout) PageCount() int {
	return len(l.Pages)
}

// ClampPage 将页码限制在 [0, PageCount) 内。
func (l Layout) ClampPage(i int) int {
	if i >= len(l.Pages) {
		i = len(l.Pages) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Single 返回只有一页完整内容的布局。
func Single(data resume.Data, fallback bool) Layout {
	return Layout{Pages: []PageData{Whole(data)}, Fallback: fallback}
}
