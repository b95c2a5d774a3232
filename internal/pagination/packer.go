package pagination

import (
	"bytes"
	"encoding/json"

	"resumepager/internal/resume"
)

// Pack 将测量块贪心地装入页面。
//
// 第一页从 m.ContentTop 开始，后续页从 opts.ContinuationTop 开始，内容不得低于 opts.Limit()。
// 放不下的可拆分块在剩余空间不少于 opts.MinSplitHeight 时拆成两段，否则整体移到下一页。
// 单页渲染高度不超过一页时直接返回整份简历。
func Pack(data resume.Data, m Measurement, opts Options) Layout {
	if m.DocumentHeight <= opts.PageHeight {
		return Single(data, false)
	}

	p := &packer{
		data:   data,
		blocks: resolvable(data, m.Blocks),
		opts:   opts,
		limit:  opts.Limit(),
		h:      m.ContentTop,
		start:  m.ContentTop,
		bodies: make(map[string]bool),
	}
	for _, b := range p.blocks {
		if b.Kind == KindBody {
			p.bodies[b.ItemID] = true
		}
	}
	p.cur = p.blankPage()
	for i := range p.blocks {
		p.place(i)
	}
	return p.finish()
}

type packer struct {
	data   resume.Data
	blocks []Block
	opts   Options
	limit  float64
	// bodies 记录有独立描述块的经历条目；没有描述块时描述随头部显示。
	bodies map[string]bool

	pages []PageData
	start float64
	// headerOnly 表示第一页的标题被整体移走，只剩页眉，但仍需保留。
	headerOnly bool
	cur        PageData
	h          float64
	placements []Placement
}

func (p *packer) blankPage() PageData {
	return PageData{PersonalInfo: p.data.PersonalInfo, Style: p.data.Style}
}

func (p *packer) place(i int) {
	b := p.blocks[i]
	total := b.Height + b.MarginTop

	if b.Title && p.orphaned(i) {
		p.breakPage()
	}

	if p.h+total <= p.limit {
		p.put(b, nil, p.h+b.MarginTop, b.Height)
		p.h += total
		return
	}

	room := p.limit - p.h - b.MarginTop
	if b.Splittable && room >= p.opts.MinSplitHeight {
		head, tail := Split(b.Height, room)
		p.put(b, &head, p.h+b.MarginTop, head.Height())
		p.breakPage()
		p.put(b, &tail, p.h, tail.Height())
		p.h += tail.Height()
		return
	}

	switch {
	case p.cur.HasContent():
		t, carry := p.trailingTitle(i)
		if carry {
			p.placements = p.placements[:len(p.placements)-1]
			delete(p.cur.Titles, t.Section)
			if len(p.cur.Titles) == 0 {
				p.cur.Titles = nil
			}
		}
		p.breakPage()
		if carry {
			p.put(t, nil, p.h+t.MarginTop, t.Height)
			p.h += t.Height + t.MarginTop
		}
	case len(p.cur.Titles) > 0:
		p.carryTitles()
	}
	p.put(b, nil, p.h+b.MarginTop, b.Height)
	p.h += total
}

// trailingTitle 返回刚放在本页底部、属于第 i 块所在区块的标题。
func (p *packer) trailingTitle(i int) (Block, bool) {
	if i == 0 || len(p.placements) == 0 {
		return Block{}, false
	}
	t, last := p.blocks[i-1], p.placements[len(p.placements)-1]
	if !t.Title || t.Section != p.blocks[i].Section || last.BlockID != t.ID || last.Page != len(p.pages) {
		return Block{}, false
	}
	return t, true
}

// carryTitles 把只有标题的当前页的标题移到下一页，标题不会与其内容分开。
func (p *packer) carryTitles() {
	page := len(p.pages)
	titles := p.cur.Titles
	p.cur.Titles = nil
	if page == 0 {
		p.headerOnly = true
	}
	shift := p.opts.ContinuationTop - p.start
	used := p.h
	p.breakPage()
	p.cur.Titles = titles
	for i := range p.placements {
		if p.placements[i].Page == page {
			p.placements[i].Page = page + 1
			p.placements[i].Top += shift
		}
	}
	p.h = used + shift
}

// orphaned 判断标题与其后第一个同区块内容块的前 MinSplitHeight 能否一起留在本页。
// 本页还没有内容时不换页，换了也不会有更多空间。
// 整块放不下的不可拆分块由 place 连同标题一起移到下一页。
func (p *packer) orphaned(i int) bool {
	if i+1 >= len(p.blocks) || !p.cur.HasContent() {
		return false
	}
	b, next := p.blocks[i], p.blocks[i+1]
	if next.Section != b.Section || next.Title {
		return false
	}
	need := min(next.Height, p.opts.MinSplitHeight)
	return p.h+b.Height+b.MarginTop+next.MarginTop+need > p.limit
}

func (p *packer) breakPage() {
	p.pages = append(p.pages, p.cur)
	p.cur = p.blankPage()
	p.h = p.opts.ContinuationTop
	p.start = p.opts.ContinuationTop
}

// put 把块的数据并入当前页，按条目 ID 去重。
func (p *packer) put(b Block, w *Window, top, height float64) {
	p.placements = append(p.placements, Placement{BlockID: b.ID, Page: len(p.pages), Top: top, Height: height})
	if w != nil {
		if p.cur.Continuation == nil {
			p.cur.Continuation = make(map[string]Window)
		}
		p.cur.Continuation[b.ID] = *w
	}

	switch b.Kind {
	case KindTitle:
		p.markTitle(b.Section)
	case KindText:
		p.cur.Summary = p.data.Summary
	case KindSection:
		p.markTitle(b.Section)
		if b.Section == resume.SectionSkills {
			p.cur.Skills = p.data.Skills
		}
	case KindHeader:
		if p.indexOf(b.ItemID) < 0 {
			item, _ := findExperience(p.data.Experiences, b.ItemID)
			if p.bodies[b.ItemID] {
				item.Description = ""
			}
			p.cur.Experiences = append(p.cur.Experiences, item)
		}
	case KindBody:
		item, _ := findExperience(p.data.Experiences, b.ItemID)
		if idx := p.indexOf(b.ItemID); idx >= 0 {
			p.cur.Experiences[idx].Description = item.Description
			return
		}
		p.cur.Experiences = append(p.cur.Experiences, item)
		if p.cur.BodyOnly == nil {
			p.cur.BodyOnly = make(map[string]bool)
		}
		p.cur.BodyOnly[b.ItemID] = true
	case KindItem:
		p.putItem(b)
	}
}

func (p *packer) markTitle(s resume.Section) {
	if p.cur.Titles == nil {
		p.cur.Titles = make(map[resume.Section]bool)
	}
	p.cur.Titles[s] = true
}

func (p *packer) indexOf(id string) int {
	for i, e := range p.cur.Experiences {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (p *packer) putItem(b Block) {
	switch b.Section {
	case resume.SectionEducation:
		p.cur.Education = appendOnce(p.cur.Education, p.data.Education, b.ItemID, func(e resume.Education) string { return e.ID })
	case resume.SectionCourses:
		p.cur.Courses = appendOnce(p.cur.Courses, p.data.Courses, b.ItemID, func(c resume.Course) string { return c.ID })
	case resume.SectionLanguages:
		p.cur.Languages = appendOnce(p.cur.Languages, p.data.Languages, b.ItemID, func(l resume.Language) string { return l.ID })
	}
}

func appendOnce[T any](page, all []T, id string, key func(T) string) []T {
	for _, it := range page {
		if key(it) == id {
			return page
		}
	}
	for _, it := range all {
		if key(it) == id {
			return append(page, it)
		}
	}
	return page
}

func findExperience(items []resume.Experience, id string) (resume.Experience, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return resume.Experience{}, false
}

func (p *packer) finish() Layout {
	if p.cur.HasContent() {
		if len(p.pages) == 0 || !sameJSON(p.cur, p.pages[len(p.pages)-1]) {
			p.pages = append(p.pages, p.cur)
		}
	}

	remap := make(map[int]int, len(p.pages))
	pages := make([]PageData, 0, len(p.pages))
	for i := range p.pages {
		if p.pages[i].HasContent() || (i == 0 && p.headerOnly) {
			remap[i] = len(pages)
			pages = append(pages, p.pages[i])
		}
	}
	if len(pages) == 0 {
		return Single(p.data, false)
	}

	placements := make([]Placement, 0, len(p.placements))
	for _, pl := range p.placements {
		if idx, ok := remap[pl.Page]; ok {
			pl.Page = idx
			placements = append(placements, pl)
		}
	}
	return Layout{Pages: pages, Placements: placements}
}

func sameJSON(a, b PageData) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

// resolvable 丢弃数据中已不存在的块，使过期的测量结果不会引用已删除的条目。
func resolvable(data resume.Data, blocks []Block) []Block {
	ids := make(map[resume.Section]map[string]bool)
	for _, spec := range resume.Sections {
		set := make(map[string]bool)
		for _, id := range data.ItemIDs(spec.Section) {
			set[id] = true
		}
		ids[spec.Section] = set
	}

	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if !data.HasContent(b.Section) {
			continue
		}
		switch b.Kind {
		case KindHeader, KindBody, KindItem:
			if !ids[b.Section][b.ItemID] {
				continue
			}
		case KindText, KindTitle, KindSection:
		default:
			continue
		}
		out = append(out, b)
	}
	return out
}
