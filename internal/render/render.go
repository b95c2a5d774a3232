package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Renderer 把简历或分页切片渲染成独立的 HTML 文档。
type Renderer struct {
	tmpl *template.Template
	opts pagination.Options
}

func New(opts pagination.Options) (*Renderer, error) {
	tmpl, err := template.New("page.html.tmpl").
		Funcs(template.FuncMap{"px": px}).
		ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl, opts: opts}, nil
}

// Document 渲染用于测量的完整单页文档：不限高度，不裁剪，不带页脚。
func (r *Renderer) Document(data resume.Data, demo bool) ([]byte, error) {
	v, err := r.view(pagination.Whole(data), 0, 1, demo)
	if err != nil {
		return nil, err
	}
	v.Paged = false
	v.Footer = false
	return r.execute(v)
}

// Page 渲染第 index 页（从 0 开始），固定为一页的尺寸。
func (r *Renderer) Page(page pagination.PageData, index, total int, demo bool) ([]byte, error) {
	v, err := r.view(page, index, total, demo)
	if err != nil {
		return nil, err
	}
	return r.execute(v)
}

func (r *Renderer) execute(v pageView) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

type pageView struct {
	Template        resume.Template
	Accent          template.CSS
	Width           template.CSS
	Height          template.CSS
	ContinuationTop template.CSS
	Paged           bool
	First           bool
	Footer          bool
	Number, Total   int

	Info    resume.PersonalInfo
	Photo   template.URL
	QR      template.URL
	Contact []string

	Sections []sectionView
}

type sectionView struct {
	Key         string
	Title       string
	ShowTitle   bool
	Summary     *textView
	Experiences []experienceView
	Items       []itemView
	Skills      []string
}

type windowView struct {
	Clip   bool
	Height float64
	Shift  float64
}

type textView struct {
	Text   string
	Window windowView
}

type experienceView struct {
	ID          string
	JobTitle    string
	Where       string
	When        string
	Description string
	ShowHeader  bool
	Window      windowView
}

type itemView struct {
	ID        string
	Primary   string
	Secondary string
	Meta      string
}

func (r *Renderer) view(page pagination.PageData, index, total int, demo bool) (pageView, error) {
	style := page.Style
	if !style.Template.Valid() {
		style.Template = resume.TemplateModern
	}
	accent := style.Color
	if !colorPattern.MatchString(accent) {
		accent = resume.DefaultColor
	}

	info := page.PersonalInfo
	if demo {
		info = withPlaceholders(info)
	}

	v := pageView{
		Template:        style.Template,
		Accent:          template.CSS(accent),
		Width:           px(r.opts.PageWidth),
		Height:          px(r.opts.PageHeight),
		ContinuationTop: px(r.opts.ContinuationTop),
		Paged:           true,
		First:           index == 0,
		Footer:          index > 0,
		Number:          index + 1,
		Total:           total,
		Info:            info,
		Contact:         contactLines(info),
	}
	if strings.HasPrefix(info.ProfilePicture, "data:image/") {
		v.Photo = template.URL(info.ProfilePicture)
	}
	if style.ShowQRCode && v.First {
		qr, err := WhatsAppQR(info.Phone)
		if err != nil {
			return pageView{}, err
		}
		v.QR = qr
	}

	for _, spec := range resume.Sections {
		if !hasSection(&page, spec.Section) {
			continue
		}
		v.Sections = append(v.Sections, sectionFor(&page, spec))
	}
	return v, nil
}

func withPlaceholders(info resume.PersonalInfo) resume.PersonalInfo {
	demo := resume.DemoPersonalInfo()
	fill := func(v *string, placeholder string) {
		if strings.TrimSpace(*v) == "" {
			*v = placeholder
		}
	}
	fill(&info.Name, demo.Name)
	fill(&info.JobTitle, demo.JobTitle)
	fill(&info.Email, demo.Email)
	fill(&info.Phone, demo.Phone)
	fill(&info.Address, demo.Address)
	fill(&info.ProfilePicture, demo.ProfilePicture)
	return info
}

func contactLines(info resume.PersonalInfo) []string {
	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}
	add(info.Email)
	add(resume.FormatPhone(info.Phone))
	add(info.Address)
	if info.Age != "" {
		add(info.Age + " anos")
	}
	add(info.MaritalStatus)
	if info.CNH != "" && info.CNH != resume.NoCNH {
		add("CNH: " + info.CNH)
	}
	return lines
}

func hasSection(p *pagination.PageData, s resume.Section) bool {
	if p.Titles[s] {
		return true
	}
	switch s {
	case resume.SectionSummary:
		return p.Summary != ""
	case resume.SectionExperiences:
		return len(p.Experiences) > 0
	case resume.SectionEducation:
		return len(p.Education) > 0
	case resume.SectionCourses:
		return len(p.Courses) > 0
	case resume.SectionLanguages:
		return len(p.Languages) > 0
	case resume.SectionSkills:
		return len(p.Skills) > 0
	}
	return false
}

func windowFor(p *pagination.PageData, id string) windowView {
	w, ok := p.Continuation[id]
	if !ok {
		return windowView{}
	}
	return windowView{Clip: true, Height: w.Height(), Shift: -w.Offset}
}

func sectionFor(p *pagination.PageData, spec resume.SectionSpec) sectionView {
	sv := sectionView{Key: spec.Key, Title: spec.Title, ShowTitle: p.Titles[spec.Section]}
	switch spec.Section {
	case resume.SectionSummary:
		if p.Summary != "" {
			sv.Summary = &textView{Text: p.Summary, Window: windowFor(p, spec.Key)}
		}
	case resume.SectionExperiences:
		for _, e := range p.Experiences {
			sv.Experiences = append(sv.Experiences, experienceView{
				ID:          e.ID,
				JobTitle:    e.JobTitle,
				Where:       joinNonEmpty(" · ", e.Company, e.Location),
				When:        joinNonEmpty(" - ", e.StartDate, e.EndDate),
				Description: e.Description,
				ShowHeader:  !p.BodyOnly[e.ID],
				Window:      windowFor(p, e.ID),
			})
		}
	case resume.SectionEducation:
		for _, e := range p.Education {
			sv.Items = append(sv.Items, itemView{ID: e.ID, Primary: e.Degree, Secondary: e.Institution, Meta: joinNonEmpty(" - ", e.StartDate, e.EndDate)})
		}
	case resume.SectionCourses:
		for _, c := range p.Courses {
			sv.Items = append(sv.Items, itemView{ID: c.ID, Primary: c.Name, Secondary: c.Institution, Meta: c.CompletionDate})
		}
	case resume.SectionLanguages:
		for _, l := range p.Languages {
			sv.Items = append(sv.Items, itemView{ID: l.ID, Primary: l.Language, Meta: l.Proficiency})
		}
	case resume.SectionSkills:
		sv.Skills = p.Skills
		sv.ShowTitle = true
	}
	return sv
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func px(v float64) template.CSS {
	return template.CSS(fmt.Sprintf("%.2fpx", v))
}
