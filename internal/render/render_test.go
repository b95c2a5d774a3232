package render_test

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"resumepager/internal/measure"
	"resumepager/internal/pagination"
	"resumepager/internal/render"
	"resumepager/internal/resume"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(pagination.DefaultOptions())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestDocumentCarriesMeasurementMarkup(t *testing.T) {
	data := resume.Demo()
	out, err := newRenderer(t).Document(data, false)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		`id="resume-root"`,
		`data-section="summary"`,
		`id="resume-summary"`,
		`class="experience-item" data-item-id="1"`,
		`class="item-header"`,
		`class="item-description"`,
		`data-section="skills"`,
		`class="section-title"`,
		"Ana Maria Silva",
		"data:image/png;base64,",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document is missing %q", want)
		}
	}
	if strings.Contains(html, " paged") || strings.Contains(html, "<footer>") {
		t.Error("measurement document must not be clipped to a page")
	}
}

// 渲染结果补上几何属性后必须能被提取器识别。
func TestDocumentMatchesExtractorContract(t *testing.T) {
	data := resume.Demo()
	out, err := newRenderer(t).Document(data, false)
	if err != nil {
		t.Fatalf("document: %v", err)
	}

	y := 0
	annotated := regexp.MustCompile(`data-measure`).ReplaceAllStringFunc(string(out), func(string) string {
		attrs := `data-y="` + strconv.Itoa(y) + `" data-h="20"`
		y += 24
		return attrs
	})
	annotated = strings.Replace(annotated, `id="resume-root"`, `id="resume-root" data-scroll-h="2400"`, 1)

	m, err := measure.NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil))).Extract(strings.NewReader(annotated), data)
	if err != nil {
		t.Fatalf("extract rendered document: %v", err)
	}
	if len(m.Blocks) == 0 || m.DocumentHeight != 2400 {
		t.Fatalf("unexpected measurement %+v", m)
	}
	if last := m.Blocks[len(m.Blocks)-1]; last.ID != "skills" {
		t.Fatalf("last block should be skills, got %s", last.ID)
	}
	for _, b := range m.Blocks {
		if b.Kind == pagination.KindBody && b.Height != 20 {
			t.Fatalf("description block %s has the wrong height", b.ID)
		}
	}
}

func TestPageRendersContinuationWindow(t *testing.T) {
	data := resume.Demo()
	page := pagination.PageData{
		PersonalInfo: data.PersonalInfo,
		Style:        data.Style,
		Experiences:  data.Experiences[:1],
		Continuation: map[string]pagination.Window{"1": {Offset: 80, TotalHeight: 300}},
		BodyOnly:     map[string]bool{"1": true},
	}
	out, err := newRenderer(t).Page(page, 1, 2, false)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "height: 220.00px") || !strings.Contains(html, "margin-top: -80.00px") {
		t.Error("continuation window is not clipped and shifted")
	}
	if strings.Contains(html, `class="item-header"`) {
		t.Error("body-only item must not repeat its header")
	}
	if strings.Contains(html, `class="section-title"`) {
		t.Error("title not placed on this page must not be drawn")
	}
	if strings.Contains(html, "<header") {
		t.Error("personal header belongs to the first page only")
	}
	if !strings.Contains(html, "Página 2 de 2") {
		t.Error("continuation page should carry a footer")
	}
}

func TestPageDemoPlaceholders(t *testing.T) {
	page := pagination.Whole(resume.New())
	out, err := newRenderer(t).Page(page, 0, 1, true)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if !strings.Contains(string(out), "Ana Maria Silva") {
		t.Error("demo mode should show the placeholder name")
	}
	out, err = newRenderer(t).Page(page, 0, 1, false)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if strings.Contains(string(out), "Ana Maria Silva") {
		t.Error("placeholders must not leak outside demo mode")
	}
}

func TestFit(t *testing.T) {
	v := render.Fit(397)
	if v.Scale != 0.5 || v.Height != 561.5 {
		t.Fatalf("unexpected viewport %+v", v)
	}
	if render.Fit(0) != (render.Viewport{}) {
		t.Fatal("zero width should give an empty viewport")
	}
}

func TestWhatsAppQR(t *testing.T) {
	qr, err := render.WhatsAppQR("(11) 9 8765-4321")
	if err != nil || !strings.HasPrefix(string(qr), "data:image/png;base64,") {
		t.Fatalf("unexpected qr %q, err %v", qr, err)
	}
	qr, err = render.WhatsAppQR("")
	if err != nil || qr != "" {
		t.Fatalf("empty phone should give no qr, got %q %v", qr, err)
	}
}
