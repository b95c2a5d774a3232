package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hibiken/asynq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumepager/internal/auth"
	"resumepager/internal/database"
	"resumepager/internal/errcode"
	"resumepager/internal/pagination"
	"resumepager/internal/resume"
	"resumepager/internal/tasks"
)

type fakePaginator struct{ fallback bool }

func (f fakePaginator) Paginate(_ context.Context, data resume.Data, _ bool) (pagination.Layout, error) {
	return pagination.Single(data, f.fallback), nil
}

type fakeQueue struct{ tasks []*asynq.Task }

func (q *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks))}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignDownload(_ context.Context, key, fileName string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + key + "?name=" + fileName, nil
}

type fakeScanner struct{ infected bool }

func (s fakeScanner) Scan(context.Context, []byte) error {
	if s.infected {
		return ErrInfected
	}
	return nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	queue  *fakeQueue
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T, deps Deps) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	tokens, err := auth.NewTokenService(strings.Repeat("k", 32), time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	queue := &fakeQueue{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps.DB = db
	deps.Queue = queue
	deps.Storage = fakePresigner{}
	deps.Tokens = tokens
	deps.Logger = logger
	deps.Options = pagination.DefaultOptions()
	deps.PresignTTL = time.Minute
	if deps.Paginator == nil {
		deps.Paginator = fakePaginator{}
	}
	if deps.PreviewDebounce == 0 {
		deps.PreviewDebounce = 5 * time.Millisecond
	}

	router := NewRouter(logger)
	RegisterRoutes(router, deps)
	return &testEnv{router: router, db: db, queue: queue, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type created struct {
	ID     uint        `json:"id"`
	Token  string      `json:"token"`
	Data   resume.Data `json:"data"`
	Status string      `json:"status"`
}

func (e *testEnv) create(t *testing.T, data *resume.Data) created {
	t.Helper()
	var body any
	if data != nil {
		body = gin.H{"data": data}
	}
	w := e.do(t, http.MethodPost, "/v1/resumes", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var out created
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	return out
}

func TestCreateAndGetResume(t *testing.T) {
	env := newTestEnv(t, Deps{})

	blank := env.create(t, nil)
	if blank.Token == "" || blank.Status != database.StatusDraft || len(blank.Data.Experiences) != 1 {
		t.Fatalf("unexpected blank resume %+v", blank)
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/resumes/%d", blank.ID), blank.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", w.Code)
	}

	if w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/resumes/%d", blank.ID), "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401 got %d", w.Code)
	}

	demo := resume.Demo()
	other := env.create(t, &demo)
	if w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/resumes/%d", blank.ID), other.Token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("foreign token: expected 403 got %d", w.Code)
	}
}

func TestRotatedTokenIsRejected(t *testing.T) {
	env := newTestEnv(t, Deps{})
	res := env.create(t, nil)

	stale, _, err := env.tokens.Issue(res.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/resumes/%d", res.ID), stale, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("token with unknown id: expected 401 got %d", w.Code)
	}
}

func TestUpdateResumeValidatesAndScans(t *testing.T) {
	env := newTestEnv(t, Deps{Scanner: fakeScanner{}})
	res := env.create(t, nil)
	path := fmt.Sprintf("/v1/resumes/%d", res.ID)

	bad := resume.Demo()
	bad.Style.Color = "blue"
	if w := env.do(t, http.MethodPut, path, res.Token, gin.H{"data": bad}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid data: expected 400 got %d", w.Code)
	}

	good := resume.Demo()
	w := env.do(t, http.MethodPut, path, res.Token, gin.H{"data": good, "demo_mode": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var row database.Resume
	env.db.First(&row, res.ID)
	if row.Title != good.PersonalInfo.Name || !row.DemoMode {
		t.Fatalf("update not persisted: title=%q demo=%v", row.Title, row.DemoMode)
	}

	infected := newTestEnv(t, Deps{Scanner: fakeScanner{infected: true}})
	if w := infected.do(t, http.MethodPost, "/v1/resumes", "", gin.H{"data": good}); w.Code != http.StatusBadRequest {
		t.Fatalf("infected photo: expected 400 got %d", w.Code)
	}
}

func TestDeleteItem(t *testing.T) {
	env := newTestEnv(t, Deps{})
	demo := resume.Demo()
	res := env.create(t, &demo)
	base := fmt.Sprintf("/v1/resumes/%d/items", res.ID)

	w := env.do(t, http.MethodDelete, base+"/experiences/1", res.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var row database.Resume
	env.db.First(&row, res.ID)
	data, _ := row.Data()
	if len(data.Experiences) != len(demo.Experiences)-1 || data.Experiences[0].ID == "1" {
		t.Fatalf("item not removed: %+v", data.Experiences)
	}

	cases := map[string]int{
		"/experiences/1": http.StatusNotFound,
		"/skills/x":      http.StatusBadRequest,
		"/hobbies/1":     http.StatusBadRequest,
	}
	for suffix, want := range cases {
		if w := env.do(t, http.MethodDelete, base+suffix, res.Token, nil); w.Code != want {
			t.Errorf("%s: expected %d got %d", suffix, want, w.Code)
		}
	}
}

func TestPaginateStoredReportsFallback(t *testing.T) {
	env := newTestEnv(t, Deps{Paginator: fakePaginator{fallback: true}})
	res := env.create(t, nil)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/resumes/%d/paginate?page=7", res.ID), res.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("paginate: expected 200 got %d", w.Code)
	}
	var out layoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ErrorCode != errcode.MeasurementFallback || !out.Layout.Fallback {
		t.Fatalf("expected fallback code, got %+v", out)
	}
	if out.PageCount != 1 || out.Page != 0 {
		t.Fatalf("page should be clamped to 0, got page=%d count=%d", out.Page, out.PageCount)
	}
}

func TestPackUsesClientMeasurement(t *testing.T) {
	env := newTestEnv(t, Deps{})

	data := resume.Demo()
	data.Education, data.Courses, data.Languages, data.Skills = nil, nil, nil, nil
	data.Experiences = data.Experiences[:1]
	id := data.Experiences[0].ID
	m := pagination.Measurement{
		ContentTop: 200,
		Blocks: []pagination.Block{
			pagination.TitleBlock(resume.SectionSummary, 30, 0),
			pagination.TextBlock(647, 10),
			pagination.TitleBlock(resume.SectionExperiences, 30, 20),
			pagination.HeaderBlock(id, 40, 10),
			pagination.BodyBlock(id, 3000, 0),
		},
	}

	w := env.do(t, http.MethodPost, "/v1/pack?page=1", "", gin.H{"data": data, "measurement": m})
	if w.Code != http.StatusOK {
		t.Fatalf("pack: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var out layoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PageCount != 2 || out.Page != 1 || out.ErrorCode != errcode.OK {
		t.Fatalf("unexpected pack result count=%d page=%d code=%d", out.PageCount, out.Page, out.ErrorCode)
	}
	if !out.Layout.Pages[1].BodyOnly[id] {
		t.Fatal("second page should continue the description only")
	}
}

func TestPackRejectsInvalidMeasurement(t *testing.T) {
	env := newTestEnv(t, Deps{})
	data := resume.Demo()

	tooMany := make([]pagination.Block, pagination.MaxBlocks+1)
	for i := range tooMany {
		tooMany[i] = pagination.TitleBlock(resume.SectionSummary, 1, 0)
	}
	cases := map[string]pagination.Measurement{
		"negative height": {ContentTop: 200, Blocks: []pagination.Block{pagination.TextBlock(-40, 0)}},
		"negative margin": {ContentTop: 200, Blocks: []pagination.Block{pagination.TextBlock(40, -8)}},
		"negative top":    {ContentTop: -1},
		"too many blocks": {ContentTop: 200, Blocks: tooMany},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/pack", "", gin.H{"data": data, "measurement": m})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestExportFlow(t *testing.T) {
	env := newTestEnv(t, Deps{})
	demo := resume.Demo()
	res := env.create(t, &demo)
	base := fmt.Sprintf("/v1/resumes/%d", res.ID)

	if w := env.do(t, http.MethodGet, base+"/download-link", res.Token, nil); w.Code != http.StatusConflict {
		t.Fatalf("link before export: expected 409 got %d", w.Code)
	}

	w := env.do(t, http.MethodPost, base+"/export", res.Token, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("export: expected 202 got %d body=%s", w.Code, w.Body.String())
	}
	if len(env.queue.tasks) != 1 || env.queue.tasks[0].Type() != tasks.TypeResumeExport {
		t.Fatalf("expected one export task, got %d", len(env.queue.tasks))
	}
	if w := env.do(t, http.MethodPost, base+"/export", res.Token, nil); w.Code != http.StatusConflict {
		t.Fatalf("second export while processing: expected 409 got %d", w.Code)
	}

	env.db.Model(&database.Resume{}).Where("id = ?", res.ID).Updates(map[string]any{
		"status":    database.StatusCompleted,
		"pdf_key":   "exports/1/x.pdf",
		"pdf_pages": 2,
	})
	w = env.do(t, http.MethodGet, base+"/download-link", res.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("link: expected 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Ana_Maria_Silva.pdf") {
		t.Fatalf("download link should carry the file name: %s", w.Body.String())
	}
}

func TestDemoAndHealth(t *testing.T) {
	env := newTestEnv(t, Deps{})
	if w := env.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: expected 200 got %d", w.Code)
	}
	w := env.do(t, http.MethodGet, "/v1/demo", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Ana Maria Silva") {
		t.Fatalf("demo: unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestWebsocketPreview(t *testing.T) {
	env := newTestEnv(t, Deps{})
	demo := resume.Demo()
	res := env.create(t, &demo)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	if err := conn.WriteJSON(wsAuthMessage{Type: "auth", Token: res.Token}); err != nil {
		t.Fatalf("write auth: %v", err)
	}
	first := readLayout(t, conn)
	if first.PageCount != 1 || first.Layout.Pages[0].PersonalInfo.Name != demo.PersonalInfo.Name {
		t.Fatalf("unexpected initial layout %+v", first)
	}

	edited := demo
	edited.PersonalInfo.Name = "Beatriz Souza"
	if err := conn.WriteJSON(wsEditMessage{Type: "edit", Data: &edited}); err != nil {
		t.Fatalf("write edit: %v", err)
	}
	second := readLayout(t, conn)
	if second.Generation <= first.Generation || second.Layout.Pages[0].PersonalInfo.Name != "Beatriz Souza" {
		t.Fatalf("edit not reflected: %+v", second)
	}
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t, Deps{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	_ = conn.WriteJSON(wsAuthMessage{Type: "auth", Token: "garbage"})
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func readLayout(t *testing.T, conn *websocket.Conn) wsLayoutMessage {
	t.Helper()
	var msg wsLayoutMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if msg.Type != "layout" {
		t.Fatalf("expected layout message, got %q", msg.Type)
	}
	return msg
}
