package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resumepager/internal/auth"
)

func newEngine(logger *slog.Logger, tokens *auth.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	r.GET("/open", func(c *gin.Context) {
		c.String(http.StatusOK, GetCorrelationID(c))
	})
	r.GET("/resumes/:id", EditTokenMiddleware(tokens), func(c *gin.Context) {
		LoggerFromContext(c).Info("handler ran")
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestCorrelationIDKeepsSafeHeader(t *testing.T) {
	r := newEngine(slog.Default(), nil)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(CorrelationHeader, "cid-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "cid-42" || w.Header().Get(CorrelationHeader) != "cid-42" {
		t.Fatalf("expected the client correlation id, got body=%q header=%q", w.Body.String(), w.Header().Get(CorrelationHeader))
	}
}

func TestCorrelationIDReplacesUnsafeHeader(t *testing.T) {
	r := newEngine(slog.Default(), nil)

	for _, bad := range []string{"", "evil\nlevel=ERROR", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set(CorrelationHeader, bad)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Body.String()
		if got == bad || len(got) != 36 {
			t.Fatalf("header %q should be replaced by a uuid, got %q", bad, got)
		}
	}
}

func TestRequestLogCarriesResumeID(t *testing.T) {
	tokens, err := auth.NewTokenService(strings.Repeat("k", 32), time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	token, _, err := tokens.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var buf bytes.Buffer
	r := newEngine(slog.New(slog.NewTextHandler(&buf, nil)), tokens)

	req := httptest.NewRequest(http.MethodGet, "/resumes/7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected handler and completion lines, got %q", buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "resume_id=7") {
			t.Fatalf("log line lacks resume_id: %s", line)
		}
	}
}

func TestRequestLogLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SlogLoggerMiddleware(slog.New(slog.NewTextHandler(&buf, nil))))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	if !strings.Contains(buf.String(), "level=ERROR") || strings.Contains(buf.String(), "resume_id") {
		t.Fatalf("unexpected log %q", buf.String())
	}
}
