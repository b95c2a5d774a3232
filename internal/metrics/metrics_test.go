package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, method, path, status string) float64 {
	t.Helper()
	var m dto.Metric
	if err := requestTotal.WithLabelValues(method, path, status).Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestGinMiddlewareCollapsesUnmatchedPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/v1/resumes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	matched := counterValue(t, http.MethodGet, "/v1/resumes/:id", "200")
	unmatched := counterValue(t, http.MethodGet, unmatchedPath, "404")
	scrapes := counterValue(t, http.MethodGet, "/metrics", "200")

	for _, path := range []string{"/v1/resumes/1", "/v1/resumes/2", "/wp-login.php", "/.env", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := counterValue(t, http.MethodGet, "/v1/resumes/:id", "200") - matched; got != 2 {
		t.Fatalf("matched route counted %v times, want 2", got)
	}
	if got := counterValue(t, http.MethodGet, unmatchedPath, "404") - unmatched; got != 2 {
		t.Fatalf("unmatched paths counted %v times, want 2", got)
	}
	if got := counterValue(t, http.MethodGet, "/metrics", "200") - scrapes; got != 0 {
		t.Fatalf("metrics scrapes should not be counted, got %v", got)
	}
}

func TestFailureReason(t *testing.T) {
	if got := failureReason(fmt.Errorf("decode: %w", asynq.SkipRetry)); got != "skip_retry" {
		t.Fatalf("got %q", got)
	}
	if got := failureReason(errors.New("target closed")); got != "error" {
		t.Fatalf("got %q", got)
	}
}
