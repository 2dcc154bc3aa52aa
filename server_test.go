package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example , ,https://b.example")
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if splitAndTrim("  ") != nil {
		t.Fatalf("blank input must give nil")
	}
}

func TestReadyGate(t *testing.T) {
	gate := &readyGate{}

	w := httptest.NewRecorder()
	gate.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("healthz must always answer, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	gate.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/production/neutral-batches", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", w.Code)
	}

	gate.set(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }))
	w = httptest.NewRecorder()
	gate.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/production/neutral-batches", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("expected the router after ready, got %d", w.Code)
	}
}

func TestCorsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	originGet := func(mw gin.HandlerFunc, origin string) *httptest.ResponseRecorder {
		r := gin.New()
		if mw != nil {
			r.Use(mw)
		}
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Setenv("GO_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	mw := corsMiddleware(logger)
	if mw != nil {
		t.Fatalf("production without an allowlist must not install CORS")
	}
	if got := originGet(mw, "https://evil.example").Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	if corsMiddleware(logger) != nil {
		t.Fatalf("a blank allowlist must not install CORS")
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://factory.example")
	mw = corsMiddleware(logger)
	if mw == nil {
		t.Fatalf("expected CORS with an allowlist")
	}
	if got := originGet(mw, "https://factory.example").Header().Get("Access-Control-Allow-Origin"); got != "https://factory.example" {
		t.Fatalf("expected allowlisted origin echoed, got %q", got)
	}
	if w := originGet(mw, "https://evil.example"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unlisted origin, got %d", w.Code)
	}

	t.Setenv("GO_ENV", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	if got := originGet(corsMiddleware(logger), "https://any.example").Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected all origins allowed outside production")
	}
}
