package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roomly/pkg/client"
	"roomly/pkg/config"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type echoHandler struct {
	calls int
}

func (h *echoHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.calls++
		_ = httputil.WriteCreated(w, map[string]int{"call": h.calls})
	})
	router.GET("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_ = httputil.WriteSuccess(w, "ok")
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		RequestTimeout:     5 * time.Second,
		IdempotencyTTL:     time.Minute,
		MaxRequestSize:     1 << 20,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		IdleTimeout:        5 * time.Second,
		ShutdownTimeout:    time.Second,
		CORSAllowedOrigins: []string{"https://rooms.example.com"},
		Log:                logger.Discard(),
		Client:             client.NewClient(),
	}
}

func newTestApp(t *testing.T) (*Application, *echoHandler) {
	t.Helper()
	echo := &echoHandler{}
	a := NewApplication(testConfig())
	a.SetApp(echo)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a, echo
}

func TestApplication_HealthBypassesAppStack(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200 with no store connected", rec.Code)
	}
}

func TestApplication_IdempotentReplay(t *testing.T) {
	a, echo := newTestApp(t)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(IdempotencyHeader, "k-1")
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("statuses = %d, %d", first.Code, second.Code)
	}
	if echo.calls != 1 {
		t.Errorf("handler ran %d times, want 1", echo.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestApplication_CORS(t *testing.T) {
	a, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil)
	req.Header.Set("Origin", "https://rooms.example.com")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://rooms.example.com" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q for a foreign origin", got)
	}
}

func TestApplication_ClosersRunInReverse(t *testing.T) {
	a, _ := newTestApp(t)

	var order []string
	a.OnShutdown("first", func(context.Context) error { order = append(order, "first"); return nil })
	a.OnShutdown("second", func(context.Context) error { order = append(order, "second"); return nil })

	a.runClosers()
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("order = %v", order)
	}
}
