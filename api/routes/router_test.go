package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
)

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "lessonfolio", ExpirationMinutes: 60}
	return NewRouter(RouterParams{Config: cfg})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Lessonfolio-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/billing/checkout"},
		{http.MethodGet, "/api/v1/billing/entitlement"},
		{http.MethodGet, "/api/v1/students/capacity"},
		{http.MethodGet, "/api/v1/students/"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
