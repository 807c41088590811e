package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bizdata/internal/config"
	"github.com/tbourn/go-bizdata/internal/domain"
	"github.com/tbourn/go-bizdata/internal/http/handlers"
	"github.com/tbourn/go-bizdata/internal/listquery"
	"github.com/tbourn/go-bizdata/internal/services"
)

// --- stubs ---

type stubAuth struct{}

func (stubAuth) Login(context.Context, services.Credentials) (*domain.Session, error) {
	return &domain.Session{Token: "t"}, nil
}
func (stubAuth) Signup(context.Context, services.SignupInput) (*domain.Session, error) {
	return &domain.Session{Token: "t"}, nil
}
func (stubAuth) Logout(context.Context) error { return nil }
func (stubAuth) Me(context.Context) (*domain.User, error) {
	return &domain.User{ID: "1"}, nil
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, _ string, _ string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "ref-1", nil
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := listquery.NewRegistry()
	reg.Register(listquery.New(listquery.Source[domain.Tag]{
		All: func(context.Context) ([]domain.Tag, error) {
			return []domain.Tag{{ID: "1", Name: "fasteners"}}, nil
		},
	}, listquery.WithName("tags")))
	t.Cleanup(reg.Close)

	r := gin.New()
	RegisterRoutes(r, handlers.New(stubAuth{}, reg, stubUploader{}, 1<<20), cfg)
	return r
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, baseConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all CORS expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("request id / security headers missing: %v", w.Header())
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil)); w.Code != http.StatusOK ||
		!strings.Contains(w.Body.String(), "bizbridge_http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/health", nil)); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSAllowList(t *testing.T) {
	cfg := baseConfig()
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	r := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	if w := serve(r, req); w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin should be rejected, got %d", w.Code)
	}
}

func TestRegisterRoutes_ListsGzipped(t *testing.T) {
	r := newRouter(t, baseConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lists/tags", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := serve(r, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("GET lists/tags: code=%d encoding=%q", w.Code, w.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.Contains(string(body), `"name":"tags"`) {
		t.Fatalf("unexpected body: %s", body)
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/lists/unknown", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("unknown list: %d", w.Code)
	}
}

func TestRegisterRoutes_RateLimited(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS, cfg.RateBurst = 0.0001, 1
	r := newRouter(t, cfg)

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", w.Code)
	}
}

func TestRegisterRoutes_HSTSOnlyOverHTTPS(t *testing.T) {
	cfg := baseConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := serve(r, req).Header().Get("Strict-Transport-Security"); got == "" {
		t.Fatalf("HSTS expected over https")
	}
	if got := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)).Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must not be set over http, got %q", got)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}
