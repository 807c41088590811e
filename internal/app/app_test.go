package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-bizdata/internal/config"
)

// backend is a fake business API that requires a bearer token for reads.
type backend struct {
	mu    sync.Mutex
	auths []string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"token":"tok-1","user":{"id":7,"name":"Ada"}}}`))
	})
	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"bye"}`))
	})
	mux.HandleFunc("/api/get-products", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.auths = append(b.auths, r.Header.Get("Authorization"))
		b.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"content":[
			{"id":1,"name":"Bolt","createdAt":"2024-01-01T00:00:00Z"},
			{"id":2,"name":"Nut","createdAt":"2024-03-01T00:00:00Z"}]}}`))
	})
	return mux
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	t.Setenv("API_BASE_URL", baseURL+"/api")
	t.Setenv("CREDENTIALS_DB", filepath.Join(t.TempDir(), "credentials.db"))
	t.Setenv("SEARCH_DELAY", "1ms")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("RATE_RPS", "0")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func call(a *App, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)
	return w
}

type listBody struct {
	Total int `json:"total"`
	State struct {
		Committed   bool   `json:"committed"`
		Error       string `json:"error"`
		ErrorStatus int    `json:"errorStatus"`
		Items       []struct {
			Name string `json:"name"`
		} `json:"items"`
	} `json:"state"`
}

func waitList(t *testing.T, a *App, name string, cond func(listBody) bool) listBody {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last listBody
	for time.Now().Before(deadline) {
		w := call(a, http.MethodGet, "/api/v1/lists/"+name, "")
		last = listBody{}
		_ = json.Unmarshal(w.Body.Bytes(), &last)
		if cond(last) {
			return last
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("list %s never reached the expected state; last=%+v", name, last)
	return last
}

func TestApp_LoginListAndRestore(t *testing.T) {
	be := &backend{}
	srv := httptest.NewServer(be.handler())
	defer srv.Close()
	cfg := testConfig(t, srv.URL)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Unauthenticated refresh surfaces the backend's 401.
	call(a, http.MethodPost, "/api/v1/lists/products/refresh", "")
	got := waitList(t, a, "products", func(b listBody) bool { return b.State.Committed })
	if got.State.ErrorStatus != http.StatusUnauthorized || got.State.Error != "Unauthenticated." {
		t.Fatalf("expected 401 state, got %+v", got.State)
	}
	be.mu.Lock()
	if len(be.auths) == 0 || be.auths[0] != "" {
		t.Fatalf("request before login must not carry Authorization, got %q", be.auths)
	}
	be.mu.Unlock()

	if w := call(a, http.MethodPost, "/api/v1/session/login", `{"email":"ada@example.com","password":"pw"}`); w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	call(a, http.MethodPost, "/api/v1/lists/products/refresh", "")
	got = waitList(t, a, "products", func(b listBody) bool { return b.Total == 2 })
	if got.State.Items[0].Name != "Nut" || got.State.Error != "" {
		t.Fatalf("expected newest first without error, got %+v", got.State)
	}
	a.Close()

	// A second process over the same database starts logged in.
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New (restart): %v", err)
	}
	defer b.Close()
	if tok, ok := b.Session.Token(); !ok || tok != "tok-1" {
		t.Fatalf("token not restored: %q %v", tok, ok)
	}

	if w := call(b, http.MethodPost, "/api/v1/session/logout", ""); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	if _, ok := b.Session.Token(); ok {
		t.Fatalf("logout should clear the session")
	}
}

func TestApp_ListsRegistered(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	want := []string{ListBrands, ListCategories, ListExpenses, ListGroups, ListProducts, ListTags, ListVariants}
	if got := a.Lists.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("lists = %v; want %v", got, want)
	}

	cfg.SuppliersPath = "get-suppliers"
	cfg.CredentialsDB = ""
	s, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New with suppliers: %v", err)
	}
	defer s.Close()
	if _, err := s.Lists.Get(ListSuppliers); err != nil {
		t.Fatalf("suppliers list should be registered when configured: %v", err)
	}
}

func TestApp_BadCredentialsPath(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.CredentialsDB = filepath.Join(t.TempDir(), "missing", "credentials.db")
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for missing credentials directory")
	}
}
