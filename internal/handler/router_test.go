package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/hitoshi/newsportal/internal/middleware"
)

func TestNewRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no checker", nil, http.StatusOK, "ok"},
		{"healthy", &mockHealthChecker{}, http.StatusOK, "ok"},
		{"db down", &mockHealthChecker{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _ := newTestDeps(t)
			deps.HealthChecker = tt.checker
			router := NewRouter(deps)

			w := doRequest(router, http.MethodGet, "/health", "", "")

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body := decodeBody[map[string]string](t, w); body["status"] != tt.wantBody {
				t.Errorf("status body = %q, want %q", body["status"], tt.wantBody)
			}
		})
	}
}

func TestNewRouter_Metrics(t *testing.T) {
	deps, _ := newTestDeps(t)
	router := NewRouter(deps)
	if w := doRequest(router, http.MethodGet, "/metrics", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("MetricsHandler未設定 status = %d, want 404", w.Code)
	}

	deps.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("newsportal_up 1\n"))
	})
	router = NewRouter(deps)
	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "newsportal_up") {
		t.Errorf("status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestNewRouter_CSRFTokenEndpoint(t *testing.T) {
	deps, _ := newTestDeps(t)
	router := NewRouter(deps)

	w := doRequest(router, http.MethodGet, "/api/csrf-token", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody[map[string]string](t, w)
	cookie := findCookie(w, "csrf_token")
	if cookie == nil || body["token"] == "" || cookie.Value != body["token"] {
		t.Errorf("トークンとCookieが一致するべき: body=%v cookie=%+v", body, cookie)
	}
}

func TestNewRouter_AppliesChain(t *testing.T) {
	var buf bytes.Buffer
	deps, _ := newTestDeps(t)
	deps.Logger = newTestLogger(&buf)
	router := NewRouter(deps)

	w := doRequest(router, http.MethodGet, "/health", "", "sess-alice")

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("セキュリティヘッダーが付与されるべき")
	}
	if findCookie(w, middleware.VisitorCookieName) == nil {
		t.Error("訪問者Cookieが発行されるべき")
	}
	if !strings.Contains(buf.String(), `"username":"alice"`) {
		t.Errorf("リクエストログにユーザー名を含むべき: %s", buf.String())
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	deps, _ := newTestDeps(t)
	router := NewRouter(deps)

	w := doRequest(router, http.MethodGet, "/api/feeds", "", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
