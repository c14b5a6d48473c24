package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/newsportal/internal/model"
)

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRecoveryMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panicがログに記録されるべき: %s", buf.String())
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := NewSecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 許可オリジンのプリフライト
	req := httptest.NewRequest(http.MethodOptions, "/api/likes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("プリフライト status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), csrfHeaderName) {
		t.Errorf("CSRFヘッダーを許可するべき: %q", w.Header().Get("Access-Control-Allow-Headers"))
	}

	// 許可していないオリジン
	req = httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("許可していないオリジンにCORSヘッダーを付与しないべき")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/news/9", nil)
	req = req.WithContext(ContextWithSession(req.Context(), &model.Session{Token: "tok", Username: "alice"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログのパースに失敗: %v", err)
	}
	if entry["msg"] != "http_request" || entry["level"] != "WARN" {
		t.Errorf("msg/level = %v/%v", entry["msg"], entry["level"])
	}
	if entry["status"] != float64(404) || entry["path"] != "/api/news/9" || entry["username"] != "alice" {
		t.Errorf("ログ項目が不正: %v", entry)
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms を含むべき")
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", model.NewValidationError("x"), http.StatusBadRequest, model.ErrCodeValidation},
		{"wrapped auth", fmt.Errorf("ctx: %w", model.NewAuthFailedError("")), http.StatusUnauthorized, model.ErrCodeAuthFailed},
		{"upstream", model.NewUpstreamStatusError(500, ""), http.StatusBadGateway, model.ErrCodeUpstreamStatus},
		{"plain", errors.New("secret detail"), http.StatusInternalServerError, model.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := httptest.NewRecorder()
			WriteError(w, newTestLogger(&buf), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("レスポンスのデコードに失敗: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if strings.Contains(body.Message, "secret detail") {
				t.Error("内部エラーの詳細をレスポンスに含めてはならない")
			}
		})
	}
}

func TestRecoveryMiddleware_RepanicsAbortHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewRecoveryMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recover() = %v, want http.ErrAbortHandler", rec)
		}
		if strings.Contains(buf.String(), "panic recovered") {
			t.Error("中断はpanicとして記録しないべき")
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestLoggingMiddleware_RouteAndBytes(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(newTestLogger(&buf)))
	r.Get("/api/news/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/news/42", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログのパースに失敗: %v", err)
	}
	if entry["level"] != "INFO" || entry["status"] != float64(200) {
		t.Errorf("level/status = %v/%v", entry["level"], entry["status"])
	}
	if entry["bytes"] != float64(5) {
		t.Errorf("bytes = %v, want 5", entry["bytes"])
	}
	if entry["route"] != "/api/news/{id}" {
		t.Errorf("route = %v, want /api/news/{id}", entry["route"])
	}
	if _, ok := entry["username"]; ok {
		t.Error("未ログインの場合はusernameを含めないべき")
	}
}
