package headline

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/security"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newTestNewsAPIClient(server *httptest.Server, buf *bytes.Buffer) *NewsAPIClient {
	c := NewNewsAPIClient(server.Client(), newTestLogger(buf), security.NewTextSanitizer(), NewsAPIConfig{
		BaseURL: "https://newsapi.invalid/v2",
		APIKey:  "secret",
		Country: "us",
		MaxSize: 1 << 20,
	})
	c.endpoint = server.URL + "/top-headlines"
	return c
}

const newsAPIBody = `{
  "status": "ok",
  "totalResults": 4,
  "articles": [
    {"source": {"name": "Example Times"}, "title": "<b>Markets</b> rally", "description": "Stocks &amp; bonds",
     "url": "https://example.com/markets", "urlToImage": "https://example.com/m.png", "publishedAt": "2026-10-18T09:00:00Z"},
    {"source": {"name": "Removed"}, "title": "[Removed]", "url": "https://removed.example.com"},
    {"source": {"name": "No URL"}, "title": "Missing link", "url": ""},
    {"source": {"name": "Example Wire"}, "title": "Second", "url": "https://example.com/second", "urlToImage": "javascript:alert(1)", "publishedAt": null}
  ]
}`

func TestNewsAPIClient_TopHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/top-headlines" {
			t.Errorf("パス = %s, want /top-headlines", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("category") != "business" {
			t.Errorf("category = %q, want business", q.Get("category"))
		}
		if q.Get("country") != "us" {
			t.Errorf("country = %q, want us", q.Get("country"))
		}
		if q.Get("apiKey") != "secret" {
			t.Errorf("apiKey = %q, want secret", q.Get("apiKey"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(newsAPIBody))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := newTestNewsAPIClient(server, &buf)

	articles, err := c.TopHeadlines(context.Background(), "business")
	if err != nil {
		t.Fatalf("TopHeadlines がエラーを返した: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("記事数 = %d, want 2（削除済みとURLなしは除外）", len(articles))
	}

	first := articles[0]
	if first.Ref.Kind() != model.SourceExternal || first.Ref.URL() != "https://example.com/markets" {
		t.Errorf("Ref = %s, want external:https://example.com/markets", first.Ref)
	}
	if first.Title != "Markets rally" {
		t.Errorf("Title = %q, want %q", first.Title, "Markets rally")
	}
	if first.Description != "Stocks & bonds" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Category != "business" {
		t.Errorf("Category = %q, want business", first.Category)
	}
	if first.SourceLabel != "Example Times" {
		t.Errorf("SourceLabel = %q", first.SourceLabel)
	}
	if first.PublishedAt == nil || first.PublishedAt.Year() != 2026 {
		t.Errorf("PublishedAt = %v", first.PublishedAt)
	}

	second := articles[1]
	if second.ImageURL != "" {
		t.Errorf("危険なスキームの画像URLは除去されるべき: %q", second.ImageURL)
	}
	if second.PublishedAt != nil {
		t.Errorf("publishedAt が null の場合は nil であるべき: %v", second.PublishedAt)
	}
}

func TestNewsAPIClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := newTestNewsAPIClient(server, &buf)

	if _, err := c.TopHeadlines(context.Background(), "general"); err == nil {
		t.Fatal("status=error の場合はエラーを返すべき")
	}
	if !bytes.Contains(buf.Bytes(), []byte("apiKeyInvalid")) {
		t.Errorf("エラーコードがログに記録されるべき: %s", buf.String())
	}
}

func TestNewsAPIClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "articles": [`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := newTestNewsAPIClient(server, &buf)

	if _, err := c.TopHeadlines(context.Background(), ""); err == nil {
		t.Fatal("不正なJSONの場合はエラーを返すべき")
	}
}

func TestNewsAPIClient_OmitsEmptyCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["category"]; ok {
			t.Error("カテゴリが空の場合は category パラメータを送らないべき")
		}
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := newTestNewsAPIClient(server, &buf)

	articles, err := c.TopHeadlines(context.Background(), "")
	if err != nil {
		t.Fatalf("TopHeadlines がエラーを返した: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("記事数 = %d, want 0", len(articles))
	}
}
