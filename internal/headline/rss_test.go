package headline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/newsportal/internal/security"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech Feed</title>
    <link>https://feed.example.com</link>
    <item>
      <title>First &lt;em&gt;story&lt;/em&gt;</title>
      <link>https://feed.example.com/first</link>
      <description>&lt;p&gt;Hello&lt;/p&gt;</description>
      <pubDate>Sat, 17 Oct 2026 08:00:00 GMT</pubDate>
      <enclosure url="https://feed.example.com/first.jpg" type="image/jpeg" length="100"/>
    </item>
    <item>
      <title>Guid only</title>
      <guid>https://feed.example.com/guid-only</guid>
    </item>
    <item>
      <title>No link</title>
      <guid isPermaLink="false">tag-123</guid>
    </item>
  </channel>
</rss>`

func TestRSSProvider_TopHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tech.xml" {
			t.Errorf("パス = %s, want /tech.xml", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	var buf bytes.Buffer
	p := NewRSSProvider(server.Client(), newTestLogger(&buf), security.NewTextSanitizer(),
		map[string]string{"technology": server.URL + "/tech.xml"}, 1<<20)

	articles, err := p.TopHeadlines(context.Background(), "technology")
	if err != nil {
		t.Fatalf("TopHeadlines がエラーを返した: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("記事数 = %d, want 2（リンクのない記事は除外）", len(articles))
	}

	first := articles[0]
	if first.Ref.URL() != "https://feed.example.com/first" {
		t.Errorf("Ref.URL() = %q", first.Ref.URL())
	}
	if first.Title != "First story" {
		t.Errorf("Title = %q, want %q", first.Title, "First story")
	}
	if first.Description != "Hello" {
		t.Errorf("Description = %q, want Hello", first.Description)
	}
	if first.ImageURL != "https://feed.example.com/first.jpg" {
		t.Errorf("ImageURL = %q", first.ImageURL)
	}
	if first.PublishedAt == nil {
		t.Error("PublishedAt が設定されるべき")
	}
	if first.SourceLabel != "Tech Feed" || first.Category != "technology" {
		t.Errorf("SourceLabel = %q, Category = %q", first.SourceLabel, first.Category)
	}

	if articles[1].URL != "https://feed.example.com/guid-only" {
		t.Errorf("URL形式のGUIDをリンクとして使うべき: %q", articles[1].URL)
	}
}

func TestRSSProvider_FallsBackToDefaultFeed(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	var buf bytes.Buffer
	p := NewRSSProvider(server.Client(), newTestLogger(&buf), security.NewTextSanitizer(),
		map[string]string{"*": server.URL + "/all.xml"}, 1<<20)

	if _, err := p.TopHeadlines(context.Background(), "sports"); err != nil {
		t.Fatalf("TopHeadlines がエラーを返した: %v", err)
	}
	if requested != "/all.xml" {
		t.Errorf("デフォルトフィードを取得するべき: got %q", requested)
	}
}

func TestRSSProvider_NoFeed(t *testing.T) {
	var buf bytes.Buffer
	p := NewRSSProvider(http.DefaultClient, newTestLogger(&buf), security.NewTextSanitizer(),
		map[string]string{"technology": "https://feed.example.com/tech.xml"}, 1<<20)

	articles, err := p.TopHeadlines(context.Background(), "sports")
	if err != nil {
		t.Fatalf("TopHeadlines がエラーを返した: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("対応するフィードがない場合は空であるべき: %d", len(articles))
	}
}

func TestRSSProvider_InvalidFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	var buf bytes.Buffer
	p := NewRSSProvider(server.Client(), newTestLogger(&buf), security.NewTextSanitizer(),
		map[string]string{"*": server.URL}, 1<<20)

	if _, err := p.TopHeadlines(context.Background(), "general"); err == nil {
		t.Fatal("パースできないフィードはエラーを返すべき")
	}
}

func TestRSSProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	p := NewRSSProvider(server.Client(), newTestLogger(&buf), security.NewTextSanitizer(),
		map[string]string{"*": server.URL}, 1<<20)

	if _, err := p.TopHeadlines(context.Background(), "general"); err == nil {
		t.Fatal("2xx以外のステータスはエラーを返すべき")
	}
}
