package headline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/security"
)

// defaultFeedKey はカテゴリ別のフィードがない場合に使うフィードのキー。
const defaultFeedKey = "*"

// RSSProvider はRSS/Atomフィードをヘッドラインの取得元として扱うProvider。
type RSSProvider struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  security.TextSanitizer
	feeds      map[string]string // category -> feed URL
	maxSize    int64
}

// NewRSSProvider はRSSProviderの新しいインスタンスを生成する。
// feedsのキー "*" はデフォルトフィードを表す。
func NewRSSProvider(httpClient *http.Client, logger *slog.Logger, sanitizer security.TextSanitizer, feeds map[string]string, maxSize int64) *RSSProvider {
	return &RSSProvider{
		httpClient: httpClient,
		logger:     logger,
		sanitizer:  sanitizer,
		feeds:      feeds,
		maxSize:    maxSize,
	}
}

// Name はProviderを実装する。
func (p *RSSProvider) Name() string {
	return "rss"
}

// TopHeadlines はカテゴリに対応するフィードを取得してパースする。
// 対応するフィードがない場合は空の一覧を返す。
func (p *RSSProvider) TopHeadlines(ctx context.Context, category string) ([]model.Article, error) {
	feedURL, ok := p.feeds[category]
	if !ok {
		feedURL, ok = p.feeds[defaultFeedKey]
	}
	if !ok || feedURL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "NewsPortal/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("フィードの取得に失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("フィードがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		p.logger.Error("フィードのパースに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("フィードのパースに失敗しました: %w", err)
	}

	return p.convertItems(parsed, category), nil
}

// convertItems はgofeedの記事を外部記事に変換する。リンクを特定できない記事は除外する。
func (p *RSSProvider) convertItems(feed *gofeed.Feed, category string) []model.Article {
	articles := make([]model.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		link := item.Link
		if link == "" && (strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			link = item.GUID
		}
		if link == "" {
			continue
		}

		a := model.Article{
			Ref:         model.ExternalRef(link),
			Title:       p.sanitizer.PlainText(item.Title),
			Description: p.sanitizer.PlainText(item.Description),
			ImageURL:    p.sanitizer.ImageURL(itemImage(item)),
			URL:         link,
			Category:    category,
			SourceLabel: feed.Title,
		}
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			a.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			a.PublishedAt = &t
		}
		articles = append(articles, a)
	}
	return articles
}

// itemImage は記事の画像URLを画像要素、画像エンクロージャの順に探す。
func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

var _ Provider = (*RSSProvider)(nil)
