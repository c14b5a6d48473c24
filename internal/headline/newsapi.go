package headline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/security"
)

// removedTitle はNewsAPIが削除済み記事に設定するタイトル。
const removedTitle = "[Removed]"

// NewsAPIClient はNewsAPI互換のtop-headlinesエンドポイントのクライアント。
type NewsAPIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  security.TextSanitizer
	endpoint   string // テスト用にエンドポイントを差し替え可能
	apiKey     string
	country    string
	maxSize    int64
}

// NewsAPIConfig はNewsAPIClientの設定。
type NewsAPIConfig struct {
	BaseURL string
	APIKey  string
	Country string
	MaxSize int64
}

// NewNewsAPIClient はNewsAPIClientの新しいインスタンスを生成する。
// httpClientにはsecurity.OutboundGuardが生成したクライアントを渡す。
func NewNewsAPIClient(httpClient *http.Client, logger *slog.Logger, sanitizer security.TextSanitizer, cfg NewsAPIConfig) *NewsAPIClient {
	return &NewsAPIClient{
		httpClient: httpClient,
		logger:     logger,
		sanitizer:  sanitizer,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/top-headlines",
		apiKey:     cfg.APIKey,
		country:    cfg.Country,
		maxSize:    cfg.MaxSize,
	}
}

// newsAPIResponse はtop-headlinesのレスポンス。
type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		URL         string     `json:"url"`
		URLToImage  string     `json:"urlToImage"`
		PublishedAt *time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Name はProviderを実装する。
func (c *NewsAPIClient) Name() string {
	return "newsapi"
}

// TopHeadlines はカテゴリのヘッドラインを取得する。
// URLを持たない記事と削除済み記事は除外する。
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, category string) ([]model.Article, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q := reqURL.Query()
	if category != "" {
		q.Set("category", category)
	}
	if c.country != "" {
		q.Set("country", c.country)
	}
	q.Set("apiKey", c.apiKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "NewsPortal/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ヘッドラインAPIの呼び出しに失敗しました",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result newsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ヘッドラインAPIがステータス %d を返しました", resp.StatusCode)
		}
		c.logger.Error("ヘッドラインAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.Status == "error" {
		c.logger.Error("ヘッドラインAPIがエラーを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", result.Code),
		)
		return nil, fmt.Errorf("ヘッドラインAPIがステータス %d を返しました: %s", resp.StatusCode, result.Message)
	}

	articles := make([]model.Article, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == removedTitle {
			continue
		}
		articles = append(articles, model.Article{
			Ref:         model.ExternalRef(a.URL),
			Title:       c.sanitizer.PlainText(a.Title),
			Description: c.sanitizer.PlainText(a.Description),
			ImageURL:    c.sanitizer.ImageURL(a.URLToImage),
			URL:         a.URL,
			Category:    category,
			SourceLabel: a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}

	return articles, nil
}

var _ Provider = (*NewsAPIClient)(nil)
