package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/newsportal/internal/model"
)

// ListNews は全てのローカル記事をバックエンドの順序で取得する。
func (c *Client) ListNews(ctx context.Context) ([]model.Article, error) {
	var items []newsJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/news",
		endpoint: "/api/news",
	}, &items)
	if err != nil {
		return nil, err
	}
	return toArticles(c.baseURL, items), nil
}

// ListNewsByCategory はカテゴリ別のローカル記事を取得する。
func (c *Client) ListNewsByCategory(ctx context.Context, category string) ([]model.Article, error) {
	var items []newsJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/news/category/" + url.PathEscape(category),
		endpoint: "/api/news/category/:category",
		resource: "カテゴリ",
	}, &items)
	if err != nil {
		return nil, err
	}
	return toArticles(c.baseURL, items), nil
}

// SearchNews はタイトルでローカル記事を検索する。
func (c *Client) SearchNews(ctx context.Context, title string) ([]model.Article, error) {
	var items []newsJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/news/search",
		endpoint: "/api/news/search",
		query:    url.Values{"title": {title}},
	}, &items)
	if err != nil {
		return nil, err
	}
	return toArticles(c.baseURL, items), nil
}

// GetNews はIDを指定してローカル記事を1件取得する。
func (c *Client) GetNews(ctx context.Context, id int64) (*model.Article, error) {
	var item newsJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/news/" + strconv.FormatInt(id, 10),
		endpoint: "/api/news/:id",
		resource: "記事",
	}, &item)
	if err != nil {
		return nil, err
	}
	a := item.toArticle(c.baseURL)
	return &a, nil
}

// DeleteNews はローカル記事を削除する。管理者トークンが必要。
func (c *Client) DeleteNews(ctx context.Context, token string, id int64) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/news/" + strconv.FormatInt(id, 10),
		endpoint: "/api/news/:id",
		token:    token,
		resource: "記事",
	}, nil)
}

// CreateNews はmultipartフォームで記事を登録する。管理者トークンが必要。
func (c *Client) CreateNews(ctx context.Context, token string, draft model.NewsDraft) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if draft.Title == "" {
		return model.NewValidationError("タイトルは必須です")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"title", draft.Title},
		{"description", draft.Description},
		{"category", draft.Category},
		{"create_by", draft.CreatedBy},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("フォームフィールドの書き込みに失敗しました: %w", err)
		}
	}
	if len(draft.Photo) > 0 {
		name := draft.PhotoName
		if name == "" {
			name = "photo"
		}
		fw, err := mw.CreateFormFile("photo", name)
		if err != nil {
			return fmt.Errorf("画像パートの作成に失敗しました: %w", err)
		}
		if _, err := fw.Write(draft.Photo); err != nil {
			return fmt.Errorf("画像の書き込みに失敗しました: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("multipartの終端に失敗しました: %w", err)
	}

	cl := call{
		method:   http.MethodPost,
		path:     "/api/news",
		endpoint: "/api/news",
		token:    token,
	}
	req, err := c.newRequest(ctx, cl, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, cl, nil)
}

// SyncExternal は外部記事をURLをキーにバックエンドのニューステーブルへアップサートする。
// URLが空の場合はリクエストを送らずに検証エラーを返す。
func (c *Client) SyncExternal(ctx context.Context, token string, article model.ExternalArticle) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if article.URL == "" {
		return model.NewValidationError("外部記事のURLが空です")
	}
	return c.doJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/api/news/sync-external",
		endpoint: "/api/news/sync-external",
		token:    token,
		body: syncExternalJSON{
			URL:         article.URL,
			Title:       article.Title,
			Description: article.Description,
			URLToImage:  article.ImageURL,
			PublishedAt: article.PublishedAt,
			Category:    article.Category,
		},
	}, nil)
}
