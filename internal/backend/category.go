package backend

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/newsportal/internal/model"
)

// ListCategories はカテゴリ一覧を取得する。
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var items []categoryJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/category",
		endpoint: "/api/category",
	}, &items)
	if err != nil {
		return nil, err
	}
	categories := make([]model.Category, 0, len(items))
	for _, it := range items {
		categories = append(categories, model.Category{ID: it.ID, Name: it.Name})
	}
	return categories, nil
}

// CreateCategory はカテゴリを登録する。管理者トークンが必要。
func (c *Client) CreateCategory(ctx context.Context, token, name string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NewValidationError("カテゴリ名は必須です")
	}
	return c.doJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/api/category",
		endpoint: "/api/category",
		token:    token,
		body:     categoryJSON{Name: name},
	}, nil)
}

// DeleteCategory はカテゴリを削除する。管理者トークンが必要。
func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/category/" + strconv.FormatInt(id, 10),
		endpoint: "/api/category/:id",
		token:    token,
		resource: "カテゴリ",
	}, nil)
}
