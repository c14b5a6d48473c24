package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/newsportal/internal/model"
)

// LikeStatus は記事の評価集計とログインユーザーの評価状態を取得する。
func (c *Client) LikeStatus(ctx context.Context, token string, key model.NewsKey) (model.LikeStatus, error) {
	if err := requireToken(token); err != nil {
		return model.LikeStatus{}, err
	}
	var resp likeStatusJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/likes",
		endpoint: "/api/likes",
		query:    url.Values{"id_news": {key.String()}},
		token:    token,
		resource: "記事",
	}, &resp)
	if err != nil {
		return model.LikeStatus{}, err
	}
	return resp.toModel(), nil
}

// PutLike は評価を登録または上書きする（true=like, false=dislike）。
func (c *Client) PutLike(ctx context.Context, token string, key model.NewsKey, value bool) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/api/likes",
		endpoint: "/api/likes",
		token:    token,
		body:     likeRequestJSON{IDNews: key, Value: &value},
		resource: "記事",
	}, nil)
}

// RemoveLike は評価を取り消す。
func (c *Client) RemoveLike(ctx context.Context, token string, key model.NewsKey) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method:   http.MethodDelete,
		path:     "/api/likes",
		endpoint: "/api/likes",
		token:    token,
		body:     likeRequestJSON{IDNews: key},
		resource: "評価",
	}, nil)
}

// ListComments は記事のコメントをバックエンドの順序のまま取得する。
func (c *Client) ListComments(ctx context.Context, newsURL string) ([]model.Comment, error) {
	var items []commentJSON
	err := c.doJSON(ctx, call{
		method:   http.MethodGet,
		path:     "/api/comments",
		endpoint: "/api/comments",
		query:    url.Values{"news_url": {newsURL}},
	}, &items)
	if err != nil {
		return nil, err
	}
	comments := make([]model.Comment, 0, len(items))
	for _, it := range items {
		comments = append(comments, it.toModel())
	}
	return comments, nil
}

// PostComment は記事にコメントを投稿する。
func (c *Client) PostComment(ctx context.Context, token string, newsURL, content string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/api/comments",
		endpoint: "/api/comments",
		token:    token,
		body:     postCommentJSON{Content: content, NewsURL: newsURL},
		resource: "記事",
	}, nil)
}
