package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

// articleResponse は記事のAPIレスポンス。
// source が "local" の場合は id、"external" の場合は url で記事を識別する。
type articleResponse struct {
	Source      string     `json:"source"`
	ID          int64      `json:"id,omitempty"`
	URL         string     `json:"url,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Category    string     `json:"category,omitempty"`
	SourceLabel string     `json:"source_label,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func toArticleResponse(a model.Article) articleResponse {
	resp := articleResponse{
		Source:      string(a.Ref.Kind()),
		URL:         a.URL,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Category:    a.Category,
		SourceLabel: a.SourceLabel,
		CreatedBy:   a.CreatedBy,
		PublishedAt: a.PublishedAt,
	}
	switch a.Ref.Kind() {
	case model.SourceLocal:
		resp.ID = a.Ref.ID()
	case model.SourceExternal:
		resp.URL = a.Ref.URL()
	}
	return resp
}

func toArticleResponses(articles []model.Article) []articleResponse {
	resp := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		resp = append(resp, toArticleResponse(a))
	}
	return resp
}

// articleRequest はエンゲージメント操作の対象記事を指定するリクエスト項目。
// 外部記事の場合、ミラー同期に使用するタイトル等も受け取る。
type articleRequest struct {
	Source      string     `json:"source"`
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	Category    string     `json:"category"`
	PublishedAt *time.Time `json:"published_at"`
}

// toArticle はリクエスト項目をドメインの記事に変換する。
func (r articleRequest) toArticle() (model.Article, error) {
	var ref model.ArticleRef
	link := strings.TrimSpace(r.URL)
	switch model.Source(r.Source) {
	case model.SourceLocal:
		ref = model.LocalRef(r.ID)
	case model.SourceExternal:
		ref = model.ExternalRef(link)
	default:
		return model.Article{}, model.NewValidationError("source には local または external を指定してください")
	}
	if !ref.Valid() {
		return model.Article{}, model.NewValidationError("記事の識別子が不正です")
	}
	return model.Article{
		Ref:         ref,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		URL:         link,
		Category:    r.Category,
		PublishedAt: r.PublishedAt,
	}, nil
}

// articleFromQuery はクエリパラメータ（source, id, url）から記事を特定する。
// ローカル記事でもurlが指定されていれば評価・コメントのキーに使う。
func articleFromQuery(r *http.Request) (model.Article, error) {
	q := r.URL.Query()
	req := articleRequest{
		Source: q.Get("source"),
		URL:    q.Get("url"),
	}
	if v := q.Get("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return model.Article{}, model.NewValidationError("id は整数で指定してください")
		}
		req.ID = id
	}
	return req.toArticle()
}

type likeStatusResponse struct {
	LikeCount    int    `json:"like_count"`
	DislikeCount int    `json:"dislike_count"`
	State        string `json:"state"`
}

func toLikeStatusResponse(s model.LikeStatus) likeStatusResponse {
	return likeStatusResponse{
		LikeCount:    s.LikeCount,
		DislikeCount: s.DislikeCount,
		State:        string(s.State),
	}
}

type commentResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentResponses(comments []model.Comment) []commentResponse {
	resp := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, commentResponse{
			ID:        c.ID,
			Username:  c.Username,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return resp
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponses(users []model.User) []userResponse {
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	return resp
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toCategoryResponses(categories []model.Category) []categoryResponse {
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name})
	}
	return resp
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをデコードする。失敗時は検証エラーを返す。
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewValidationError("リクエストボディが不正です")
	}
	return nil
}

// SessionExpirer は認証失敗時にポータルセッションを破棄するインターフェース。
// session.Managerが実装する。
type SessionExpirer interface {
	Expire(ctx context.Context, sess *model.Session) error
}

// responder はハンドラー共通のエラー応答を行う。
// ログイン中のリクエストで認証失敗が返された場合はセッションを破棄し、Cookieを削除する。
type responder struct {
	sessions SessionExpirer
	cookies  middleware.CookieConfig
	logger   *slog.Logger
}

func (rs responder) error(w http.ResponseWriter, r *http.Request, err error) {
	if model.IsAuthFailure(err) {
		if sess := middleware.SessionFromContext(r.Context()); sess.Authenticated() {
			if expErr := rs.sessions.Expire(r.Context(), sess); expErr != nil {
				rs.logger.Error("failed to expire session",
					slog.String("username", sess.Username),
					slog.String("error", expErr.Error()),
				)
			}
			middleware.ClearSessionCookie(w, rs.cookies)
		}
	}
	middleware.WriteError(w, rs.logger, err)
}
