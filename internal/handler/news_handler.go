package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	// Search はタイトルで記事を検索する。空の場合は全件を返す。
	Search(ctx context.Context, title string) ([]model.Article, error)
	// Get は自サイト記事を1件取得する。
	Get(ctx context.Context, id int64) (*model.Article, error)
	// Browse はカテゴリ別の自サイト記事と外部ヘッドラインを統合して返す。
	Browse(ctx context.Context, category string) ([]model.Article, error)
	// Categories はカテゴリ一覧を返す。
	Categories(ctx context.Context) ([]model.Category, error)
}

// NewsHandler はニュース閲覧のHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
	respond responder
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface, sessions SessionExpirer, cookies middleware.CookieConfig, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{
		service: service,
		respond: responder{sessions: sessions, cookies: cookies, logger: logger},
	}
}

// ListNews は記事一覧を返す。title 指定時はタイトル検索を行う。
// GET /api/news?title=
func (h *NewsHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.Search(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// GetNews は記事詳細を返す。
// GET /api/news/{id}
func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respond.error(w, r, model.NewValidationError("記事IDは整数で指定してください"))
		return
	}

	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(*article))
}

// Browse はカテゴリ別の記事一覧を返す。外部ヘッドラインを含む。
// GET /api/browse/{category}
func (h *NewsHandler) Browse(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.Browse(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponses(articles))
}

// ListCategories はカテゴリ一覧を返す。
// GET /api/categories
func (h *NewsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}
