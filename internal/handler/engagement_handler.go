package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

// LikeServiceInterface は評価ハンドラーが必要とするサービスインターフェース。
// engagement.Togglerが実装する。
type LikeServiceInterface interface {
	// Status は記事の評価状態を返す。
	Status(ctx context.Context, sess *model.Session, article model.Article) (model.LikeStatus, error)
	// ToggleFetched はミラー同期の後に取得した現在の状態を基に評価を切り替え、再取得した状態を返す。
	ToggleFetched(ctx context.Context, sess *model.Session, article model.Article, action model.LikeAction) (model.LikeStatus, error)
}

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
// engagement.Commentsが実装する。
type CommentServiceInterface interface {
	// List は記事のコメントをバックエンドの順序のまま返す。
	List(ctx context.Context, sess *model.Session, article model.Article) ([]model.Comment, error)
	// Post はコメントを投稿し、再取得した一覧を返す。
	Post(ctx context.Context, sess *model.Session, article model.Article, content string) ([]model.Comment, error)
}

// EngagementHandler は評価・コメントのHTTPハンドラー。
type EngagementHandler struct {
	likes    LikeServiceInterface
	comments CommentServiceInterface
	respond  responder
	inflight *inflightSet
}

// NewEngagementHandler はEngagementHandlerを生成する。
func NewEngagementHandler(likes LikeServiceInterface, comments CommentServiceInterface, sessions SessionExpirer, cookies middleware.CookieConfig, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{
		likes:    likes,
		comments: comments,
		respond:  responder{sessions: sessions, cookies: cookies, logger: logger},
		inflight: newInflightSet(),
	}
}

type likeRequest struct {
	articleRequest
	Action string `json:"action"`
}

type commentRequest struct {
	articleRequest
	Content string `json:"content"`
}

// GetLikeStatus は記事の評価状態を返す。
// GET /api/likes?source=&id=&url=
func (h *EngagementHandler) GetLikeStatus(w http.ResponseWriter, r *http.Request) {
	article, err := articleFromQuery(r)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	status, err := h.likes.Status(r.Context(), middleware.SessionFromContext(r.Context()), article)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLikeStatusResponse(status))
}

// ToggleLike は高評価・低評価を切り替える。
// POST /api/likes
//
// 同一ユーザー・同一記事への操作が処理中の場合は ACTION_IN_PROGRESS を返す。
// 現在の状態はクライアントから受け取らず、ミラー同期の後にバックエンドから取得する。
func (h *EngagementHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.error(w, r, err)
		return
	}
	action, err := model.ParseLikeAction(req.Action)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	article, err := req.toArticle()
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	key := sess.Username + "|" + article.CommentKey()
	if !h.inflight.acquire(key) {
		h.respond.error(w, r, model.NewActionInProgressError())
		return
	}
	defer h.inflight.release(key)

	status, err := h.likes.ToggleFetched(r.Context(), sess, article, action)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLikeStatusResponse(status))
}

// ListComments は記事のコメント一覧を返す。
// GET /api/comments?source=&id=&url=
func (h *EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	article, err := articleFromQuery(r)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	comments, err := h.comments.List(r.Context(), middleware.SessionFromContext(r.Context()), article)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(comments))
}

// PostComment はコメントを投稿し、更新後の一覧を返す。
// POST /api/comments
func (h *EngagementHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.error(w, r, err)
		return
	}
	article, err := req.toArticle()
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	comments, err := h.comments.Post(r.Context(), middleware.SessionFromContext(r.Context()), article, req.Content)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponses(comments))
}

// inflightSet は処理中の操作キーを管理する。
type inflightSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{keys: make(map[string]struct{})}
}

// acquire はキーが未使用なら確保してtrueを返す。
func (s *inflightSet) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.keys[key]; busy {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *inflightSet) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}
