package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

// SessionServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	SessionExpirer
	// Login はバックエンドで認証し、ポータルセッションを作成する。
	Login(ctx context.Context, username, password string) (*model.Session, error)
	// Register はユーザーを新規登録する。
	Register(ctx context.Context, cred model.Credentials) error
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, id string) error
}

// AuthHandler はログイン・ログアウト等の認証HTTPハンドラー。
type AuthHandler struct {
	service SessionServiceInterface
	cookies middleware.CookieConfig
	logger  *slog.Logger
	respond responder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service SessionServiceInterface, cookies middleware.CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		logger:  logger,
		respond: responder{sessions: service, cookies: cookies, logger: logger},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toSessionResponse(sess *model.Session) sessionResponse {
	return sessionResponse{
		Username:  sess.Username,
		Role:      string(sess.Role),
		ExpiresAt: sess.ExpiresAt,
	}
}

// Login は資格情報でログインし、セッションCookieを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.error(w, r, err)
		return
	}

	sess, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, h.cookies, sess)
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Register はユーザーを新規登録する。ログインは行わない。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.error(w, r, err)
		return
	}

	err := h.service.Register(r.Context(), model.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.Logout(r.Context(), sess.ID); err != nil {
			// ログアウト失敗してもCookieはクリアする
			h.logger.Error("failed to logout",
				slog.String("username", sess.Username),
				slog.String("error", err.Error()),
			)
		}
	}

	middleware.ClearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}
