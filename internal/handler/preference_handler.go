package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

// ThemeServiceInterface はテーマ設定ハンドラーが必要とするサービスインターフェース。
// preference.Serviceが実装する。
type ThemeServiceInterface interface {
	Theme(ctx context.Context, subject string) (model.Theme, error)
	SetTheme(ctx context.Context, subject string, theme model.Theme) error
	ToggleTheme(ctx context.Context, subject string) (model.Theme, error)
}

// PreferenceHandler はテーマ設定のHTTPハンドラー。
// ログイン中はユーザー名、未ログインでは訪問者IDを設定の主体とする。
type PreferenceHandler struct {
	service ThemeServiceInterface
	respond responder
}

// NewPreferenceHandler はPreferenceHandlerを生成する。
func NewPreferenceHandler(service ThemeServiceInterface, sessions SessionExpirer, cookies middleware.CookieConfig, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		service: service,
		respond: responder{sessions: sessions, cookies: cookies, logger: logger},
	}
}

type themeBody struct {
	Theme string `json:"theme"`
}

// GetTheme は現在のテーマを返す。
// GET /api/preferences/theme
func (h *PreferenceHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.service.Theme(r.Context(), themeSubject(r))
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(theme)})
}

// PutTheme はテーマを設定する。
// PUT /api/preferences/theme
func (h *PreferenceHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := decodeJSON(r, &req); err != nil {
		h.respond.error(w, r, err)
		return
	}
	theme, err := model.ParseTheme(req.Theme)
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	if err := h.service.SetTheme(r.Context(), themeSubject(r), theme); err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(theme)})
}

// ToggleTheme はライト・ダークを切り替える。
// POST /api/preferences/theme/toggle
func (h *PreferenceHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.service.ToggleTheme(r.Context(), themeSubject(r))
	if err != nil {
		h.respond.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(theme)})
}

func themeSubject(r *http.Request) string {
	if sess := middleware.SessionFromContext(r.Context()); sess.Authenticated() {
		return "user:" + sess.Username
	}
	if visitor := middleware.VisitorFromContext(r.Context()); visitor != "" {
		return "visitor:" + visitor
	}
	return ""
}
