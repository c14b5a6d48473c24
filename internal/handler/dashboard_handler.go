package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/model"
)

// DashboardServiceInterface はダッシュボード・プロフィールハンドラーが必要とするサービスインターフェース。
// dashboard.Serviceが実装する。
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, sess *model.Session) (*model.Dashboard, error)
	Profile(ctx context.Context, sess *model.Session) (*model.ProfileView, error)
}

// DashboardHandler は管理ダッシュボードとプロフィールのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
	respond responder
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface, sessions SessionExpirer, cookies middleware.CookieConfig, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		respond: responder{sessions: sessions, cookies: cookies, logger: logger},
	}
}

type activityStatsResponse struct {
	TotalUsers    int `json:"total_users"`
	TotalNews     int `json:"total_news"`
	TotalComments int `json:"total_comments"`
	TotalLikes    int `json:"total_likes"`
	NewUsersToday int `json:"new_users_today"`
}

type dashboardResponse struct {
	Stats       activityStatsResponse `json:"stats"`
	RecentUsers []userResponse        `json:"recent_users"`
	Users       []userResponse        `json:"users"`
	Categories  []categoryResponse    `json:"categories"`
	News        []articleResponse     `json:"news"`
}

type profileResponse struct {
	userResponse
	LikeCount    int               `json:"like_count"`
	CommentCount int               `json:"comment_count"`
	Articles     []articleResponse `json:"articles"`
}

// GetDashboard は管理ダッシュボードのデータを返す。管理者のみ。
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Stats: activityStatsResponse{
			TotalUsers:    d.Stats.TotalUsers,
			TotalNews:     d.Stats.TotalNews,
			TotalComments: d.Stats.TotalComments,
			TotalLikes:    d.Stats.TotalLikes,
			NewUsersToday: d.Stats.NewUsersToday,
		},
		RecentUsers: toUserResponses(d.RecentUsers),
		Users:       toUserResponses(d.Users),
		Categories:  toCategoryResponses(d.Categories),
		News:        toArticleResponses(d.News),
	})
}

// GetProfile はログインユーザーのプロフィールと投稿記事を返す。
// GET /api/profile
func (h *DashboardHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Profile(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.respond.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		userResponse: toUserResponse(view.Profile.User),
		LikeCount:    view.Profile.LikeCount,
		CommentCount: view.Profile.CommentCount,
		Articles:     toArticleResponses(view.Articles),
	})
}
