package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/newsportal/internal/middleware"
)

// HealthChecker は依存先の疎通確認を行うインターフェース。
// *sql.DB が実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	Cookies           middleware.CookieConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用（nilの場合は無効）
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// サービス
	Sessions  SessionServiceInterface
	News      NewsServiceInterface
	Likes     LikeServiceInterface
	Comments  CommentServiceInterface
	Themes    ThemeServiceInterface
	Dashboard DashboardServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SessionLoader → Logging → SecurityHeaders → CORS → RateLimit(General)
//
// /auth と /api の状態変更リクエストにはCSRF検証を適用する。
// 評価・コメント投稿にはエンゲージメント用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSessionLoader(deps.SessionFinder, deps.Cookies, deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	authHandler := NewAuthHandler(deps.Sessions, deps.Cookies, deps.Logger)
	newsHandler := NewNewsHandler(deps.News, deps.Sessions, deps.Cookies, deps.Logger)
	engagementHandler := NewEngagementHandler(deps.Likes, deps.Comments, deps.Sessions, deps.Cookies, deps.Logger)
	preferenceHandler := NewPreferenceHandler(deps.Themes, deps.Sessions, deps.Cookies, deps.Logger)
	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Sessions, deps.Cookies, deps.Logger)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler(deps.HealthChecker, deps.Logger))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.Cookies, deps.Logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.Cookies, deps.Logger))
		engagementLimit := deps.RateLimiter.EngagementMiddleware()

		// --- ログイン不要のルート ---
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
			r.With(middleware.RequireSession).Get("/me", authHandler.Me)
		})

		r.Route("/api/preferences/theme", func(r chi.Router) {
			r.Get("/", preferenceHandler.GetTheme)
			r.Put("/", preferenceHandler.PutTheme)
			r.Post("/toggle", preferenceHandler.ToggleTheme)
		})

		r.Get("/api/news", newsHandler.ListNews)
		r.Get("/api/news/{id}", newsHandler.GetNews)
		r.Get("/api/browse/{category}", newsHandler.Browse)
		r.Get("/api/categories", newsHandler.ListCategories)
		r.Get("/api/comments", engagementHandler.ListComments)

		// --- ログインが必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Get("/api/likes", engagementHandler.GetLikeStatus)
			r.With(engagementLimit).Post("/api/likes", engagementHandler.ToggleLike)
			r.With(engagementLimit).Post("/api/comments", engagementHandler.PostComment)

			r.Get("/api/dashboard", dashboardHandler.GetDashboard)
			r.Get("/api/profile", dashboardHandler.GetProfile)
		})
	})

	return r
}

// healthHandler はヘルスチェック用ハンドラーを返す。
// checkerがnilの場合は常に正常を返す。
func healthHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				logger.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
