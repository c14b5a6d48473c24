// Package portal はバックエンドクライアントとビューサービス群の組み立てを提供する。
// serveモードとCLIで同じ依存グラフを使い、ストアとメトリクスだけを差し替える。
package portal

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/newsportal/internal/backend"
	"github.com/hitoshi/newsportal/internal/config"
	"github.com/hitoshi/newsportal/internal/dashboard"
	"github.com/hitoshi/newsportal/internal/engagement"
	"github.com/hitoshi/newsportal/internal/headline"
	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/news"
	"github.com/hitoshi/newsportal/internal/preference"
	"github.com/hitoshi/newsportal/internal/repository"
	"github.com/hitoshi/newsportal/internal/security"
	"github.com/hitoshi/newsportal/internal/session"
)

// Stores はセッションとテーマ設定の永続化先。
type Stores struct {
	Sessions    repository.SessionRepository
	Preferences repository.PreferenceRepository
}

// Services はポータルのビューサービス群。
type Services struct {
	Backend   *backend.Client
	Sessions  *session.Manager
	Themes    *preference.Service
	News      *news.Service
	Likes     *engagement.Toggler
	Comments  *engagement.Comments
	Dashboard *dashboard.Service
}

// NewServices は設定からサービス群を組み立てる。
// mcがnilの場合はメトリクスを記録しない。
func NewServices(cfg *config.Config, stores Stores, mc metrics.MetricsCollector, logger *slog.Logger) *Services {
	if mc == nil {
		mc = metrics.Nop{}
	}

	client := backend.NewClient(&http.Client{Timeout: cfg.BackendTimeout}, cfg.BackendBaseURL, logger, mc)
	sanitizer := security.NewTextSanitizer()
	mirror := engagement.NewMirrorSync(client, sanitizer, mc, logger)

	return &Services{
		Backend: client,
		Sessions: session.NewManager(client, stores.Sessions, session.ManagerConfig{
			MaxAge: cfg.SessionMaxAge,
		}, logger),
		Themes:    preference.NewService(stores.Preferences, logger),
		News:      news.NewService(client, newHeadlineProvider(cfg, sanitizer, mc, logger), logger),
		Likes:     engagement.NewToggler(mirror, client, mc, logger),
		Comments:  engagement.NewComments(client, mirror, mc, logger),
		Dashboard: dashboard.NewService(client, logger),
	}
}

// newHeadlineProvider は設定済みのヘッドライン取得元をまとめたProviderを返す。
// 取得元が1つも設定されていない場合はnilを返す。
func newHeadlineProvider(cfg *config.Config, sanitizer security.TextSanitizer, mc metrics.MetricsCollector, logger *slog.Logger) headline.Provider {
	if !cfg.HeadlinesEnabled() {
		return nil
	}

	httpClient := security.NewOutboundGuard().NewClient(cfg.HeadlineTimeout)

	var providers []headline.Provider
	if cfg.HeadlineAPIKey != "" {
		providers = append(providers, headline.NewNewsAPIClient(httpClient, logger, sanitizer, headline.NewsAPIConfig{
			BaseURL: cfg.HeadlineAPIURL,
			APIKey:  cfg.HeadlineAPIKey,
			Country: cfg.HeadlineCountry,
			MaxSize: cfg.HeadlineMaxSize,
		}))
	}
	if len(cfg.HeadlineRSSURLs) > 0 {
		providers = append(providers, headline.NewRSSProvider(httpClient, logger, sanitizer, cfg.HeadlineRSSURLs, cfg.HeadlineMaxSize))
	}
	return headline.NewCombined(logger, mc, providers...)
}
