// Package dashboard は管理ダッシュボードとプロフィール画面の並列取得を提供する。
// 複数のAPIを同時に呼び出し、全て成功した場合のみ結果を返す。
package dashboard

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/newsportal/internal/model"
)

// Backend はダッシュボードとプロフィールの表示に必要なバックエンドAPI。
type Backend interface {
	ActivityStats(ctx context.Context, token string) (*model.ActivityStats, error)
	RecentUsers(ctx context.Context, token string) ([]model.User, error)
	ListUsers(ctx context.Context, token string) ([]model.User, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListNews(ctx context.Context) ([]model.Article, error)
	Profile(ctx context.Context, token string) (*model.Profile, error)
}

// Service は並列取得のユースケースを提供する。
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService はServiceを生成する。
func NewService(backend Backend, logger *slog.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// Dashboard は管理ダッシュボードの表示内容を取得する。管理者セッションが必要。
// 5つの取得を並列に行い、1つでも失敗した場合は他の結果を捨ててエラーを返す。
func (s *Service) Dashboard(ctx context.Context, sess *model.Session) (*model.Dashboard, error) {
	if !sess.Authenticated() {
		return nil, model.NewAuthRequiredError()
	}
	if !sess.IsAdmin() {
		return nil, model.NewForbiddenError()
	}

	var d model.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.backend.ActivityStats(gctx, sess.Token)
		if err != nil {
			return err
		}
		d.Stats = *stats
		return nil
	})
	g.Go(func() error {
		users, err := s.backend.RecentUsers(gctx, sess.Token)
		d.RecentUsers = users
		return err
	})
	g.Go(func() error {
		users, err := s.backend.ListUsers(gctx, sess.Token)
		d.Users = users
		return err
	})
	g.Go(func() error {
		categories, err := s.backend.ListCategories(gctx)
		d.Categories = categories
		return err
	})
	g.Go(func() error {
		articles, err := s.backend.ListNews(gctx)
		d.News = articles
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, s.fail("dashboard", sess, err)
	}
	return &d, nil
}

// Profile はログインユーザーのプロフィールと本人が投稿した記事を取得する。
// 認証失敗はSESSION_EXPIREDとして返し、呼び出し元はセッションを破棄する。
func (s *Service) Profile(ctx context.Context, sess *model.Session) (*model.ProfileView, error) {
	if !sess.Authenticated() {
		return nil, model.NewAuthRequiredError()
	}

	var (
		profile  *model.Profile
		articles []model.Article
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.backend.Profile(gctx, sess.Token)
		profile = p
		return err
	})
	g.Go(func() error {
		a, err := s.backend.ListNews(gctx)
		articles = a
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, s.fail("profile", sess, err)
	}

	username := profile.Username
	if username == "" {
		username = sess.Username
	}
	own := make([]model.Article, 0)
	for _, a := range articles {
		if a.CreatedBy == username {
			own = append(own, a)
		}
	}

	return &model.ProfileView{Profile: *profile, Articles: own}, nil
}

// fail は並列取得の失敗をログに記録し、認証失敗をSESSION_EXPIREDに変換する。
func (s *Service) fail(view string, sess *model.Session, err error) error {
	s.logger.Warn("並列取得に失敗しました",
		slog.String("view", view),
		slog.String("username", sess.Username),
		slog.String("error", err.Error()),
	)
	if model.HasCode(err, model.ErrCodeAuthFailed) {
		return model.NewSessionExpiredError()
	}
	return err
}
