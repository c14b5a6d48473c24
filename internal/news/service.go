// Package news はニュース閲覧画面のユースケースを提供する。
// ローカル記事はバックエンドから、外部記事はヘッドライン取得元から取得する。
package news

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/newsportal/internal/headline"
	"github.com/hitoshi/newsportal/internal/model"
)

// Backend はニュース閲覧に必要なバックエンドAPI。
type Backend interface {
	ListNews(ctx context.Context) ([]model.Article, error)
	ListNewsByCategory(ctx context.Context, category string) ([]model.Article, error)
	SearchNews(ctx context.Context, title string) ([]model.Article, error)
	GetNews(ctx context.Context, id int64) (*model.Article, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// Service はニュース閲覧のビジネスロジックを提供する。
type Service struct {
	backend   Backend
	headlines headline.Provider // nilの場合は外部記事を取得しない
	logger    *slog.Logger
}

// NewService はServiceを生成する。headlinesはnilでもよい。
func NewService(backend Backend, headlines headline.Provider, logger *slog.Logger) *Service {
	return &Service{backend: backend, headlines: headlines, logger: logger}
}

// Browse はカテゴリのローカル記事と外部ヘッドラインをマージして返す。
// ヘッドラインの取得に失敗した場合はローカル記事のみを返す。
func (s *Service) Browse(ctx context.Context, category string) ([]model.Article, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, model.NewValidationError("カテゴリを指定してください")
	}

	local, err := s.backend.ListNewsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	if s.headlines == nil {
		return headline.Merge(local, nil), nil
	}

	external, err := s.headlines.TopHeadlines(ctx, category)
	if err != nil {
		s.logger.Warn("ヘッドラインを取得できなかったためローカル記事のみ表示します",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		external = nil
	}

	return headline.Merge(local, external), nil
}

// Search はタイトルでローカル記事を検索する。空の検索語は全件を返す。
func (s *Service) Search(ctx context.Context, title string) ([]model.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.backend.ListNews(ctx)
	}
	return s.backend.SearchNews(ctx, title)
}

// Latest は全てのローカル記事をバックエンドの順序で返す。
func (s *Service) Latest(ctx context.Context) ([]model.Article, error) {
	return s.backend.ListNews(ctx)
}

// Get はローカル記事を1件返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Article, error) {
	if id <= 0 {
		return nil, model.NewValidationError("記事IDが不正です")
	}
	return s.backend.GetNews(ctx, id)
}

// Categories はカテゴリ一覧を返す。
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	return s.backend.ListCategories(ctx)
}
