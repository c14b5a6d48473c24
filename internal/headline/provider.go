// Package headline は外部ヘッドラインの取得とローカル記事とのマージを提供する。
// 外部記事はURLで識別され、エンゲージメントの前にバックエンドへミラー同期される。
package headline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/model"
)

// Provider は外部ヘッドラインの取得元。
type Provider interface {
	// Name はログとメトリクスに使う取得元の名前を返す。
	Name() string
	// TopHeadlines はカテゴリのヘッドラインを取得元の順序で返す。
	// 返す記事は全てSourceExternalの参照を持つ。
	TopHeadlines(ctx context.Context, category string) ([]model.Article, error)
}

// ErrNoProvider は取得元が1つも設定されていない場合のエラー。
var ErrNoProvider = errors.New("headline provider is not configured")

// Combined は複数の取得元を順に問い合わせ、結果を連結するProvider。
// 一部の取得元の失敗はログに記録して読み飛ばし、全て失敗した場合のみエラーを返す。
type Combined struct {
	providers []Provider
	logger    *slog.Logger
	metrics   metrics.MetricsCollector
}

// NewCombined はCombinedを生成する。
func NewCombined(logger *slog.Logger, mc metrics.MetricsCollector, providers ...Provider) *Combined {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Combined{providers: providers, logger: logger, metrics: mc}
}

// Name はProviderを実装する。
func (c *Combined) Name() string {
	return "combined"
}

// TopHeadlines は全ての取得元の結果を連結する。同じURLの記事は最初のものだけを残す。
func (c *Combined) TopHeadlines(ctx context.Context, category string) ([]model.Article, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProvider
	}

	var (
		articles []model.Article
		errs     []error
		seen     = make(map[string]struct{})
	)
	for _, p := range c.providers {
		items, err := p.TopHeadlines(ctx, category)
		c.metrics.RecordHeadlineFetch(p.Name(), err == nil)
		if err != nil {
			c.logger.Warn("ヘッドラインの取得に失敗しました",
				slog.String("provider", p.Name()),
				slog.String("category", category),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		for _, a := range items {
			if _, dup := seen[a.Ref.URL()]; dup {
				continue
			}
			seen[a.Ref.URL()] = struct{}{}
			articles = append(articles, a)
		}
	}

	if len(errs) == len(c.providers) {
		return nil, errors.Join(errs...)
	}
	return articles, nil
}

var _ Provider = (*Combined)(nil)
