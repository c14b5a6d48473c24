// Package engagement は記事への評価とコメントの操作を提供する。
// 外部記事への操作は必ずミラー同期を完了してから行う。
package engagement

import (
	"context"
	"log/slog"

	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/model"
	"github.com/hitoshi/newsportal/internal/security"
)

// MirrorBackend はミラー同期に必要なバックエンドAPI。
type MirrorBackend interface {
	SyncExternal(ctx context.Context, token string, article model.ExternalArticle) error
}

// MirrorSync は外部記事をバックエンドのニューステーブルにアップサートする。
type MirrorSync struct {
	backend   MirrorBackend
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewMirrorSync はMirrorSyncを生成する。
func NewMirrorSync(backend MirrorBackend, sanitizer security.TextSanitizer, mc metrics.MetricsCollector, logger *slog.Logger) *MirrorSync {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &MirrorSync{backend: backend, sanitizer: sanitizer, metrics: mc, logger: logger}
}

// Ensure は外部記事のローカルレコードが存在する状態にする。ローカル記事では何もしない。
// 完了を待ってから戻るため、呼び出し元は戻り値を確認した後に評価やコメントを送信できる。
// 失敗は再試行せずに返す。
func (m *MirrorSync) Ensure(ctx context.Context, token string, article model.Article) error {
	switch article.Ref.Kind() {
	case model.SourceLocal:
		return nil
	case model.SourceExternal:
	default:
		return model.NewValidationError("記事の参照が不正です")
	}

	if article.Ref.URL() == "" {
		return model.NewValidationError("外部記事のURLが空です")
	}

	fields := article.ExternalFields()
	fields.Title = m.sanitizer.PlainText(fields.Title)
	fields.Description = m.sanitizer.PlainText(fields.Description)
	fields.ImageURL = m.sanitizer.ImageURL(fields.ImageURL)

	err := m.backend.SyncExternal(ctx, token, fields)
	m.metrics.RecordMirrorSync(err == nil)
	if err != nil {
		m.logger.Warn("外部記事のミラー同期に失敗しました",
			slog.String("url", fields.URL),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
