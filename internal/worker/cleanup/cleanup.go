// Package cleanup は期限切れポータルセッションの自動削除ジョブを提供する。
// serveモードでバックグラウンド実行するほか、cleanupサブコマンドで単発実行できる。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/newsportal/internal/metrics"
)

// Purger は期限切れセッションを削除するインターフェース。
// session.Managerが実装する。
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等: 削除対象がない場合でもエラーにならない。
type CleanupJob struct {
	purger   Purger
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	Interval time.Duration // Startでの実行間隔（デフォルト: 1時間）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// mcがnilの場合はメトリクスを記録しない。
func NewCleanupJob(purger Purger, mc metrics.MetricsCollector, logger *slog.Logger) *CleanupJob {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &CleanupJob{
		purger:   purger,
		metrics:  mc,
		logger:   logger,
		Interval: time.Hour,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.metrics.RecordSessionsExpired(deleted)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回、その後Intervalごとにジョブを実行する。
// ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context) {
	j.runLogged(ctx)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

// runLogged はRunのエラーをログ出力済みとして破棄する。
func (j *CleanupJob) runLogged(ctx context.Context) {
	_ = j.Run(ctx)
}
