// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// バックエンドクライアントやサービス層から利用する。
type MetricsCollector interface {
	RecordBackendRequest(endpoint string, statusCode int, duration time.Duration)
	RecordBackendFailure(endpoint string, code string)
	RecordHeadlineFetch(provider string, ok bool)
	RecordMirrorSync(ok bool)
	RecordLikeToggle(action string, ok bool)
	RecordCommentPosted()
	RecordSessionsExpired(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	backendStatus   *prometheus.CounterVec
	backendFail     *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	headlineFetch   *prometheus.CounterVec
	mirrorSync      *prometheus.CounterVec
	likeToggle      *prometheus.CounterVec
	commentPosted   prometheus.Counter
	sessionsExpired prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsportal_backend_requests_total",
			Help: "バックエンドAPI呼び出しのステータスコード別件数",
		}, []string{"endpoint", "status_code"}),
		backendFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsportal_backend_failures_total",
			Help: "バックエンドAPI呼び出し失敗のエラーコード別件数",
		}, []string{"endpoint", "code"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsportal_backend_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		headlineFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsportal_headline_fetch_total",
			Help: "外部ヘッドライン取得の件数",
		}, []string{"provider", "result"}),
		mirrorSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsportal_mirror_sync_total",
			Help: "外部記事ミラー同期の件数",
		}, []string{"result"}),
		likeToggle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsportal_like_toggle_total",
			Help: "高評価・低評価トグルの件数",
		}, []string{"action", "result"}),
		commentPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsportal_comments_posted_total",
			Help: "投稿されたコメントの合計数",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsportal_sessions_expired_total",
			Help: "期限切れで削除されたセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.backendStatus,
		c.backendFail,
		c.backendLatency,
		c.headlineFetch,
		c.mirrorSync,
		c.likeToggle,
		c.commentPosted,
		c.sessionsExpired,
	)

	return c
}

// RecordBackendRequest はバックエンドの応答ステータスとレイテンシを記録する。
func (c *Collector) RecordBackendRequest(endpoint string, statusCode int, duration time.Duration) {
	c.backendStatus.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.backendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBackendFailure はバックエンド呼び出しの失敗を記録する。
func (c *Collector) RecordBackendFailure(endpoint string, code string) {
	c.backendFail.WithLabelValues(endpoint, code).Inc()
}

// RecordHeadlineFetch は外部ヘッドライン取得の結果を記録する。
func (c *Collector) RecordHeadlineFetch(provider string, ok bool) {
	c.headlineFetch.WithLabelValues(provider, result(ok)).Inc()
}

// RecordMirrorSync はミラー同期の結果を記録する。
func (c *Collector) RecordMirrorSync(ok bool) {
	c.mirrorSync.WithLabelValues(result(ok)).Inc()
}

// RecordLikeToggle はトグル操作の結果を記録する。
func (c *Collector) RecordLikeToggle(action string, ok bool) {
	c.likeToggle.WithLabelValues(action, result(ok)).Inc()
}

// RecordCommentPosted はコメント投稿を記録する。
func (c *Collector) RecordCommentPosted() {
	c.commentPosted.Inc()
}

// RecordSessionsExpired は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsExpired(count int) {
	c.sessionsExpired.Add(float64(count))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。CLIやテストで使用する。
type Nop struct{}

var _ MetricsCollector = Nop{}

func (Nop) RecordBackendRequest(string, int, time.Duration) {}
func (Nop) RecordBackendFailure(string, string)             {}
func (Nop) RecordHeadlineFetch(string, bool)                {}
func (Nop) RecordMirrorSync(bool)                           {}
func (Nop) RecordLikeToggle(string, bool)                   {}
func (Nop) RecordCommentPosted()                            {}
func (Nop) RecordSessionsExpired(int)                       {}
