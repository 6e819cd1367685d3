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
// ミドルウェア、サービス層、ファイルロガー、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAuthFailure(code string)
	RecordSubscriptionToggle(subscribed bool)
	RecordFileLogDropped(level string)
	RecordFileLogFailure(level string)
	RecordLogsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	toggles         *prometheus.CounterVec
	fileLogDropped  *prometheus.CounterVec
	fileLogFailures *prometheus.CounterVec
	logsCleaned     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tubeline_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tubeline_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tubeline_auth_failures_total",
			Help: "認証ゲートで拒否されたリクエスト数",
		}, []string{"code"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tubeline_subscription_toggles_total",
			Help: "購読トグルの結果別件数",
		}, []string{"action"}),
		fileLogDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tubeline_file_log_dropped_total",
			Help: "キューが満杯で破棄されたファイルログ行の数",
		}, []string{"level"}),
		fileLogFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tubeline_file_log_failures_total",
			Help: "ファイルログの書き込みに失敗した回数",
		}, []string{"level"}),
		logsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tubeline_logs_cleaned_total",
			Help: "保持期間切れで削除されたログの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authFailures,
		c.toggles,
		c.fileLogDropped,
		c.fileLogFailures,
		c.logsCleaned,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはchiのルートパターンを渡し、IDごとにラベルが増えないようにする。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure は認証失敗をエラーコード別に記録する。
func (c *Collector) RecordAuthFailure(code string) {
	c.authFailures.WithLabelValues(code).Inc()
}

// RecordSubscriptionToggle は購読トグルの結果を記録する。
func (c *Collector) RecordSubscriptionToggle(subscribed bool) {
	action := "unsubscribed"
	if subscribed {
		action = "subscribed"
	}
	c.toggles.WithLabelValues(action).Inc()
}

// RecordFileLogDropped はファイルログ行の破棄を記録する。
func (c *Collector) RecordFileLogDropped(level string) {
	c.fileLogDropped.WithLabelValues(level).Inc()
}

// RecordFileLogFailure はファイルログの書き込み失敗を記録する。
func (c *Collector) RecordFileLogFailure(level string) {
	c.fileLogFailures.WithLabelValues(level).Inc()
}

// RecordLogsCleaned はクリーンアップで削除されたログ件数を記録する。
func (c *Collector) RecordLogsCleaned(count int64) {
	c.logsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// Acceptヘッダーで要求された場合はOpenMetrics形式で応答する。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
