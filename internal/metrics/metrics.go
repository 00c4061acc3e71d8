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
// イベントサービスやミドルウェアから利用する。
type MetricsCollector interface {
	RecordEvent(category string)
	RecordPersistenceError(category string)
	RecordHTTPStatus(statusCode int)
	RecordWriteLatency(duration time.Duration)
	RecordBatchItems(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	eventsRecorded    *prometheus.CounterVec
	persistenceErrors *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	writeLatency      prometheus.Histogram
	batchItems        prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soslog_events_recorded_total",
			Help: "カテゴリ別の記録済みイベント数",
		}, []string{"category"}),
		persistenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soslog_persistence_errors_total",
			Help: "カテゴリ別の永続化失敗数",
		}, []string{"category"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soslog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		writeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "soslog_daylog_write_seconds",
			Help:    "日次ログへの追記にかかった時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		batchItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soslog_batch_items_total",
			Help: "バッチで受信した要素の合計数",
		}),
	}

	reg.MustRegister(
		c.eventsRecorded,
		c.persistenceErrors,
		c.httpStatus,
		c.writeLatency,
		c.batchItems,
	)

	return c
}

// RecordEvent はイベントの記録成功をカウントする。
func (c *Collector) RecordEvent(category string) {
	c.eventsRecorded.WithLabelValues(category).Inc()
}

// RecordPersistenceError は永続化失敗をカウントする。
func (c *Collector) RecordPersistenceError(category string) {
	c.persistenceErrors.WithLabelValues(category).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordWriteLatency は日次ログ追記のレイテンシを記録する。
func (c *Collector) RecordWriteLatency(duration time.Duration) {
	c.writeLatency.Observe(duration.Seconds())
}

// RecordBatchItems はバッチ受信要素数を加算する。
func (c *Collector) RecordBatchItems(count int) {
	c.batchItems.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordEvent(string)               {}
func (Nop) RecordPersistenceError(string)    {}
func (Nop) RecordHTTPStatus(int)             {}
func (Nop) RecordWriteLatency(time.Duration) {}
func (Nop) RecordBatchItems(int)             {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
