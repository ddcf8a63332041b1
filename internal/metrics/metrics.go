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
// HTTPミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordExport()
	RecordUpload(sizeBytes int64)
	RecordContactSubmission()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests       *prometheus.CounterVec
	httpLatency        *prometheus.HistogramVec
	exports            prometheus.Counter
	uploads            prometheus.Counter
	uploadBytes        prometheus.Counter
	contactSubmissions prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfoliopro_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfoliopro_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfoliopro_site_exports_total",
			Help: "生成したエクスポートアーカイブの合計数",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfoliopro_image_uploads_total",
			Help: "保存したアップロード画像の合計数",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfoliopro_image_upload_bytes_total",
			Help: "保存したアップロード画像の合計バイト数",
		}),
		contactSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfoliopro_contact_submissions_total",
			Help: "受け付けた問い合わせの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.exports,
		c.uploads,
		c.uploadBytes,
		c.contactSubmissions,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeにはchiのルートパターンを渡し、ラベルのカーディナリティを抑える。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordExport はエクスポート生成を記録する。
func (c *Collector) RecordExport() {
	c.exports.Inc()
}

// RecordUpload は画像の保存を記録する。
func (c *Collector) RecordUpload(sizeBytes int64) {
	c.uploads.Inc()
	c.uploadBytes.Add(float64(sizeBytes))
}

// RecordContactSubmission は問い合わせの受付を記録する。
func (c *Collector) RecordContactSubmission() {
	c.contactSubmissions.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
