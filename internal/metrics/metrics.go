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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(method string, success bool)
	RecordOAuthExchange(platform string, success bool)
	RecordOAuthExchangeLatency(platform string, duration time.Duration)
	RecordConnection(platform string)
	RecordDisconnection(platform string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins          *prometheus.CounterVec
	oauthExchanges  *prometheus.CounterVec
	exchangeLatency *prometheus.HistogramVec
	connections     *prometheus.CounterVec
	disconnections  *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdesk_logins_total",
			Help: "ログイン試行数（認証方式・結果別）",
		}, []string{"method", "result"}),
		oauthExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdesk_oauth_exchanges_total",
			Help: "OAuthトークン交換数（プラットフォーム・結果別）",
		}, []string{"platform", "result"}),
		exchangeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialdesk_oauth_exchange_latency_seconds",
			Help:    "OAuthトークン交換のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdesk_connections_total",
			Help: "SNS連携の確立数（プラットフォーム別）",
		}, []string{"platform"}),
		disconnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdesk_disconnections_total",
			Help: "SNS連携の切断数（プラットフォーム別）",
		}, []string{"platform"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "socialdesk_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.oauthExchanges,
		c.exchangeLatency,
		c.connections,
		c.disconnections,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン試行を記録する。methodは"password"または"google"。
func (c *Collector) RecordLogin(method string, success bool) {
	c.logins.WithLabelValues(method, resultLabel(success)).Inc()
}

// RecordOAuthExchange はOAuthトークン交換の結果を記録する。
func (c *Collector) RecordOAuthExchange(platform string, success bool) {
	c.oauthExchanges.WithLabelValues(platform, resultLabel(success)).Inc()
}

// RecordOAuthExchangeLatency はトークン交換のレイテンシを記録する。
func (c *Collector) RecordOAuthExchangeLatency(platform string, duration time.Duration) {
	c.exchangeLatency.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordConnection はSNS連携の確立を記録する。
func (c *Collector) RecordConnection(platform string) {
	c.connections.WithLabelValues(platform).Inc()
}

// RecordDisconnection はSNS連携の切断を記録する。
func (c *Collector) RecordDisconnection(platform string) {
	c.disconnections.WithLabelValues(platform).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
