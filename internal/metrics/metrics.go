// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess    prometheus.Counter
	loginFail       prometheus.Counter
	tokensIssued    prometheus.Counter
	upstreamLatency *prometheus.HistogramVec
	chatCompletions *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "joyapi_login_success_total",
			Help: "Googleログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "joyapi_login_fail_total",
			Help: "Googleログイン失敗の合計数",
		}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "joyapi_tokens_issued_total",
			Help: "発行されたAccess Tokenの合計数",
		}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "joyapi_upstream_latency_seconds",
			Help:    "外部API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),
		chatCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "joyapi_chat_completions_total",
			Help: "チャット補完リクエストの合計数（結果別）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.tokensIssued,
		c.upstreamLatency,
		c.chatCompletions,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordTokenIssued はAccess Tokenの発行を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordUpstreamLatency は外部API呼び出しのレイテンシを対象別に記録する。
func (c *Collector) RecordUpstreamLatency(target string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(target).Observe(duration.Seconds())
}

// RecordChatCompletion はチャット補完の結果（success/failure）を記録する。
func (c *Collector) RecordChatCompletion(result string) {
	c.chatCompletions.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
