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
// ハンドラー・ワーカー・サービス層から利用する。
type MetricsCollector interface {
	RecordPlanGenerated(source string)
	RecordAICallLatency(duration time.Duration)
	RecordDocumentUploaded(extension string)
	RecordExtractionFailure()
	RecordAnalysisCompleted(score float64)
	RecordExport(format string)
	RecordHTTPRequest(status int)
	RecordFeedIngestSuccess()
	RecordFeedIngestFailure()
	RecordFeedIngestLatency(duration time.Duration)
	RecordSourcesUpserted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	plansGenerated    *prometheus.CounterVec
	aiCallLatency     prometheus.Histogram
	documentsUploaded *prometheus.CounterVec
	extractionFail    prometheus.Counter
	analysisScore     prometheus.Histogram
	exports           *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	ingestSuccess     prometheus.Counter
	ingestFail        prometheus.Counter
	ingestLatency     prometheus.Histogram
	sourcesUpserted   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		plansGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalhub_plans_generated_total",
			Help: "生成された事業計画書の合計数（生成元別）",
		}, []string{"source"}),
		aiCallLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "proposalhub_ai_call_latency_seconds",
			Help:    "外部AIプランナー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		documentsUploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalhub_documents_uploaded_total",
			Help: "アップロードされた文書の合計数（拡張子別）",
		}, []string{"extension"}),
		extractionFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposalhub_extraction_fail_total",
			Help: "テキスト抽出失敗の合計数",
		}),
		analysisScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "proposalhub_analysis_score",
			Help:    "提案書分析スコアの分布",
			Buckets: prometheus.LinearBuckets(0, 12.5, 9),
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalhub_exports_total",
			Help: "エクスポートされた提案書の合計数（形式別）",
		}, []string{"format"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalhub_http_requests_total",
			Help: "処理されたHTTPリクエストの合計数（ステータスコード別）",
		}, []string{"status"}),
		ingestSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposalhub_feed_ingest_success_total",
			Help: "資金調達フィード取り込み成功の合計数",
		}),
		ingestFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposalhub_feed_ingest_fail_total",
			Help: "資金調達フィード取り込み失敗の合計数",
		}),
		ingestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "proposalhub_feed_ingest_latency_seconds",
			Help:    "資金調達フィード取り込みのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sourcesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposalhub_funding_sources_upserted_total",
			Help: "アップサートされた資金提供元の合計数",
		}),
	}

	reg.MustRegister(
		c.plansGenerated,
		c.aiCallLatency,
		c.documentsUploaded,
		c.extractionFail,
		c.analysisScore,
		c.exports,
		c.httpRequests,
		c.ingestSuccess,
		c.ingestFail,
		c.ingestLatency,
		c.sourcesUpserted,
	)

	return c
}

// RecordPlanGenerated は計画生成を記録する。sourceは"ai"または"template"。
func (c *Collector) RecordPlanGenerated(source string) {
	c.plansGenerated.WithLabelValues(source).Inc()
}

// RecordAICallLatency は外部AIプランナー呼び出しのレイテンシを記録する。
func (c *Collector) RecordAICallLatency(duration time.Duration) {
	c.aiCallLatency.Observe(duration.Seconds())
}

// RecordDocumentUploaded は文書アップロードを記録する。
func (c *Collector) RecordDocumentUploaded(extension string) {
	c.documentsUploaded.WithLabelValues(extension).Inc()
}

// RecordExtractionFailure はテキスト抽出失敗を記録する。
func (c *Collector) RecordExtractionFailure() {
	c.extractionFail.Inc()
}

// RecordAnalysisCompleted は分析完了とスコアを記録する。
func (c *Collector) RecordAnalysisCompleted(score float64) {
	c.analysisScore.Observe(score)
}

// RecordExport はエクスポートを記録する。formatは"pdf"または"html"。
func (c *Collector) RecordExport(format string) {
	c.exports.WithLabelValues(format).Inc()
}

// RecordHTTPRequest はHTTPリクエストの完了をステータスコード別に記録する。
func (c *Collector) RecordHTTPRequest(status int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RecordFeedIngestSuccess はフィード取り込み成功を記録する。
func (c *Collector) RecordFeedIngestSuccess() {
	c.ingestSuccess.Inc()
}

// RecordFeedIngestFailure はフィード取り込み失敗を記録する。
func (c *Collector) RecordFeedIngestFailure() {
	c.ingestFail.Inc()
}

// RecordFeedIngestLatency はフィード取り込みのレイテンシを記録する。
func (c *Collector) RecordFeedIngestLatency(duration time.Duration) {
	c.ingestLatency.Observe(duration.Seconds())
}

// RecordSourcesUpserted はアップサートされた資金提供元数を記録する。
func (c *Collector) RecordSourcesUpserted(count int) {
	c.sourcesUpserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
