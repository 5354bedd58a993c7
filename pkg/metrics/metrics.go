package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	// 慢查询计数
	DBSlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"operation"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// 成就写入计数
	AchievementWriteCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievement_write_count",
			Help: "Total number of achievement writes",
		},
		[]string{"operation"}, // create, update, delete
	)

	// 报告访问计数
	ReportViewCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_view_count",
			Help: "Total number of rendered reports",
		},
		[]string{"visibility", "kind"}, // visibility: public/private; kind: report/monthly/export
	)

	// 报告缓存命中
	ReportCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_count",
			Help: "Public report cache lookups",
		},
		[]string{"result"}, // hit, miss, error, skipped
	)

	// Outbox 发布计数
	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_count",
			Help: "Outbox events relayed to the broker",
		},
		[]string{"status"}, // sent, failed
	)
)

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(operation string) {
	DBSlowQueryCount.WithLabelValues(operation).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementAchievementWrite 增加成就写入计数
func IncrementAchievementWrite(operation string) {
	AchievementWriteCount.WithLabelValues(operation).Inc()
}

// IncrementReportView 增加报告访问计数
func IncrementReportView(visibility, kind string) {
	ReportViewCount.WithLabelValues(visibility, kind).Inc()
}

// IncrementReportCache 记录缓存查询结果
func IncrementReportCache(result string) {
	ReportCacheCount.WithLabelValues(result).Inc()
}

// IncrementOutboxPublish 记录 outbox 发布结果
func IncrementOutboxPublish(status string) {
	OutboxPublishCount.WithLabelValues(status).Inc()
}
