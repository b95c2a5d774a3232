package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// PaginationPasses 按结果统计分页次数：paginated、fallback、canceled。
	PaginationPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumepager",
			Subsystem: "pagination",
			Name:      "passes_total",
			Help:      "分页计算次数，按结果区分。",
		},
		[]string{"outcome"},
	)

	// PreviewSuperseded 统计被更新编辑超越而丢弃的预览结果。
	PreviewSuperseded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resumepager",
			Subsystem: "preview",
			Name:      "superseded_total",
			Help:      "被后续编辑超越而丢弃的分页结果数量。",
		},
	)

	// PagesPerResume 记录每次提交的布局页数。
	PagesPerResume = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resumepager",
			Subsystem: "pagination",
			Name:      "pages",
			Help:      "分页结果的页数分布。",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
	)

	// ExportDuration 记录一次 PDF 导出的耗时（秒）。
	ExportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resumepager",
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "PDF 导出耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(PaginationPasses, PreviewSuperseded, PagesPerResume, ExportDuration)
}
