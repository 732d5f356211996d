package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// Recorder 배치 실행 메트릭
// ⭐ SSOT: prometheus 메트릭 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	items    *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_batch_items_total",
				Help: "Items handled by batch jobs by outcome (processed, updated, skipped, errors)",
			},
			[]string{"job", "outcome"},
		),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_batch_runs_total",
				Help: "Batch job runs by result (success, failure)",
			},
			[]string{"job", "result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aegis_batch_duration_seconds",
				Help:    "Batch job wall-clock duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"job"},
		),
	}

	r.registry.MustRegister(
		r.items,
		r.runs,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe 배치 한 번의 결과 기록
func (r *Recorder) Observe(job string, summary contracts.BatchSummary, err error, elapsed time.Duration) {
	r.items.WithLabelValues(job, "processed").Add(float64(summary.Processed))
	r.items.WithLabelValues(job, "updated").Add(float64(summary.Updated))
	r.items.WithLabelValues(job, "skipped").Add(float64(summary.Skipped))
	r.items.WithLabelValues(job, "errors").Add(float64(summary.Errors))

	result := "success"
	if err != nil {
		result = "failure"
	}
	r.runs.WithLabelValues(job, result).Inc()
	r.duration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// Handler /metrics 핸들러
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry 테스트/추가 수집기 등록용
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
