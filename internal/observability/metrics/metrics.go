package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "packline_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reportRuns    *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec
	reportRows    *prometheus.CounterVec

	forecastFitFailures prometheus.Counter
)

// Init registers pipeline metrics on the default registry. Safe to call
// more than once.
func Init(logger *log.Logger) {
	registerOnce.Do(func() {
		reportRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_runs_total",
				Help: "Report pipeline runs by report and result",
			},
			[]string{"report", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report pipeline latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report"},
		)
		reportRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_rows_total",
				Help: "Rows written to report sinks by target",
			},
			[]string{"target"},
		)
		forecastFitFailures = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "forecast_fit_failures_total",
				Help: "Forecast model fits that failed",
			},
		)

		prometheus.MustRegister(reportRuns, reportLatency, reportRows, forecastFitFailures)
		if logger != nil {
			logger.Printf("metrics registered with prefix %q", metricPrefix)
		}
	})
}

// ObserveReportRun records one pipeline run.
func ObserveReportRun(report string, err error, elapsed time.Duration) {
	if reportRuns == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	reportRuns.WithLabelValues(report, result).Inc()
	reportLatency.WithLabelValues(report).Observe(elapsed.Seconds())
}

// AddReportRows counts rows written to a sink target.
func AddReportRows(target string, n int) {
	if reportRows == nil || n <= 0 {
		return
	}
	reportRows.WithLabelValues(target).Add(float64(n))
}

// IncForecastFitFailure counts a failed model fit.
func IncForecastFitFailure() {
	if forecastFitFailures == nil {
		return
	}
	forecastFitFailures.Inc()
}
