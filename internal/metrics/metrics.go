// Package metrics exposes Prometheus collectors for the attention
// benchmark harness.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	KernelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attention_kernel_duration_seconds",
		Help:    "Histogram of attention kernel execution times",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	Throughput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "attention_throughput_tflops",
		Help: "Achieved throughput of the last run, in TFLOPS",
	}, []string{"strategy"})

	Bandwidth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "attention_bandwidth_gbps",
		Help: "Achieved memory bandwidth of the last run, in GB/s",
	}, []string{"strategy"})

	AllocatedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bench_allocated_bytes",
		Help: "Bytes currently allocated for benchmark buffers",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_runs_total",
		Help: "Total completed benchmark runs",
	}, []string{"strategy"})

	VerificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_failures_total",
		Help: "Total self-test mismatches against the reference strategy",
	}, []string{"strategy"})
)

// RecordRun records one completed, timed invocation.
func RecordRun(strategy string, d time.Duration, tflops, gbps float64) {
	KernelDuration.WithLabelValues(strategy).Observe(d.Seconds())
	Throughput.WithLabelValues(strategy).Set(tflops)
	Bandwidth.WithLabelValues(strategy).Set(gbps)
	RunsTotal.WithLabelValues(strategy).Inc()
}

// RecordAllocation tracks the benchmark buffer footprint.
func RecordAllocation(bytes int64) {
	AllocatedBytes.Set(float64(bytes))
}

// RecordVerificationFailure counts a self-test mismatch.
func RecordVerificationFailure(strategy string) {
	VerificationFailures.WithLabelValues(strategy).Inc()
}
