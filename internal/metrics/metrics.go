// Package metrics defines the Prometheus collectors shared by the Nexus
// and Worker processes, following the package-level CounterVec/GaugeVec/
// HistogramVec convention of ingestion/evm/rpc/metrics/metrics.go.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Pass1RequestsTotal counts POST /pass1 requests by outcome.
	Pass1RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttpedia_nexus_pass1_requests_total",
			Help: "Total /pass1 requests handled by the Nexus",
		},
		[]string{"status"},
	)

	// Pass1Duration times the full pass1 handler, asset-state lock held
	// for the merge-and-response portion.
	Pass1Duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ttpedia_nexus_pass1_duration_seconds",
			Help:    "Duration of /pass1 handling",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// CurrentSeqnum is the Nexus's current acknowledged asset-generation
	// sequence number (cur_seqnum).
	CurrentSeqnum = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ttpedia_nexus_current_seqnum",
			Help: "Highest acknowledged asset-generation sequence number",
		},
	)

	// AssetsUploadedTotal counts /assets_uploaded calls by whether they
	// were accepted (seq_num > cur_seqnum) or discarded as stale.
	AssetsUploadedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttpedia_nexus_assets_uploaded_total",
			Help: "Total /assets_uploaded calls by outcome",
		},
		[]string{"outcome"},
	)

	// CompileJobsTotal counts jobs processed by a Worker by outcome.
	CompileJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttpedia_worker_compile_jobs_total",
			Help: "Total compile jobs processed by outcome",
		},
		[]string{"outcome"},
	)

	// CompileDuration times a worker slot's full pipeline (pass1, Nexus
	// round-trip, pass2, upload).
	CompileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ttpedia_worker_compile_duration_seconds",
			Help:    "Duration of a full compile pipeline run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// EngineBusySeconds accumulates the time worker slots spend in
	// texengine.Runner.Run, both waiting for the per-process TeX-engine
	// mutex and holding it, surfacing contention across worker slots.
	EngineBusySeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ttpedia_worker_engine_busy_seconds_total",
			Help: "Cumulative time worker slots spent waiting for or holding the process-wide TeX engine mutex",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Pass1RequestsTotal,
		Pass1Duration,
		CurrentSeqnum,
		AssetsUploadedTotal,
		CompileJobsTotal,
		CompileDuration,
		EngineBusySeconds,
	)
}
