package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesTotal tracks batch runs started
	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayer_batches_total",
			Help: "Total number of batch runs started",
		},
	)

	// ItemsTotal tracks items by terminal result
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayer_items_total",
			Help: "Total number of batch items by terminal result",
		},
		[]string{"result"},
	)

	// SubmitAttempts tracks individual submission attempts, retries included
	SubmitAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayer_submit_attempts_total",
			Help: "Total number of transaction submission attempts",
		},
	)

	// SubmitLatency tracks submission latency including confirmation polling
	SubmitLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relayer_submit_latency_seconds",
			Help:    "Transaction submission latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AnchorRefreshes tracks re-anchoring by trigger (acceptance or retry)
	AnchorRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayer_anchor_refreshes_total",
			Help: "Total number of anchor refreshes by trigger",
		},
		[]string{"trigger"},
	)

	// ReSignedTransactions tracks transactions rebuilt and re-signed
	ReSignedTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relayer_resigned_transactions_total",
			Help: "Total number of transactions rebuilt and re-signed after anchor drift",
		},
	)

	// QueueDepth tracks pending batches in the redis queue
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relayer_queue_depth",
			Help: "Number of batches waiting in the submission queue",
		},
	)

	// RPCCallsTotal tracks RPC calls by method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayer_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"method"},
	)

	// RPCErrorsTotal tracks RPC errors by method
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayer_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"method"},
	)

	// DBConnectionPoolUsage tracks postgres pool utilization
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relayer_db_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)
)
