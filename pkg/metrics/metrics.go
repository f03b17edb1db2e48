package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RegistryOps counts User Registry operations by kind and outcome.
	RegistryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultkv_registry_ops_total",
			Help: "Total number of user registry operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// RecordOps counts Record Store operations by kind and outcome.
	RecordOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultkv_record_ops_total",
			Help: "Total number of record store operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// NonceChecksTotal counts nonce ledger admission checks by outcome
	// (accepted, replayed, storage_failure).
	NonceChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultkv_nonce_checks_total",
			Help: "Total number of nonce ledger admission checks by outcome",
		},
		[]string{"outcome"},
	)

	// NoncePurgedTotal counts nonces removed by any purge, whether the
	// on-access sampling purge or an explicit ClearOldNonces call.
	NoncePurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vaultkv_nonce_purged_total",
			Help: "Total number of expired nonces removed by purges",
		},
	)

	// FacadeOpDuration times end-to-end facade calls by operation.
	FacadeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultkv_facade_op_duration_seconds",
			Help:    "Facade operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// StorageTxnDuration is a histogram for storage transaction duration,
	// labeled by writability and outcome. It is registered and exported,
	// but no package in this module records observations into it.
	StorageTxnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultkv_storage_txn_duration_seconds",
			Help:    "Storage transaction duration in seconds, from begin to commit or rollback",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"writable", "outcome"},
	)

	// UsersTotal reports registrations minus deletions made by this
	// process. It starts at zero and is not seeded from users already on
	// disk. It is a gauge rather than a derived counter because
	// registration and deletion both mutate it and neither should be
	// double-counted.
	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vaultkv_users_total",
			Help: "Current number of registered users",
		},
	)
)

func init() {
	prometheus.MustRegister(RegistryOps)
	prometheus.MustRegister(RecordOps)
	prometheus.MustRegister(NonceChecksTotal)
	prometheus.MustRegister(NoncePurgedTotal)
	prometheus.MustRegister(FacadeOpDuration)
	prometheus.MustRegister(StorageTxnDuration)
	prometheus.MustRegister(UsersTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
