package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authstore"

// Read results.
const (
	ReadHit   = "hit"
	ReadMiss  = "miss"
	ReadError = "error"
)

// Write results.
const (
	WriteOK        = "ok"
	WriteDuplicate = "skipped_duplicate"
	WriteDisabled  = "skipped_disabled"
	WriteFailed    = "failed"
)

// Migration results.
const (
	MigrationMigrated    = "migrated"
	MigrationAbsent      = "absent"
	MigrationWriteFailed = "write_failed"
	MigrationReadFailed  = "read_failed"
	MigrationSuperseded  = "superseded"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	Reads          *prometheus.CounterVec
	Writes         *prometheus.CounterVec
	Removes        *prometheus.CounterVec
	Coalesced      prometheus.Counter
	Migrations     *prometheus.CounterVec
	DisabledKeys   prometheus.Gauge
	FallbackActive prometheus.Gauge
	ValueBytes     prometheus.Histogram

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all authstore metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		Reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads_total",
			Help:      "Storage reads by backend and result",
		}, []string{"backend", "result"}),

		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Storage writes by backend and result",
		}, []string{"backend", "result"}),

		Removes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removes_total",
			Help:      "Per-store delete attempts by store and result",
		}, []string{"store", "result"}),

		Coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads_coalesced_total",
			Help:      "Reads that joined an in-flight read for the same key",
		}),

		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_migrations_total",
			Help:      "Legacy migration attempts by result",
		}, []string{"result"}),

		DisabledKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "persistence_disabled_keys",
			Help:      "Keys whose writes are skipped after a persistence failure",
		}),

		FallbackActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "secure_fallback_active",
			Help:      "1 when the secure-store fallback replaced the encrypted store",
		}),

		ValueBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "value_size_bytes",
			Help:      "Size of persisted values after compaction",
			Buckets:   []float64{256, 512, 1024, 2048, 4096, 8192},
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "requests_total",
			Help:      "Agent requests by method and status code",
		}, []string{"method", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "request_duration_seconds",
			Help:      "Agent request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.registry.MustRegister(
		r.Reads, r.Writes, r.Removes, r.Coalesced, r.Migrations,
		r.DisabledKeys, r.FallbackActive, r.ValueBytes,
		r.RequestsTotal, r.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}

// Registerer exposes the underlying registry for components that register
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler returns the /metrics handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRead counts a read served by backend.
func (r *Registry) RecordRead(backend, result string) {
	if r == nil {
		return
	}
	r.Reads.WithLabelValues(backend, result).Inc()
}

// RecordWrite counts a write decision for backend.
func (r *Registry) RecordWrite(backend, result string) {
	if r == nil {
		return
	}
	r.Writes.WithLabelValues(backend, result).Inc()
}

// RecordRemove counts a delete attempt against one store.
func (r *Registry) RecordRemove(store string, ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.Removes.WithLabelValues(store, result).Inc()
}

// IncCoalesced counts a read that shared another caller's result.
func (r *Registry) IncCoalesced() {
	if r == nil {
		return
	}
	r.Coalesced.Inc()
}

// RecordMigration counts a legacy migration attempt.
func (r *Registry) RecordMigration(result string) {
	if r == nil {
		return
	}
	r.Migrations.WithLabelValues(result).Inc()
}

// SetDisabledKeys reports the size of the persistence-disabled set.
func (r *Registry) SetDisabledKeys(n int) {
	if r == nil {
		return
	}
	r.DisabledKeys.Set(float64(n))
}

// SetFallbackActive reports whether the secure-store fallback is in use.
func (r *Registry) SetFallbackActive(active bool) {
	if r == nil {
		return
	}
	if active {
		r.FallbackActive.Set(1)
	} else {
		r.FallbackActive.Set(0)
	}
}

// ObserveValueSize records the byte length of a persisted value.
func (r *Registry) ObserveValueSize(n int) {
	if r == nil {
		return
	}
	r.ValueBytes.Observe(float64(n))
}

// RecordRequest counts an agent request.
func (r *Registry) RecordRequest(method, status string) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, status).Inc()
}

// ObserveRequestDuration records agent request latency.
func (r *Registry) ObserveRequestDuration(method string, seconds float64) {
	if r == nil {
		return
	}
	r.RequestDuration.WithLabelValues(method).Observe(seconds)
}
