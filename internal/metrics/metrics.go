package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Cache
	CacheKeysTotal       MetricKey = "cache_keys_total"
	CacheSetsTotal       MetricKey = "cache_sets_total"
	CacheGetsTotal       MetricKey = "cache_gets_total"
	CacheMissesTotal     MetricKey = "cache_misses_total"
	CacheDeletesTotal    MetricKey = "cache_deletes_total"
	CacheExpiredTotal    MetricKey = "cache_expired_total"
	CacheTTLUpdatesTotal MetricKey = "cache_ttl_updates_total"

	// Sweeps
	SweepRunsTotal MetricKey = "sweep_runs_total"

	// TTL cleaner
	TTLCleanupRunsTotal MetricKey = "ttl_cleanup_runs_total"
	TTLKeysRemovedTotal MetricKey = "ttl_keys_removed_total"

	// HTTP
	HTTPRequestsTotal MetricKey = "http_requests_total"
	HTTPPanicsTotal   MetricKey = "http_panics_total"
)

const namespace = "timedcache"

// Registry stores all metrics.
//
// Every key is also exported to Prometheus as a gauge reading the same
// counter, so Snapshot and the scrape endpoint always agree.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
	prom     *prometheus.Registry
	// rejected holds keys Prometheus refused, with the reason.
	rejected map[MetricKey]error
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	prom := prometheus.NewRegistry()
	prom.MustRegister(collectors.NewGoCollector())

	return &Registry{
		counters: make(map[MetricKey]*int64),
		prom:     prom,
		rejected: make(map[MetricKey]error),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	atomic.AddInt64(r.counter(key), delta)
}

// Set overwrites a metric, for values that are sampled rather than counted.
func (r *Registry) Set(key MetricKey, value int64) {
	atomic.StoreInt64(r.counter(key), value)
}

func (r *Registry) counter(key MetricKey) *int64 {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		return ptr
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		return ptr
	}

	ptr = new(int64)
	r.counters[key] = ptr
	r.export(key, ptr)
	return ptr
}

// export registers a gauge for key. Names Prometheus rejects stay
// available through Snapshot only and are reported by ExportError.
// Callers hold r.mu.
func (r *Registry) export(key MetricKey, ptr *int64) {
	gauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      string(key),
			Help:      "timed-cache metric " + string(key),
		},
		func() float64 { return float64(atomic.LoadInt64(ptr)) },
	)
	if err := r.prom.Register(gauge); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return
		}
		r.rejected[key] = errors.Wrapf(err, "export metric %q", key)
	}
}

// ExportError returns why key is missing from the Prometheus endpoint, or
// nil if it is exported or was never recorded.
func (r *Registry) ExportError(key MetricKey) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.rejected[key]
}

// Handler serves the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}
