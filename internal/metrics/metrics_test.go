package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IncAndAdd(t *testing.T) {
	r := NewRegistry()

	r.Inc(CacheSetsTotal)
	r.Add(CacheSetsTotal, 2)

	snap := r.Snapshot()
	assert.Equal(t, int64(3), snap[string(CacheSetsTotal)])
}

func TestRegistry_Set(t *testing.T) {
	r := NewRegistry()

	r.Set(CacheKeysTotal, 10)
	r.Set(CacheKeysTotal, 4)

	assert.Equal(t, int64(4), r.Snapshot()[string(CacheKeysTotal)])
}

func TestRegistry_MultipleMetrics(t *testing.T) {
	r := NewRegistry()

	r.Inc(CacheGetsTotal)
	r.Inc(CacheMissesTotal)
	r.Add(TTLKeysRemovedTotal, 5)

	snap := r.Snapshot()

	assert.Equal(t, int64(1), snap[string(CacheGetsTotal)])
	assert.Equal(t, int64(1), snap[string(CacheMissesTotal)])
	assert.Equal(t, int64(5), snap[string(TTLKeysRemovedTotal)])
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	r := NewRegistry()
	wg := sync.WaitGroup{}

	workers := 50
	increments := 100

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				r.Inc(SweepRunsTotal)
			}
		}()
	}

	wg.Wait()

	snap := r.Snapshot()
	assert.Equal(t, int64(workers*increments), snap[string(SweepRunsTotal)])
}

func TestRegistry_SnapshotIsDeepCopy(t *testing.T) {
	r := NewRegistry()

	r.Inc(CacheKeysTotal)
	snap1 := r.Snapshot()

	// Mutate snapshot
	snap1[string(CacheKeysTotal)] = 999

	// Fetch fresh snapshot
	snap2 := r.Snapshot()

	assert.Equal(t, int64(1), snap2[string(CacheKeysTotal)],
		"internal state should not be affected by snapshot mutation")
}

func TestRegistry_UnknownMetricHandledGracefully(t *testing.T) {
	r := NewRegistry()

	r.Inc("unknown_metric")
	r.Inc("not a valid prometheus name")

	snap := r.Snapshot()
	assert.Equal(t, int64(1), snap["unknown_metric"])
	assert.Equal(t, int64(1), snap["not a valid prometheus name"])

	assert.NoError(t, r.ExportError("unknown_metric"))

	// Invalid UTF-8 is rejected under every name validation scheme.
	r.Inc("bad\xffname")
	assert.Equal(t, int64(1), r.Value("bad\xffname"))
	err := r.ExportError("bad\xffname")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export metric")
	assert.NoError(t, r.ExportError(CacheSetsTotal), "never recorded")
}

func TestRegistry_PrometheusHandler(t *testing.T) {
	r := NewRegistry()
	r.Add(CacheSetsTotal, 3)
	r.Set(CacheKeysTotal, 2)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "timedcache_cache_sets_total 3")
	assert.Contains(t, string(body), "timedcache_cache_keys_total 2")
	assert.Contains(t, string(body), "go_goroutines")
}
