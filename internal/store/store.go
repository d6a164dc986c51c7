package store

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"timed-cache/internal/clock"
	"timed-cache/internal/metrics"
	"timed-cache/internal/timedmap"
)

// Options selects the map backend and its sweep cadence.
type Options struct {
	Backend      timedmap.BackendKind
	SweepTickCap int
}

func DefaultOptions() Options {
	return Options{
		Backend:      timedmap.HashBackend,
		SweepTickCap: timedmap.DefaultConfig().SweepTickCap,
	}
}

// Store is a concurrency-safe key-value store with per-key TTLs.
//
// Design principles:
// - A TimedMap does the expiration bookkeeping; Store only adds locking
//   and metrics around it.
// - Reads never remove anything. Expired keys leave either on a checked
//   write (every SweepTickCap sets) or through RemoveExpired.
type Store struct {
	mu      sync.RWMutex
	data    *timedmap.TimedMap[string, string]
	metrics *metrics.Registry
}

// NewStore initializes and returns a new Store.
func NewStore(clk clock.Clock, opts Options, metricsRegistry *metrics.Registry) (*Store, error) {
	cfg := timedmap.Config{SweepTickCap: opts.SweepTickCap}

	var data *timedmap.TimedMap[string, string]
	switch opts.Backend {
	case timedmap.HashBackend, "":
		data = timedmap.New[string, string](clk, cfg)
	case timedmap.OrderedBackend:
		data = timedmap.NewOrdered[string, string](clk, cfg)
	default:
		return nil, errors.Errorf("unknown backend %q", opts.Backend)
	}

	return &Store{
		data:    data,
		metrics: metricsRegistry,
	}, nil
}

// Set inserts or replaces a key.
//
// Rules:
// - ttl <= 0 stores a constant entry.
// - Otherwise the entry expires ttl (whole seconds) from now.
func (s *Store) Set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Inc(metrics.CacheSetsTotal)

	before := s.data.LenUnchecked()
	var replaced bool
	if ttl > 0 {
		_, replaced = s.data.InsertExpirable(key, value, ttl)
	} else {
		_, replaced = s.data.InsertConstant(key, value)
	}
	after := s.data.LenUnchecked()

	// Anything beyond the inserted key that disappeared was swept.
	swept := before - after
	if !replaced {
		swept++
	}
	if swept > 0 {
		s.metrics.Add(metrics.CacheExpiredTotal, int64(swept))
	}
	s.metrics.Set(metrics.CacheKeysTotal, int64(after))
}

// Get retrieves a value from the store.
//
// Behavior:
// - Returns (value, true) if key exists and is not expired
// - Expired keys read as missing but are not removed here
func (s *Store) Get(key string) (string, bool) {
	s.metrics.Inc(metrics.CacheGetsTotal)

	s.mu.RLock()
	value, ok := s.data.Get(key)
	s.mu.RUnlock()

	if !ok {
		s.metrics.Inc(metrics.CacheMissesTotal)
		return "", false
	}
	return value, true
}

// TTL reports the time left on key. expirable is false for constant keys;
// found is false for missing or expired keys.
func (s *Store) TTL(key string) (remaining time.Duration, expirable, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, remaining, found := s.data.GetLifetime(key)
	if !found {
		return 0, false, false
	}
	return remaining, !status.IsConstant(), true
}

// Expire moves the deadline of a live key to ttl from now.
func (s *Store) Expire(key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.data.ContainsKey(key) {
		return errors.Wrapf(timedmap.ErrEntryNotFound, "expire key %q", key)
	}
	if _, err := s.data.UpdateExpirationStatus(key, ttl); err != nil {
		return errors.Wrapf(err, "expire key %q", key)
	}
	s.metrics.Inc(metrics.CacheTTLUpdatesTotal)
	return nil
}

// Delete removes a key from the store. It reports whether a live value
// was removed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data.Remove(key)
	if ok {
		s.metrics.Inc(metrics.CacheDeletesTotal)
	}
	s.metrics.Set(metrics.CacheKeysTotal, int64(s.data.LenUnchecked()))
	return ok
}

// List returns a snapshot of all non-expired entries.
// Used by admin APIs.
func (s *Store) List() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Entry, s.data.LenUnchecked())
	for k, v := range s.data.All() {
		status, _ := s.data.GetStatus(k)
		result[k] = newEntry(v, status)
	}
	return result
}

// Keys returns the live keys. They are sorted when the store runs on the
// ordered backend.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.Keys()
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.Len()
}

// RemoveExpired sweeps every expired key out of the store.
//
// This is used by the background TTL cleaner and the admin sweep API.
func (s *Store) RemoveExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.data.DropExpiredEntries()

	s.metrics.Inc(metrics.SweepRunsTotal)
	if removed > 0 {
		s.metrics.Add(metrics.CacheExpiredTotal, int64(removed))
	}
	s.metrics.Set(metrics.CacheKeysTotal, int64(s.data.LenUnchecked()))

	return removed
}

// Stats returns the map bookkeeping counters.
func (s *Store) Stats() timedmap.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.Stats()
}

// Buckets describes the pending expirations, earliest first.
func (s *Store) Buckets() []timedmap.BucketInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.Buckets()
}

// Clear drops every key.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Clear()
	s.metrics.Set(metrics.CacheKeysTotal, 0)
}
