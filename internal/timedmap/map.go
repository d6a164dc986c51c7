package timedmap

import (
	"cmp"
	"iter"
	"time"

	"timed-cache/internal/clock"
)

// Config controls how a TimedMap cleans up after itself.
type Config struct {
	// SweepTickCap is the number of checked inserts between automatic
	// sweeps. 1 sweeps on every checked insert. Values below 1 are treated
	// as 1.
	SweepTickCap int
}

// DefaultConfig sweeps on every checked insert.
func DefaultConfig() Config {
	return Config{SweepTickCap: 1}
}

// TimedMap is a key-value map whose entries are either constant or expire
// at a fixed second.
//
// Design:
//   - Entries live in a Backend; expirable keys are also registered in an
//     expiry index ordered by deadline.
//   - Reads compare an entry's deadline with the clock and never touch the
//     index. Expired entries are invisible but stay stored until a sweep.
//   - Checked inserts sweep the index every SweepTickCap calls. Unchecked
//     inserts leave that to DropExpiredEntries.
//
// TimedMap is not safe for concurrent use; wrap it in a mutex.
type TimedMap[K comparable, V any] struct {
	clock    clock.Clock
	store    Backend[K, *entry[V]]
	expiries *expiryIndex[K]
	tickCap  int
	ticks    int
}

// New creates an empty TimedMap on a hash backend.
func New[K comparable, V any](clk clock.Clock, cfg Config) *TimedMap[K, V] {
	return newTimedMap[K, V](clk, cfg, NewHashBackend[K, *entry[V]]())
}

// NewOrdered creates an empty TimedMap on a B-tree backend. Keys and All
// then yield keys in ascending order.
func NewOrdered[K cmp.Ordered, V any](clk clock.Clock, cfg Config) *TimedMap[K, V] {
	return newTimedMap[K, V](clk, cfg, NewTreeBackend[K, *entry[V]]())
}

func newTimedMap[K comparable, V any](clk clock.Clock, cfg Config, store Backend[K, *entry[V]]) *TimedMap[K, V] {
	if clk == nil {
		clk = clock.System{}
	}
	tickCap := cfg.SweepTickCap
	if tickCap < 1 {
		tickCap = 1
	}
	return &TimedMap[K, V]{
		clock:    clk,
		store:    store,
		expiries: newExpiryIndex[K](),
		tickCap:  tickCap,
	}
}

func (m *TimedMap[K, V]) now() uint64 {
	return m.clock.NowSeconds()
}

// live returns the entry for key if it exists and has not expired.
func (m *TimedMap[K, V]) live(key K) (*entry[V], bool) {
	e, ok := m.store.Get(key)
	if !ok || e.isExpired(m.now()) {
		return nil, false
	}
	return e, true
}

/* ---------------- reads ---------------- */

// Get returns the value for key if present and not expired.
func (m *TimedMap[K, V]) Get(key K) (V, bool) {
	e, ok := m.live(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetMut returns a pointer to the stored value if present and not expired.
// The pointer is valid until the entry is removed or swept.
func (m *TimedMap[K, V]) GetMut(key K) (*V, bool) {
	e, ok := m.live(key)
	if !ok {
		return nil, false
	}
	return &e.value, true
}

// GetUnchecked returns the stored value whether or not it has expired.
func (m *TimedMap[K, V]) GetUnchecked(key K) (V, bool) {
	e, ok := m.store.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetMutUnchecked is GetMut without the expiration filter.
func (m *TimedMap[K, V]) GetMutUnchecked(key K) (*V, bool) {
	e, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	return &e.value, true
}

// GetRemainingDuration returns the time left for an expirable entry.
// It returns false when the key is absent, expired or constant.
func (m *TimedMap[K, V]) GetRemainingDuration(key K) (time.Duration, bool) {
	now := m.now()
	e, ok := m.store.Get(key)
	if !ok || e.isExpired(now) {
		return 0, false
	}
	return e.status.Remaining(now)
}

// GetLifetime returns the status of a live entry and the time it has left,
// both taken against a single clock reading. remaining is zero for
// constant entries.
func (m *TimedMap[K, V]) GetLifetime(key K) (status EntryStatus, remaining time.Duration, ok bool) {
	now := m.now()
	e, found := m.store.Get(key)
	if !found || e.isExpired(now) {
		return EntryStatus{}, 0, false
	}
	remaining, _ = e.status.Remaining(now)
	return e.status, remaining, true
}

// GetStatus returns the expiration status of a live entry.
func (m *TimedMap[K, V]) GetStatus(key K) (EntryStatus, bool) {
	e, ok := m.live(key)
	if !ok {
		return EntryStatus{}, false
	}
	return e.status, true
}

// ContainsKey reports whether key is present and not expired.
func (m *TimedMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.live(key)
	return ok
}

/* ---------------- writes ---------------- */

// insert installs value under key with the given status. A colliding entry
// is updated in place: its old index membership is retired before the new
// one is registered. The replaced value is returned even if it had expired.
func (m *TimedMap[K, V]) insert(key K, value V, status EntryStatus) (V, bool) {
	if e, ok := m.store.Get(key); ok {
		prev := e.value
		m.expiries.unregisterStatus(e.status, key)
		e.value = value
		e.updateStatus(status)
		m.expiries.registerStatus(status, key)
		return prev, true
	}

	m.store.Insert(key, newEntry(value, status))
	m.expiries.registerStatus(status, key)

	var zero V
	return zero, false
}

func (m *TimedMap[K, V]) expirable(d time.Duration) EntryStatus {
	return ExpiresAt(ExpiresAtFrom(m.now(), d))
}

// tick counts a checked insert and sweeps once the cap is reached.
func (m *TimedMap[K, V]) tick() {
	m.ticks++
	if m.ticks >= m.tickCap {
		m.ticks = 0
		m.DropExpiredEntries()
	}
}

// InsertExpirable stores value under key until now+d and returns the value
// it replaced. Counts towards the automatic sweep.
func (m *TimedMap[K, V]) InsertExpirable(key K, value V, d time.Duration) (V, bool) {
	prev, ok := m.insert(key, value, m.expirable(d))
	m.tick()
	return prev, ok
}

// InsertConstant stores a non-expiring value under key and returns the
// value it replaced. Counts towards the automatic sweep.
func (m *TimedMap[K, V]) InsertConstant(key K, value V) (V, bool) {
	prev, ok := m.insert(key, value, Constant())
	m.tick()
	return prev, ok
}

// InsertExpirableUnchecked is InsertExpirable without the automatic sweep.
// Callers must run DropExpiredEntries themselves.
func (m *TimedMap[K, V]) InsertExpirableUnchecked(key K, value V, d time.Duration) (V, bool) {
	return m.insert(key, value, m.expirable(d))
}

// InsertConstantUnchecked is InsertConstant without the automatic sweep.
func (m *TimedMap[K, V]) InsertConstantUnchecked(key K, value V) (V, bool) {
	return m.insert(key, value, Constant())
}

// Remove deletes key and returns its value only if it had not expired.
// The entry is removed either way.
func (m *TimedMap[K, V]) Remove(key K) (V, bool) {
	e, ok := m.remove(key)
	if !ok || e.isExpired(m.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// RemoveUnchecked deletes key and returns its value regardless of expiry.
func (m *TimedMap[K, V]) RemoveUnchecked(key K) (V, bool) {
	e, ok := m.remove(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *TimedMap[K, V]) remove(key K) (*entry[V], bool) {
	e, ok := m.store.Remove(key)
	if !ok {
		return nil, false
	}
	m.expiries.unregisterStatus(e.status, key)
	return e, true
}

// UpdateExpirationStatus moves key's deadline to now+d and returns the
// status it had before. A stored entry is updated even if it has already
// expired but was not swept yet. Returns ErrEntryNotFound, with nothing
// changed, when key is not stored.
func (m *TimedMap[K, V]) UpdateExpirationStatus(key K, d time.Duration) (EntryStatus, error) {
	e, ok := m.store.Get(key)
	if !ok {
		return EntryStatus{}, ErrEntryNotFound
	}
	prev := e.status
	next := m.expirable(d)

	m.expiries.unregisterStatus(prev, key)
	e.updateStatus(next)
	m.expiries.registerStatus(next, key)

	return prev, nil
}

// DropExpiredEntries removes every expired entry and returns how many
// were removed. Only the expired front of the index is visited.
func (m *TimedMap[K, V]) DropExpiredEntries() int {
	return m.expiries.sweep(m.now(), func(key K) {
		m.store.Remove(key)
	})
}

/* ---------------- bookkeeping ---------------- */

// Len returns the number of entries that have not expired.
func (m *TimedMap[K, V]) Len() int {
	return m.store.Len() - m.LenExpired()
}

// LenExpired returns the number of expired entries still stored.
func (m *TimedMap[K, V]) LenExpired() int {
	return m.expiries.expiredCount(m.now())
}

// LenUnchecked returns the number of stored entries, expired or not.
func (m *TimedMap[K, V]) LenUnchecked() int {
	return m.store.Len()
}

// IsEmpty reports whether there are no live entries.
func (m *TimedMap[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// Keys returns the keys of live entries.
func (m *TimedMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.store.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over live entries. The map must not be modified during
// iteration.
func (m *TimedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		now := m.now()
		m.store.Range(func(key K, e *entry[V]) bool {
			if e.isExpired(now) {
				return true
			}
			return yield(key, e.value)
		})
	}
}

// Clear removes every entry and resets the sweep counter.
func (m *TimedMap[K, V]) Clear() {
	m.store.Clear()
	m.expiries.clear()
	m.ticks = 0
}

// Stats is a point-in-time view of the map's bookkeeping.
type Stats struct {
	Live            int `json:"live"`
	Expired         int `json:"expired"`
	Stored          int `json:"stored"`
	Indexed         int `json:"indexed"`
	Buckets         int `json:"buckets"`
	TicksUntilSweep int `json:"ticks_until_sweep"`
}

// Stats returns the current counts.
func (m *TimedMap[K, V]) Stats() Stats {
	expired := m.LenExpired()
	stored := m.store.Len()
	return Stats{
		Live:            stored - expired,
		Expired:         expired,
		Stored:          stored,
		Indexed:         m.expiries.len(),
		Buckets:         m.expiries.bucketCount(),
		TicksUntilSweep: m.tickCap - m.ticks,
	}
}

// Buckets describes the expiry index, earliest deadline first.
func (m *TimedMap[K, V]) Buckets() []BucketInfo {
	return m.expiries.buckets()
}
