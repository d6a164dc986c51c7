package timedmap

import (
	"math"
	"strconv"
	"time"
)

// EntryStatus is the expiration policy of a single entry.
//
// The zero value is a constant (non-expiring) status.
type EntryStatus struct {
	expiresAt uint64
	expirable bool
}

// Constant returns a status that never expires.
func Constant() EntryStatus {
	return EntryStatus{}
}

// ExpiresAt returns a status that expires strictly after the given second.
func ExpiresAt(seconds uint64) EntryStatus {
	return EntryStatus{expiresAt: seconds, expirable: true}
}

// IsConstant reports whether the status never expires.
func (s EntryStatus) IsConstant() bool {
	return !s.expirable
}

// Deadline returns the expiration second, false for constant entries.
func (s EntryStatus) Deadline() (uint64, bool) {
	return s.expiresAt, s.expirable
}

// IsExpired reports whether the status is past its deadline at now.
// An entry is still valid at its exact deadline second.
func (s EntryStatus) IsExpired(now uint64) bool {
	return s.expirable && now > s.expiresAt
}

// Remaining returns the time left before the deadline, never negative.
// Returns false for constant entries.
func (s EntryStatus) Remaining(now uint64) (time.Duration, bool) {
	if !s.expirable {
		return 0, false
	}
	if now >= s.expiresAt {
		return 0, true
	}
	left := s.expiresAt - now
	if left > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(left) * time.Second, true
}

func (s EntryStatus) String() string {
	if !s.expirable {
		return "constant"
	}
	return "expires_at=" + strconv.FormatUint(s.expiresAt, 10)
}

// ExpiresAtFrom computes now+d in whole seconds, saturating at
// math.MaxUint64 instead of wrapping. Negative durations count as zero.
func ExpiresAtFrom(now uint64, d time.Duration) uint64 {
	if d <= 0 {
		return now
	}
	secs := uint64(d / time.Second)
	if now > math.MaxUint64-secs {
		return math.MaxUint64
	}
	return now + secs
}

// entry is a stored value and its expiration status.
type entry[V any] struct {
	value  V
	status EntryStatus
}

func newEntry[V any](value V, status EntryStatus) *entry[V] {
	return &entry[V]{value: value, status: status}
}

func (e *entry[V]) isExpired(now uint64) bool {
	return e.status.IsExpired(now)
}

func (e *entry[V]) updateStatus(status EntryStatus) {
	e.status = status
}
