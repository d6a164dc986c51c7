package clock

import (
	"math"
	"sync/atomic"
	"time"
)

// Clock reports elapsed seconds since a fixed reference.
//
// Implementations must never go backwards. A clock that does will make
// entries look unexpired for longer than intended, but it cannot corrupt
// the map.
type Clock interface {
	NowSeconds() uint64
}

// System is a Clock backed by the wall clock (seconds since UNIX epoch).
type System struct{}

func (System) NowSeconds() uint64 {
	now := time.Now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// Func adapts a plain function, e.g. a hardware timer read, to Clock.
type Func func() uint64

func (f Func) NowSeconds() uint64 {
	return f()
}

// Manual is a Clock that only moves when told to.
// Used by tests and by hosts that drive time themselves.
type Manual struct {
	now atomic.Uint64
}

// NewManual creates a Manual clock starting at the given second.
func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

func (m *Manual) NowSeconds() uint64 {
	return m.now.Load()
}

// Set moves the clock to an absolute second. Moving backwards is allowed
// here so tests can probe that edge, callers in production should not.
func (m *Manual) Set(seconds uint64) {
	m.now.Store(seconds)
}

// Advance moves the clock forward by d, truncated to whole seconds and
// saturating at math.MaxUint64. Negative durations are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	step := uint64(d / time.Second)
	for {
		cur := m.now.Load()
		next := cur + step
		if next < cur {
			next = math.MaxUint64
		}
		if m.now.CompareAndSwap(cur, next) {
			return
		}
	}
}
