package timedmap

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntryStatus_IsExpired(t *testing.T) {
	t.Run("constant never expires", func(t *testing.T) {
		assert.False(t, Constant().IsExpired(math.MaxUint64))
	})

	t.Run("valid at the deadline, expired strictly after", func(t *testing.T) {
		s := ExpiresAt(1050)
		assert.False(t, s.IsExpired(1049))
		assert.False(t, s.IsExpired(1050))
		assert.True(t, s.IsExpired(1051))
	})

	t.Run("zero value is constant", func(t *testing.T) {
		var s EntryStatus
		assert.True(t, s.IsConstant())
		_, ok := s.Deadline()
		assert.False(t, ok)
	})
}

func TestEntryStatus_Remaining(t *testing.T) {
	_, ok := Constant().Remaining(10)
	assert.False(t, ok, "constant entries have no remaining duration")

	d, ok := ExpiresAt(1060).Remaining(1000)
	assert.True(t, ok)
	assert.Equal(t, 60*time.Second, d)

	d, ok = ExpiresAt(1060).Remaining(2000)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d, "remaining saturates at zero")

	d, ok = ExpiresAt(math.MaxUint64).Remaining(0)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(math.MaxInt64), d)
}

func TestExpiresAtFrom(t *testing.T) {
	assert.Equal(t, uint64(1060), ExpiresAtFrom(1000, time.Minute))
	assert.Equal(t, uint64(1001), ExpiresAtFrom(1000, 1999*time.Millisecond))
	assert.Equal(t, uint64(1000), ExpiresAtFrom(1000, -time.Second))
	assert.Equal(t, uint64(math.MaxUint64), ExpiresAtFrom(math.MaxUint64-5, time.Minute),
		"overflow saturates instead of wrapping")
}

func TestEntryStatus_String(t *testing.T) {
	assert.Equal(t, "constant", Constant().String())
	assert.Equal(t, "expires_at=42", ExpiresAt(42).String())
}
