package timedmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackends(t *testing.T) {
	backends := map[BackendKind]func() Backend[string, int]{
		HashBackend:    NewHashBackend[string, int],
		OrderedBackend: NewTreeBackend[string, int],
	}

	for kind, newBackend := range backends {
		t.Run(string(kind), func(t *testing.T) {
			b := newBackend()

			_, replaced := b.Insert("b", 2)
			assert.False(t, replaced)
			b.Insert("a", 1)
			prev, replaced := b.Insert("b", 20)
			assert.True(t, replaced)
			assert.Equal(t, 2, prev)

			v, ok := b.Get("b")
			assert.True(t, ok)
			assert.Equal(t, 20, v)
			assert.True(t, b.Contains("a"))
			assert.Equal(t, 2, b.Len())

			seen := map[string]int{}
			b.Range(func(k string, v int) bool {
				seen[k] = v
				return true
			})
			assert.Equal(t, map[string]int{"a": 1, "b": 20}, seen)

			removed, ok := b.Remove("a")
			assert.True(t, ok)
			assert.Equal(t, 1, removed)
			_, ok = b.Remove("a")
			assert.False(t, ok)

			b.Clear()
			assert.Equal(t, 0, b.Len())
			assert.False(t, b.Contains("b"))
		})
	}
}

func TestTreeBackend_RangeIsOrderedAndStoppable(t *testing.T) {
	b := NewTreeBackend[int, string]()
	for _, k := range []int{5, 1, 4, 2, 3} {
		b.Insert(k, "")
	}

	var keys []int
	b.Range(func(k int, _ string) bool {
		keys = append(keys, k)
		return k < 3
	})

	assert.Equal(t, []int{1, 2, 3}, keys)
}
