package timedmap

import (
	"cmp"

	"github.com/google/btree"
)

// Backend is the associative container a TimedMap stores its entries in.
// The map only relies on this contract, so either implementation can be
// plugged in without changing expiration behavior.
type Backend[K comparable, E any] interface {
	Get(key K) (E, bool)
	// Insert stores item under key and returns the item it replaced.
	Insert(key K, item E) (E, bool)
	Remove(key K) (E, bool)
	Contains(key K) bool
	Len() int
	// Range calls fn for every pair until fn returns false.
	Range(fn func(key K, item E) bool)
	Clear()
}

// BackendKind selects a Backend implementation.
type BackendKind string

const (
	HashBackend    BackendKind = "hash"
	OrderedBackend BackendKind = "ordered"
)

/* ---------------- hash ---------------- */

type hashBackend[K comparable, E any] struct {
	items map[K]E
}

// NewHashBackend returns a Backend on a Go map. Range order is unspecified.
func NewHashBackend[K comparable, E any]() Backend[K, E] {
	return &hashBackend[K, E]{items: make(map[K]E)}
}

func (h *hashBackend[K, E]) Get(key K) (E, bool) {
	item, ok := h.items[key]
	return item, ok
}

func (h *hashBackend[K, E]) Insert(key K, item E) (E, bool) {
	prev, ok := h.items[key]
	h.items[key] = item
	return prev, ok
}

func (h *hashBackend[K, E]) Remove(key K) (E, bool) {
	prev, ok := h.items[key]
	if ok {
		delete(h.items, key)
	}
	return prev, ok
}

func (h *hashBackend[K, E]) Contains(key K) bool {
	_, ok := h.items[key]
	return ok
}

func (h *hashBackend[K, E]) Len() int {
	return len(h.items)
}

func (h *hashBackend[K, E]) Range(fn func(key K, item E) bool) {
	for k, item := range h.items {
		if !fn(k, item) {
			return
		}
	}
}

func (h *hashBackend[K, E]) Clear() {
	clear(h.items)
}

/* ---------------- ordered ---------------- */

type treeItem[K cmp.Ordered, E any] struct {
	key  K
	item E
}

func lessTreeItem[K cmp.Ordered, E any](a, b treeItem[K, E]) bool {
	return cmp.Less(a.key, b.key)
}

type treeBackend[K cmp.Ordered, E any] struct {
	tree *btree.BTreeG[treeItem[K, E]]
}

// NewTreeBackend returns a Backend on a B-tree. Range visits keys in
// ascending order.
func NewTreeBackend[K cmp.Ordered, E any]() Backend[K, E] {
	return &treeBackend[K, E]{
		tree: btree.NewG(defaultBTreeDegree, lessTreeItem[K, E]),
	}
}

func (t *treeBackend[K, E]) Get(key K) (E, bool) {
	found, ok := t.tree.Get(treeItem[K, E]{key: key})
	return found.item, ok
}

func (t *treeBackend[K, E]) Insert(key K, item E) (E, bool) {
	prev, ok := t.tree.ReplaceOrInsert(treeItem[K, E]{key: key, item: item})
	return prev.item, ok
}

func (t *treeBackend[K, E]) Remove(key K) (E, bool) {
	prev, ok := t.tree.Delete(treeItem[K, E]{key: key})
	return prev.item, ok
}

func (t *treeBackend[K, E]) Contains(key K) bool {
	return t.tree.Has(treeItem[K, E]{key: key})
}

func (t *treeBackend[K, E]) Len() int {
	return t.tree.Len()
}

func (t *treeBackend[K, E]) Range(fn func(key K, item E) bool) {
	t.tree.Ascend(func(it treeItem[K, E]) bool {
		return fn(it.key, it.item)
	})
}

func (t *treeBackend[K, E]) Clear() {
	t.tree.Clear(false)
}
