package timedmap

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/btree"
)

const defaultBTreeDegree = 8

// bucket holds every key that expires at the same second.
type bucket[K comparable] struct {
	at   uint64
	keys mapset.Set[K]
}

func lessBucket[K comparable](a, b *bucket[K]) bool {
	return a.at < b.at
}

// expiryIndex maps an expiration second to the keys expiring then, in
// ascending order. Empty buckets are never kept. It is not thread-safe.
type expiryIndex[K comparable] struct {
	tree *btree.BTreeG[*bucket[K]]
	// size is the number of keys across all buckets.
	size int
}

func newExpiryIndex[K comparable]() *expiryIndex[K] {
	return &expiryIndex[K]{
		tree: btree.NewG(defaultBTreeDegree, lessBucket[K]),
	}
}

func (x *expiryIndex[K]) probe(at uint64) *bucket[K] {
	return &bucket[K]{at: at}
}

// register adds key to the bucket for at, creating the bucket if needed.
func (x *expiryIndex[K]) register(at uint64, key K) {
	b, ok := x.tree.Get(x.probe(at))
	if !ok {
		b = &bucket[K]{at: at, keys: mapset.NewThreadUnsafeSet[K]()}
		x.tree.ReplaceOrInsert(b)
	}
	if b.keys.Add(key) {
		x.size++
	}
}

// unregister removes key from the bucket for at. Missing buckets or keys
// are ignored.
func (x *expiryIndex[K]) unregister(at uint64, key K) {
	b, ok := x.tree.Get(x.probe(at))
	if !ok || !b.keys.Contains(key) {
		return
	}
	b.keys.Remove(key)
	x.size--
	if b.keys.Cardinality() == 0 {
		x.tree.Delete(b)
	}
}

func (x *expiryIndex[K]) registerStatus(status EntryStatus, key K) {
	if at, ok := status.Deadline(); ok {
		x.register(at, key)
	}
}

func (x *expiryIndex[K]) unregisterStatus(status EntryStatus, key K) {
	if at, ok := status.Deadline(); ok {
		x.unregister(at, key)
	}
}

// sweep pops buckets from the front while they are expired at now and hands
// every key to yield. It stops at the first live bucket, so the cost is
// bounded by the expired part of the index.
//
// A bucket at exactly now is kept: expiry is strictly after the deadline,
// the same rule reads use, so a sweep never drops a key Get would still
// return. This differs from sweeping every bucket with at <= now.
func (x *expiryIndex[K]) sweep(now uint64, yield func(K)) int {
	swept := 0
	for {
		b, ok := x.tree.Min()
		if !ok || !ExpiresAt(b.at).IsExpired(now) {
			return swept
		}
		x.tree.DeleteMin()
		for _, key := range b.keys.ToSlice() {
			x.size--
			swept++
			yield(key)
		}
	}
}

// expiredCount counts keys in buckets already expired at now.
func (x *expiryIndex[K]) expiredCount(now uint64) int {
	n := 0
	x.tree.Ascend(func(b *bucket[K]) bool {
		if !ExpiresAt(b.at).IsExpired(now) {
			return false
		}
		n += b.keys.Cardinality()
		return true
	})
	return n
}

// contains reports whether key is registered under at.
func (x *expiryIndex[K]) contains(at uint64, key K) bool {
	b, ok := x.tree.Get(x.probe(at))
	return ok && b.keys.Contains(key)
}

// buckets returns the bucket timestamps with their key counts, ascending.
func (x *expiryIndex[K]) buckets() []BucketInfo {
	out := make([]BucketInfo, 0, x.tree.Len())
	x.tree.Ascend(func(b *bucket[K]) bool {
		out = append(out, BucketInfo{ExpiresAt: b.at, Keys: b.keys.Cardinality()})
		return true
	})
	return out
}

func (x *expiryIndex[K]) len() int {
	return x.size
}

func (x *expiryIndex[K]) bucketCount() int {
	return x.tree.Len()
}

func (x *expiryIndex[K]) clear() {
	x.tree.Clear(false)
	x.size = 0
}

// BucketInfo describes one expiry bucket.
type BucketInfo struct {
	ExpiresAt uint64 `json:"expires_at"`
	Keys      int    `json:"keys"`
}
