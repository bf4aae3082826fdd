// Package cache provides generic caching primitives for glyph storage.
//
// # RecencyMap[K, V]
//
// A map that keeps its entries in least-recently-used order. Lookups can
// either promote an entry (Get, Promote) or leave the order untouched
// (Peek, Contains). Iteration runs in either direction, which lets an
// eviction policy walk from the oldest entry and skip the ones it must keep.
//
//	m := cache.NewRecencyMap[string, int]()
//	m.Put("a", 1)
//	m.Put("b", 2)
//	m.Promote("a")
//	k, _, _ := m.Oldest() // "b"
//
// NewBounded adds a capacity and an eviction callback for plain LRU use.
//
// # Thread Safety
//
// RecencyMap is not safe for concurrent use. Owners serialize access.
package cache
