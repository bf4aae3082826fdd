package cache

import "iter"

// node is an entry in the recency list.
// The node stores its key for O(1) deletion from the index map.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// RecencyMap is a map that remembers the order in which entries were
// inserted or promoted. The head is the most recently used entry, the
// tail the least recently used.
//
// RecencyMap never evicts on its own unless a capacity is set with
// NewBounded; callers decide which entries to drop.
//
// RecencyMap is not safe for concurrent use.
type RecencyMap[K comparable, V any] struct {
	index map[K]*node[K, V]
	head  *node[K, V]
	tail  *node[K, V]

	capacity int
	onEvict  func(K, V)
}

// NewRecencyMap creates an empty, unbounded map.
func NewRecencyMap[K comparable, V any]() *RecencyMap[K, V] {
	return &RecencyMap[K, V]{index: make(map[K]*node[K, V])}
}

// NewBounded creates a map holding at most capacity entries. Put drops the
// least recently used entry when the map is full and reports it to onEvict,
// which may be nil.
func NewBounded[K comparable, V any](capacity int, onEvict func(K, V)) *RecencyMap[K, V] {
	m := NewRecencyMap[K, V]()
	m.capacity = capacity
	m.onEvict = onEvict
	return m
}

// Len returns the number of entries.
func (m *RecencyMap[K, V]) Len() int {
	return len(m.index)
}

// Contains reports whether key is present without touching its recency.
func (m *RecencyMap[K, V]) Contains(key K) bool {
	_, ok := m.index[key]
	return ok
}

// Peek returns the value for key without touching its recency.
func (m *RecencyMap[K, V]) Peek(key K) (V, bool) {
	n, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Get returns the value for key and marks it most recently used.
func (m *RecencyMap[K, V]) Get(key K) (V, bool) {
	n, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	m.moveToFront(n)
	return n.value, true
}

// Promote marks key most recently used. Returns false if key is absent.
func (m *RecencyMap[K, V]) Promote(key K) bool {
	n, ok := m.index[key]
	if ok {
		m.moveToFront(n)
	}
	return ok
}

// Put inserts or replaces the value for key and marks it most recently used.
func (m *RecencyMap[K, V]) Put(key K, value V) {
	if n, ok := m.index[key]; ok {
		n.value = value
		m.moveToFront(n)
		return
	}
	if m.capacity > 0 && len(m.index) >= m.capacity {
		if k, v, ok := m.RemoveOldest(); ok && m.onEvict != nil {
			m.onEvict(k, v)
		}
	}
	n := &node[K, V]{key: key, value: value}
	m.index[key] = n
	m.pushFront(n)
}

// Update replaces the value for key without touching its recency.
// Returns false if key is absent.
func (m *RecencyMap[K, V]) Update(key K, value V) bool {
	n, ok := m.index[key]
	if ok {
		n.value = value
	}
	return ok
}

// Remove deletes key and returns its value.
func (m *RecencyMap[K, V]) Remove(key K) (V, bool) {
	n, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	m.unlink(n)
	delete(m.index, key)
	return n.value, true
}

// Oldest returns the least recently used entry.
func (m *RecencyMap[K, V]) Oldest() (K, V, bool) {
	if m.tail == nil {
		var (
			zk K
			zv V
		)
		return zk, zv, false
	}
	return m.tail.key, m.tail.value, true
}

// RemoveOldest removes and returns the least recently used entry.
func (m *RecencyMap[K, V]) RemoveOldest() (K, V, bool) {
	k, v, ok := m.Oldest()
	if ok {
		m.Remove(k)
	}
	return k, v, ok
}

// All iterates from the most to the least recently used entry.
func (m *RecencyMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := m.head; n != nil; {
			next := n.next
			if !yield(n.key, n.value) {
				return
			}
			n = next
		}
	}
}

// Backward iterates from the least to the most recently used entry.
// The entry being visited may be removed during iteration.
func (m *RecencyMap[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := m.tail; n != nil; {
			prev := n.prev
			if !yield(n.key, n.value) {
				return
			}
			n = prev
		}
	}
}

// Clear removes all entries.
func (m *RecencyMap[K, V]) Clear() {
	clear(m.index)
	m.head = nil
	m.tail = nil
}

func (m *RecencyMap[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = m.head
	if m.head != nil {
		m.head.prev = n
	}
	m.head = n
	if m.tail == nil {
		m.tail = n
	}
}

func (m *RecencyMap[K, V]) moveToFront(n *node[K, V]) {
	if n == m.head {
		return
	}
	m.unlink(n)
	m.pushFront(n)
}

// unlink removes a node from the list and clears its pointers.
func (m *RecencyMap[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
