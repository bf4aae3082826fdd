package packer

import (
	"image"
	"math/bits"
)

// AllocID identifies one live allocation. The zero value is never issued.
type AllocID uint32

// Allocation is a placed rectangle.
type Allocation struct {
	ID   AllocID
	Rect image.Rectangle
}

// numBuckets covers heights up to 2^31.
const numBuckets = 32

type nodeKind uint8

const (
	nodeFree nodeKind = iota
	nodeAlloc
	nodeSplit
)

// node is one rectangle of the guillotine tree. A split node has exactly
// two children that tile it. Every split subtree holds at least one live
// allocation, so freeing the last allocation collapses the tree back to a
// single free root.
type node struct {
	rect     image.Rectangle
	kind     nodeKind
	parent   *node
	children [2]*node

	// Position in the free lists while kind is nodeFree.
	bucket, slot int
}

// Allocator is a bucketed guillotine rectangle packer.
type Allocator struct {
	size    image.Point
	root    *node
	buckets [numBuckets][]*node
	allocs  map[AllocID]*node
	nextID  AllocID

	usedArea int
}

// New creates an allocator over a width x height canvas.
func New(width, height int) *Allocator {
	a := &Allocator{
		size:   image.Pt(width, height),
		allocs: make(map[AllocID]*node),
	}
	a.Clear()
	return a
}

// Size returns the canvas dimensions.
func (a *Allocator) Size() image.Point {
	return a.size
}

// Len returns the number of live allocations.
func (a *Allocator) Len() int {
	return len(a.allocs)
}

// UsedArea returns the total area of live allocations.
func (a *Allocator) UsedArea() int {
	return a.usedArea
}

// Utilization returns the fraction of the canvas covered by allocations.
func (a *Allocator) Utilization() float64 {
	total := a.size.X * a.size.Y
	if total <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// Allocate reserves a w x h rectangle.
// Returns false when no free rectangle is large enough.
func (a *Allocator) Allocate(w, h int) (Allocation, bool) {
	if w <= 0 || h <= 0 || w > a.size.X || h > a.size.Y {
		return Allocation{}, false
	}

	n := a.findFree(w, h)
	if n == nil {
		return Allocation{}, false
	}
	a.removeFree(n)

	// Cut along the shorter leftover first so the larger piece stays whole.
	x, y := n.rect.Min.X+w, n.rect.Min.Y+h
	if n.rect.Max.X-x > n.rect.Max.Y-y {
		n = a.cut(n, x, true)
		n = a.cut(n, y, false)
	} else {
		n = a.cut(n, y, false)
		n = a.cut(n, x, true)
	}
	n.kind = nodeAlloc

	a.nextID++
	id := a.nextID
	a.allocs[id] = n
	a.usedArea += w * h
	return Allocation{ID: id, Rect: n.rect}, true
}

// Deallocate releases an allocation. Unknown ids are ignored.
func (a *Allocator) Deallocate(id AllocID) {
	n, ok := a.allocs[id]
	if !ok {
		return
	}
	delete(a.allocs, id)
	a.usedArea -= n.rect.Dx() * n.rect.Dy()
	a.release(n)
}

// Rect returns the rectangle of a live allocation.
func (a *Allocator) Rect(id AllocID) (image.Rectangle, bool) {
	n, ok := a.allocs[id]
	if !ok {
		return image.Rectangle{}, false
	}
	return n.rect, true
}

// Grow extends the canvas. Both dimensions must be at least the current ones.
// Live allocations keep their positions.
func (a *Allocator) Grow(width, height int) {
	if width < a.size.X || height < a.size.Y {
		panic("packer: Grow cannot shrink the canvas")
	}
	old := a.size
	a.size = image.Pt(width, height)

	// Bottom strip spans the old width, right strip the full new height.
	if height > old.Y {
		a.root = a.extend(a.root, image.Rect(0, 0, old.X, height), false)
	}
	if width > old.X {
		a.root = a.extend(a.root, image.Rect(0, 0, width, height), true)
	}
}

// Clear drops every allocation and resets the canvas to one free rectangle.
func (a *Allocator) Clear() {
	for i := range a.buckets {
		clear(a.buckets[i])
		a.buckets[i] = a.buckets[i][:0]
	}
	clear(a.allocs)
	a.usedArea = 0
	a.root = &node{rect: image.Rect(0, 0, a.size.X, a.size.Y)}
	a.insertFree(a.root)
}

// bucketFor returns the height class of h.
func bucketFor(h int) int {
	b := bits.Len(uint(h)) - 1
	if b < 0 {
		b = 0
	}
	if b >= numBuckets {
		b = numBuckets - 1
	}
	return b
}

// findFree returns the first free node that holds w x h.
// Nodes in lower buckets are shorter than h and are never scanned.
func (a *Allocator) findFree(w, h int) *node {
	for b := bucketFor(h); b < numBuckets; b++ {
		for _, n := range a.buckets[b] {
			if n.rect.Dx() >= w && n.rect.Dy() >= h {
				return n
			}
		}
	}
	return nil
}

// cut splits n at x (vertical) or y into two children, frees the second
// and returns the first. n comes back unchanged when nothing is left over.
func (a *Allocator) cut(n *node, at int, vertical bool) *node {
	first, second := n.rect, n.rect
	if vertical {
		if at >= n.rect.Max.X {
			return n
		}
		first.Max.X, second.Min.X = at, at
	} else {
		if at >= n.rect.Max.Y {
			return n
		}
		first.Max.Y, second.Min.Y = at, at
	}
	head := &node{rect: first, parent: n}
	tail := &node{rect: second, parent: n}
	n.kind = nodeSplit
	n.children = [2]*node{head, tail}
	a.insertFree(tail)
	return head
}

// release frees n and collapses every ancestor whose children are both free.
func (a *Allocator) release(n *node) {
	for p := n.parent; p != nil; p = n.parent {
		sibling := p.children[0]
		if sibling == n {
			sibling = p.children[1]
		}
		if sibling.kind != nodeFree {
			break
		}
		a.removeFree(sibling)
		p.children = [2]*node{}
		n = p
	}
	a.insertFree(n)
}

// extend returns a node covering r whose first child is n and whose second
// is the new free space. A free n is simply enlarged.
func (a *Allocator) extend(n *node, r image.Rectangle, vertical bool) *node {
	if n.kind == nodeFree {
		a.removeFree(n)
		n.rect = r
		a.insertFree(n)
		return n
	}
	extra := r
	if vertical {
		extra.Min.X = n.rect.Max.X
	} else {
		extra.Min.Y = n.rect.Max.Y
	}
	p := &node{rect: r, kind: nodeSplit}
	tail := &node{rect: extra, parent: p}
	n.parent = p
	p.children = [2]*node{n, tail}
	a.insertFree(tail)
	return p
}

func (a *Allocator) insertFree(n *node) {
	n.kind = nodeFree
	n.bucket = bucketFor(n.rect.Dy())
	n.slot = len(a.buckets[n.bucket])
	a.buckets[n.bucket] = append(a.buckets[n.bucket], n)
}

func (a *Allocator) removeFree(n *node) {
	list := a.buckets[n.bucket]
	last := len(list) - 1
	moved := list[last]
	list[n.slot] = moved
	moved.slot = n.slot
	list[last] = nil
	a.buckets[n.bucket] = list[:last]
}
