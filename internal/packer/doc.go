// Package packer implements a growable rectangle allocator for texture atlases.
//
// The allocator keeps a guillotine tree of the canvas. Free leaves are
// grouped into buckets by height class. Allocation is first-fit within the
// smallest bucket that can hold the request, followed by at most two cuts
// of the chosen leaf. Deallocation merges a leaf back into its parent
// whenever its sibling is free as well, so releasing every allocation
// restores one free rectangle covering the canvas.
//
// Grow extends the canvas to the right and downward. Existing allocations
// keep their positions.
//
// The allocator is not safe for concurrent use.
package packer
