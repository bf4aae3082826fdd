package textatlas

import "math/bits"

// copyBufferAlignment is the granularity of buffer sizes and copy offsets.
const copyBufferAlignment = 4

// nextCopyBufferSize rounds size up to the next power of two and the copy
// alignment, with a minimum of one alignment unit.
func nextCopyBufferSize(size uint64) uint64 {
	p := uint64(1)
	if size > 1 {
		p = 1 << bits.Len64(size-1)
	}
	const mask = copyBufferAlignment - 1
	return max((p+mask)&^mask, copyBufferAlignment)
}
