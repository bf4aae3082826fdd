package textatlas

import (
	"encoding/binary"
	"math"
)

// glyphVertex is one glyph instance as read by shaders/text.wgsl.
type glyphVertex struct {
	X, Y           int32
	Width, Height  uint16
	AtlasX, AtlasY uint16
	Color          Color
	Content        ContentType
	SRGB           bool
	Depth          float32
}

// appendTo encodes v in little-endian instance layout (vertexStride bytes).
func (v glyphVertex) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(v.X))
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Y))
	b = binary.LittleEndian.AppendUint16(b, v.Width)
	b = binary.LittleEndian.AppendUint16(b, v.Height)
	b = binary.LittleEndian.AppendUint16(b, v.AtlasX)
	b = binary.LittleEndian.AppendUint16(b, v.AtlasY)
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Color))
	b = binary.LittleEndian.AppendUint16(b, uint16(v.Content))
	var srgb uint16
	if v.SRGB {
		srgb = 1
	}
	b = binary.LittleEndian.AppendUint16(b, srgb)
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Depth))
}
