package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// depthStencilState converts a depth-stencil state to the HAL form.
// nil stays nil.
func depthStencilState(ds *gputypes.DepthStencilState) *hal.DepthStencilState {
	if ds == nil {
		return nil
	}
	return &hal.DepthStencilState{
		Format:            ds.Format,
		DepthWriteEnabled: ds.DepthWriteEnabled,
		DepthCompare:      ds.DepthCompare,
		StencilFront:      stencilFace(ds.StencilFront),
		StencilBack:       stencilFace(ds.StencilBack),
		StencilReadMask:   ds.StencilReadMask,
		StencilWriteMask:  ds.StencilWriteMask,
	}
}

func stencilFace(f gputypes.StencilFaceState) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     f.Compare,
		FailOp:      stencilOperation(f.FailOp),
		DepthFailOp: stencilOperation(f.DepthFailOp),
		PassOp:      stencilOperation(f.PassOp),
	}
}

// stencilOperation maps a stencil operation; unknown values keep.
func stencilOperation(op gputypes.StencilOperation) hal.StencilOperation {
	switch op {
	case gputypes.StencilOperationZero:
		return hal.StencilOperationZero
	case gputypes.StencilOperationReplace:
		return hal.StencilOperationReplace
	case gputypes.StencilOperationInvert:
		return hal.StencilOperationInvert
	case gputypes.StencilOperationIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case gputypes.StencilOperationDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case gputypes.StencilOperationIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case gputypes.StencilOperationDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

// mipmapFilter maps a sampler's mipmap filter onto the HAL filter mode.
func mipmapFilter(m gputypes.MipmapFilterMode) gputypes.FilterMode {
	if m == gputypes.MipmapFilterModeLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}
