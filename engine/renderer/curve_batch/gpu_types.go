package curve_batch

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCurveGlobalsSource is the canonical WGSL definition of the CurveGlobals struct.
// Matches GPUCurveGlobals layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/curve_globals.wgsl
var GPUCurveGlobalsSource string

// GPUCurveGlobals is the GPU-aligned representation of the shared dash pattern
// and opacity. A DashLength of 0 renders every curve as a solid line; otherwise
// fragments whose arc length falls into the gap part of the period are discarded.
// Opacity is the alpha applied to every curve fragment.
// Size: 16 bytes (1 × vec4, std430 aligned).
type GPUCurveGlobals struct {
	DashLength float32 // offset 0: dash segment length in world units
	GapLength  float32 // offset 4: gap length in world units
	Opacity    float32 // offset 8: global curve alpha in [0, 1]
	_pad1      float32 // offset 12
}

// Size returns the size of the GPUCurveGlobals struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUCurveGlobals) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCurveGlobals struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUCurveGlobals) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.DashLength))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.GapLength))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Opacity))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad1
	return buf
}
