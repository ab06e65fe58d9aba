package pane_batch

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPaneDataSource is the canonical WGSL definition of the PaneData struct.
// Matches GPUPaneData layout exactly (112 bytes, std430 aligned).
//
//go:embed assets/pane_data.wgsl
var GPUPaneDataSource string

// GPUPaneData is the GPU-aligned representation of one pane's full animation state.
// The vertex shader evaluates the spline through P0..P3 every frame, so the CPU never
// touches this data again after a setter stages it. Scalar attributes ride in the w
// lanes of the control-point vec4s to keep the struct at seven vec4 slots.
// Size: 112 bytes (7 × vec4, std430 aligned).
type GPUPaneData struct {
	P0        [3]float32 // offset 0: first spline control point
	Phase     float32    // offset 12: animation phase offset in curve-parameter space
	P1        [3]float32 // offset 16: second spline control point
	Speed     float32    // offset 28: animation speed in curve lengths per second
	P2        [3]float32 // offset 32: third spline control point
	TiltMode  float32    // offset 44: 0 = perpendicular, 1 = tangent
	P3        [3]float32 // offset 48: fourth spline control point
	Visible   float32    // offset 60: 0 hidden, 1 visible; shader collapses below 0.5
	Color     [3]float32 // offset 64: RGB tint
	Scale     float32    // offset 76: quad scale relative to the shared base size
	UVOffset  [2]float32 // offset 80: atlas tile UV offset
	UVScale   [2]float32 // offset 88: atlas tile UV scale
	Elevation float32    // offset 96: offset along normalize(position)
	_pad      [3]float32 // offset 100: pad to a vec4 boundary
}

// Size returns the size of the GPUPaneData struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUPaneData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPaneData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload.
func (g *GPUPaneData) Marshal() []byte {
	buf := make([]byte, 112)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for i := 0; i < 3; i++ {
		put(i*4, g.P0[i])
		put(16+i*4, g.P1[i])
		put(32+i*4, g.P2[i])
		put(48+i*4, g.P3[i])
		put(64+i*4, g.Color[i])
	}
	put(12, g.Phase)
	put(28, g.Speed)
	put(44, g.TiltMode)
	put(60, g.Visible)
	put(76, g.Scale)
	put(80, g.UVOffset[0])
	put(84, g.UVOffset[1])
	put(88, g.UVScale[0])
	put(92, g.UVScale[1])
	put(96, g.Elevation)
	return buf
}

// GPUPaneGlobalsSource is the canonical WGSL definition of the PaneGlobals struct.
// Matches GPUPaneGlobals layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/pane_globals.wgsl
var GPUPaneGlobalsSource string

// GPUPaneGlobals is the GPU-aligned representation of per-frame shared animation state.
// One copy is broadcast to every pane instance; advancing Time is the only per-frame
// CPU obligation of the batched backend.
// Size: 16 bytes (1 × vec4, std430 aligned).
type GPUPaneGlobals struct {
	Time       float32 // offset 0: shared monotonic animation clock in seconds
	ReturnMode float32 // offset 4: 0 = looping, 1 = ping-pong time mapping
	BaseSize   float32 // offset 8: world-space edge length of an unscaled quad
	_pad       float32 // offset 12: pad to a vec4 boundary
}

// Size returns the size of the GPUPaneGlobals struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUPaneGlobals) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPaneGlobals struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUPaneGlobals) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Time))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.ReturnMode))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.BaseSize))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad
	return buf
}

// GPUPaneInstanceSource is the canonical WGSL definition of the PaneInstance struct
// used by the CPU fallback backend. Matches GPUPaneInstance layout exactly (96 bytes,
// std430 aligned).
//
//go:embed assets/pane_instance.wgsl
var GPUPaneInstanceSource string

// GPUPaneInstance is the GPU-aligned per-instance data for the CPU fallback backend.
// The model matrix is fully evaluated on the CPU each frame; the shader only applies it.
// Size: 96 bytes (mat4x4 + 2 × vec4, std430 aligned).
type GPUPaneInstance struct {
	Model    [16]float32 // offset 0: evaluated model matrix (column-major)
	Color    [3]float32  // offset 64: RGB tint
	_pad0    float32     // offset 76: implicit vec3 pad
	UVOffset [2]float32  // offset 80: atlas tile UV offset
	UVScale  [2]float32  // offset 88: atlas tile UV scale
}

// Size returns the size of the GPUPaneInstance struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUPaneInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPaneInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUPaneInstance) Marshal() []byte {
	buf := make([]byte, 96)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[76:80], 0) // _pad0
	binary.LittleEndian.PutUint32(buf[80:84], math.Float32bits(g.UVOffset[0]))
	binary.LittleEndian.PutUint32(buf[84:88], math.Float32bits(g.UVOffset[1]))
	binary.LittleEndian.PutUint32(buf[88:92], math.Float32bits(g.UVScale[0]))
	binary.LittleEndian.PutUint32(buf[92:96], math.Float32bits(g.UVScale[1]))
	return buf
}
