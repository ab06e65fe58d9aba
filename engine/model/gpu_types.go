package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUQuadVertex is the GPU representation of a single quad vertex. The vertex
// buffer layout is derived from the pane vertex shader's VertexInput struct:
// position at @location(0), uv at @location(1), packed sequentially.
// Size: 20 bytes.
type GPUQuadVertex struct {
	Position [3]float32 // offset  0: vertex position in quad-local space (12 bytes)
	UV       [2]float32 // offset 12: texture coordinate (8 bytes)
}

// Size returns the size of the GPUQuadVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUQuadVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUQuadVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (g *GPUQuadVertex) Marshal() []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.UV[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.UV[1]))
	return buf
}

// MarshalQuadVertices serializes a slice of quad vertices into a contiguous byte
// buffer suitable for vertex buffer upload.
//
// Parameters:
//   - verts: the vertices to serialize
//
// Returns:
//   - []byte: the packed vertex data
func MarshalQuadVertices(verts []GPUQuadVertex) []byte {
	buf := make([]byte, 0, len(verts)*20)
	for i := range verts {
		buf = append(buf, verts[i].Marshal()...)
	}
	return buf
}

// MarshalIndices serializes triangle indices into a little-endian byte buffer
// suitable for index buffer upload with IndexFormatUint32.
//
// Parameters:
//   - indices: the triangle indices to serialize
//
// Returns:
//   - []byte: the packed index data
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], idx)
	}
	return buf
}
