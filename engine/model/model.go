package model

import (
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
	"github.com/jeantimex/flight-path/engine/renderer/material"
)

// model is the implementation of the Model interface.
type model struct {
	name                  string
	renderMaterial        material.Material
	meshProvider          bind_group_provider.BindGroupProvider
	vertexData, indexData []byte
	indexCount            int
}

// Model is a GPU-ready mesh container holding vertex and index data plus the
// BindGroupProvider that owns the uploaded GPU buffers. The mesh data is built
// host-side and uploaded once during the scene's GPU-init phase.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// MeshProvider retrieves the BindGroupProvider holding GPU mesh resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// VertexData returns the raw vertex data for this model's mesh.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw index data for this model's mesh.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the model's mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// RenderMaterial retrieves the render-ready material for this model, or nil
	// if none has been configured.
	//
	// Returns:
	//   - material.Material: the render-ready material
	RenderMaterial() material.Material

	// SetRenderMaterial replaces the render-ready material for this model.
	//
	// Parameters:
	//   - mat: the render-ready material to set
	SetRenderMaterial(mat material.Material)

	// SetVertexData sets the raw vertex data for this model's mesh.
	//
	// Parameters:
	//   - data: the vertex data to set
	SetVertexData(data []byte)

	// SetIndexData sets the raw index data for this model's mesh.
	//
	// Parameters:
	//   - data: the index data to set
	SetIndexData(data []byte)

	// SetIndexCount sets the number of indices in the model's mesh.
	//
	// Parameters:
	//   - count: the index count to set
	SetIndexCount(count int)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// NewUnitQuad creates a Model holding a unit quad mesh centered at the origin in
// the XY plane, with a fresh mesh BindGroupProvider. The quad spans [-0.5, 0.5]
// on both axes; callers scale it in the vertex shader.
//
// Parameters:
//   - name: the model identifier, also used to label the mesh provider
//
// Returns:
//   - Model: a quad model ready for InitMeshBuffers
func NewUnitQuad(name string) Model {
	verts := []GPUQuadVertex{
		{Position: [3]float32{-0.5, -0.5, 0}, UV: [2]float32{0, 1}},
		{Position: [3]float32{0.5, -0.5, 0}, UV: [2]float32{1, 1}},
		{Position: [3]float32{0.5, 0.5, 0}, UV: [2]float32{1, 0}},
		{Position: [3]float32{-0.5, 0.5, 0}, UV: [2]float32{0, 0}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	return NewModel(
		WithName(name),
		WithMeshProvider(bind_group_provider.NewBindGroupProvider(name+"_mesh")),
		WithVertexData(MarshalQuadVertices(verts)),
		WithIndexData(MarshalIndices(indices)),
		WithIndexCount(len(indices)),
	)
}

func (m *model) Name() string {
	return m.name
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) SetVertexData(data []byte) {
	m.vertexData = data
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) SetIndexData(data []byte) {
	m.indexData = data
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) SetIndexCount(count int) {
	m.indexCount = count
}

func (m *model) RenderMaterial() material.Material {
	return m.renderMaterial
}

func (m *model) SetRenderMaterial(mat material.Material) {
	m.renderMaterial = mat
}
