package material

import (
	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// material is the implementation of the Material interface.
type material struct {
	name              string
	diffuseStaging    common.TextureStagingData
	samplerStaging    common.SamplerStagingData
	pipelineKey       string
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material bundles the texture and sampler a render pipeline samples in its fragment
// shader, together with the GPU resource bindings needed for draw calls.
//
// The staging data is set at construction and uploaded once during the scene's GPU-init
// phase. GPU resource references (pipeline key, bind group provider) are mutable so
// they can be configured after construction.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// DiffuseStaging retrieves the decoded texture data pending GPU upload.
	//
	// Returns:
	//   - common.TextureStagingData: the staged texture data
	DiffuseStaging() common.TextureStagingData

	// SamplerStaging retrieves the sampler configuration pending GPU creation.
	//
	// Returns:
	//   - common.SamplerStagingData: the staged sampler configuration
	SamplerStaging() common.SamplerStagingData

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Without a WithDiffuseTexture option the material stages a single opaque white
// pixel, which renders untextured geometry at full tint color.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		diffuseStaging: WhiteTexture(),
		samplerStaging: DefaultSampler(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// WhiteTexture returns staging data for a 1x1 opaque white RGBA texture.
//
// Returns:
//   - common.TextureStagingData: a single white pixel ready for GPU upload
func WhiteTexture() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: []byte{255, 255, 255, 255},
		Width:  1,
		Height: 1,
	}
}

// DefaultSampler returns the sampler configuration used when no override is supplied:
// linear filtering with clamped addressing, suitable for atlas sampling where tile
// edges must not bleed into neighboring tiles.
//
// Returns:
//   - common.SamplerStagingData: the default sampler configuration
func DefaultSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

func (m *material) Name() string {
	return m.name
}

func (m *material) DiffuseStaging() common.TextureStagingData {
	return m.diffuseStaging
}

func (m *material) SamplerStaging() common.SamplerStagingData {
	return m.samplerStaging
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
