package material

import (
	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithDiffuseTexture is an option builder that sets the staged diffuse texture data.
//
// Parameters:
//   - staging: the decoded RGBA texture data pending GPU upload
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(staging common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseStaging = staging
	}
}

// WithSampler is an option builder that overrides the default sampler configuration.
//
// Parameters:
//   - staging: the sampler configuration pending GPU creation
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sampler option to a material
func WithSampler(staging common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.samplerStaging = staging
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key to associate with the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithBindGroupProvider is an option builder that sets the bind group provider for the material.
//
// Parameters:
//   - provider: the bind group provider containing GPU resources for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bind group provider option to a material
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) MaterialBuilderOption {
	return func(m *material) {
		m.bindGroupProvider = provider
	}
}
