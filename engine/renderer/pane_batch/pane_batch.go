package pane_batch

import (
	_ "embed"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
)

// BatchedVertexShaderSource is the annotated WGSL vertex shader for the batched GPU
// backend. It evaluates each pane's spline, tangent, and orientation basis per
// instance from the pane_data storage buffer.
//
//go:embed assets/pane_batched_vert.wgsl
var BatchedVertexShaderSource string

// InstancedVertexShaderSource is the annotated WGSL vertex shader for the CPU
// per-entity backend. It applies a host-evaluated model matrix per instance.
//
//go:embed assets/pane_instanced_vert.wgsl
var InstancedVertexShaderSource string

// FragmentShaderSource is the annotated WGSL fragment shader shared by both pane
// backends. It samples the shared atlas texture and discards fully transparent
// fragments.
//
//go:embed assets/pane_frag.wgsl
var FragmentShaderSource string

// paneBatch is the implementation of the PaneBatch interface.
type paneBatch struct {
	backendType BackendType
	backend     paneBackend
}

// PaneBatch renders up to maxPanes oriented quads that travel along per-pane splines,
// in a single instanced draw call. Every pane occupies a fixed integer slot; slots are
// created by writing control points, hidden by flipping visibility, and reused by
// index, never reallocated.
//
// Two backends exist. The batched GPU backend keeps all control points and animation
// state in a storage buffer and evaluates position, tangent, and orientation in the
// vertex shader, so the per-frame CPU cost is a single clock advance regardless of
// pane count. The CPU fallback backend evaluates everything host-side each frame and
// uploads finished model matrices instead. The backend is chosen once at construction;
// callers that need to know which one is active use SupportsGPUControlPoints rather
// than probing for optional methods.
type PaneBatch interface {
	// BackendType returns the type of backend this batch is using.
	//
	// Returns:
	//   - BackendType: BackendTypeGPUBatched or BackendTypeCPUPerEntity
	BackendType() BackendType

	// SupportsGPUControlPoints reports whether the active backend stores spline
	// control points on the GPU and evaluates them in the vertex shader.
	//
	// Returns:
	//   - bool: true for the batched GPU backend, false for the CPU fallback
	SupportsGPUControlPoints() bool

	// BindGroupProvider returns the BindGroupProvider holding the batch's shared
	// animation state and per-pane instance buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the batch's BindGroupProvider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider replaces the batch's BindGroupProvider, which may be
	// necessary if GPU resources are recreated.
	//
	// Parameters:
	//   - provider: the new BindGroupProvider
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)

	// MaxPanes returns the fixed slot capacity of this batch.
	//
	// Returns:
	//   - uint32: the maximum number of panes supported
	MaxPanes() uint32

	// PaneCount returns the number of leading slots that have been populated at
	// least once. This bounds the instance count submitted in draw calls.
	//
	// Returns:
	//   - uint32: the highest populated slot index plus one
	PaneCount() uint32

	// BaseSize returns the shared world-space edge length of an unscaled quad.
	//
	// Returns:
	//   - float32: the base quad size in world units
	BaseSize() float32

	// SetControlPoints stores exactly 4 spline control points for a slot and flips
	// it visible. Warns and no-ops when the index is out of range or fewer than 4
	// points are supplied; an invalid call never touches any slot's data.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - points: the control points; the first 4 are stored
	SetControlPoints(index uint32, points []common.Vec3)

	// SetAnimationSpeed changes a pane's speed while preserving its current visual
	// phase across the change, so a mid-flight speed change never causes a jump.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - speed: the new speed in curve lengths per second
	SetAnimationSpeed(index uint32, speed float32)

	// AnimationSpeed returns the current speed for a slot, or 0 when out of range.
	//
	// Parameters:
	//   - index: the pane slot to query
	//
	// Returns:
	//   - float32: the current animation speed
	AnimationSpeed(index uint32) float32

	// SetTiltMode selects a pane's orientation mode.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - mode: TiltModePerpendicular or TiltModeTangent
	SetTiltMode(index uint32, mode TiltMode)

	// SetColor sets a pane's RGB tint.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - color: the RGB tint, each component in [0,1]
	SetColor(index uint32, color common.Vec3)

	// SetScale sets a pane's quad scale relative to the shared base size.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - scale: the scale factor
	SetScale(index uint32, scale float32)

	// SetElevationOffset sets the distance a pane is pushed outward along the
	// normalized evaluated position before orientation is applied. Suitable for
	// entities moving over a sphere centered at the origin.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - offset: the elevation offset in world units
	SetElevationOffset(index uint32, offset float32)

	// SetTextureIndex points a pane at one tile of the shared atlas, rewriting its
	// UV rectangle. No-op when no atlas has been set via SetTexture.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - tile: the atlas tile index, clamped to the atlas tile count
	SetTextureIndex(index uint32, tile int)

	// SetTexture stores the shared atlas texture staging data and layout. The scene
	// uploads the texture when initializing GPU resources. Panes keep an identity
	// UV rectangle until SetTextureIndex is called for their slot.
	//
	// Parameters:
	//   - staging: the decoded texture data ready for GPU upload
	//   - atlas: the atlas grid layout
	SetTexture(staging common.TextureStagingData, atlas AtlasInfo)

	// Texture returns the staged atlas texture data and whether one has been set.
	//
	// Returns:
	//   - common.TextureStagingData: the staged texture data
	//   - bool: true if SetTexture has been called
	Texture() (common.TextureStagingData, bool)

	// SetVisible shows or hides a single pane. Hidden panes stay resident in the
	// instance buffer; the shader collapses them to a degenerate point.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - visible: whether the pane should render
	SetVisible(index uint32, visible bool)

	// SetReturnMode toggles the shared time-to-parameter mapping between looping
	// and ping-pong (out-and-back). This is a single value broadcast to every
	// pane, not a per-slot attribute.
	//
	// Parameters:
	//   - enabled: true for ping-pong animation
	SetReturnMode(enabled bool)

	// ReturnMode returns whether ping-pong animation is active.
	//
	// Returns:
	//   - bool: true when ping-pong animation is enabled
	ReturnMode() bool

	// Time returns the shared animation clock.
	//
	// Returns:
	//   - float32: accumulated time in seconds
	Time() float32

	// AnimationParameter evaluates the current curve parameter t in [0,1] for a
	// slot under the active time mapping.
	//
	// Parameters:
	//   - index: the pane slot to query
	//
	// Returns:
	//   - float32: the current curve parameter, 0 when out of range
	AnimationParameter(index uint32) float32

	// PaneData returns a copy of the stored per-pane state for a slot.
	//
	// Parameters:
	//   - index: the pane slot to query
	//
	// Returns:
	//   - GPUPaneData: a copy of the slot's state
	//   - bool: false when the index is out of range
	PaneData(index uint32) (GPUPaneData, bool)

	// Update advances the shared animation clock by deltaTime and stages the
	// per-frame GPU writes. This is the only required per-frame call; all per-pane
	// position and orientation work happens in the vertex shader (batched backend)
	// or inside this call (CPU fallback).
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//   - globalsBinding: the binding index for the shared animation state
	//   - instanceBinding: the binding index for the per-pane instance buffer
	Update(deltaTime float32, globalsBinding, instanceBinding int)

	// Flush stages dirty per-pane data as coalesced GPU buffer writes. Instance
	// attribute setters mark their own slot dirty immediately, so callers flush
	// once per frame before the draw rather than after each setter.
	//
	// Parameters:
	//   - instanceBinding: the binding index for the per-pane instance buffer
	//
	// Returns:
	//   - uint32: the number of panes flushed
	Flush(instanceBinding int) uint32

	// StagedWriteData returns and clears the pending GPU buffer writes. The
	// renderer drains these and submits them via WriteBuffers.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the pending buffer writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// Release frees all GPU resources held by this batch's provider.
	Release()
}

var _ PaneBatch = &paneBatch{}

// NewPaneBatch creates a new PaneBatch with the specified backend type. The backend
// is chosen once here and never probed again; callers branch on
// SupportsGPUControlPoints when they need backend-specific behavior.
//
// Parameters:
//   - backendType: BackendTypeGPUBatched or BackendTypeCPUPerEntity
//   - options: variadic list of PaneBatchBuilderOption functions to configure the batch
//
// Returns:
//   - PaneBatch: a new PaneBatch configured with the specified backend and options
func NewPaneBatch(backendType BackendType, options ...PaneBatchBuilderOption) PaneBatch {
	p := &paneBatch{
		backendType: backendType,
	}
	switch backendType {
	case BackendTypeCPUPerEntity:
		p.backend = newCPUPerEntityBackend()
	case BackendTypeGPUBatched:
		fallthrough
	default:
		p.backend = newGPUBatchedBackend()
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *paneBatch) BackendType() BackendType {
	return p.backendType
}

func (p *paneBatch) SupportsGPUControlPoints() bool {
	return p.backend.SupportsGPUControlPoints()
}

func (p *paneBatch) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return p.backend.BindGroupProvider()
}

func (p *paneBatch) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	p.backend.SetBindGroupProvider(provider)
}

func (p *paneBatch) MaxPanes() uint32 {
	return p.backend.MaxPanes()
}

func (p *paneBatch) PaneCount() uint32 {
	return p.backend.PaneCount()
}

func (p *paneBatch) BaseSize() float32 {
	return p.backend.BaseSize()
}

func (p *paneBatch) SetControlPoints(index uint32, points []common.Vec3) {
	p.backend.SetControlPoints(index, points)
}

func (p *paneBatch) SetAnimationSpeed(index uint32, speed float32) {
	p.backend.SetAnimationSpeed(index, speed)
}

func (p *paneBatch) AnimationSpeed(index uint32) float32 {
	return p.backend.AnimationSpeed(index)
}

func (p *paneBatch) SetTiltMode(index uint32, mode TiltMode) {
	p.backend.SetTiltMode(index, mode)
}

func (p *paneBatch) SetColor(index uint32, color common.Vec3) {
	p.backend.SetColor(index, color)
}

func (p *paneBatch) SetScale(index uint32, scale float32) {
	p.backend.SetScale(index, scale)
}

func (p *paneBatch) SetElevationOffset(index uint32, offset float32) {
	p.backend.SetElevationOffset(index, offset)
}

func (p *paneBatch) SetTextureIndex(index uint32, tile int) {
	p.backend.SetTextureIndex(index, tile)
}

func (p *paneBatch) SetTexture(staging common.TextureStagingData, atlas AtlasInfo) {
	p.backend.SetTexture(staging, atlas)
}

func (p *paneBatch) Texture() (common.TextureStagingData, bool) {
	return p.backend.Texture()
}

func (p *paneBatch) SetVisible(index uint32, visible bool) {
	p.backend.SetVisible(index, visible)
}

func (p *paneBatch) SetReturnMode(enabled bool) {
	p.backend.SetReturnMode(enabled)
}

func (p *paneBatch) ReturnMode() bool {
	return p.backend.ReturnMode()
}

func (p *paneBatch) Time() float32 {
	return p.backend.Time()
}

func (p *paneBatch) AnimationParameter(index uint32) float32 {
	return p.backend.AnimationParameter(index)
}

func (p *paneBatch) PaneData(index uint32) (GPUPaneData, bool) {
	return p.backend.PaneData(index)
}

func (p *paneBatch) Update(deltaTime float32, globalsBinding, instanceBinding int) {
	p.backend.Update(deltaTime, globalsBinding, instanceBinding)
}

func (p *paneBatch) Flush(instanceBinding int) uint32 {
	return p.backend.Flush(instanceBinding)
}

func (p *paneBatch) StagedWriteData() []bind_group_provider.BufferWrite {
	return p.backend.StagedWriteData()
}

func (p *paneBatch) Release() {
	p.backend.Release()
}
