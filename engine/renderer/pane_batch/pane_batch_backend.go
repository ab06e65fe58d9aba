package pane_batch

import (
	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
)

// BackendType identifies the type of backend used by a PaneBatch.
type BackendType int

const (
	// BackendTypeGPUBatched is the batched GPU backend. Per-pane control points and
	// animation state live in a storage buffer and the vertex shader evaluates the
	// spline, tangent, and orientation basis for every instance each frame. The CPU's
	// only per-frame work is advancing the shared clock.
	BackendTypeGPUBatched BackendType = iota

	// BackendTypeCPUPerEntity is the fallback backend for hosts without storage-buffer
	// control-point upload. The CPU evaluates position and orientation for every pane
	// each frame and uploads finished model matrices instead of control points.
	BackendTypeCPUPerEntity
)

// TiltMode selects how a pane's quad is oriented relative to its direction of travel.
type TiltMode int

const (
	// TiltModePerpendicular orients the quad's face normal along the curve tangent.
	TiltModePerpendicular TiltMode = iota

	// TiltModeTangent additionally rotates the quad 90 degrees about its local right
	// axis so it lies flat along the direction of travel.
	TiltModeTangent
)

// AtlasInfo describes the layout of a texture atlas shared by all panes. Tile UV
// rectangles are derived from it by SetTextureIndex.
type AtlasInfo struct {
	// Columns and Rows give the atlas grid dimensions.
	Columns, Rows int

	// TileCount is the number of valid tiles; tile indices are clamped to [0, TileCount).
	TileCount int

	// ScaleX and ScaleY are the UV extents of a single tile.
	ScaleX, ScaleY float32
}

// paneBackend is the interface both pane backends implement. The PaneBatch wrapper
// delegates every call to its backend. All per-pane state is stored
// structure-of-arrays style, indexed by a stable integer slot that mirrors the GPU
// buffer layout exactly; slots are shown and hidden but never reallocated.
type paneBackend interface {
	// BindGroupProvider returns the BindGroupProvider holding the backend's shared
	// animation state and per-pane instance buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the backend's BindGroupProvider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider replaces the backend's BindGroupProvider, which may be
	// necessary if GPU resources are recreated.
	//
	// Parameters:
	//   - provider: the new BindGroupProvider
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)

	// SupportsGPUControlPoints reports whether this backend stores spline control
	// points on the GPU and evaluates them in the vertex shader.
	//
	// Returns:
	//   - bool: true for the batched GPU backend, false for the CPU fallback
	SupportsGPUControlPoints() bool

	// MaxPanes returns the fixed slot capacity of this backend.
	//
	// Returns:
	//   - uint32: the maximum number of panes supported
	MaxPanes() uint32

	// SetMaxPanes resizes the slot capacity. All existing pane data is discarded.
	// Must be called before any slots are populated.
	//
	// Parameters:
	//   - maxPanes: the maximum number of panes to support
	SetMaxPanes(maxPanes uint32)

	// PaneCount returns the number of leading slots that have been populated at
	// least once. This bounds the instance count submitted in draw calls.
	//
	// Returns:
	//   - uint32: the highest populated slot index plus one
	PaneCount() uint32

	// SetBaseSize sets the world-space edge length of an unscaled quad, shared by
	// every pane. Per-slot scale factors are applied relative to this.
	//
	// Parameters:
	//   - size: the base quad size in world units
	SetBaseSize(size float32)

	// BaseSize returns the shared base quad size.
	//
	// Returns:
	//   - float32: the base quad size in world units
	BaseSize() float32

	// SetControlPoints stores exactly 4 spline control points for a slot and flips
	// it visible. The call warns and no-ops when the index is out of range or fewer
	// than 4 points are supplied.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - points: the control points; the first 4 are stored
	SetControlPoints(index uint32, points []common.Vec3)

	// SetAnimationSpeed changes a pane's speed while preserving its current visual
	// phase: a new phase offset is back-solved so the evaluated curve parameter is
	// identical immediately before and after the call.
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
	// normalized evaluated position before orientation is applied.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - offset: the elevation offset in world units
	SetElevationOffset(index uint32, offset float32)

	// SetTextureIndex points a pane at one tile of the shared atlas, rewriting its
	// UV rectangle. No-op when no atlas has been set.
	//
	// Parameters:
	//   - index: the pane slot to update
	//   - tile: the atlas tile index, clamped to the atlas tile count
	SetTextureIndex(index uint32, tile int)

	// SetTexture stores the shared atlas texture staging data and layout. The scene
	// uploads the texture when initializing GPU resources.
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
	// and ping-pong. This is broadcast to every pane, not a per-slot attribute.
	//
	// Parameters:
	//   - enabled: true for ping-pong (out-and-back) animation
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
	// slot under the active time mapping. Returns 0 when out of range.
	//
	// Parameters:
	//   - index: the pane slot to query
	//
	// Returns:
	//   - float32: the current curve parameter
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
	// per-frame GPU writes. For the batched backend that is a single globals
	// uniform write; the CPU fallback additionally re-evaluates every populated
	// pane's model matrix.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//   - globalsBinding: the binding index for the shared animation state
	//   - instanceBinding: the binding index for the per-pane instance buffer
	Update(deltaTime float32, globalsBinding, instanceBinding int)

	// Flush stages dirty per-pane data as coalesced GPU buffer writes.
	//
	// Parameters:
	//   - instanceBinding: the binding index for the per-pane instance buffer
	//
	// Returns:
	//   - uint32: the number of panes flushed
	Flush(instanceBinding int) uint32

	// StagedWriteData returns and clears the pending GPU buffer writes.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the pending buffer writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// Release frees GPU resources held by this backend's provider.
	Release()
}
