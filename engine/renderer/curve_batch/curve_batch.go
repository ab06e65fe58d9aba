package curve_batch

import (
	_ "embed"
	"log"
	"sync"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
)

// CurveVertexShaderSource is the annotated WGSL vertex shader for the curve pass.
// It pulls line-segment vertices from the position and color storage buffers by
// vertex index, so the pipeline needs no vertex buffers.
//
//go:embed assets/curve_vert.wgsl
var CurveVertexShaderSource string

// CurveFragmentShaderSource is the annotated WGSL fragment shader for the curve pass.
// It applies the shared dash pattern by discarding fragments in the gap part of the
// dash period.
//
//go:embed assets/curve_frag.wgsl
var CurveFragmentShaderSource string

// CurveColor is the resolved color of one curve: either a single RGB value or a
// positional gradient interpolated along the sampled points.
type CurveColor struct {
	// Start is the curve color, or the color at the first control point when
	// Gradient is set.
	Start common.Vec3

	// End is the color at the last control point. Ignored unless Gradient is set.
	End common.Vec3

	// Gradient selects positional interpolation from Start to End.
	Gradient bool
}

// SolidColor returns a CurveColor that paints the whole curve with one RGB value.
func SolidColor(c common.Vec3) CurveColor {
	return CurveColor{Start: c}
}

// GradientColor returns a CurveColor interpolated from start to end along the curve.
func GradientColor(start, end common.Vec3) CurveColor {
	return CurveColor{Start: start, End: end, Gradient: true}
}

// curveSlot holds the CPU-side state for one curve index.
type curveSlot struct {
	points  []common.Vec3
	color   CurveColor
	set     bool
	visible bool
}

// curveBatch is the implementation of the CurveBatch interface.
type curveBatch struct {
	mu *sync.Mutex

	// provider holds the GPU resources for the curve pass: the curve globals uniform
	// and the position and color storage buffers.
	provider bind_group_provider.BindGroupProvider

	stagedWriteData []bind_group_provider.BufferWrite

	// maxCurves is the fixed slot capacity; segments is the per-curve sample segment
	// count, global to the renderer. Each curve owns 2*segments vertices written as
	// independent line segments so its buffer region is self-contained.
	maxCurves, segments uint32

	// visibleCurveCount is the leading-index draw-range cutoff. It assumes active
	// curves are kept compacted at the front of the index space by the caller; it
	// does not filter by per-slot visibility.
	visibleCurveCount uint32

	slots []curveSlot

	// positions and colors mirror the GPU storage buffers exactly: one vec4 per
	// vertex, xyz position plus cumulative arc length in w for positions.
	positions [][4]float32
	colors    [][4]float32

	globals      GPUCurveGlobals
	globalsDirty bool

	// Sparse per-attribute dirty tracking at slot granularity, so a color-only
	// change never re-uploads position data and vice versa.
	dirtyPosIndices []uint32
	dirtyPosBitset  []uint64
	dirtyColIndices []uint32
	dirtyColBitset  []uint64

	// Reusable staging buffers to avoid per-frame heap allocations.
	stagingPositions, stagingColors, stagingGlobals []byte
}

// CurveBatch renders up to maxCurves splines as one batched line-list draw call.
// Every curve occupies a fixed slot whose vertex region in the shared position,
// color, and arc-length storage is private to it, so writes for different slots
// never interfere. Invalid input (out-of-range index, fewer than 2 control points)
// is logged and discarded without touching any slot.
//
// Setters only mutate the CPU mirror and mark slots dirty; ApplyUpdates is the
// explicit flush that coalesces all mutations since the last call into a minimal
// set of contiguous GPU buffer writes.
type CurveBatch interface {
	// BindGroupProvider returns the BindGroupProvider holding the curve globals
	// uniform and the position and color storage buffers.
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

	// MaxCurves returns the fixed slot capacity of this batch.
	//
	// Returns:
	//   - uint32: the maximum number of curves supported
	MaxCurves() uint32

	// SegmentsPerCurve returns the fixed number of line segments each curve is
	// sampled into.
	//
	// Returns:
	//   - uint32: the per-curve segment count
	SegmentsPerCurve() uint32

	// VertsPerCurve returns the number of vertices each curve owns in the shared
	// buffers (two per segment, written as independent line segments).
	//
	// Returns:
	//   - uint32: the per-curve vertex count
	VertsPerCurve() uint32

	// SetCurve computes a spline through the given control points, samples it at
	// the fixed segment count, and rewrites this slot's position, arc-length, and
	// color regions. Warns and no-ops when the index is out of range or fewer than
	// 2 control points are supplied.
	//
	// Parameters:
	//   - index: the curve slot to update
	//   - points: ordered world-space control points, at least 2
	//   - color: the curve's solid or gradient color
	SetCurve(index uint32, points []common.Vec3, color CurveColor)

	// SetCurveColor rewrites only the color region of a slot, leaving its geometry
	// untouched.
	//
	// Parameters:
	//   - index: the curve slot to update
	//   - color: the new solid or gradient color
	SetCurveColor(index uint32, color CurveColor)

	// HideCurve zeroes the slot's position and arc-length region so it renders
	// zero visible length even when inside the visible-count cutoff. The color
	// region is left untouched.
	//
	// Parameters:
	//   - index: the curve slot to hide
	HideCurve(index uint32)

	// SetVisibleCurveCount sets how many leading curve slots are submitted to the
	// draw call. This is a draw-range cutoff, not a per-slot visibility filter;
	// callers keep active curves compacted at the front of the index space.
	//
	// Parameters:
	//   - count: the number of leading slots to render, clamped to capacity
	SetVisibleCurveCount(count uint32)

	// VisibleCurveCount returns the current draw-range cutoff.
	//
	// Returns:
	//   - uint32: the number of leading slots rendered
	VisibleCurveCount() uint32

	// DrawVertexCount returns the number of vertices the draw call submits under
	// the current visible-count cutoff.
	//
	// Returns:
	//   - uint32: the line-list vertex count
	DrawVertexCount() uint32

	// SetDashPattern sets the shared dash pattern applied uniformly to all curves.
	// A dash length of 0 renders solid lines. Switching between solid and dashed
	// recomputes the per-vertex cumulative arc lengths of every set curve.
	//
	// Parameters:
	//   - dash: dash segment length in world units, 0 for solid lines
	//   - gap: gap length in world units
	SetDashPattern(dash, gap float32)

	// DashPattern returns the current shared dash pattern.
	//
	// Returns:
	//   - float32: the dash length, 0 when solid
	//   - float32: the gap length
	DashPattern() (float32, float32)

	// SetOpacity sets the alpha applied uniformly to every curve fragment.
	// Values are clamped to [0, 1]. Defaults to 1 (fully opaque).
	//
	// Parameters:
	//   - opacity: the global curve alpha
	SetOpacity(opacity float32)

	// Opacity returns the current global curve alpha.
	//
	// Returns:
	//   - float32: the alpha in [0, 1]
	Opacity() float32

	// Remove hides a slot and clears its stored control points so Exists reports
	// false. The slot's buffer region stays allocated and is reused by index.
	//
	// Parameters:
	//   - index: the curve slot to remove
	Remove(index uint32)

	// Exists reports whether a slot currently holds a curve.
	//
	// Parameters:
	//   - index: the curve slot to probe
	//
	// Returns:
	//   - bool: true if SetCurve has populated the slot and Remove has not cleared it
	Exists(index uint32) bool

	// ApplyUpdates is the explicit flush checkpoint: all buffer mutations since the
	// last call are coalesced into contiguous GPU buffer writes, batching a frame's
	// worth of setter calls into effectively one upload per attribute type.
	//
	// Parameters:
	//   - globalsBinding: the binding index for the curve globals uniform
	//   - positionBinding: the binding index for the position storage buffer
	//   - colorBinding: the binding index for the color storage buffer
	//
	// Returns:
	//   - uint32: the number of dirty slots flushed
	ApplyUpdates(globalsBinding, positionBinding, colorBinding int) uint32

	// StagedWriteData returns and clears the pending GPU buffer writes. The
	// renderer drains these and submits them via WriteBuffers.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: the pending buffer writes
	StagedWriteData() []bind_group_provider.BufferWrite

	// Release frees all GPU resources held by this batch's provider.
	Release()
}

var _ CurveBatch = &curveBatch{}

// NewCurveBatch creates a new CurveBatch with the provided options applied.
//
// Parameters:
//   - options: variadic list of CurveBatchBuilderOption functions to configure the batch
//
// Returns:
//   - CurveBatch: a new CurveBatch instance
func NewCurveBatch(options ...CurveBatchBuilderOption) CurveBatch {
	c := &curveBatch{
		mu:        &sync.Mutex{},
		maxCurves: 10000,
		segments:  32,
		// Dirty from the start so the first flush uploads the default globals
		// (solid lines, full opacity) instead of a zeroed uniform.
		globals:      GPUCurveGlobals{Opacity: 1},
		globalsDirty: true,
	}
	for _, opt := range options {
		opt(c)
	}
	c.slots = make([]curveSlot, c.maxCurves)
	verts := int(c.maxCurves) * int(c.VertsPerCurve())
	c.positions = make([][4]float32, verts)
	c.colors = make([][4]float32, verts)
	c.provider = bind_group_provider.NewBindGroupProvider("curve_batch")
	c.stagedWriteData = make([]bind_group_provider.BufferWrite, 0, 3)
	c.dirtyPosIndices = make([]uint32, 0, c.maxCurves)
	c.dirtyPosBitset = make([]uint64, (c.maxCurves+63)/64)
	c.dirtyColIndices = make([]uint32, 0, c.maxCurves)
	c.dirtyColBitset = make([]uint64, (c.maxCurves+63)/64)
	c.stagingPositions = make([]byte, verts*16)
	c.stagingColors = make([]byte, verts*16)
	c.stagingGlobals = make([]byte, (&GPUCurveGlobals{}).Size())
	return c
}

func (c *curveBatch) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

func (c *curveBatch) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider = provider
}

func (c *curveBatch) MaxCurves() uint32 {
	return c.maxCurves
}

func (c *curveBatch) SegmentsPerCurve() uint32 {
	return c.segments
}

func (c *curveBatch) VertsPerCurve() uint32 {
	return c.segments * 2
}

func (c *curveBatch) SetCurve(index uint32, points []common.Vec3, color CurveColor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxCurves {
		log.Printf("[CurveBatch] SetCurve: index %d out of range (max %d)", index, c.maxCurves)
		return
	}
	if len(points) < 2 {
		log.Printf("[CurveBatch] SetCurve: need at least 2 control points, got %d", len(points))
		return
	}

	slot := &c.slots[index]
	slot.points = append(slot.points[:0], points...)
	slot.color = color
	slot.set = true
	slot.visible = true

	c.rebuildPositions(index)
	c.rebuildColors(index)
	c.enqueueDirty(index, &c.dirtyPosIndices, c.dirtyPosBitset)
	c.enqueueDirty(index, &c.dirtyColIndices, c.dirtyColBitset)
}

func (c *curveBatch) SetCurveColor(index uint32, color CurveColor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxCurves {
		log.Printf("[CurveBatch] SetCurveColor: index %d out of range (max %d)", index, c.maxCurves)
		return
	}

	slot := &c.slots[index]
	slot.color = color
	if !slot.set {
		return
	}
	c.rebuildColors(index)
	c.enqueueDirty(index, &c.dirtyColIndices, c.dirtyColBitset)
}

func (c *curveBatch) HideCurve(index uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxCurves {
		log.Printf("[CurveBatch] HideCurve: index %d out of range (max %d)", index, c.maxCurves)
		return
	}

	slot := &c.slots[index]
	slot.visible = false
	c.zeroPositions(index)
	c.enqueueDirty(index, &c.dirtyPosIndices, c.dirtyPosBitset)
}

func (c *curveBatch) SetVisibleCurveCount(count uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count > c.maxCurves {
		log.Printf("[CurveBatch] SetVisibleCurveCount: count %d clamped to capacity %d", count, c.maxCurves)
		count = c.maxCurves
	}
	c.visibleCurveCount = count
}

func (c *curveBatch) VisibleCurveCount() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleCurveCount
}

func (c *curveBatch) DrawVertexCount() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleCurveCount * c.segments * 2
}

func (c *curveBatch) SetDashPattern(dash, gap float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasDashed := c.globals.DashLength > 0
	c.globals.DashLength = dash
	c.globals.GapLength = gap
	c.globalsDirty = true

	// Crossing between solid and dashed changes whether the w lanes carry
	// cumulative arc lengths, so every set curve's position region is rebuilt.
	if wasDashed != (dash > 0) {
		for i := uint32(0); i < c.maxCurves; i++ {
			if !c.slots[i].set || !c.slots[i].visible {
				continue
			}
			c.rebuildPositions(i)
			c.enqueueDirty(i, &c.dirtyPosIndices, c.dirtyPosBitset)
		}
	}
}

func (c *curveBatch) DashPattern() (float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.globals.DashLength, c.globals.GapLength
}

func (c *curveBatch) SetOpacity(opacity float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}
	c.globals.Opacity = opacity
	c.globalsDirty = true
}

func (c *curveBatch) Opacity() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.globals.Opacity
}

func (c *curveBatch) Remove(index uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxCurves {
		return
	}

	slot := &c.slots[index]
	if !slot.set {
		return
	}
	slot.set = false
	slot.visible = false
	slot.points = slot.points[:0]
	c.zeroPositions(index)
	c.enqueueDirty(index, &c.dirtyPosIndices, c.dirtyPosBitset)
}

func (c *curveBatch) Exists(index uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxCurves {
		return false
	}
	return c.slots[index].set
}

func (c *curveBatch) ApplyUpdates(globalsBinding, positionBinding, colorBinding int) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.globalsDirty {
		raw := c.globals.Marshal()
		buf := c.stagingGlobals[:len(raw)]
		copy(buf, raw)
		c.stagedWriteData = append(c.stagedWriteData, bind_group_provider.BufferWrite{
			Provider: c.provider,
			Binding:  globalsBinding,
			Offset:   0,
			Data:     buf,
		})
		c.globalsDirty = false
	}

	count := uint32(len(c.dirtyPosIndices)) + uint32(len(c.dirtyColIndices))
	c.flushAttribute(&c.dirtyPosIndices, c.dirtyPosBitset, c.positions, c.stagingPositions, positionBinding)
	c.flushAttribute(&c.dirtyColIndices, c.dirtyColBitset, c.colors, c.stagingColors, colorBinding)
	return count
}

func (c *curveBatch) StagedWriteData() []bind_group_provider.BufferWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.stagedWriteData
	c.stagedWriteData = c.stagedWriteData[:0]
	return w
}

func (c *curveBatch) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		c.provider.Release()
	}
	c.slots = nil
	c.positions = nil
	c.colors = nil
	c.stagedWriteData = nil
	c.stagingPositions = nil
	c.stagingColors = nil
	c.stagingGlobals = nil
}

// rebuildPositions resamples a slot's spline into its private vertex region as
// independent line segments, filling w lanes with cumulative arc lengths when the
// dash pattern is active. Caller must hold c.mu.
func (c *curveBatch) rebuildPositions(index uint32) {
	slot := &c.slots[index]
	if !slot.visible {
		c.zeroPositions(index)
		return
	}

	samples := common.ResampleSpline(slot.points, int(c.segments))
	var arcs []float32
	if c.globals.DashLength > 0 {
		arcs = common.CumulativeArcLengths(samples)
	}

	base := index * c.VertsPerCurve()
	for i := uint32(0); i < c.segments; i++ {
		a, b := samples[i], samples[i+1]
		var wa, wb float32
		if arcs != nil {
			wa, wb = arcs[i], arcs[i+1]
		}
		c.positions[base+2*i] = [4]float32{a[0], a[1], a[2], wa}
		c.positions[base+2*i+1] = [4]float32{b[0], b[1], b[2], wb}
	}
}

// rebuildColors rewrites a slot's color region, interpolating gradient colors by
// each vertex's position along the sampled sequence. Caller must hold c.mu.
func (c *curveBatch) rebuildColors(index uint32) {
	slot := &c.slots[index]
	base := index * c.VertsPerCurve()
	for i := uint32(0); i < c.segments; i++ {
		ca := c.colorAt(slot, float32(i)/float32(c.segments))
		cb := c.colorAt(slot, float32(i+1)/float32(c.segments))
		c.colors[base+2*i] = [4]float32{ca[0], ca[1], ca[2], 1}
		c.colors[base+2*i+1] = [4]float32{cb[0], cb[1], cb[2], 1}
	}
}

func (c *curveBatch) colorAt(slot *curveSlot, t float32) common.Vec3 {
	if !slot.color.Gradient {
		return slot.color.Start
	}
	return slot.color.Start.Lerp(slot.color.End, t)
}

// zeroPositions clears a slot's position and arc-length region so the curve
// contributes zero visible length. Caller must hold c.mu.
func (c *curveBatch) zeroPositions(index uint32) {
	base := index * c.VertsPerCurve()
	for i := uint32(0); i < c.VertsPerCurve(); i++ {
		c.positions[base+i] = [4]float32{}
	}
}

// enqueueDirty adds a slot index to one of the dirty queues if not already present.
// Uses a bitset for O(1) dedup. Caller must hold c.mu.
func (c *curveBatch) enqueueDirty(index uint32, indices *[]uint32, bitset []uint64) {
	word := index / 64
	bit := uint64(1) << (index % 64)
	if bitset[word]&bit != 0 {
		return
	}
	bitset[word] |= bit
	*indices = append(*indices, index)
}

// flushAttribute coalesces one attribute's dirty slots into contiguous staged
// buffer writes at slot-region granularity, then clears the dirty state.
// Caller must hold c.mu.
func (c *curveBatch) flushAttribute(indices *[]uint32, bitset []uint64, mirror [][4]float32, staging []byte, binding int) {
	if len(*indices) == 0 {
		return
	}

	sortUint32(*indices)

	runStart := (*indices)[0]
	runEnd := runStart + 1 // exclusive

	for i := 1; i < len(*indices); i++ {
		idx := (*indices)[i]
		if idx == runEnd {
			runEnd++
		} else {
			c.flushRange(runStart, runEnd, mirror, staging, binding)
			runStart = idx
			runEnd = idx + 1
		}
	}
	c.flushRange(runStart, runEnd, mirror, staging, binding)

	*indices = (*indices)[:0]
	for i := range bitset {
		bitset[i] = 0
	}
}

// flushRange stages a contiguous run of slot regions [start, end) as a single GPU
// buffer write into the given staging pool. Caller must hold c.mu.
func (c *curveBatch) flushRange(start, end uint32, mirror [][4]float32, staging []byte, binding int) {
	verts := c.VertsPerCurve()
	offset := uint64(start) * uint64(verts) * 16
	dirty := mirror[start*verts : end*verts]
	raw := common.SliceToBytes(dirty)
	buf := staging[offset : offset+uint64(len(raw))]
	copy(buf, raw)

	c.stagedWriteData = append(c.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: c.provider,
		Binding:  binding,
		Offset:   offset,
		Data:     buf,
	})
}

// sortUint32 sorts a uint32 slice in ascending order using insertion sort.
// For typical dirty queue sizes, insertion sort outperforms sort.Slice due to
// zero allocation and low overhead.
func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j] > key {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
