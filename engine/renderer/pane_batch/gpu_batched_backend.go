package pane_batch

import (
	"log"
	"sync"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
)

// gpuBatchedBackendImpl is the batched GPU implementation of paneBackend. Per-pane
// state is mirrored CPU-side in a single GPUPaneData slice whose layout matches the
// instance storage buffer byte-for-byte, so a dirty slot flushes as one contiguous copy.
type gpuBatchedBackendImpl struct {
	mu *sync.Mutex

	// provider holds the GPU resources for the pane render pass: the shared globals
	// uniform and the per-pane instance storage buffer.
	provider bind_group_provider.BindGroupProvider

	// stagedWriteData accumulates BufferWrite entries between Flush/Update and the
	// renderer draining them via StagedWriteData.
	stagedWriteData []bind_group_provider.BufferWrite

	// maxPanes is the fixed slot capacity; paneCount tracks the highest populated
	// slot plus one and bounds the instance count in draw calls.
	maxPanes, paneCount uint32

	// paneData is the CPU-side source of truth for every slot, indexed by slot.
	paneData []GPUPaneData

	// Sparse dirty tracking: dirtyIndices holds slot indices mutated since the last
	// Flush; dirtyBitset provides O(1) dedup so an index isn't enqueued twice.
	dirtyIndices []uint32
	dirtyBitset  []uint64

	// globals is the shared animation state broadcast to every pane.
	globals GPUPaneGlobals

	// returnMode mirrors globals.ReturnMode as a bool for phase back-solving.
	returnMode bool

	// atlas is the shared texture atlas layout; atlasSet guards SetTextureIndex.
	atlas    AtlasInfo
	atlasSet bool

	// texture holds the staged atlas texture data until the scene uploads it.
	texture    common.TextureStagingData
	textureSet bool

	// Reusable staging buffers to avoid per-frame heap allocations. The GPU queue
	// copies write data internally before returning, so reuse across frames is safe.
	stagingInstance, stagingGlobals []byte
}

// compile-time check that gpuBatchedBackendImpl implements paneBackend.
var _ paneBackend = &gpuBatchedBackendImpl{}

// newGPUBatchedBackend creates the batched GPU pane backend with default capacity.
//
// Returns:
//   - paneBackend: a new batched GPU backend instance
func newGPUBatchedBackend() paneBackend {
	g := &gpuBatchedBackendImpl{
		mu:       &sync.Mutex{},
		maxPanes: 10000,
		globals:  GPUPaneGlobals{BaseSize: 1},
	}
	g.paneData = make([]GPUPaneData, g.maxPanes)
	g.provider = bind_group_provider.NewBindGroupProvider("pane_batch")
	g.stagedWriteData = make([]bind_group_provider.BufferWrite, 0, 2)
	g.dirtyIndices = make([]uint32, 0, g.maxPanes)
	g.dirtyBitset = make([]uint64, (g.maxPanes+63)/64)
	g.initStagingPool()
	return g
}

// initStagingPool allocates the reusable staging byte slices sized to the current
// maxPanes. Called at init time and after SetMaxPanes.
func (g *gpuBatchedBackendImpl) initStagingPool() {
	g.stagingInstance = make([]byte, int(g.maxPanes)*(&GPUPaneData{}).Size())
	g.stagingGlobals = make([]byte, (&GPUPaneGlobals{}).Size())
}

func (g *gpuBatchedBackendImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.provider
}

func (g *gpuBatchedBackendImpl) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.provider = provider
}

func (g *gpuBatchedBackendImpl) SupportsGPUControlPoints() bool {
	return true
}

func (g *gpuBatchedBackendImpl) MaxPanes() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxPanes
}

func (g *gpuBatchedBackendImpl) SetMaxPanes(maxPanes uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maxPanes = maxPanes
	g.paneData = make([]GPUPaneData, maxPanes)
	g.paneCount = 0
	g.dirtyIndices = g.dirtyIndices[:0]
	g.dirtyBitset = make([]uint64, (maxPanes+63)/64)
	g.initStagingPool()
}

func (g *gpuBatchedBackendImpl) SetBaseSize(size float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.globals.BaseSize = size
}

func (g *gpuBatchedBackendImpl) BaseSize() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.globals.BaseSize
}

func (g *gpuBatchedBackendImpl) PaneCount() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paneCount
}

func (g *gpuBatchedBackendImpl) SetControlPoints(index uint32, points []common.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetControlPoints: index %d out of range (max %d)", index, g.maxPanes)
		return
	}
	if len(points) < 4 {
		log.Printf("[PaneBatch] SetControlPoints: need 4 control points, got %d", len(points))
		return
	}

	d := &g.paneData[index]
	d.P0 = points[0]
	d.P1 = points[1]
	d.P2 = points[2]
	d.P3 = points[3]
	d.Visible = 1
	if d.Scale == 0 {
		d.Scale = 1
	}
	if d.UVScale == ([2]float32{}) {
		d.UVScale = [2]float32{1, 1}
	}
	if index >= g.paneCount {
		g.paneCount = index + 1
	}
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetAnimationSpeed(index uint32, speed float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetAnimationSpeed: index %d out of range (max %d)", index, g.maxPanes)
		return
	}

	d := &g.paneData[index]
	d.Phase = rephase(g.globals.Time, d.Speed, d.Phase, speed, g.returnMode)
	d.Speed = speed
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) AnimationSpeed(index uint32) float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		return 0
	}
	return g.paneData[index].Speed
}

func (g *gpuBatchedBackendImpl) SetTiltMode(index uint32, mode TiltMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetTiltMode: index %d out of range (max %d)", index, g.maxPanes)
		return
	}

	g.paneData[index].TiltMode = float32(mode)
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetColor(index uint32, color common.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetColor: index %d out of range (max %d)", index, g.maxPanes)
		return
	}

	g.paneData[index].Color = color
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetScale(index uint32, scale float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetScale: index %d out of range (max %d)", index, g.maxPanes)
		return
	}

	g.paneData[index].Scale = scale
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetElevationOffset(index uint32, offset float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetElevationOffset: index %d out of range (max %d)", index, g.maxPanes)
		return
	}

	g.paneData[index].Elevation = offset
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetTextureIndex(index uint32, tile int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetTextureIndex: index %d out of range (max %d)", index, g.maxPanes)
		return
	}
	if !g.atlasSet {
		return
	}

	offset, scale := g.atlas.tileUVRect(tile)
	g.paneData[index].UVOffset = offset
	g.paneData[index].UVScale = scale
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetTexture(staging common.TextureStagingData, atlas AtlasInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texture = staging
	g.textureSet = true
	g.atlas = atlas
	g.atlasSet = true
}

func (g *gpuBatchedBackendImpl) Texture() (common.TextureStagingData, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.texture, g.textureSet
}

func (g *gpuBatchedBackendImpl) SetVisible(index uint32, visible bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		log.Printf("[PaneBatch] SetVisible: index %d out of range (max %d)", index, g.maxPanes)
		return
	}

	if visible {
		g.paneData[index].Visible = 1
	} else {
		g.paneData[index].Visible = 0
	}
	g.enqueueDirty(index)
}

func (g *gpuBatchedBackendImpl) SetReturnMode(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.returnMode = enabled
	if enabled {
		g.globals.ReturnMode = 1
	} else {
		g.globals.ReturnMode = 0
	}
}

func (g *gpuBatchedBackendImpl) ReturnMode() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.returnMode
}

func (g *gpuBatchedBackendImpl) Time() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.globals.Time
}

func (g *gpuBatchedBackendImpl) AnimationParameter(index uint32) float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		return 0
	}
	d := &g.paneData[index]
	return curveParameter(g.globals.Time, d.Speed, d.Phase, g.returnMode)
}

func (g *gpuBatchedBackendImpl) PaneData(index uint32) (GPUPaneData, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= g.maxPanes {
		return GPUPaneData{}, false
	}
	return g.paneData[index], true
}

func (g *gpuBatchedBackendImpl) Update(deltaTime float32, globalsBinding, _ int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.globals.Time += deltaTime

	raw := g.globals.Marshal()
	buf := g.stagingGlobals[:len(raw)]
	copy(buf, raw)

	g.stagedWriteData = append(g.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: g.provider,
		Binding:  globalsBinding,
		Offset:   0,
		Data:     buf,
	})
}

func (g *gpuBatchedBackendImpl) Flush(instanceBinding int) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.dirtyIndices) == 0 {
		return 0
	}

	// Sort dirty indices so adjacent ones coalesce into contiguous buffer writes,
	// minimizing GPU write commands while only uploading mutated slots.
	sortUint32(g.dirtyIndices)

	instSize := uint64((&GPUPaneData{}).Size())
	count := uint32(len(g.dirtyIndices))

	runStart := g.dirtyIndices[0]
	runEnd := runStart + 1 // exclusive

	for i := 1; i < len(g.dirtyIndices); i++ {
		idx := g.dirtyIndices[i]
		if idx == runEnd {
			runEnd++
		} else {
			g.flushRange(runStart, runEnd, instSize, instanceBinding)
			runStart = idx
			runEnd = idx + 1
		}
	}
	g.flushRange(runStart, runEnd, instSize, instanceBinding)

	g.dirtyIndices = g.dirtyIndices[:0]
	for i := range g.dirtyBitset {
		g.dirtyBitset[i] = 0
	}

	return count
}

func (g *gpuBatchedBackendImpl) StagedWriteData() []bind_group_provider.BufferWrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := g.stagedWriteData
	g.stagedWriteData = g.stagedWriteData[:0]
	return w
}

func (g *gpuBatchedBackendImpl) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.provider != nil {
		g.provider.Release()
	}
	g.paneData = nil
	g.stagedWriteData = nil
	g.dirtyIndices = nil
	g.dirtyBitset = nil
	g.stagingInstance = nil
	g.stagingGlobals = nil
}

// enqueueDirty adds a slot index to the dirty queue if not already present.
// Uses a bitset for O(1) dedup. Caller must hold g.mu.
func (g *gpuBatchedBackendImpl) enqueueDirty(index uint32) {
	word := index / 64
	bit := uint64(1) << (index % 64)
	if g.dirtyBitset[word]&bit != 0 {
		return
	}
	g.dirtyBitset[word] |= bit
	g.dirtyIndices = append(g.dirtyIndices, index)
}

// flushRange stages a contiguous run of dirty pane data [start, end) as a single
// GPU buffer write. Caller must hold g.mu.
func (g *gpuBatchedBackendImpl) flushRange(start, end uint32, instSize uint64, binding int) {
	offset := uint64(start) * instSize
	dirty := g.paneData[start:end]
	raw := common.SliceToBytes(dirty)
	buf := g.stagingInstance[offset : offset+uint64(len(raw))]
	copy(buf, raw)

	g.stagedWriteData = append(g.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: g.provider,
		Binding:  binding,
		Offset:   offset,
		Data:     buf,
	})
}
