package pane_batch

import (
	"log"
	"sync"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
)

// cpuPerEntityBackendImpl is the CPU fallback implementation of paneBackend. It keeps
// the same slot mirror as the batched backend but never uploads control points:
// every Update re-evaluates position and orientation for each populated pane on the
// CPU and uploads finished model matrices, so per-frame cost scales with pane count.
type cpuPerEntityBackendImpl struct {
	mu *sync.Mutex

	// provider holds the per-pane instance matrix buffer for the render pass.
	provider bind_group_provider.BindGroupProvider

	stagedWriteData []bind_group_provider.BufferWrite

	maxPanes, paneCount uint32

	// paneData is the CPU-side source of truth for every slot; instances holds the
	// evaluated per-pane matrices rebuilt each frame from it.
	paneData  []GPUPaneData
	instances []GPUPaneInstance

	time       float32
	baseSize   float32
	returnMode bool

	atlas    AtlasInfo
	atlasSet bool

	texture    common.TextureStagingData
	textureSet bool

	stagingInstance []byte
}

// compile-time check that cpuPerEntityBackendImpl implements paneBackend.
var _ paneBackend = &cpuPerEntityBackendImpl{}

// newCPUPerEntityBackend creates the CPU fallback pane backend with default capacity.
//
// Returns:
//   - paneBackend: a new CPU fallback backend instance
func newCPUPerEntityBackend() paneBackend {
	c := &cpuPerEntityBackendImpl{
		mu:       &sync.Mutex{},
		maxPanes: 10000,
		baseSize: 1,
	}
	c.paneData = make([]GPUPaneData, c.maxPanes)
	c.instances = make([]GPUPaneInstance, c.maxPanes)
	c.provider = bind_group_provider.NewBindGroupProvider("pane_batch_cpu")
	c.stagedWriteData = make([]bind_group_provider.BufferWrite, 0, 1)
	c.stagingInstance = make([]byte, int(c.maxPanes)*(&GPUPaneInstance{}).Size())
	return c
}

func (c *cpuPerEntityBackendImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

func (c *cpuPerEntityBackendImpl) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider = provider
}

func (c *cpuPerEntityBackendImpl) SupportsGPUControlPoints() bool {
	return false
}

func (c *cpuPerEntityBackendImpl) MaxPanes() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxPanes
}

func (c *cpuPerEntityBackendImpl) SetMaxPanes(maxPanes uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxPanes = maxPanes
	c.paneData = make([]GPUPaneData, maxPanes)
	c.instances = make([]GPUPaneInstance, maxPanes)
	c.paneCount = 0
	c.stagingInstance = make([]byte, int(maxPanes)*(&GPUPaneInstance{}).Size())
}

func (c *cpuPerEntityBackendImpl) SetBaseSize(size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseSize = size
}

func (c *cpuPerEntityBackendImpl) BaseSize() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseSize
}

func (c *cpuPerEntityBackendImpl) PaneCount() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paneCount
}

func (c *cpuPerEntityBackendImpl) SetControlPoints(index uint32, points []common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetControlPoints: index %d out of range (max %d)", index, c.maxPanes)
		return
	}
	if len(points) < 4 {
		log.Printf("[PaneBatch] SetControlPoints: need 4 control points, got %d", len(points))
		return
	}

	d := &c.paneData[index]
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
	if index >= c.paneCount {
		c.paneCount = index + 1
	}
}

func (c *cpuPerEntityBackendImpl) SetAnimationSpeed(index uint32, speed float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetAnimationSpeed: index %d out of range (max %d)", index, c.maxPanes)
		return
	}

	d := &c.paneData[index]
	d.Phase = rephase(c.time, d.Speed, d.Phase, speed, c.returnMode)
	d.Speed = speed
}

func (c *cpuPerEntityBackendImpl) AnimationSpeed(index uint32) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		return 0
	}
	return c.paneData[index].Speed
}

func (c *cpuPerEntityBackendImpl) SetTiltMode(index uint32, mode TiltMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetTiltMode: index %d out of range (max %d)", index, c.maxPanes)
		return
	}
	c.paneData[index].TiltMode = float32(mode)
}

func (c *cpuPerEntityBackendImpl) SetColor(index uint32, color common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetColor: index %d out of range (max %d)", index, c.maxPanes)
		return
	}
	c.paneData[index].Color = color
}

func (c *cpuPerEntityBackendImpl) SetScale(index uint32, scale float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetScale: index %d out of range (max %d)", index, c.maxPanes)
		return
	}
	c.paneData[index].Scale = scale
}

func (c *cpuPerEntityBackendImpl) SetElevationOffset(index uint32, offset float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetElevationOffset: index %d out of range (max %d)", index, c.maxPanes)
		return
	}
	c.paneData[index].Elevation = offset
}

func (c *cpuPerEntityBackendImpl) SetTextureIndex(index uint32, tile int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetTextureIndex: index %d out of range (max %d)", index, c.maxPanes)
		return
	}
	if !c.atlasSet {
		return
	}

	offset, scale := c.atlas.tileUVRect(tile)
	c.paneData[index].UVOffset = offset
	c.paneData[index].UVScale = scale
}

func (c *cpuPerEntityBackendImpl) SetTexture(staging common.TextureStagingData, atlas AtlasInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texture = staging
	c.textureSet = true
	c.atlas = atlas
	c.atlasSet = true
}

func (c *cpuPerEntityBackendImpl) Texture() (common.TextureStagingData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.texture, c.textureSet
}

func (c *cpuPerEntityBackendImpl) SetVisible(index uint32, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		log.Printf("[PaneBatch] SetVisible: index %d out of range (max %d)", index, c.maxPanes)
		return
	}

	if visible {
		c.paneData[index].Visible = 1
	} else {
		c.paneData[index].Visible = 0
	}
}

func (c *cpuPerEntityBackendImpl) SetReturnMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.returnMode = enabled
}

func (c *cpuPerEntityBackendImpl) ReturnMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.returnMode
}

func (c *cpuPerEntityBackendImpl) Time() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *cpuPerEntityBackendImpl) AnimationParameter(index uint32) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		return 0
	}
	d := &c.paneData[index]
	return curveParameter(c.time, d.Speed, d.Phase, c.returnMode)
}

func (c *cpuPerEntityBackendImpl) PaneData(index uint32) (GPUPaneData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= c.maxPanes {
		return GPUPaneData{}, false
	}
	return c.paneData[index], true
}

func (c *cpuPerEntityBackendImpl) Update(deltaTime float32, _, instanceBinding int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time += deltaTime
	if c.paneCount == 0 {
		return
	}

	for i := uint32(0); i < c.paneCount; i++ {
		c.evalInstance(i)
	}

	raw := common.SliceToBytes(c.instances[:c.paneCount])
	buf := c.stagingInstance[:len(raw)]
	copy(buf, raw)

	c.stagedWriteData = append(c.stagedWriteData, bind_group_provider.BufferWrite{
		Provider: c.provider,
		Binding:  instanceBinding,
		Offset:   0,
		Data:     buf,
	})
}

// evalInstance rebuilds the model matrix for one pane from its current slot state.
// Hidden panes get a zero-scale matrix that collapses the quad. Caller must hold c.mu.
func (c *cpuPerEntityBackendImpl) evalInstance(index uint32) {
	d := &c.paneData[index]
	inst := &c.instances[index]

	t := curveParameter(c.time, d.Speed, d.Phase, c.returnMode)
	pos := evalPanePosition(d, t)
	right, up, normal := evalPaneBasis(d, t)

	size := c.baseSize * d.Scale
	if d.Visible < 0.5 {
		size = 0
	}

	// Column-major model matrix: rotation columns scaled by the quad size,
	// translation in the last column.
	inst.Model = [16]float32{
		right[0] * size, right[1] * size, right[2] * size, 0,
		up[0] * size, up[1] * size, up[2] * size, 0,
		normal[0] * size, normal[1] * size, normal[2] * size, 0,
		pos[0], pos[1], pos[2], 1,
	}
	inst.Color = d.Color
	inst.UVOffset = d.UVOffset
	inst.UVScale = d.UVScale
}

func (c *cpuPerEntityBackendImpl) Flush(_ int) uint32 {
	// Static attributes are folded into the per-frame instance rebuild in Update,
	// so there is never any dirty data to flush separately.
	return 0
}

func (c *cpuPerEntityBackendImpl) StagedWriteData() []bind_group_provider.BufferWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.stagedWriteData
	c.stagedWriteData = c.stagedWriteData[:0]
	return w
}

func (c *cpuPerEntityBackendImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		c.provider.Release()
	}
	c.paneData = nil
	c.instances = nil
	c.stagedWriteData = nil
	c.stagingInstance = nil
}
