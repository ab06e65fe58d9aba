package scene

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/camera"
	"github.com/jeantimex/flight-path/engine/flight"
	"github.com/jeantimex/flight-path/engine/model"
	"github.com/jeantimex/flight-path/engine/renderer"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
	"github.com/jeantimex/flight-path/engine/renderer/curve_batch"
	"github.com/jeantimex/flight-path/engine/renderer/material"
	"github.com/jeantimex/flight-path/engine/renderer/pane_batch"
	"github.com/jeantimex/flight-path/engine/renderer/pipeline"
	"github.com/jeantimex/flight-path/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Scene owns one curve batch and one pane batch, hands out Flight facades over
// paired slots in both, and drives the per-frame protocol: parallel flight prep,
// coalesced buffer uploads, then one draw call per batch.
// Scenes can be hot-swapped via the Active flag to switch between different views.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// SetRenderer replaces the scene's renderer.
	//
	// Parameters:
	//   - r: the new renderer
	SetRenderer(r renderer.Renderer)

	// Panes returns the scene's pane batch renderer.
	//
	// Returns:
	//   - pane_batch.PaneBatch: the pane batch
	Panes() pane_batch.PaneBatch

	// Curves returns the scene's curve batch renderer.
	//
	// Returns:
	//   - curve_batch.CurveBatch: the curve batch
	Curves() curve_batch.CurveBatch

	// Capacity returns the number of flight slots this scene can hold, the
	// smaller of the curve and pane batch capacities.
	//
	// Returns:
	//   - uint32: the flight slot capacity
	Capacity() uint32

	// Count returns the number of live flights in the scene.
	//
	// Returns:
	//   - int: count of flights added and not yet removed
	Count() int

	// AddFlight creates a Flight over the next free slot pair and writes its
	// control points to both batch renderers. Removed slots are reused before
	// fresh ones are claimed.
	//
	// Parameters:
	//   - points: the flight path control points (at least 2)
	//   - options: functional options forwarded to the flight constructor
	//
	// Returns:
	//   - flight.Flight: the new flight
	//   - error: an error when every slot is occupied
	AddFlight(points []common.Vec3, options ...flight.FlightBuilderOption) (flight.Flight, error)

	// Flight retrieves a live flight by slot index.
	// Returns nil if not found.
	//
	// Parameters:
	//   - index: the flight's slot index
	//
	// Returns:
	//   - flight.Flight: the flight or nil
	Flight(index uint32) flight.Flight

	// RemoveFlight hides a flight's curve and pane and frees its slot for reuse.
	//
	// Parameters:
	//   - index: the flight's slot index
	RemoveFlight(index uint32)

	// Clear removes all flights from the scene.
	// Does not release GPU resources.
	Clear()

	// SetDashPattern forwards a dash pattern to the curve batch: dash 0 renders
	// solid lines, a positive dash renders alternating dash/gap runs.
	//
	// Parameters:
	//   - dash: the dash run length in world units
	//   - gap: the gap run length in world units
	SetDashPattern(dash, gap float32)

	// SetReturnFlights toggles ping-pong animation for every pane in the scene.
	//
	// Parameters:
	//   - enabled: true for out-and-back animation
	SetReturnFlights(enabled bool)

	// InitGPUResources builds the pane and curve shaders, registers both render
	// pipelines, and initializes every bind group: camera uniform, pane instance
	// storage, curve vertex-pulling buffers, quad mesh, and the atlas material.
	// Must be called once after the renderer's surface exists and before the
	// first PrepareFrame.
	//
	// Returns:
	//   - error: an error if any pipeline or bind group could not be created
	InitGPUResources() error

	// PrepareFrame updates camera matrices, advances every flight and the shared
	// pane clock, and uploads all staged buffer writes in one submission.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	PrepareFrame(deltaTime float32)

	// DrawCalls issues the instanced pane draw and the vertex-pulled curve draw.
	// Must be called within a BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: error if a draw call fails
	DrawCalls() error
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam camera.Camera
	r   renderer.Renderer

	panes  pane_batch.PaneBatch
	curves curve_batch.CurveBatch

	flights     map[uint32]flight.Flight
	freeIndices []uint32
	nextIndex   uint32
	capacity    uint32

	quad model.Model
	mat  material.Material

	panePipelineKey  string
	curvePipelineKey string
	gpuReady         bool

	// Binding indices resolved from shader declarations during InitGPUResources.
	paneGlobalsBinding   int
	paneInstanceBinding  int
	curveGlobalsBinding  int
	curvePositionBinding int
	curveColorBinding    int

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider
	flightPool         []flight.Flight

	// prepPool manages a bounded set of reusable goroutines for the parallel
	// CPU prep phase of PrepareFrame. Workers persist across frames, avoiding
	// per-frame goroutine spawn/teardown overhead.
	prepPool    worker.DynamicWorkerPool
	prepWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene over the given camera, renderer, and batch pair.
// All four are required and NewScene panics if any of them is nil. GPU resources
// are not touched here; call InitGPUResources once the renderer's surface exists.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - panes: the pane batch renderer (must not be nil)
//   - curves: the curve batch renderer (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, panes pane_batch.PaneBatch, curves curve_batch.CurveBatch, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	if panes == nil {
		panic("scene: NewScene requires a non-nil PaneBatch")
	}
	if curves == nil {
		panic("scene: NewScene requires a non-nil CurveBatch")
	}

	capacity := curves.MaxCurves()
	if panes.MaxPanes() < capacity {
		capacity = panes.MaxPanes()
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		name:               name,
		active:             false,
		cam:                cam,
		r:                  r,
		panes:              panes,
		curves:             curves,
		flights:            make(map[uint32]flight.Flight),
		capacity:           capacity,
		prepWorkers:        max(runtime.NumCPU()-1, 1),
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 3),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the prep pool after options so WithPrepWorkers can override the default.
	// Queue size of 256 accommodates typical per-frame chunk counts with headroom.
	s.prepPool = worker.NewDynamicWorkerPool(s.prepWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) SetRenderer(r renderer.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r = r
}

func (s *scene) Panes() pane_batch.PaneBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panes
}

func (s *scene) Curves() curve_batch.CurveBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curves
}

func (s *scene) Capacity() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flights)
}

func (s *scene) AddFlight(points []common.Vec3, options ...flight.FlightBuilderOption) (flight.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var index uint32
	if n := len(s.freeIndices); n > 0 {
		index = s.freeIndices[n-1]
		s.freeIndices = s.freeIndices[:n-1]
	} else {
		if s.nextIndex >= s.capacity {
			return nil, fmt.Errorf("scene %q is out of flight slots (capacity %d)", s.name, s.capacity)
		}
		index = s.nextIndex
		s.nextIndex++
	}

	f := flight.NewFlight(index, s.curves, s.panes, options...)
	f.SetControlPoints(points)
	s.flights[index] = f
	return f, nil
}

func (s *scene) Flight(index uint32) flight.Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flights[index]
}

func (s *scene) RemoveFlight(index uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, exists := s.flights[index]
	if !exists {
		return
	}
	f.Remove()
	delete(s.flights, index)
	s.freeIndices = append(s.freeIndices, index)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for index, f := range s.flights {
		f.Remove()
		s.freeIndices = append(s.freeIndices, index)
	}
	s.flights = make(map[uint32]flight.Flight)
}

func (s *scene) SetDashPattern(dash, gap float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.curves.SetDashPattern(dash, gap)
}

func (s *scene) SetReturnFlights(enabled bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.panes.SetReturnMode(enabled)
}

func (s *scene) InitGPUResources() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gpuReady {
		return nil
	}

	// The pane vertex shader depends on the active backend: the batched shader
	// pulls control points from the pane_data storage buffer, the instanced one
	// applies host-evaluated model matrices.
	paneVertSrc := pane_batch.BatchedVertexShaderSource
	if !s.panes.SupportsGPUControlPoints() {
		paneVertSrc = pane_batch.InstancedVertexShaderSource
	}
	paneVert := shader.NewShaderFromSource(s.name+"_pane_vert", shader.ShaderTypeVertex, paneVertSrc)
	paneFrag := shader.NewShaderFromSource(s.name+"_pane_frag", shader.ShaderTypeFragment, pane_batch.FragmentShaderSource)
	curveVert := shader.NewShaderFromSource(s.name+"_curve_vert", shader.ShaderTypeVertex, curve_batch.CurveVertexShaderSource)
	curveFrag := shader.NewShaderFromSource(s.name+"_curve_frag", shader.ShaderTypeFragment, curve_batch.CurveFragmentShaderSource)

	// Register both render pipelines. Panes alpha-blend against the atlas;
	// curves draw as line lists pulled from storage buffers and blend so the
	// batch-wide opacity uniform can fade every path at once.
	s.panePipelineKey = s.name + "_panes"
	pp := pipeline.NewPipeline(s.panePipelineKey,
		pipeline.WithVertexShader(paneVert),
		pipeline.WithFragmentShader(paneFrag),
		pipeline.WithBlendEnabled(true),
	)
	s.curvePipelineKey = s.name + "_curves"
	cp := pipeline.NewPipeline(s.curvePipelineKey,
		pipeline.WithVertexShader(curveVert),
		pipeline.WithFragmentShader(curveFrag),
		pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
		pipeline.WithBlendEnabled(true),
	)
	if err := s.r.RegisterPipelines(pp, cp); err != nil {
		return fmt.Errorf("scene %q: failed to register render pipelines: %w", s.name, err)
	}

	if err := s.initCameraBindGroup(paneVert); err != nil {
		return err
	}
	if err := s.initPaneBindGroup(paneVert); err != nil {
		return err
	}
	if err := s.initCurveBindGroup(curveVert); err != nil {
		return err
	}
	if err := s.initQuadMesh(); err != nil {
		return err
	}
	if err := s.initMaterial(paneFrag); err != nil {
		return err
	}

	s.gpuReady = true
	return nil
}

// initCameraBindGroup initializes the camera's bind group on the GPU using the
// layout from the vertex shader's camera group. Caller must hold s.mu write lock.
func (s *scene) initCameraBindGroup(vertexShader shader.Shader) error {
	cameraGroup := 0
	for _, decl := range vertexShader.Declarations() {
		if decl.Type != shader.AnnotationTypeBindingGroup || decl.Group == nil {
			continue
		}
		if structTypeOf(decl) == shader.AnnotationArgCamera {
			cameraGroup = *decl.Group
		}
	}
	bgp := s.cam.BindGroupProvider()
	if bgp == nil {
		return nil
	}
	if err := s.r.InitBindGroup(bgp, vertexShader.BindGroupLayoutDescriptor(cameraGroup), nil, nil); err != nil {
		return fmt.Errorf("scene %q: failed to init camera bind group: %w", s.name, err)
	}
	return nil
}

// initPaneBindGroup initializes the pane batch's storage and uniform buffers.
// The per-pane storage buffer is sized for the full slot capacity so setters can
// target any slot without reallocation. Caller must hold s.mu write lock.
func (s *scene) initPaneBindGroup(vertexShader shader.Shader) error {
	paneGroup := -1
	for _, decl := range vertexShader.Declarations() {
		if decl.Type != shader.AnnotationTypeBindingGroup || decl.Group == nil || decl.Binding == nil {
			continue
		}
		switch structTypeOf(decl) {
		case shader.AnnotationArgPaneGlobals:
			paneGroup = *decl.Group
			s.paneGlobalsBinding = *decl.Binding
		case shader.AnnotationArgPaneData, shader.AnnotationArgPaneInstance:
			paneGroup = *decl.Group
			s.paneInstanceBinding = *decl.Binding
		}
	}
	if paneGroup < 0 {
		return fmt.Errorf("scene %q: pane vertex shader declares no pane bind group", s.name)
	}

	descriptor := vertexShader.BindGroupLayoutDescriptor(paneGroup)
	sizeOverrides := make(map[int]uint64)
	for _, entry := range descriptor.Entries {
		// Runtime-sized instance array: the parser reports the element stride,
		// scale it by the slot capacity.
		if int(entry.Binding) == s.paneInstanceBinding && entry.Buffer.MinBindingSize > 0 {
			sizeOverrides[int(entry.Binding)] = uint64(s.panes.MaxPanes()) * entry.Buffer.MinBindingSize
		}
	}

	if err := s.r.InitBindGroup(s.panes.BindGroupProvider(), descriptor, nil, sizeOverrides); err != nil {
		return fmt.Errorf("scene %q: failed to init pane bind group: %w", s.name, err)
	}
	return nil
}

// initCurveBindGroup initializes the curve batch's globals uniform and the two
// vertex-pulling storage buffers. Caller must hold s.mu write lock.
func (s *scene) initCurveBindGroup(vertexShader shader.Shader) error {
	curveGroup := -1
	for _, decl := range vertexShader.Declarations() {
		if decl.Group == nil || decl.Binding == nil {
			continue
		}
		switch decl.Type {
		case shader.AnnotationTypeBindingGroup:
			if structTypeOf(decl) == shader.AnnotationArgCurveGlobals {
				curveGroup = *decl.Group
				s.curveGlobalsBinding = *decl.Binding
			}
		case shader.AnnotationTypeProvider:
			if decl.Args[0] != shader.AnnotationArgCurves || len(decl.Args) < 2 {
				continue
			}
			switch decl.Args[1] {
			case shader.AnnotationArgCurvePositions:
				curveGroup = *decl.Group
				s.curvePositionBinding = *decl.Binding
			case shader.AnnotationArgCurveColors:
				curveGroup = *decl.Group
				s.curveColorBinding = *decl.Binding
			}
		}
	}
	if curveGroup < 0 {
		return fmt.Errorf("scene %q: curve vertex shader declares no curve bind group", s.name)
	}

	// Both pulled buffers hold one vec4 per sampled vertex for every slot.
	bufferSize := uint64(s.curves.MaxCurves()) * uint64(s.curves.VertsPerCurve()) * 16
	sizeOverrides := map[int]uint64{
		s.curvePositionBinding: bufferSize,
		s.curveColorBinding:    bufferSize,
	}

	if err := s.r.InitBindGroup(s.curves.BindGroupProvider(), vertexShader.BindGroupLayoutDescriptor(curveGroup), nil, sizeOverrides); err != nil {
		return fmt.Errorf("scene %q: failed to init curve bind group: %w", s.name, err)
	}
	return nil
}

// initQuadMesh uploads the shared unit quad every pane instance is drawn from.
// Caller must hold s.mu write lock.
func (s *scene) initQuadMesh() error {
	s.quad = model.NewUnitQuad(s.name + "_pane_quad")
	if err := s.r.InitMeshBuffers(s.quad.MeshProvider(), s.quad.VertexData(), s.quad.IndexData(), s.quad.IndexCount()); err != nil {
		return fmt.Errorf("scene %q: failed to init pane quad mesh: %w", s.name, err)
	}
	return nil
}

// initMaterial creates the atlas texture, sampler, and material bind group from
// the fragment shader's material provider declarations. When the pane batch has
// no atlas texture a single white pixel is uploaded so untextured panes render
// at full tint color. Caller must hold s.mu write lock.
func (s *scene) initMaterial(fragmentShader shader.Shader) error {
	materialGroup := -1
	textureBinding, samplerBinding := 0, 1
	for _, decl := range fragmentShader.Declarations() {
		if decl.Type != shader.AnnotationTypeProvider || decl.Group == nil || decl.Binding == nil {
			continue
		}
		if decl.Args[0] != shader.AnnotationArgMaterial || len(decl.Args) < 2 {
			continue
		}
		switch decl.Args[1] {
		case shader.AnnotationArgDiffuseTexture:
			materialGroup = *decl.Group
			textureBinding = *decl.Binding
		case shader.AnnotationArgDiffuseSampler:
			materialGroup = *decl.Group
			samplerBinding = *decl.Binding
		}
	}
	if materialGroup < 0 {
		return fmt.Errorf("scene %q: pane fragment shader declares no material provider", s.name)
	}

	opts := []material.MaterialBuilderOption{
		material.WithName(s.name + "_atlas"),
		material.WithPipelineKey(s.panePipelineKey),
		material.WithBindGroupProvider(bind_group_provider.NewBindGroupProvider(s.name + "_atlas")),
	}
	if staging, ok := s.panes.Texture(); ok {
		opts = append(opts, material.WithDiffuseTexture(staging))
	}
	s.mat = material.NewMaterial(opts...)
	s.quad.SetRenderMaterial(s.mat)

	bgp := s.mat.BindGroupProvider()
	if err := s.r.InitTextureView(bgp, textureBinding, s.mat.DiffuseStaging()); err != nil {
		return fmt.Errorf("scene %q: failed to init atlas texture: %w", s.name, err)
	}
	if err := s.r.InitSampler(bgp, samplerBinding, s.mat.SamplerStaging()); err != nil {
		return fmt.Errorf("scene %q: failed to init atlas sampler: %w", s.name, err)
	}
	if err := s.r.InitBindGroup(bgp, fragmentShader.BindGroupLayoutDescriptor(materialGroup), nil, nil); err != nil {
		return fmt.Errorf("scene %q: failed to init material bind group: %w", s.name, err)
	}
	return nil
}

func (s *scene) PrepareFrame(deltaTime float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil || !s.gpuReady {
		return
	}

	// Update camera matrices and write the VP matrix to the GPU once per frame.
	if s.cam != nil {
		s.cam.Update()
		if camBGP := s.cam.BindGroupProvider(); camBGP != nil {
			camUniform := camera.GPUCameraUniform{ViewProj: s.cam.ViewProjectionMatrix()}
			if ctrl := s.cam.Controller(); ctrl != nil {
				camUniform.CameraPosition[0], camUniform.CameraPosition[1], camUniform.CameraPosition[2] = ctrl.Position()
			}
			s.r.WriteBuffers([]bind_group_provider.BufferWrite{
				{
					Provider: camBGP,
					Binding:  0,
					Offset:   0,
					Data:     camUniform.Marshal(),
				},
			})
		}
	}

	// Phase 1: parallel CPU prep. Flight updates fan out across the prep pool
	// in contiguous chunks; workers are reused across frames. A WaitGroup
	// provides per-frame barrier sync since pool.Wait() blocks until workers
	// idle-exit, which is unsuitable for frame-rate workloads.
	s.flightPool = s.flightPool[:0]
	for _, f := range s.flights {
		s.flightPool = append(s.flightPool, f)
	}
	if n := len(s.flightPool); n > 0 {
		chunk := (n + s.prepWorkers - 1) / s.prepWorkers
		var wg sync.WaitGroup
		taskID := 0
		for start := 0; start < n; start += chunk {
			end := min(start+chunk, n)
			batch := s.flightPool[start:end]
			wg.Add(1)
			s.prepPool.SubmitTask(worker.Task{
				ID: taskID,
				Do: func() (any, error) {
					defer wg.Done()
					for _, f := range batch {
						f.Update(deltaTime)
					}
					return nil, nil
				},
			})
			taskID++
		}
		wg.Wait()
	}

	// Phase 2: stage per-batch writes. The pane batch advances the shared clock,
	// then Flush drains its dirty slots into coalesced instance writes; the curve
	// batch coalesces its dirty sub-ranges into at most one write per attribute
	// buffer.
	s.panes.Update(deltaTime, s.paneGlobalsBinding, s.paneInstanceBinding)
	s.panes.Flush(s.paneInstanceBinding)
	s.curves.ApplyUpdates(s.curveGlobalsBinding, s.curvePositionBinding, s.curveColorBinding)

	// Phase 3: coalesced GPU submission. Collect all buffer writes from both
	// batches into a single slice, then submit once to the renderer.
	allWrites := s.writePool[:0]
	allWrites = append(allWrites, s.panes.StagedWriteData()...)
	allWrites = append(allWrites, s.curves.StagedWriteData()...)
	s.writePool = allWrites

	if len(allWrites) > 0 {
		s.r.WriteBuffers(allWrites)
	}
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return fmt.Errorf("scene %q has no renderer attached", s.name)
	}
	if !s.gpuReady {
		return fmt.Errorf("scene %q has no GPU resources; call InitGPUResources first", s.name)
	}

	if count := s.panes.PaneCount(); count > 0 {
		bindGroups, err := s.resolveBindGroups(s.panePipelineKey)
		if err != nil {
			return err
		}
		if err := s.r.DrawCall(s.panePipelineKey, s.quad.MeshProvider(), count, bindGroups); err != nil {
			return fmt.Errorf("pane draw call failed in scene %q: %w", s.name, err)
		}
	}

	if vertexCount := s.curves.DrawVertexCount(); vertexCount > 0 {
		bindGroups, err := s.resolveBindGroups(s.curvePipelineKey)
		if err != nil {
			return err
		}
		if err := s.r.DrawVertices(s.curvePipelineKey, vertexCount, 1, bindGroups); err != nil {
			return fmt.Errorf("curve draw call failed in scene %q: %w", s.name, err)
		}
	}

	return nil
}

// resolveBindGroups builds the ordered bind group list for a pipeline by matching
// each shader declaration's struct type or provider identity to the owning
// provider. Groups are iterated in index order so bindGroups[i] maps to @group(i).
// Caller must hold s.mu read lock.
func (s *scene) resolveBindGroups(pipelineKey string) ([]bind_group_provider.BindGroupProvider, error) {
	rp := s.r.Pipeline(pipelineKey)
	if rp == nil {
		return nil, fmt.Errorf("scene %q: pipeline %q not registered", s.name, pipelineKey)
	}

	var allDecls []shader.Annotation
	if vs := rp.Shader(shader.ShaderTypeVertex); vs != nil {
		allDecls = append(allDecls, vs.Declarations()...)
	}
	if fs := rp.Shader(shader.ShaderTypeFragment); fs != nil {
		allDecls = append(allDecls, fs.Declarations()...)
	}

	maxGroup := -1
	groupProviders := make(map[int]bind_group_provider.BindGroupProvider)
	for _, decl := range allDecls {
		if decl.Group == nil {
			continue
		}
		g := *decl.Group
		if g > maxGroup {
			maxGroup = g
		}
		if _, exists := groupProviders[g]; exists {
			continue
		}

		var provider bind_group_provider.BindGroupProvider
		switch decl.Type {
		case shader.AnnotationTypeProvider:
			switch decl.Args[0] {
			case shader.AnnotationArgCamera:
				if s.cam != nil {
					provider = s.cam.BindGroupProvider()
				}
			case shader.AnnotationArgMaterial:
				if s.mat != nil {
					provider = s.mat.BindGroupProvider()
				}
			case shader.AnnotationArgCurves:
				provider = s.curves.BindGroupProvider()
			case shader.AnnotationArgPanes:
				provider = s.panes.BindGroupProvider()
			}
		case shader.AnnotationTypeBindingGroup:
			switch structTypeOf(decl) {
			case shader.AnnotationArgCamera:
				if s.cam != nil {
					provider = s.cam.BindGroupProvider()
				}
			case shader.AnnotationArgPaneGlobals, shader.AnnotationArgPaneData, shader.AnnotationArgPaneInstance:
				provider = s.panes.BindGroupProvider()
			case shader.AnnotationArgCurveGlobals:
				provider = s.curves.BindGroupProvider()
			}
		}

		if provider != nil {
			groupProviders[g] = provider
		}
	}

	bindGroups := s.drawBindGroupsPool[:0]
	for g := 0; g <= maxGroup; g++ {
		provider, ok := groupProviders[g]
		if !ok || provider == nil {
			return nil, fmt.Errorf("scene %q: no provider resolved for group %d of pipeline %q", s.name, g, pipelineKey)
		}
		bindGroups = append(bindGroups, provider)
	}
	s.drawBindGroupsPool = bindGroups
	return bindGroups, nil
}

// structTypeOf resolves a binding-group declaration's struct type argument,
// unwrapping array<> element types.
func structTypeOf(decl shader.Annotation) shader.AnnotationArg {
	typeArg := string(decl.Args[2])
	if stripped, ok := strings.CutPrefix(typeArg, "array<"); ok {
		typeArg = strings.TrimSuffix(stripped, ">")
	}
	return shader.AnnotationArg(typeArg)
}
