package scene

import (
	"testing"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/camera"
	"github.com/jeantimex/flight-path/engine/renderer"
	"github.com/jeantimex/flight-path/engine/renderer/bind_group_provider"
	"github.com/jeantimex/flight-path/engine/renderer/curve_batch"
	"github.com/jeantimex/flight-path/engine/renderer/pane_batch"
	"github.com/jeantimex/flight-path/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// nopRenderer satisfies renderer.Renderer without touching a GPU so slot
// management and the frame protocol can be tested headlessly. Submitted
// buffer writes are recorded for inspection.
type nopRenderer struct {
	pipelines map[string]pipeline.Pipeline
	writes    []bind_group_provider.BufferWrite
}

var _ renderer.Renderer = &nopRenderer{}

func (n *nopRenderer) Pipeline(key string) pipeline.Pipeline { return n.pipelines[key] }
func (n *nopRenderer) Pipelines() map[string]pipeline.Pipeline {
	return n.pipelines
}
func (n *nopRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	if n.pipelines == nil {
		n.pipelines = make(map[string]pipeline.Pipeline)
	}
	for _, p := range pipelines {
		n.pipelines[p.PipelineKey()] = p
	}
	return nil
}
func (n *nopRenderer) SetPipeline(key string, p pipeline.Pipeline)    { n.pipelines[key] = p }
func (n *nopRenderer) SetPipelines(p map[string]pipeline.Pipeline)    { n.pipelines = p }
func (n *nopRenderer) Resize(width, height int)                       {}
func (n *nopRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return nil
}
func (n *nopRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return nil
}
func (n *nopRenderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return nil
}
func (n *nopRenderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return nil
}
func (n *nopRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	n.writes = append(n.writes, writes...)
}
func (n *nopRenderer) BeginFrame() error                                     { return nil }
func (n *nopRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	return nil
}
func (n *nopRenderer) DrawVertices(pipelineKey string, vertexCount, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	return nil
}
func (n *nopRenderer) EndFrame()                              {}
func (n *nopRenderer) Present()                               {}
func (n *nopRenderer) SetPresentMode(mode renderer.PresentMode) {}

func testScene(t *testing.T, capacity int) Scene {
	t.Helper()
	cam := camera.NewCamera()
	panes := pane_batch.NewPaneBatch(pane_batch.BackendTypeGPUBatched, pane_batch.WithMaxPanes(capacity))
	curves := curve_batch.NewCurveBatch(curve_batch.WithMaxCurves(capacity))
	return NewScene("test", cam, &nopRenderer{}, panes, curves)
}

func testPath() []common.Vec3 {
	return []common.Vec3{
		{0, 0, 0},
		{1, 2, 0},
		{3, 2, 1},
		{4, 0, 1},
	}
}

func TestNewSceneNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil renderer")
		}
	}()
	NewScene("bad", camera.NewCamera(), nil,
		pane_batch.NewPaneBatch(pane_batch.BackendTypeGPUBatched),
		curve_batch.NewCurveBatch())
}

func TestSceneCapacityIsSmallerBatch(t *testing.T) {
	cam := camera.NewCamera()
	panes := pane_batch.NewPaneBatch(pane_batch.BackendTypeGPUBatched, pane_batch.WithMaxPanes(8))
	curves := curve_batch.NewCurveBatch(curve_batch.WithMaxCurves(32))
	s := NewScene("cap", cam, &nopRenderer{}, panes, curves)
	if got := s.Capacity(); got != 8 {
		t.Fatalf("Capacity() = %d, want 8", got)
	}
}

func TestAddFlightAssignsSequentialSlots(t *testing.T) {
	s := testScene(t, 4)
	for want := uint32(0); want < 3; want++ {
		f, err := s.AddFlight(testPath())
		if err != nil {
			t.Fatalf("AddFlight: %v", err)
		}
		if f.Index() != want {
			t.Errorf("flight %d got slot %d", want, f.Index())
		}
	}
	if s.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", s.Count())
	}
}

func TestAddFlightErrorsWhenFull(t *testing.T) {
	s := testScene(t, 2)
	for range 2 {
		if _, err := s.AddFlight(testPath()); err != nil {
			t.Fatalf("AddFlight: %v", err)
		}
	}
	if _, err := s.AddFlight(testPath()); err == nil {
		t.Fatal("expected error when scene is at capacity")
	}
}

func TestRemoveFlightRecyclesSlot(t *testing.T) {
	s := testScene(t, 4)
	s.AddFlight(testPath())
	f1, _ := s.AddFlight(testPath())
	s.AddFlight(testPath())

	s.RemoveFlight(f1.Index())
	if s.Count() != 2 {
		t.Fatalf("Count() after remove = %d, want 2", s.Count())
	}
	if s.Flight(f1.Index()) != nil {
		t.Fatal("removed flight still retrievable")
	}

	// Freed slot is reused before claiming a fresh one.
	f3, err := s.AddFlight(testPath())
	if err != nil {
		t.Fatalf("AddFlight after remove: %v", err)
	}
	if f3.Index() != f1.Index() {
		t.Errorf("reused slot = %d, want %d", f3.Index(), f1.Index())
	}
}

func TestRemoveFlightUnknownIndexIsNoOp(t *testing.T) {
	s := testScene(t, 2)
	s.AddFlight(testPath())
	s.RemoveFlight(99)
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
}

func TestClearFreesAllSlots(t *testing.T) {
	s := testScene(t, 3)
	for range 3 {
		if _, err := s.AddFlight(testPath()); err != nil {
			t.Fatalf("AddFlight: %v", err)
		}
	}
	s.Clear()
	if s.Count() != 0 {
		t.Fatalf("Count() after Clear = %d, want 0", s.Count())
	}
	// All three slots are reusable again.
	for range 3 {
		if _, err := s.AddFlight(testPath()); err != nil {
			t.Fatalf("AddFlight after Clear: %v", err)
		}
	}
}

func TestSetDashPatternForwardsToCurves(t *testing.T) {
	s := testScene(t, 2)
	s.SetDashPattern(0.5, 0.25)
	dash, gap := s.Curves().DashPattern()
	if dash != 0.5 || gap != 0.25 {
		t.Fatalf("DashPattern() = (%v, %v), want (0.5, 0.25)", dash, gap)
	}
}

func TestSetReturnFlightsForwardsToPanes(t *testing.T) {
	s := testScene(t, 2)
	s.SetReturnFlights(true)
	if !s.Panes().ReturnMode() {
		t.Fatal("ReturnMode() = false after SetReturnFlights(true)")
	}
}

func TestAddFlightWritesControlPoints(t *testing.T) {
	s := testScene(t, 2)
	f, err := s.AddFlight(testPath())
	if err != nil {
		t.Fatalf("AddFlight: %v", err)
	}
	if !s.Curves().Exists(f.Index()) {
		t.Fatal("curve slot not populated by AddFlight")
	}
}

func TestPrepareFrameUploadsPaneInstances(t *testing.T) {
	r := &nopRenderer{}
	cam := camera.NewCamera()
	panes := pane_batch.NewPaneBatch(pane_batch.BackendTypeGPUBatched, pane_batch.WithMaxPanes(4))
	curves := curve_batch.NewCurveBatch(curve_batch.WithMaxCurves(4))
	s := NewScene("frame", cam, r, panes, curves)

	if err := s.InitGPUResources(); err != nil {
		t.Fatalf("InitGPUResources: %v", err)
	}
	if _, err := s.AddFlight(testPath()); err != nil {
		t.Fatalf("AddFlight: %v", err)
	}

	s.PrepareFrame(0.016)

	// The frame must carry the dirty pane slot to the instance storage buffer
	// (group 1 binding 1 in the batched shader), not just the globals uniform.
	var instanceWrite bool
	for _, w := range r.writes {
		if w.Provider == panes.BindGroupProvider() && w.Binding == 1 {
			instanceWrite = true
			if len(w.Data) != 112 {
				t.Fatalf("instance write is %d bytes, want one 112-byte pane record", len(w.Data))
			}
		}
	}
	if !instanceWrite {
		t.Fatal("no write reached the pane instance binding")
	}
	if n := panes.Flush(1); n != 0 {
		t.Fatalf("%d pane slot(s) still dirty after the frame", n)
	}
}

func TestDrawCallsRequiresInit(t *testing.T) {
	s := testScene(t, 2)
	if err := s.DrawCalls(); err == nil {
		t.Fatal("expected error before InitGPUResources")
	}
}
