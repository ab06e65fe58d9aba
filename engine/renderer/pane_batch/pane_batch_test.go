package pane_batch

import (
	"math"
	"testing"

	"github.com/jeantimex/flight-path/common"
)

var squarePoints = []common.Vec3{
	{0, 0, 0},
	{100, 0, 0},
	{100, 100, 0},
	{0, 100, 0},
}

func newTestBatch(t *testing.T, backendType BackendType) PaneBatch {
	t.Helper()
	return NewPaneBatch(backendType, WithMaxPanes(16), WithBaseSize(2))
}

func TestGPUPaneDataSize(t *testing.T) {
	if got := (&GPUPaneData{}).Size(); got != 112 {
		t.Fatalf("GPUPaneData size %d, want 112", got)
	}
	if got := len((&GPUPaneData{}).Marshal()); got != 112 {
		t.Fatalf("GPUPaneData marshal length %d, want 112", got)
	}
}

func TestGPUPaneGlobalsSize(t *testing.T) {
	if got := (&GPUPaneGlobals{}).Size(); got != 16 {
		t.Fatalf("GPUPaneGlobals size %d, want 16", got)
	}
}

func TestGPUPaneInstanceSize(t *testing.T) {
	if got := (&GPUPaneInstance{}).Size(); got != 96 {
		t.Fatalf("GPUPaneInstance size %d, want 96", got)
	}
}

func TestSetControlPointsRejectsShortInput(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints[:3])
	if d, _ := b.PaneData(0); d.Visible != 0 {
		t.Fatal("slot should remain untouched after short control point list")
	}
}

func TestSetControlPointsOutOfRangeIsNoOp(t *testing.T) {
	b := NewPaneBatch(BackendTypeGPUBatched, WithMaxPanes(4))
	for i := uint32(0); i < 4; i++ {
		b.SetControlPoints(i, squarePoints)
	}
	b.SetControlPoints(4, squarePoints)
	if b.PaneCount() != 4 {
		t.Fatalf("pane count %d, want 4", b.PaneCount())
	}
	for i := uint32(0); i < 4; i++ {
		d, ok := b.PaneData(i)
		if !ok || d.Visible != 1 || d.P1 != squarePoints[1] {
			t.Fatalf("slot %d corrupted by out-of-range write: %+v", i, d)
		}
	}
}

func TestSpeedChangePreservesPhase(t *testing.T) {
	for _, backendType := range []BackendType{BackendTypeGPUBatched, BackendTypeCPUPerEntity} {
		b := newTestBatch(t, backendType)
		b.SetControlPoints(0, squarePoints)
		b.SetAnimationSpeed(0, 0.25)
		b.Update(7.3, 0, 1)

		before := b.AnimationParameter(0)
		b.SetAnimationSpeed(0, 1.75)
		after := b.AnimationParameter(0)

		if diff := math.Abs(float64(before - after)); diff > 1e-4 {
			t.Fatalf("backend %d: parameter jumped across speed change: %v -> %v", backendType, before, after)
		}
	}
}

func TestSpeedChangePreservesPhaseInReturnMode(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints)
	b.SetReturnMode(true)
	b.SetAnimationSpeed(0, 0.4)
	b.Update(3.1, 0, 1)

	before := b.AnimationParameter(0)
	b.SetAnimationSpeed(0, 0.05)
	after := b.AnimationParameter(0)

	if diff := math.Abs(float64(before - after)); diff > 1e-4 {
		t.Fatalf("parameter jumped across speed change in return mode: %v -> %v", before, after)
	}
}

func TestReturnModeParameterIsSymmetric(t *testing.T) {
	// With ping-pong mapping the parameter over one full period satisfies
	// t(time) == t(period - time).
	const speed = 0.5
	period := float32(2.0 / speed)
	for i := 1; i < 8; i++ {
		time := period * float32(i) / 8.0
		forward := curveParameter(time, speed, 0, true)
		backward := curveParameter(period-time, speed, 0, true)
		if diff := math.Abs(float64(forward - backward)); diff > 1e-4 {
			t.Fatalf("asymmetric at time %v: %v vs %v", time, forward, backward)
		}
	}
}

func TestReturnModeParameterStaysInRange(t *testing.T) {
	for time := float32(0); time < 20; time += 0.37 {
		p := curveParameter(time, 0.73, 0.41, true)
		if p < 0 || p > 1 {
			t.Fatalf("parameter %v out of [0,1] at time %v", p, time)
		}
	}
}

func TestParameterReachesSecondControlPoint(t *testing.T) {
	// After 3.333 time units at speed 0.1 the parameter is ~1/3, which is the
	// boundary of the first spline segment: the evaluated position must coincide
	// with the second control point.
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints)
	b.SetAnimationSpeed(0, 0.1)
	b.SetTiltMode(0, TiltModePerpendicular)
	b.Update(3.333, 0, 1)

	param := b.AnimationParameter(0)
	if math.Abs(float64(param-1.0/3.0)) > 1e-3 {
		t.Fatalf("parameter %v, want ~0.333", param)
	}

	d, _ := b.PaneData(0)
	pos := evalPanePosition(&d, param)
	want := squarePoints[1]
	for i := 0; i < 3; i++ {
		if math.Abs(float64(pos[i]-want[i])) > 0.1 {
			t.Fatalf("position %v, want near %v", pos, want)
		}
	}
}

func TestFlushCoalescesContiguousSlots(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	for i := uint32(0); i < 4; i++ {
		b.SetControlPoints(i, squarePoints)
	}
	if n := b.Flush(1); n != 4 {
		t.Fatalf("flushed %d slots, want 4", n)
	}

	writes := b.StagedWriteData()
	if len(writes) != 1 {
		t.Fatalf("got %d writes, want 1 coalesced write", len(writes))
	}
	instSize := (&GPUPaneData{}).Size()
	if len(writes[0].Data) != 4*instSize {
		t.Fatalf("write covers %d bytes, want %d", len(writes[0].Data), 4*instSize)
	}
	if writes[0].Offset != 0 {
		t.Fatalf("write offset %d, want 0", writes[0].Offset)
	}
}

func TestFlushSplitsDisjointSlots(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints)
	b.SetControlPoints(5, squarePoints)
	b.Flush(1)

	writes := b.StagedWriteData()
	if len(writes) != 2 {
		t.Fatalf("got %d writes, want 2", len(writes))
	}
	instSize := uint64((&GPUPaneData{}).Size())
	if writes[1].Offset != 5*instSize {
		t.Fatalf("second write offset %d, want %d", writes[1].Offset, 5*instSize)
	}
}

func TestFlushIsEmptyAfterDrain(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints)
	b.Flush(1)
	b.StagedWriteData()
	if n := b.Flush(1); n != 0 {
		t.Fatalf("second flush reported %d dirty slots, want 0", n)
	}
}

func TestSetTextureIndexComputesAtlasRect(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints)
	b.SetTexture(common.TextureStagingData{}, AtlasInfo{
		Columns: 4, Rows: 2, TileCount: 8,
		ScaleX: 0.25, ScaleY: 0.5,
	})
	b.SetTextureIndex(0, 5)

	d, _ := b.PaneData(0)
	if d.UVOffset != ([2]float32{0.25, 0.5}) {
		t.Fatalf("uv offset %v, want [0.25 0.5]", d.UVOffset)
	}
	if d.UVScale != ([2]float32{0.25, 0.5}) {
		t.Fatalf("uv scale %v, want [0.25 0.5]", d.UVScale)
	}
}

func TestSetTextureIndexClampsTile(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(0, squarePoints)
	b.SetTexture(common.TextureStagingData{}, AtlasInfo{
		Columns: 2, Rows: 2, TileCount: 3,
		ScaleX: 0.5, ScaleY: 0.5,
	})
	b.SetTextureIndex(0, 99)

	d, _ := b.PaneData(0)
	// Tile 2 is the last valid tile: column 0, row 1.
	if d.UVOffset != ([2]float32{0, 0.5}) {
		t.Fatalf("uv offset %v, want [0 0.5]", d.UVOffset)
	}
}

func TestHiddenPaneCollapsesOnCPUBackend(t *testing.T) {
	b := newTestBatch(t, BackendTypeCPUPerEntity)
	b.SetControlPoints(0, squarePoints)
	b.SetVisible(0, false)
	b.Update(0.016, 0, 0)

	writes := b.StagedWriteData()
	if len(writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(writes))
	}
	// The rotation part of the matrix must be zero so the quad is degenerate;
	// the first 12 floats cover the three scaled basis columns.
	data := writes[0].Data
	for i := 0; i < 12; i++ {
		v := math.Float32frombits(uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24)
		if i%4 != 3 && v != 0 {
			t.Fatalf("basis component %d is %v, want 0 for hidden pane", i, v)
		}
	}
}

func TestCPUBackendUpdatesInstancesPerFrame(t *testing.T) {
	b := newTestBatch(t, BackendTypeCPUPerEntity)
	if b.SupportsGPUControlPoints() {
		t.Fatal("CPU backend must not report GPU control point support")
	}
	b.SetControlPoints(0, squarePoints)
	b.SetAnimationSpeed(0, 0.1)

	readTx := func() float32 {
		writes := b.StagedWriteData()
		if len(writes) != 1 {
			t.Fatalf("expected one instance write per frame, got %d", len(writes))
		}
		d := writes[0].Data
		// The staging buffer is reused across frames, so decode before the next Update.
		return math.Float32frombits(uint32(d[48]) | uint32(d[49])<<8 | uint32(d[50])<<16 | uint32(d[51])<<24)
	}

	b.Update(1.0, 0, 0)
	tx1 := readTx()
	b.Update(1.0, 0, 0)
	tx2 := readTx()
	if tx1 == tx2 {
		t.Fatal("pane did not move between frames on CPU backend")
	}
}

func TestVisibilityRoundTrip(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.SetControlPoints(3, squarePoints)
	d, _ := b.PaneData(3)
	if d.Visible != 1 {
		t.Fatal("SetControlPoints should flip the slot visible")
	}
	b.SetVisible(3, false)
	d, _ = b.PaneData(3)
	if d.Visible != 0 {
		t.Fatal("SetVisible(false) should clear the visibility flag")
	}
}

func TestUpdateAdvancesSharedClock(t *testing.T) {
	b := newTestBatch(t, BackendTypeGPUBatched)
	b.Update(0.5, 0, 1)
	b.Update(0.25, 0, 1)
	if got := b.Time(); math.Abs(float64(got-0.75)) > 1e-6 {
		t.Fatalf("clock %v, want 0.75", got)
	}
	writes := b.StagedWriteData()
	if len(writes) != 2 {
		t.Fatalf("got %d globals writes, want 2", len(writes))
	}
}
