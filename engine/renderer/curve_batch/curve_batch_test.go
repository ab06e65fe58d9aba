package curve_batch

import (
	"testing"

	"github.com/jeantimex/flight-path/common"
)

func testPoints(offset float32) []common.Vec3 {
	return []common.Vec3{
		{offset, 0, 0},
		{offset + 100, 0, 0},
		{offset + 100, 100, 0},
		{offset, 100, 0},
	}
}

func snapshotRegion(mirror [][4]float32, base, verts uint32) [][4]float32 {
	out := make([][4]float32, verts)
	copy(out, mirror[base:base+verts])
	return out
}

func TestSetCurveRejectsInvalidInput(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)

	cb.SetCurve(0, []common.Vec3{{1, 2, 3}}, SolidColor(common.Vec3{1, 0, 0}))
	if cb.Exists(0) {
		t.Fatal("expected slot 0 to stay empty after single-point input")
	}

	cb.SetCurve(99, testPoints(0), SolidColor(common.Vec3{1, 0, 0}))
	if len(cb.dirtyPosIndices) != 0 {
		t.Fatal("expected no dirty state after out-of-range SetCurve")
	}
}

func TestOutOfRangeIndexDoesNotCorruptOthers(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	for i := uint32(0); i < 4; i++ {
		cb.SetCurve(i, testPoints(float32(i)*10), SolidColor(common.Vec3{1, 0, 0}))
	}
	before := make([][][4]float32, 4)
	for i := uint32(0); i < 4; i++ {
		before[i] = snapshotRegion(cb.positions, i*verts, verts)
	}

	cb.SetCurve(4, testPoints(500), SolidColor(common.Vec3{0, 1, 0}))

	for i := uint32(0); i < 4; i++ {
		after := snapshotRegion(cb.positions, i*verts, verts)
		for v := range after {
			if after[v] != before[i][v] {
				t.Fatalf("slot %d vertex %d changed after out-of-range write: %v != %v", i, v, after[v], before[i][v])
			}
		}
	}
}

func TestColorChangeIsIsolated(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	cb.SetCurve(0, testPoints(0), SolidColor(common.Vec3{1, 0, 0}))
	cb.SetCurve(1, testPoints(200), SolidColor(common.Vec3{0, 1, 0}))
	cb.ApplyUpdates(0, 1, 2)
	cb.StagedWriteData()

	pos0 := snapshotRegion(cb.positions, 0, verts)
	col0 := snapshotRegion(cb.colors, 0, verts)

	cb.SetCurveColor(1, SolidColor(common.Vec3{0, 0, 1}))

	for v := uint32(0); v < verts; v++ {
		if cb.positions[v] != pos0[v] {
			t.Fatalf("slot 0 position vertex %d changed by slot 1 color update", v)
		}
		if cb.colors[v] != col0[v] {
			t.Fatalf("slot 0 color vertex %d changed by slot 1 color update", v)
		}
		want := [4]float32{0, 0, 1, 1}
		if cb.colors[verts+v] != want {
			t.Fatalf("slot 1 color vertex %d = %v, want %v", v, cb.colors[verts+v], want)
		}
	}

	cb.ApplyUpdates(0, 1, 2)
	writes := cb.StagedWriteData()
	if len(writes) != 1 {
		t.Fatalf("expected 1 staged write for a color-only change, got %d", len(writes))
	}
	if writes[0].Binding != 2 {
		t.Fatalf("expected color binding 2, got %d", writes[0].Binding)
	}
	if writes[0].Offset != uint64(verts)*16 {
		t.Fatalf("expected offset %d for slot 1 color region, got %d", uint64(verts)*16, writes[0].Offset)
	}
}

func TestHiddenCurveHasZeroGeometry(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	cb.SetCurve(0, testPoints(0), SolidColor(common.Vec3{1, 0, 0}))
	cb.SetVisibleCurveCount(1)
	cb.HideCurve(0)

	for v := uint32(0); v < verts; v++ {
		if cb.positions[v] != ([4]float32{}) {
			t.Fatalf("hidden curve vertex %d = %v, want all zero", v, cb.positions[v])
		}
	}
	// The draw range still covers the slot; the zeroed geometry is what makes
	// it contribute nothing on screen.
	if got := cb.DrawVertexCount(); got != verts {
		t.Fatalf("DrawVertexCount() = %d, want %d", got, verts)
	}
	if !cb.Exists(0) {
		t.Fatal("hiding a curve should not remove it")
	}
}

func TestDashPatternArcLengths(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	cb.SetCurve(0, testPoints(0), SolidColor(common.Vec3{1, 1, 1}))
	for v := uint32(0); v < verts; v++ {
		if cb.positions[v][3] != 0 {
			t.Fatalf("solid curve vertex %d has arc length %f, want 0", v, cb.positions[v][3])
		}
	}

	cb.SetDashPattern(40, 40)

	last := cb.positions[verts-1][3]
	if last <= 0 {
		t.Fatalf("final arc length = %f, want > 0 after enabling dashes", last)
	}
	prev := float32(-1)
	for s := uint32(0); s < cb.segments; s++ {
		// Segment start continues where the previous segment ended.
		a := cb.positions[2*s][3]
		b := cb.positions[2*s+1][3]
		if s > 0 && a != prev {
			t.Fatalf("segment %d starts at arc %f, previous ended at %f", s, a, prev)
		}
		if b < a {
			t.Fatalf("segment %d arc lengths decrease: %f -> %f", s, a, b)
		}
		prev = b
	}

	dash, gap := cb.DashPattern()
	if dash != 40 || gap != 40 {
		t.Fatalf("DashPattern() = (%f, %f), want (40, 40)", dash, gap)
	}
}

func TestDashPatternRoundTripToSolid(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	cb.SetCurve(0, testPoints(0), SolidColor(common.Vec3{1, 1, 1}))
	cb.SetDashPattern(40, 40)
	cb.SetDashPattern(0, 0)

	for v := uint32(0); v < verts; v++ {
		if cb.positions[v][3] != 0 {
			t.Fatalf("vertex %d arc length = %f after returning to solid, want 0", v, cb.positions[v][3])
		}
	}
}

func TestGradientColorInterpolates(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(2), WithSegmentsPerCurve(4)).(*curveBatch)

	cb.SetCurve(0, []common.Vec3{{0, 0, 0}, {100, 0, 0}}, GradientColor(common.Vec3{1, 0, 0}, common.Vec3{0, 0, 1}))

	first := cb.colors[0]
	if first != ([4]float32{1, 0, 0, 1}) {
		t.Fatalf("first vertex color = %v, want start color", first)
	}
	last := cb.colors[cb.VertsPerCurve()-1]
	if last != ([4]float32{0, 0, 1, 1}) {
		t.Fatalf("last vertex color = %v, want end color", last)
	}
	// Segment 2 starts at t=0.5.
	mid := cb.colors[4]
	if mid[0] != 0.5 || mid[2] != 0.5 {
		t.Fatalf("midpoint color = %v, want interpolated (0.5, 0, 0.5)", mid)
	}
}

func TestApplyUpdatesCoalescesContiguousSlots(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(8), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	for i := uint32(0); i < 3; i++ {
		cb.SetCurve(i, testPoints(float32(i)*50), SolidColor(common.Vec3{1, 0, 0}))
	}
	cb.SetCurve(6, testPoints(900), SolidColor(common.Vec3{0, 1, 0}))

	cb.ApplyUpdates(0, 1, 2)
	writes := cb.StagedWriteData()

	var posWrites []int
	for i, w := range writes {
		if w.Binding == 1 {
			posWrites = append(posWrites, i)
		}
	}
	if len(posWrites) != 2 {
		t.Fatalf("expected 2 coalesced position writes, got %d", len(posWrites))
	}

	first := writes[posWrites[0]]
	if first.Offset != 0 || len(first.Data) != int(3*verts)*16 {
		t.Fatalf("first run: offset %d len %d, want offset 0 len %d", first.Offset, len(first.Data), 3*verts*16)
	}
	second := writes[posWrites[1]]
	if second.Offset != uint64(6*verts)*16 || len(second.Data) != int(verts)*16 {
		t.Fatalf("second run: offset %d len %d, want offset %d len %d", second.Offset, len(second.Data), uint64(6*verts)*16, verts*16)
	}

	if got := cb.ApplyUpdates(0, 1, 2); got != 0 {
		t.Fatalf("ApplyUpdates after drain flushed %d slots, want 0", got)
	}
	if writes := cb.StagedWriteData(); len(writes) != 0 {
		t.Fatalf("expected no staged writes after drain, got %d", len(writes))
	}
}

func TestGlobalsWriteOnDashChange(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(2), WithSegmentsPerCurve(4)).(*curveBatch)

	cb.SetDashPattern(40, 20)
	cb.ApplyUpdates(0, 1, 2)
	writes := cb.StagedWriteData()

	if len(writes) != 1 {
		t.Fatalf("expected 1 globals write, got %d writes", len(writes))
	}
	if writes[0].Binding != 0 {
		t.Fatalf("globals write binding = %d, want 0", writes[0].Binding)
	}
	if len(writes[0].Data) != 16 {
		t.Fatalf("globals write size = %d, want 16", len(writes[0].Data))
	}
}

func TestOpacityDefaultsAndClamps(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(2), WithSegmentsPerCurve(4)).(*curveBatch)

	if got := cb.Opacity(); got != 1 {
		t.Fatalf("Opacity() = %f, want default 1", got)
	}

	// Drain the initial globals upload so the next flush isolates the change.
	cb.ApplyUpdates(0, 1, 2)
	cb.StagedWriteData()

	cb.SetOpacity(2.5)
	if got := cb.Opacity(); got != 1 {
		t.Fatalf("Opacity() = %f after over-range set, want clamped 1", got)
	}
	cb.SetOpacity(0.25)
	cb.ApplyUpdates(0, 1, 2)
	writes := cb.StagedWriteData()
	if len(writes) != 1 || writes[0].Binding != 0 {
		t.Fatalf("expected 1 globals write at binding 0, got %+v", writes)
	}
}

func TestRemoveClearsSlot(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8)).(*curveBatch)
	verts := cb.VertsPerCurve()

	cb.SetCurve(2, testPoints(0), SolidColor(common.Vec3{1, 0, 0}))
	if !cb.Exists(2) {
		t.Fatal("expected slot 2 to exist after SetCurve")
	}

	cb.Remove(2)
	if cb.Exists(2) {
		t.Fatal("expected slot 2 to be gone after Remove")
	}
	base := 2 * verts
	for v := uint32(0); v < verts; v++ {
		if cb.positions[base+v] != ([4]float32{}) {
			t.Fatalf("removed slot vertex %d = %v, want zero", v, cb.positions[base+v])
		}
	}

	// Slots are reusable by index.
	cb.SetCurve(2, testPoints(10), SolidColor(common.Vec3{0, 1, 0}))
	if !cb.Exists(2) {
		t.Fatal("expected slot 2 to exist after reuse")
	}
}

func TestVisibleCurveCountClamped(t *testing.T) {
	cb := NewCurveBatch(WithMaxCurves(4), WithSegmentsPerCurve(8))

	cb.SetVisibleCurveCount(100)
	if got := cb.VisibleCurveCount(); got != 4 {
		t.Fatalf("VisibleCurveCount() = %d, want clamped 4", got)
	}
	if got := cb.DrawVertexCount(); got != 4*8*2 {
		t.Fatalf("DrawVertexCount() = %d, want %d", got, 4*8*2)
	}
}
