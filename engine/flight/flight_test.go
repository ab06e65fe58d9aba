package flight

import (
	"testing"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/curve_batch"
	"github.com/jeantimex/flight-path/engine/renderer/pane_batch"
)

func newTestPair() (curve_batch.CurveBatch, pane_batch.PaneBatch) {
	curves := curve_batch.NewCurveBatch(curve_batch.WithMaxCurves(8), curve_batch.WithSegmentsPerCurve(8))
	panes := pane_batch.NewPaneBatch(pane_batch.BackendTypeGPUBatched, pane_batch.WithMaxPanes(8))
	return curves, panes
}

var squarePoints = []common.Vec3{
	{0, 0, 0},
	{100, 0, 0},
	{100, 100, 0},
	{0, 100, 0},
}

func TestSetControlPointsMirrorsToBothRenderers(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes)

	f.SetControlPoints(squarePoints)

	if !curves.Exists(0) {
		t.Fatal("expected curve slot 0 to be set")
	}
	data, ok := panes.PaneData(0)
	if !ok {
		t.Fatal("expected pane slot 0 to be set")
	}
	// A 4-point input is forwarded unchanged, no spline re-evaluation.
	if data.P0 != squarePoints[0] || data.P1 != squarePoints[1] || data.P2 != squarePoints[2] || data.P3 != squarePoints[3] {
		t.Fatalf("pane control points %v %v %v %v do not match input", data.P0, data.P1, data.P2, data.P3)
	}
	if !f.Exists() || !f.Visible() {
		t.Fatal("expected flight to exist and be visible after SetControlPoints")
	}
}

func TestSetControlPointsReducesLongerInput(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes)

	points := []common.Vec3{
		{0, 0, 0},
		{50, 20, 0},
		{100, 0, 0},
		{150, -20, 0},
		{200, 0, 0},
		{250, 20, 0},
		{300, 0, 0},
	}
	f.SetControlPoints(points)

	if f.ControlPointCount() != len(points) {
		t.Fatalf("ControlPointCount() = %d, want %d", f.ControlPointCount(), len(points))
	}
	data, ok := panes.PaneData(0)
	if !ok {
		t.Fatal("expected pane slot 0 to be set")
	}
	// The reduction keeps the shared endpoints exact.
	if data.P0 != points[0] {
		t.Fatalf("reduced first point %v, want %v", data.P0, points[0])
	}
	if data.P3 != points[len(points)-1] {
		t.Fatalf("reduced last point %v, want %v", data.P3, points[len(points)-1])
	}
}

func TestSetControlPointsRejectsShortInput(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes)

	f.SetControlPoints([]common.Vec3{{1, 2, 3}})

	if f.Exists() {
		t.Fatal("expected flight to stay unset after single-point input")
	}
	if curves.Exists(0) {
		t.Fatal("expected curve slot 0 to stay empty")
	}
}

func TestSpeedSmoothingConverges(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes, WithSpeedSmoothing(4))
	f.SetControlPoints(squarePoints)

	f.SetAnimationSpeed(1)
	if f.Speed() != 0 {
		t.Fatalf("applied speed changed before Update: %f", f.Speed())
	}

	f.Update(0.1)
	first := f.Speed()
	if first <= 0 || first >= 1 {
		t.Fatalf("after one step speed = %f, want strictly between 0 and 1", first)
	}

	for i := 0; i < 200; i++ {
		f.Update(0.1)
	}
	if f.Speed() != 1 {
		t.Fatalf("speed did not snap to target: %f", f.Speed())
	}
	if panes.AnimationSpeed(0) != 1 {
		t.Fatalf("pane speed = %f, want 1", panes.AnimationSpeed(0))
	}
}

func TestZeroSmoothingAppliesImmediately(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes, WithSpeedSmoothing(0))
	f.SetControlPoints(squarePoints)

	f.SetAnimationSpeed(0.5)
	if f.Speed() != 0.5 {
		t.Fatalf("Speed() = %f, want 0.5 with smoothing disabled", f.Speed())
	}
	if panes.AnimationSpeed(0) != 0.5 {
		t.Fatalf("pane speed = %f, want 0.5", panes.AnimationSpeed(0))
	}
}

func TestSpeedChangeKeepsParameterContinuous(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes, WithSpeedSmoothing(0))
	f.SetControlPoints(squarePoints)
	f.SetAnimationSpeed(0.25)

	panes.Update(2.0, 0, 1)
	before := panes.AnimationParameter(0)

	f.SetAnimationSpeed(0.75)
	after := panes.AnimationParameter(0)

	if diff := before - after; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("parameter jumped across speed change: %f -> %f", before, after)
	}
}

func TestPositionReachesSecondControlPointAtSegmentBoundary(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes, WithSpeedSmoothing(0))
	f.SetControlPoints(squarePoints)
	f.SetAnimationSpeed(0.1)
	f.SetTiltMode(pane_batch.TiltModePerpendicular)

	panes.Update(3.333, 0, 1)

	pos := f.Position()
	want := squarePoints[1]
	for axis := 0; axis < 3; axis++ {
		if diff := pos[axis] - want[axis]; diff > 0.1 || diff < -0.1 {
			t.Fatalf("position %v, want near %v", pos, want)
		}
	}
}

func TestRemoveHidesBothSlots(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes)
	f.SetControlPoints(squarePoints)

	// Drain the initial writes so the next flush only carries removal state.
	curves.ApplyUpdates(0, 1, 2)
	curves.StagedWriteData()

	f.Remove()

	if f.Exists() || f.Visible() {
		t.Fatal("expected flight to be gone after Remove")
	}
	data, ok := panes.PaneData(0)
	if !ok {
		t.Fatal("pane slot should still hold data after Remove")
	}
	if data.Visible != 0 {
		t.Fatalf("pane visibility = %f, want 0", data.Visible)
	}

	curves.ApplyUpdates(0, 1, 2)
	writes := curves.StagedWriteData()
	if len(writes) != 1 {
		t.Fatalf("expected 1 staged curve write after Remove, got %d", len(writes))
	}
	for i, b := range writes[0].Data {
		if b != 0 {
			t.Fatalf("curve geometry byte %d = %d after Remove, want 0", i, b)
		}
	}
}

func TestVisibilityRoundTripRestoresCurve(t *testing.T) {
	curves, panes := newTestPair()
	f := NewFlight(0, curves, panes)
	f.SetControlPoints(squarePoints)

	f.SetVisible(false)
	curves.ApplyUpdates(0, 1, 2)
	curves.StagedWriteData()

	f.SetVisible(true)
	curves.ApplyUpdates(0, 1, 2)
	writes := curves.StagedWriteData()

	var nonZero bool
	for _, w := range writes {
		for _, b := range w.Data {
			if b != 0 {
				nonZero = true
			}
		}
	}
	if !nonZero {
		t.Fatal("expected curve geometry to be rebuilt after showing again")
	}

	data, _ := panes.PaneData(0)
	if data.Visible != 1 {
		t.Fatalf("pane visibility = %f, want 1", data.Visible)
	}
}

func TestCpuBackendCachesPositionInUpdate(t *testing.T) {
	curves := curve_batch.NewCurveBatch(curve_batch.WithMaxCurves(8))
	panes := pane_batch.NewPaneBatch(pane_batch.BackendTypeCPUPerEntity, pane_batch.WithMaxPanes(8))
	f := NewFlight(0, curves, panes, WithSpeedSmoothing(0))
	f.SetControlPoints(squarePoints)
	f.SetAnimationSpeed(0.1)

	start := f.Position()

	panes.Update(3.333, 0, 1)
	f.Update(3.333)

	moved := f.Position()
	if moved == start {
		t.Fatal("expected cached position to advance after Update on the CPU backend")
	}

	want := squarePoints[1]
	for axis := 0; axis < 3; axis++ {
		if diff := moved[axis] - want[axis]; diff > 0.1 || diff < -0.1 {
			t.Fatalf("position %v, want near %v", moved, want)
		}
	}
}
