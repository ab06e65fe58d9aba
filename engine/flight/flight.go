package flight

import (
	"log"
	"math"
	"sync"

	"github.com/jeantimex/flight-path/common"
	"github.com/jeantimex/flight-path/engine/renderer/curve_batch"
	"github.com/jeantimex/flight-path/engine/renderer/pane_batch"
)

// speedSnapEpsilon is the remaining speed delta below which smoothing snaps to
// the target instead of approaching it forever.
const speedSnapEpsilon = 1e-4

// flight is the implementation of the Flight interface.
type flight struct {
	mu *sync.Mutex

	index  uint32
	curves curve_batch.CurveBatch
	panes  pane_batch.PaneBatch

	// gpuControlPoints records once, at construction, whether the pane backend
	// evaluates control points on the GPU. When false, Update keeps a CPU-side
	// evaluated position current for this one entity.
	gpuControlPoints bool

	// rawPoints is the full control-point list as supplied by the caller. The
	// curve renderer receives it unreduced; the pane renderer receives the
	// 4-point reduction. With more than 4 input points the two splines are
	// numerically distinct but visually consistent.
	rawPoints     []common.Vec3
	reducedPoints [4]common.Vec3
	curveColor    curve_batch.CurveColor
	elevation     float32

	targetSpeed, currentSpeed float32
	smoothingRate             float32

	visible bool
	removed bool

	cachedPosition common.Vec3
}

// Flight binds one curve slot and one pane slot under a single handle and
// mirrors geometry and styling changes onto both batch renderers by index. The
// curve renderer receives the raw control-point list while the pane renderer
// receives its 4-point reduction; both splines pass through the shared endpoints.
//
// Speed changes are smoothed: SetAnimationSpeed sets a target and Update moves
// the applied speed toward it exponentially, so abrupt host input never causes
// an animation jump. Removal hides both slots; the underlying buffer regions
// stay allocated and the index can be repopulated later.
type Flight interface {
	// Index returns the shared slot index this flight occupies in both renderers.
	//
	// Returns:
	//   - uint32: the slot index
	Index() uint32

	// SetControlPoints forwards the raw point list to the curve renderer and its
	// 4-point reduction to the pane renderer, making both slots visible. Warns
	// and no-ops when fewer than 2 points are supplied.
	//
	// Parameters:
	//   - points: ordered world-space control points, at least 2
	SetControlPoints(points []common.Vec3)

	// ControlPointCount returns the number of raw control points currently set.
	//
	// Returns:
	//   - int: the raw control-point count, 0 when unset
	ControlPointCount() int

	// SetCurveColor updates the curve slot's solid or gradient color. The pane
	// tint is independent and unaffected.
	//
	// Parameters:
	//   - color: the new curve color
	SetCurveColor(color curve_batch.CurveColor)

	// SetPaneColor updates the pane slot's RGB tint.
	//
	// Parameters:
	//   - color: the new pane tint
	SetPaneColor(color common.Vec3)

	// SetPaneSize updates the pane's scale relative to the renderer's base quad size.
	//
	// Parameters:
	//   - scale: the new scale factor
	SetPaneSize(scale float32)

	// SetPaneElevation updates the distance the pane is pushed outward along the
	// normalized evaluated position.
	//
	// Parameters:
	//   - offset: the elevation offset in world units
	SetPaneElevation(offset float32)

	// SetAnimationSpeed sets the target animation speed. The applied speed
	// approaches it over subsequent Update calls; with a zero smoothing rate the
	// change is immediate. Either way the evaluated curve parameter stays
	// continuous across the change.
	//
	// Parameters:
	//   - speed: the target speed in curve traversals per time unit
	SetAnimationSpeed(speed float32)

	// Speed returns the currently applied (smoothed) animation speed.
	//
	// Returns:
	//   - float32: the applied speed
	Speed() float32

	// TargetSpeed returns the speed the smoothing is approaching.
	//
	// Returns:
	//   - float32: the target speed
	TargetSpeed() float32

	// SetTiltMode updates the pane's orientation mode.
	//
	// Parameters:
	//   - mode: TiltModePerpendicular or TiltModeTangent
	SetTiltMode(mode pane_batch.TiltMode)

	// SetReturnFlight toggles the pane renderer's ping-pong time mapping. This is
	// a renderer-wide setting shared by all flights, mirrored here for
	// convenience.
	//
	// Parameters:
	//   - enabled: true for ping-pong, false for looping
	SetReturnFlight(enabled bool)

	// SetTextureIndex selects the atlas tile the pane samples.
	//
	// Parameters:
	//   - tile: the atlas tile index
	SetTextureIndex(tile int)

	// SetVisible shows or hides both slots. Showing re-submits the stored control
	// points to the curve renderer since hiding zeroes its geometry region.
	//
	// Parameters:
	//   - visible: the new visibility
	SetVisible(visible bool)

	// Visible reports whether the flight is currently shown.
	//
	// Returns:
	//   - bool: true when visible
	Visible() bool

	// Position returns the flight's current world-space position, evaluated from
	// the reduced 4-point spline at the pane's current animation parameter. When
	// the pane backend lacks GPU control-point evaluation this value is refreshed
	// every Update; otherwise it is computed on demand.
	//
	// Returns:
	//   - common.Vec3: the evaluated world position
	Position() common.Vec3

	// Update advances speed smoothing for this flight and, on CPU-evaluated pane
	// backends, refreshes the cached position. It does not advance the shared
	// animation clock; that is the pane renderer's Update.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous call in seconds
	Update(deltaTime float32)

	// Remove hides both slots. Buffer regions are retained and the index can be
	// reused through SetControlPoints.
	Remove()

	// Exists reports whether the flight currently holds control points and has
	// not been removed.
	//
	// Returns:
	//   - bool: the liveness of this flight
	Exists() bool
}

var _ Flight = &flight{}

// NewFlight creates a Flight occupying the given slot index in both renderers.
// The pane backend's control-point capability is probed once here and drives
// how Update maintains the evaluated position.
//
// Parameters:
//   - index: the shared slot index
//   - curves: the curve batch renderer
//   - panes: the pane batch renderer
//   - options: variadic list of FlightBuilderOption functions to configure the flight
//
// Returns:
//   - Flight: a new Flight instance
func NewFlight(index uint32, curves curve_batch.CurveBatch, panes pane_batch.PaneBatch, options ...FlightBuilderOption) Flight {
	if curves == nil || panes == nil {
		panic("NewFlight requires both a curve batch and a pane batch")
	}
	f := &flight{
		mu:               &sync.Mutex{},
		index:            index,
		curves:           curves,
		panes:            panes,
		gpuControlPoints: panes.SupportsGPUControlPoints(),
		smoothingRate:    4,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *flight) Index() uint32 {
	return f.index
}

func (f *flight) SetControlPoints(points []common.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(points) < 2 {
		log.Printf("[Flight] SetControlPoints: need at least 2 control points, got %d", len(points))
		return
	}

	f.rawPoints = append(f.rawPoints[:0], points...)
	reduced, ok := common.ReduceToFour(f.rawPoints)
	if !ok {
		log.Printf("[Flight] SetControlPoints: reduction failed for %d points", len(points))
		return
	}
	f.reducedPoints = reduced
	f.visible = true
	f.removed = false

	f.curves.SetCurve(f.index, f.rawPoints, f.curveColor)
	f.panes.SetControlPoints(f.index, reduced[:])
	if f.currentSpeed != 0 {
		f.panes.SetAnimationSpeed(f.index, f.currentSpeed)
	}
}

func (f *flight) ControlPointCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rawPoints)
}

func (f *flight) SetCurveColor(color curve_batch.CurveColor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.curveColor = color
	f.curves.SetCurveColor(f.index, color)
}

func (f *flight) SetPaneColor(color common.Vec3) {
	f.panes.SetColor(f.index, color)
}

func (f *flight) SetPaneSize(scale float32) {
	f.panes.SetScale(f.index, scale)
}

func (f *flight) SetPaneElevation(offset float32) {
	f.mu.Lock()
	f.elevation = offset
	f.mu.Unlock()
	f.panes.SetElevationOffset(f.index, offset)
}

func (f *flight) SetAnimationSpeed(speed float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetSpeed = speed
	if f.smoothingRate <= 0 {
		f.currentSpeed = speed
		f.panes.SetAnimationSpeed(f.index, speed)
	}
}

func (f *flight) Speed() float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentSpeed
}

func (f *flight) TargetSpeed() float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targetSpeed
}

func (f *flight) SetTiltMode(mode pane_batch.TiltMode) {
	f.panes.SetTiltMode(f.index, mode)
}

func (f *flight) SetReturnFlight(enabled bool) {
	f.panes.SetReturnMode(enabled)
}

func (f *flight) SetTextureIndex(tile int) {
	f.panes.SetTextureIndex(f.index, tile)
}

func (f *flight) SetVisible(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removed || len(f.rawPoints) == 0 {
		return
	}
	f.visible = visible
	f.panes.SetVisible(f.index, visible)
	if visible {
		// Hiding zeroed the curve's geometry region, so showing must rebuild it.
		f.curves.SetCurve(f.index, f.rawPoints, f.curveColor)
	} else {
		f.curves.HideCurve(f.index)
	}
}

func (f *flight) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *flight) Position() common.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.gpuControlPoints {
		return f.cachedPosition
	}
	return f.evalPosition()
}

func (f *flight) Update(deltaTime float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removed {
		return
	}

	if f.currentSpeed != f.targetSpeed {
		if f.smoothingRate > 0 {
			step := 1 - float32(math.Exp(float64(-f.smoothingRate*deltaTime)))
			f.currentSpeed += (f.targetSpeed - f.currentSpeed) * step
		} else {
			f.currentSpeed = f.targetSpeed
		}
		if abs32(f.targetSpeed-f.currentSpeed) < speedSnapEpsilon {
			f.currentSpeed = f.targetSpeed
		}
		f.panes.SetAnimationSpeed(f.index, f.currentSpeed)
	}

	if !f.gpuControlPoints {
		f.cachedPosition = f.evalPosition()
	}
}

func (f *flight) Remove() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = true
	f.visible = false
	f.panes.SetVisible(f.index, false)
	f.curves.HideCurve(f.index)
}

func (f *flight) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.removed && len(f.rawPoints) > 0
}

// evalPosition evaluates the reduced spline at the pane's current animation
// parameter and applies the elevation offset. Caller must hold f.mu.
func (f *flight) evalPosition() common.Vec3 {
	t := f.panes.AnimationParameter(f.index)
	pos := common.SampleSpline(f.reducedPoints[:], t)
	if f.elevation != 0 {
		pos = pos.Add(pos.Normalize().Scale(f.elevation))
	}
	return pos
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
