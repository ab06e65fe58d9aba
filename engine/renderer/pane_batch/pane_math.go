package pane_batch

import (
	"math"

	"github.com/jeantimex/flight-path/common"
)

// curveParameter maps the shared clock to a curve parameter t in [0,1] for one pane,
// mirroring the vertex shader's time mapping exactly. With returnMode the mapping is
// a ping-pong triangle wave with period 2/speed; otherwise it loops with period 1/speed.
func curveParameter(time, speed, phase float32, returnMode bool) float32 {
	if returnMode {
		x := frac32(time*speed*0.5 + phase)
		return 1 - abs32(2*x-1)
	}
	return frac32(time*speed + phase)
}

// rephase back-solves a new phase offset so the curve parameter is unchanged at the
// current time when the speed changes from oldSpeed to newSpeed. Prevents a visible
// jump on mid-flight speed changes.
func rephase(time, oldSpeed, oldPhase, newSpeed float32, returnMode bool) float32 {
	if returnMode {
		return frac32(time*oldSpeed*0.5 + oldPhase - time*newSpeed*0.5)
	}
	return frac32(time*oldSpeed + oldPhase - time*newSpeed)
}

// evalPanePosition evaluates the CPU mirror of the vertex shader's spline position:
// three Catmull-Rom segments through the pane's 4 control points with reflected outer
// neighbors, plus the elevation offset along the normalized position.
func evalPanePosition(d *GPUPaneData, t float32) common.Vec3 {
	pts := []common.Vec3{d.P0, d.P1, d.P2, d.P3}
	pos := common.SampleSpline(pts, t)
	up := pos.Normalize()
	return pos.Add(up.Scale(d.Elevation))
}

// evalPaneBasis returns the right/up/normal orientation basis for a pane at
// parameter t, matching the vertex shader's tilt handling.
func evalPaneBasis(d *GPUPaneData, t float32) (right, up, normal common.Vec3) {
	pts := []common.Vec3{d.P0, d.P1, d.P2, d.P3}
	pos := common.SampleSpline(pts, t)
	upDir := pos.Normalize()
	forward := common.SampleSplineTangent(pts, t).Normalize()

	right = upDir.Cross(forward).Normalize()
	up = forward.Cross(right)
	normal = forward
	if d.TiltMode > 0.5 {
		flatUp := normal
		normal = up.Scale(-1)
		up = flatUp
	}
	return right, up, normal
}

// tileUVRect resolves an atlas tile index to its UV offset and scale. The tile index
// is clamped to [0, TileCount).
func (a AtlasInfo) tileUVRect(tile int) (offset, scale [2]float32) {
	if a.Columns <= 0 || a.Rows <= 0 {
		return [2]float32{}, [2]float32{1, 1}
	}
	if tile < 0 {
		tile = 0
	}
	if a.TileCount > 0 && tile >= a.TileCount {
		tile = a.TileCount - 1
	}
	col := tile % a.Columns
	row := tile / a.Columns
	offset = [2]float32{float32(col) * a.ScaleX, float32(row) * a.ScaleY}
	scale = [2]float32{a.ScaleX, a.ScaleY}
	return offset, scale
}

// frac32 returns the fractional part of v, wrapped into [0,1) for negative inputs.
func frac32(v float32) float32 {
	f := v - float32(math.Floor(float64(v)))
	if f < 0 {
		f += 1
	}
	return f
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
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
