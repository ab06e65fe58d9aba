package common

import "math"

// Vec3 is a 3-component float vector used for world-space positions and colors.
// Stored as a fixed-size array so slices of Vec3 can be viewed as raw GPU data
// via SliceToBytes without conversion.
type Vec3 [3]float32

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns the component-wise difference of v and o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the cross product of v and o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Length returns the euclidean length of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Lerp returns the linear interpolation between v and o at parameter t.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// CatmullRom evaluates a uniform Catmull-Rom segment between p1 and p2 at
// local parameter t in [0,1], with p0 and p3 as the outer neighbors.
//
// Parameters:
//   - p0, p1, p2, p3: the four control points of the segment
//   - t: local parameter in [0,1]; t=0 yields p1, t=1 yields p2
//
// Returns:
//   - Vec3: the interpolated position
func CatmullRom(p0, p1, p2, p3 Vec3, t float32) Vec3 {
	t2 := t * t
	t3 := t2 * t
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = 0.5 * ((2 * p1[i]) +
			(-p0[i]+p2[i])*t +
			(2*p0[i]-5*p1[i]+4*p2[i]-p3[i])*t2 +
			(-p0[i]+3*p1[i]-3*p2[i]+p3[i])*t3)
	}
	return out
}

// CatmullRomTangent evaluates the derivative of a uniform Catmull-Rom segment
// at local parameter t. The result is not normalized.
func CatmullRomTangent(p0, p1, p2, p3 Vec3, t float32) Vec3 {
	t2 := t * t
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = 0.5 * ((-p0[i] + p2[i]) +
			2*(2*p0[i]-5*p1[i]+4*p2[i]-p3[i])*t +
			3*(-p0[i]+3*p1[i]-3*p2[i]+p3[i])*t2)
	}
	return out
}

// SampleSpline evaluates a Catmull-Rom spline through all of the given control
// points at global parameter t in [0,1]. The spline passes exactly through every
// point: points[0] at t=0 and points[len-1] at t=1, with segment boundaries at
// uniform parameter steps. Missing outer neighbors at the ends are synthesized by
// reflection (p0 + (p0 - p1) before the first point, pN + (pN - pN-1) after the
// last) so the end segments keep continuous tangents.
//
// Parameters:
//   - points: ordered control points, at least 2
//   - t: global parameter, clamped to [0,1]
//
// Returns:
//   - Vec3: the interpolated position along the spline
func SampleSpline(points []Vec3, t float32) Vec3 {
	p0, p1, p2, p3, local := splineSegment(points, t)
	return CatmullRom(p0, p1, p2, p3, local)
}

// SampleSplineTangent evaluates the (unnormalized) tangent of the spline
// described by SampleSpline at global parameter t.
func SampleSplineTangent(points []Vec3, t float32) Vec3 {
	p0, p1, p2, p3, local := splineSegment(points, t)
	return CatmullRomTangent(p0, p1, p2, p3, local)
}

// splineSegment resolves the four control points and local parameter for the
// segment of the spline containing global parameter t.
func splineSegment(points []Vec3, t float32) (p0, p1, p2, p3 Vec3, local float32) {
	n := len(points)
	if n == 0 {
		return
	}
	if n == 1 {
		p0, p1, p2, p3 = points[0], points[0], points[0], points[0]
		return
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	segs := n - 1
	seg := int(t * float32(segs))
	if seg >= segs {
		seg = segs - 1
	}
	local = t*float32(segs) - float32(seg)

	p1 = points[seg]
	p2 = points[seg+1]
	if seg > 0 {
		p0 = points[seg-1]
	} else {
		p0 = p1.Add(p1.Sub(p2))
	}
	if seg+2 < n {
		p3 = points[seg+2]
	} else {
		p3 = p2.Add(p2.Sub(p1))
	}
	return
}

// ResampleSpline samples the spline through the given control points at
// segments+1 evenly spaced parameter values, including both endpoints.
//
// Parameters:
//   - points: ordered control points, at least 2
//   - segments: number of line segments in the output; must be at least 1
//
// Returns:
//   - []Vec3: segments+1 sampled positions, nil if the input is too short
func ResampleSpline(points []Vec3, segments int) []Vec3 {
	if len(points) < 2 || segments < 1 {
		return nil
	}
	out := make([]Vec3, segments+1)
	for i := 0; i <= segments; i++ {
		out[i] = SampleSpline(points, float32(i)/float32(segments))
	}
	return out
}

// CumulativeArcLengths returns the running arc length at each sample position,
// starting at 0 for the first sample. The last entry is the total polyline length.
func CumulativeArcLengths(samples []Vec3) []float32 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float32, len(samples))
	for i := 1; i < len(samples); i++ {
		out[i] = out[i-1] + samples[i].Sub(samples[i-1]).Length()
	}
	return out
}

// ReduceToFour collapses an arbitrary control-point list to exactly 4 points by
// evaluating the spline at t = 0, 1/3, 2/3 and 1. A list that already holds
// exactly 4 points is returned as-is without re-evaluation, so repeated
// reduction is stable.
//
// Parameters:
//   - points: ordered control points, at least 2
//
// Returns:
//   - [4]Vec3: the reduced control points
//   - bool: false if the input has fewer than 2 points
func ReduceToFour(points []Vec3) ([4]Vec3, bool) {
	var out [4]Vec3
	if len(points) < 2 {
		return out, false
	}
	if len(points) == 4 {
		copy(out[:], points)
		return out, true
	}
	out[0] = SampleSpline(points, 0)
	out[1] = SampleSpline(points, 1.0/3.0)
	out[2] = SampleSpline(points, 2.0/3.0)
	out[3] = SampleSpline(points, 1)
	return out, true
}
