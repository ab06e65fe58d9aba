package common

import (
	"math"
	"testing"
)

func approxVec3(t *testing.T, got, want Vec3, tol float32) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if float32(math.Abs(float64(got[i]-want[i]))) > tol {
			t.Fatalf("component %d: got %v, want %v (tol %v)", i, got, want, tol)
		}
	}
}

func TestSampleSplinePassesThroughControlPoints(t *testing.T) {
	points := []Vec3{
		{0, 0, 0},
		{100, 0, 0},
		{100, 100, 0},
		{0, 100, 0},
	}
	// Boundaries between the three segments sit at t = 0, 1/3, 2/3, 1.
	for i, want := range points {
		got := SampleSpline(points, float32(i)/3.0)
		approxVec3(t, got, want, 1e-4)
	}
}

func TestSampleSplineClampsParameter(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {10, 0, 0}}
	approxVec3(t, SampleSpline(points, -0.5), points[0], 1e-5)
	approxVec3(t, SampleSpline(points, 1.5), points[1], 1e-5)
}

func TestSampleSplineTwoPointsIsLinear(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {10, 0, 0}}
	got := SampleSpline(points, 0.5)
	approxVec3(t, got, Vec3{5, 0, 0}, 1e-4)
}

func TestReduceToFourIdentityOnFourPoints(t *testing.T) {
	points := []Vec3{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, 12}}
	out, ok := ReduceToFour(points)
	if !ok {
		t.Fatal("expected success for 4-point input")
	}
	for i := range points {
		if out[i] != points[i] {
			t.Fatalf("point %d changed: got %v, want %v", i, out[i], points[i])
		}
	}
}

func TestReduceToFourEndpointsPreserved(t *testing.T) {
	points := []Vec3{
		{0, 0, 0}, {10, 5, 0}, {20, 0, 0}, {30, 5, 0}, {40, 0, 0}, {50, 5, 0},
	}
	out, ok := ReduceToFour(points)
	if !ok {
		t.Fatal("expected success")
	}
	approxVec3(t, out[0], points[0], 1e-4)
	approxVec3(t, out[3], points[len(points)-1], 1e-4)
}

func TestReduceToFourRejectsShortInput(t *testing.T) {
	if _, ok := ReduceToFour([]Vec3{{1, 2, 3}}); ok {
		t.Fatal("expected failure for 1-point input")
	}
}

func TestResampleSplineSampleCount(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	samples := ResampleSpline(points, 8)
	if len(samples) != 9 {
		t.Fatalf("got %d samples, want 9", len(samples))
	}
	approxVec3(t, samples[0], points[0], 1e-5)
	approxVec3(t, samples[8], points[2], 1e-4)
}

func TestResampleSplineRejectsShortInput(t *testing.T) {
	if got := ResampleSpline([]Vec3{{0, 0, 0}}, 8); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestCumulativeArcLengthsMonotonic(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {100, 0, 0}}
	samples := ResampleSpline(points, 10)
	lengths := CumulativeArcLengths(samples)
	if lengths[0] != 0 {
		t.Fatalf("first arc length should be 0, got %v", lengths[0])
	}
	for i := 1; i < len(lengths); i++ {
		if lengths[i] <= lengths[i-1] {
			t.Fatalf("arc lengths not strictly increasing at %d: %v <= %v", i, lengths[i], lengths[i-1])
		}
	}
	total := lengths[len(lengths)-1]
	if math.Abs(float64(total-100)) > 1 {
		t.Fatalf("total arc length %v, want ~100", total)
	}
}

func TestCatmullRomTangentDirection(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {10, 0, 0}}
	tan := SampleSplineTangent(points, 0.5).Normalize()
	approxVec3(t, tan, Vec3{1, 0, 0}, 1e-4)
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{1, 0, 0}
	b := Vec3{0, 1, 0}
	if got := a.Cross(b); got != (Vec3{0, 0, 1}) {
		t.Fatalf("cross: got %v", got)
	}
	if got := a.Dot(b); got != 0 {
		t.Fatalf("dot: got %v", got)
	}
	if got := (Vec3{3, 4, 0}).Length(); got != 5 {
		t.Fatalf("length: got %v", got)
	}
	if got := (Vec3{0, 0, 0}).Normalize(); got != (Vec3{0, 0, 0}) {
		t.Fatalf("normalize zero: got %v", got)
	}
	approxVec3(t, a.Lerp(b, 0.5), Vec3{0.5, 0.5, 0}, 1e-6)
}
