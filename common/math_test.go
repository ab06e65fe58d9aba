package common

import (
	"math"
	"testing"
)

func matNear(t *testing.T, got, want []float32, eps float32, label string) {
	t.Helper()
	for i := range want {
		if float32(math.Abs(float64(got[i]-want[i]))) > eps {
			t.Fatalf("%s: element %d = %f, want %f", label, i, got[i], want[i])
		}
	}
}

func TestMul4Identity(t *testing.T) {
	var id, m, out [16]float32
	Identity(id[:])
	BuildModelMatrix(m[:], 3, -2, 7, 0.3, 1.1, -0.4, 2, 2, 2)

	Mul4(out[:], id[:], m[:])
	matNear(t, out[:], m[:], 1e-6, "I*M")
	Mul4(out[:], m[:], id[:])
	matNear(t, out[:], m[:], 1e-6, "M*I")
}

func TestMul4AliasedOutput(t *testing.T) {
	var a, b, want [16]float32
	BuildModelMatrix(a[:], 1, 2, 3, 0, 0.5, 0, 1, 1, 1)
	BuildModelMatrix(b[:], -4, 0, 2, 0.2, 0, 0, 3, 3, 3)
	Mul4(want[:], a[:], b[:])

	// out may alias an operand; the internal buffer must make this safe.
	Mul4(a[:], a[:], b[:])
	matNear(t, a[:], want[:], 1e-6, "aliased out")
}

func TestInvert4RoundTrip(t *testing.T) {
	var m, inv, out, id [16]float32
	Identity(id[:])
	BuildModelMatrix(m[:], 5, -1, 2, 0.7, -0.3, 1.2, 1.5, 0.5, 2)

	if !Invert4(inv[:], m[:]) {
		t.Fatal("Invert4 reported a well-formed model matrix as singular")
	}
	Mul4(out[:], m[:], inv[:])
	matNear(t, out[:], id[:], 1e-4, "M*M⁻¹")
}

func TestInvert4Singular(t *testing.T) {
	var m, out [16]float32 // all-zero matrix has det 0
	out[0] = 42

	if Invert4(out[:], m[:]) {
		t.Fatal("Invert4 inverted a singular matrix")
	}
	if out[0] != 42 {
		t.Fatal("Invert4 modified the output on failure")
	}
}

func TestPerspectiveClipSpace(t *testing.T) {
	var p [16]float32
	Perspective(p[:], float32(math.Pi)/2, 1, 0.1, 100)

	// WebGPU clip space: depth 0 at the near plane, 1 at the far plane.
	x, y, z := project(p[:], 0, 0, -0.1)
	if math.Abs(float64(x)) > 1e-5 || math.Abs(float64(y)) > 1e-5 {
		t.Fatalf("near-plane center projected to (%f, %f), want origin", x, y)
	}
	if math.Abs(float64(z)) > 1e-4 {
		t.Fatalf("near-plane depth = %f, want 0", z)
	}
	_, _, zf := project(p[:], 0, 0, -100)
	if math.Abs(float64(zf-1)) > 1e-4 {
		t.Fatalf("far-plane depth = %f, want 1", zf)
	}
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	var v [16]float32
	LookAt(v[:], 10, 20, 30, 0, 0, 0, 0, 1, 0)

	x, y, z := transform(v[:], 10, 20, 30)
	if math.Abs(float64(x)) > 1e-4 || math.Abs(float64(y)) > 1e-4 || math.Abs(float64(z)) > 1e-4 {
		t.Fatalf("eye transformed to (%f, %f, %f), want origin", x, y, z)
	}

	// The look target lands on the -Z axis in view space.
	_, _, tz := transform(v[:], 0, 0, 0)
	if tz >= 0 {
		t.Fatalf("target view-space z = %f, want negative", tz)
	}
}

func transform(m []float32, x, y, z float32) (float32, float32, float32) {
	return m[0]*x + m[4]*y + m[8]*z + m[12],
		m[1]*x + m[5]*y + m[9]*z + m[13],
		m[2]*x + m[6]*y + m[10]*z + m[14]
}

func project(m []float32, x, y, z float32) (float32, float32, float32) {
	px, py, pz := transform(m, x, y, z)
	w := m[3]*x + m[7]*y + m[11]*z + m[15]
	return px / w, py / w, pz / w
}
