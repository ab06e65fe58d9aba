package shader_test

import (
	"testing"

	"github.com/jeantimex/flight-path/engine/renderer/curve_batch"
	"github.com/jeantimex/flight-path/engine/renderer/pane_batch"
	"github.com/jeantimex/flight-path/engine/renderer/shader"
)

// declByRole finds the provider declaration carrying the given binding role.
func declByRole(decls []shader.Annotation, role shader.AnnotationArg) (shader.Annotation, bool) {
	for _, d := range decls {
		if d.Type != shader.AnnotationTypeProvider || len(d.Args) < 2 {
			continue
		}
		if d.Args[1] == role {
			return d, true
		}
	}
	return shader.Annotation{}, false
}

func TestBatchedPaneVertexShaderDeclarations(t *testing.T) {
	s := shader.NewShaderFromSource("pane_vert", shader.ShaderTypeVertex, pane_batch.BatchedVertexShaderSource)

	var sawCamera, sawGlobals, sawData bool
	for _, d := range s.Declarations() {
		if d.Type != shader.AnnotationTypeBindingGroup {
			continue
		}
		switch d.Args[2] {
		case shader.AnnotationArgCamera:
			sawCamera = true
			if *d.Group != 0 || *d.Binding != 0 {
				t.Errorf("camera at group %d binding %d, want 0/0", *d.Group, *d.Binding)
			}
		case shader.AnnotationArgPaneGlobals:
			sawGlobals = true
			if *d.Group != 1 || *d.Binding != 0 {
				t.Errorf("pane globals at group %d binding %d, want 1/0", *d.Group, *d.Binding)
			}
		case "array<pane_data>":
			sawData = true
			if *d.Group != 1 || *d.Binding != 1 {
				t.Errorf("pane data at group %d binding %d, want 1/1", *d.Group, *d.Binding)
			}
		}
	}
	if !sawCamera || !sawGlobals || !sawData {
		t.Fatalf("missing declarations: camera=%v globals=%v data=%v", sawCamera, sawGlobals, sawData)
	}
}

func TestBatchedPaneVertexLayoutIsPackedQuad(t *testing.T) {
	s := shader.NewShaderFromSource("pane_vert", shader.ShaderTypeVertex, pane_batch.BatchedVertexShaderSource)
	layouts := s.VertexLayout(0)
	if len(layouts) != 1 {
		t.Fatalf("vertex layout count = %d, want 1", len(layouts))
	}
	// vec3 position + vec2 uv, tightly packed
	if layouts[0].ArrayStride != 20 {
		t.Errorf("ArrayStride = %d, want 20", layouts[0].ArrayStride)
	}
	if len(layouts[0].Attributes) != 2 {
		t.Errorf("attribute count = %d, want 2", len(layouts[0].Attributes))
	}
}

func TestPaneFragmentShaderMaterialProvider(t *testing.T) {
	s := shader.NewShaderFromSource("pane_frag", shader.ShaderTypeFragment, pane_batch.FragmentShaderSource)

	tex, ok := declByRole(s.Declarations(), shader.AnnotationArgDiffuseTexture)
	if !ok {
		t.Fatal("no diffuse_texture provider declaration")
	}
	if tex.Args[0] != shader.AnnotationArgMaterial {
		t.Errorf("texture provider identity = %q, want material", tex.Args[0])
	}
	samp, ok := declByRole(s.Declarations(), shader.AnnotationArgDiffuseSampler)
	if !ok {
		t.Fatal("no diffuse_sampler provider declaration")
	}
	if *samp.Group != *tex.Group {
		t.Errorf("sampler group %d != texture group %d", *samp.Group, *tex.Group)
	}
}

func TestCurveVertexShaderProviderRoles(t *testing.T) {
	s := shader.NewShaderFromSource("curve_vert", shader.ShaderTypeVertex, curve_batch.CurveVertexShaderSource)

	pos, ok := declByRole(s.Declarations(), shader.AnnotationArgCurvePositions)
	if !ok {
		t.Fatal("no curve_positions provider declaration")
	}
	col, ok := declByRole(s.Declarations(), shader.AnnotationArgCurveColors)
	if !ok {
		t.Fatal("no curve_colors provider declaration")
	}
	if pos.Args[0] != shader.AnnotationArgCurves || col.Args[0] != shader.AnnotationArgCurves {
		t.Errorf("provider identities = %q/%q, want curves", pos.Args[0], col.Args[0])
	}
	if *pos.Binding == *col.Binding {
		t.Errorf("positions and colors share binding %d", *pos.Binding)
	}

	// A vertex-pulling shader has no vertex buffer layouts at all.
	if len(s.VertexLayouts()) != 0 {
		t.Errorf("vertex layout count = %d, want 0", len(s.VertexLayouts()))
	}
}

func TestCurveVertexShaderRuntimeArraySizes(t *testing.T) {
	s := shader.NewShaderFromSource("curve_vert", shader.ShaderTypeVertex, curve_batch.CurveVertexShaderSource)

	desc := s.BindGroupLayoutDescriptor(1)
	if len(desc.Entries) != 3 {
		t.Fatalf("group 1 entry count = %d, want 3", len(desc.Entries))
	}
	for _, entry := range desc.Entries {
		if entry.Binding == 0 {
			continue // globals uniform
		}
		// Runtime-sized array<vec4<f32>>: min binding size is the element stride.
		if entry.Buffer.MinBindingSize != 16 {
			t.Errorf("binding %d MinBindingSize = %d, want 16", entry.Binding, entry.Buffer.MinBindingSize)
		}
	}
}

func TestEmptySourcePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty shader source")
		}
	}()
	shader.NewShaderFromSource("empty", shader.ShaderTypeVertex, "")
}
