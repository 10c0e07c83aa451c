package shader

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	out, err := NewPreProcessor().Process(string(data))
	require.NoError(t, err)
	return out
}

func TestVerifyTestdata(t *testing.T) {
	for _, name := range []string{"anchor_geometry.wgsl", "image_plane.wgsl"} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, Verify(processTestdata(t, name)))
		})
	}
}

func TestVerifyLayoutMismatch(t *testing.T) {
	tests := map[string]struct {
		source   string
		field    string
		property string
	}{
		"reordered fields": {
			source: strings.Replace(contract.GPUSharedUniformsSource,
				"    projectionMatrix: mat4x4<f32>,\n    viewMatrix: mat4x4<f32>,",
				"    viewMatrix: mat4x4<f32>,\n    projectionMatrix: mat4x4<f32>,", 1),
			field:    "projectionMatrix",
			property: "name",
		},
		"widened vector": {
			source:   strings.Replace(contract.GPUSharedUniformsSource, "ambientLightColor: vec3<f32>", "ambientLightColor: vec4<f32>", 1),
			field:    "ambientLightColor",
			property: "type",
		},
		"missing field": {
			source:   strings.Replace(contract.GPUSharedUniformsSource, "    materialShininess: f32,\n", "", 1),
			field:    "",
			property: "fields",
		},
		"instance mat3 matrix": {
			source:   strings.Replace(contract.GPUInstanceUniformsSource, "mat4x4<f32>", "mat3x3<f32>", 1),
			field:    "modelMatrix",
			property: "type",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.NotEqual(t, contract.GPUSharedUniformsSource, tt.source)
			err := Verify(tt.source)
			require.Error(t, err)

			var mismatch *LayoutMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.field, mismatch.Field)
			assert.Equal(t, tt.property, mismatch.Property)
			assert.Contains(t, err.Error(), "layout mismatch")
		})
	}
}

func TestVerifyWidenedVectorShiftsOffsets(t *testing.T) {
	src := strings.Replace(contract.GPUSharedUniformsSource, "materialShininess: f32", "materialShininess: vec2<f32>", 1)
	err := Verify(src)
	require.Error(t, err)

	var offsets, sizes []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var m *LayoutMismatchError
		if errors.As(e, &m) {
			switch m.Property {
			case "offset":
				offsets = append(offsets, m.Field)
			case "size":
				sizes = append(sizes, m.Field)
			}
		}
	}
	assert.Equal(t, []string{"materialShininess"}, offsets)
	assert.Contains(t, sizes, "materialShininess")
}

func TestVerifyIndexCollision(t *testing.T) {
	src := contract.WGSLBindingsSource() + `
@group(1) @binding(TEXTURE_INDEX_Y) var luma: texture_2d<f32>;
@group(1) @binding(1) var lumaAgain: texture_2d<f32>;
@group(2) @binding(1) var other: texture_2d<f32>;
`
	err := Verify(src)
	require.Error(t, err)

	var collision *IndexCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "binding", collision.Kind)
	assert.Equal(t, 1, collision.Group)
	assert.Equal(t, int(contract.TextureIndexY), collision.Index)
	assert.Equal(t, []string{"luma", "lumaAgain"}, collision.Names)
}

func TestVerifyLocationCollision(t *testing.T) {
	src := contract.WGSLBindingsSource() + `
struct Vertex {
    @location(VERTEX_ATTRIBUTE_TEXCOORD) texCoord: vec2<f32>,
    @location(1) uv: vec2<f32>,
};
@vertex
fn vs(in: Vertex) -> @builtin(position) vec4<f32> { return vec4<f32>(); }
`
	err := Verify(src)
	require.Error(t, err)

	var collision *IndexCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "location", collision.Kind)
	assert.Equal(t, -1, collision.Group)
	assert.Equal(t, []string{"Vertex.texCoord", "Vertex.uv"}, collision.Names)
	assert.Contains(t, err.Error(), "@location(1)")
}

func TestVerifyBindingMismatch(t *testing.T) {
	tests := map[string]struct {
		source string
		name   string
		want   int
		got    int
	}{
		"const with wrong value": {
			source: "const BUFFER_INDEX_SHARED_UNIFORMS: u32 = 2u;",
			name:   "BUFFER_INDEX_SHARED_UNIFORMS",
			want:   3,
			got:    2,
		},
		"shared uniforms at instance slot": {
			source: contract.GPUSharedUniformsSource + "@group(0) @binding(2) var<uniform> shared: SharedUniforms;",
			name:   "shared",
			want:   3,
			got:    2,
		},
		"instance uniforms at mesh slot": {
			source: contract.GPUInstanceUniformsSource + "@group(0) @binding(0) var<storage, read> instances: array<InstanceUniforms>;",
			name:   "instances",
			want:   2,
			got:    0,
		},
		"texture past last slot": {
			source: "@group(1) @binding(3) var extra: texture_2d<f32>;",
			name:   "extra",
			want:   2,
			got:    3,
		},
		"location past last attribute": {
			source: "struct V { @location(3) tangent: vec3<f32>, };\n@vertex fn vs(v: V) -> @builtin(position) vec4<f32> { return vec4<f32>(); }",
			name:   "V.tangent",
			want:   2,
			got:    3,
		},
		"entry point parameter past last attribute": {
			source: "@vertex fn vs(@location(0) p: vec3<f32>, @location(4) extra: vec4<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(p, 1.0); }",
			name:   "vs.extra",
			want:   2,
			got:    4,
		},
		"sampler off its slot": {
			source: "@group(1) @binding(0) var s: sampler;",
			name:   "s",
			want:   3,
			got:    0,
		},
		"sampler binding const with wrong value": {
			source: "const SAMPLER_BINDING: u32 = 0u;",
			name:   "SAMPLER_BINDING",
			want:   3,
			got:    0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := Verify(tt.source)
			require.Error(t, err)

			var mismatch *BindingMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.name, mismatch.Name)
			assert.Equal(t, tt.want, mismatch.Want)
			assert.Equal(t, tt.got, mismatch.Got)
		})
	}
}

func TestVerifyIgnoresInterStageLocations(t *testing.T) {
	src := contract.WGSLBindingsSource() + `
struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) eyePosition: vec3<f32>,
    @location(2) normal: vec3<f32>,
    @location(3) texCoord: vec2<f32>,
};
struct FragmentInput {
    @location(0) color: vec4<f32>,
    @location(1) eyePosition: vec3<f32>,
    @location(2) normal: vec3<f32>,
    @location(3) texCoord: vec2<f32>,
};
struct GBuffer {
    @location(0) albedo: vec4<f32>,
    @location(1) normal: vec4<f32>,
    @location(2) position: vec4<f32>,
    @location(3) emissive: vec4<f32>,
};
@fragment
fn fs(in: FragmentInput) -> GBuffer {
    var out: GBuffer;
    out.albedo = in.color;
    return out;
}
`
	assert.NoError(t, Verify(src))

	s, err := NewShader("gbuffer", ShaderTypeFragment, src)
	require.NoError(t, err)
	assert.Equal(t, "fs", s.EntryPoint())
}

func TestVerifyChecksOnlyVertexEntryInputs(t *testing.T) {
	src := contract.WGSLBindingsSource() + `
struct Vertex {
    @location(VERTEX_ATTRIBUTE_POSITION) position: vec3<f32>,
    @builtin(vertex_index) index: u32,
};
struct Varyings {
    @location(0) a: vec4<f32>,
    @location(1) b: vec4<f32>,
    @location(2) c: vec4<f32>,
    @location(3) d: vec4<f32>,
};
@vertex
fn vs(in: Vertex, @builtin(instance_index) iid: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, 1.0);
}
@fragment
fn fs(in: Varyings) -> @location(0) vec4<f32> { return in.a; }
`
	assert.NoError(t, Verify(src))

	layouts := parseVertexLayouts(src)
	require.Len(t, layouts, 1)
	require.Len(t, layouts[0][0].Attributes, 1)
	assert.EqualValues(t, contract.VertexAttributePosition, layouts[0][0].Attributes[0].ShaderLocation)
}

func TestVerifyUnresolvedIndex(t *testing.T) {
	src := contract.GPUSharedUniformsSource + `
@group(0) @binding(SHARED_SLOT) var<uniform> shared: SharedUniforms;
@group(0) @binding(SHARED_SLOT) var<uniform> sharedAgain: SharedUniforms;
@group(UNIFORM_GROUP) @binding(3) var<uniform> sharedElsewhere: SharedUniforms;
`
	err := Verify(src)
	require.Error(t, err)

	var unresolved []*UnresolvedIndexError
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var u *UnresolvedIndexError
		if errors.As(e, &u) {
			unresolved = append(unresolved, u)
		}
	}
	require.Len(t, unresolved, 3)
	assert.Equal(t, UnresolvedIndexError{Name: "shared", Attribute: "binding", Token: "SHARED_SLOT"}, *unresolved[0])
	assert.Equal(t, "sharedAgain", unresolved[1].Name)
	assert.Equal(t, "group", unresolved[2].Attribute)
	assert.Contains(t, err.Error(), "unresolved index: shared: @binding(SHARED_SLOT)")

	_, err = NewShader("unresolved", ShaderTypeVertex, src)
	assert.ErrorAs(t, err, &unresolved[0])
}

func TestVerifyIgnoresUnknownStructs(t *testing.T) {
	assert.NoError(t, Verify("struct Light { color: vec4<f32>, };\n@group(3) @binding(7) var<uniform> light: Light;"))
}

func TestVerifyVertexInputs(t *testing.T) {
	s, err := NewShaderFromPath("image", ShaderTypeVertex, "testdata/image_plane.wgsl")
	require.NoError(t, err)

	host := []wgpu.VertexBufferLayout{{
		ArrayStride: 16,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: uint32(contract.VertexAttributePosition)},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: uint32(contract.VertexAttributeTexcoord)},
		},
	}}
	assert.NoError(t, VerifyVertexInputs(s, host))

	host[0].Attributes[0].Format = wgpu.VertexFormatFloat32x3
	err = VerifyVertexInputs(s, host)
	var mismatch *LayoutMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "position", mismatch.Field)
	assert.Equal(t, "format", mismatch.Property)

	err = VerifyVertexInputs(s, host[:0])
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "missing", mismatch.Got)
}

func TestElemType(t *testing.T) {
	assert.Equal(t, "InstanceUniforms", elemType("array<InstanceUniforms>"))
	assert.Equal(t, "InstanceUniforms", elemType("array<InstanceUniforms, 64>"))
	assert.Equal(t, "SharedUniforms", elemType("SharedUniforms"))
}
