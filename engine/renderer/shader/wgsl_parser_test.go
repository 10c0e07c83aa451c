package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractSourcesMatchHostLayout(t *testing.T) {
	source := stripComments(contract.WGSLHeader())
	layouts := computeStructSizes(parseStructBlocks(source, parseConstants(source)))

	for name, want := range contract.StructLayouts() {
		got, ok := layouts[name]
		require.True(t, ok, name)
		assert.Equal(t, want.Size, got.size, name)
		assert.Equal(t, want.Align, got.align, name)
		require.Len(t, got.fields, len(want.Fields), name)
		for i, f := range want.Fields {
			assert.Equal(t, f.Name, got.fields[i].name)
			assert.Equal(t, f.Type, got.fields[i].typeName)
			assert.Equal(t, f.Offset, got.fields[i].offset, "%s.%s", name, f.Name)
			assert.Equal(t, f.Size, got.fields[i].size, "%s.%s", name, f.Name)
		}
	}
}

func TestParseConstantsReadsBindingsHeader(t *testing.T) {
	consts := parseConstants(stripComments(contract.WGSLBindingsSource()))
	require.Len(t, consts, len(contract.WGSLConstants()))
	for _, c := range contract.WGSLConstants() {
		assert.Equal(t, c.Value, consts[c.Name], c.Name)
	}
}

func TestResolveIndex(t *testing.T) {
	consts := map[string]uint32{"SLOT": 7}
	for token, want := range map[string]int{"3": 3, "3u": 3, "4i": 4, "SLOT": 7} {
		got, ok := resolveIndex(token, consts)
		assert.True(t, ok, token)
		assert.Equal(t, want, got, token)
	}
	_, ok := resolveIndex("MISSING", consts)
	assert.False(t, ok)
}

func TestNormalizeTypeName(t *testing.T) {
	assert.Equal(t, "vec3<f32>", normalizeTypeName("vec3f"))
	assert.Equal(t, "mat4x4<f32>", normalizeTypeName("mat4x4f"))
	assert.Equal(t, "vec3<f32>", normalizeTypeName("vec3< f32 >"))
	assert.Equal(t, "array<InstanceUniforms>", normalizeTypeName("array< InstanceUniforms >"))
	assert.Equal(t, "array<vec4<f32>, 4>", normalizeTypeName("array<vec4f, 4>"))
}

func TestComputeStructLayoutPadding(t *testing.T) {
	src := `
struct Padded {
    a: f32,
    b: vec3<f32>,
    c: f32,
    d: array<vec2f, 3>,
};
`
	layouts := computeStructSizes(parseStructBlocks(src, nil))
	got, ok := layouts["Padded"]
	require.True(t, ok)
	require.Len(t, got.fields, 4)
	assert.EqualValues(t, 0, got.fields[0].offset)
	assert.EqualValues(t, 16, got.fields[1].offset)
	assert.EqualValues(t, 28, got.fields[2].offset)
	assert.EqualValues(t, 32, got.fields[3].offset)
	assert.EqualValues(t, 24, got.fields[3].size)
	assert.EqualValues(t, 64, got.size)
	assert.EqualValues(t, 16, got.align)
}

func TestParseBindGroupLayouts(t *testing.T) {
	src := contract.WGSLHeader() + `
@group(0) @binding(BUFFER_INDEX_SHARED_UNIFORMS) var<uniform> sharedUniforms: SharedUniforms;
@group(0) @binding(BUFFER_INDEX_INSTANCE_UNIFORMS) var<storage, read> instanceUniforms: array<InstanceUniforms>;
@group(1) @binding(TEXTURE_INDEX_COLOR) var colorMap: texture_2d<f32>;
@group(1) @binding(3) var colorSampler: sampler;
`
	groups, names := parseBindGroupLayouts(src, wgpu.ShaderStageVertex)
	require.Len(t, groups, 2)

	uniforms := groups[0].Entries
	require.Len(t, uniforms, 2)
	assert.EqualValues(t, contract.BufferIndexInstanceUniforms, uniforms[0].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, uniforms[0].Buffer.Type)
	assert.EqualValues(t, contract.InstanceUniformsSize, uniforms[0].Buffer.MinBindingSize)
	assert.EqualValues(t, contract.BufferIndexSharedUniforms, uniforms[1].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, uniforms[1].Buffer.Type)
	assert.EqualValues(t, contract.SharedUniformsSize, uniforms[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, uniforms[1].Visibility)

	textures := groups[1].Entries
	require.Len(t, textures, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, textures[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, textures[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, textures[1].Sampler.Type)

	assert.Equal(t, "sharedUniforms", names[0][int(contract.BufferIndexSharedUniforms)])
	assert.Equal(t, "colorSampler", names[1][3])
}

func TestParseVertexLayoutsResolvesNamedLocations(t *testing.T) {
	src := contract.WGSLBindingsSource() + `
struct Vertex {
    @location(VERTEX_ATTRIBUTE_POSITION) position: vec3<f32>,
    @location(VERTEX_ATTRIBUTE_NORMAL) normal: vec3f,
};
struct Out {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};
@vertex
fn vs(in: Vertex) -> Out {
    var out: Out;
    return out;
}
`
	layouts := parseVertexLayouts(src)
	require.Len(t, layouts, 1)
	l := layouts[0][0]
	assert.EqualValues(t, 24, l.ArrayStride)
	require.Len(t, l.Attributes, 2)
	assert.EqualValues(t, contract.VertexAttributePosition, l.Attributes[0].ShaderLocation)
	assert.EqualValues(t, contract.VertexAttributeNormal, l.Attributes[1].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, l.Attributes[1].Format)
	assert.EqualValues(t, 12, l.Attributes[1].Offset)
}

func TestParseVertexLayoutsEntryPointParameters(t *testing.T) {
	src := `
@vertex
fn vs(@location(0) position: vec2<f32>, @builtin(vertex_index) vi: u32, @location(1) uv: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}
`
	layouts := parseVertexLayouts(src)
	require.Len(t, layouts, 1)
	l := layouts[0][0]
	assert.EqualValues(t, 16, l.ArrayStride)
	require.Len(t, l.Attributes, 2)
	assert.EqualValues(t, 1, l.Attributes[1].ShaderLocation)
	assert.EqualValues(t, 8, l.Attributes[1].Offset)

	assert.Empty(t, parseVertexLayouts("struct V { @location(0) p: vec3<f32>, };"))
}

func TestParseBindingsReportsUnresolved(t *testing.T) {
	bindings, errs := parseBindings("@group(0) @binding(NOPE) var<uniform> u: SharedUniforms;\n@group(1) @binding(0u) var t: texture_2d<f32>;", nil)
	require.Len(t, bindings, 1)
	assert.Equal(t, "t", bindings[0].varName)
	require.Len(t, errs, 1)
	var unresolved *UnresolvedIndexError
	require.ErrorAs(t, errs[0], &unresolved)
	assert.Equal(t, "NOPE", unresolved.Token)
}

func TestStripComments(t *testing.T) {
	src := "a /* b /* nested */ c */ d // tail\ne"
	assert.Equal(t, "a  d \ne\n", stripComments(src))
}

func TestParseEntryPoint(t *testing.T) {
	src := "@vertex\nfn vs() {}\n@fragment fn fs() {}"
	assert.Equal(t, "vs", parseEntryPoint(src, ShaderTypeVertex))
	assert.Equal(t, "fs", parseEntryPoint(src, ShaderTypeFragment))
	assert.Empty(t, parseEntryPoint(src, ShaderType(9)))
}
