package layout

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePlaneVertexLayouts(t *testing.T) {
	layouts := ImagePlaneVertexLayouts()
	require.Len(t, layouts, 1)

	l := layouts[contract.BufferIndexMeshPositions]
	assert.EqualValues(t, ImagePlaneVertexStride, l.ArrayStride)
	require.Len(t, l.Attributes, 2)
	assert.EqualValues(t, contract.VertexAttributePosition, l.Attributes[0].ShaderLocation)
	assert.EqualValues(t, contract.VertexAttributeTexcoord, l.Attributes[1].ShaderLocation)
	assert.EqualValues(t, 8, l.Attributes[1].Offset)
}

func TestGeometryVertexLayouts(t *testing.T) {
	layouts := GeometryVertexLayouts()
	require.Len(t, layouts, 2)

	positions := layouts[contract.BufferIndexMeshPositions]
	assert.EqualValues(t, GeometryPositionStride, positions.ArrayStride)
	require.Len(t, positions.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, positions.Attributes[0].Format)

	generics := layouts[contract.BufferIndexMeshGenerics]
	assert.EqualValues(t, GeometryGenericsStride, generics.ArrayStride)
	require.Len(t, generics.Attributes, 2)
	assert.EqualValues(t, contract.VertexAttributeTexcoord, generics.Attributes[0].ShaderLocation)
	assert.EqualValues(t, contract.VertexAttributeNormal, generics.Attributes[1].ShaderLocation)
	assert.EqualValues(t, 8, generics.Attributes[1].Offset)
}

func TestVertexLayoutsCoverEveryAttributeOnce(t *testing.T) {
	seen := make(map[uint32]int)
	for _, l := range GeometryVertexLayouts() {
		for _, a := range l.Attributes {
			seen[a.ShaderLocation]++
			assert.LessOrEqual(t, a.Offset+formatSize(a.Format), l.ArrayStride)
		}
	}
	for _, v := range contract.VertexAttributes() {
		assert.Equal(t, 1, seen[uint32(v)], v.String())
	}
}

func TestVertexLayoutsMatchShaders(t *testing.T) {
	geometry, err := shader.NewShaderFromPath("anchor", shader.ShaderTypeVertex, "../shader/testdata/anchor_geometry.wgsl")
	require.NoError(t, err)
	assert.NoError(t, shader.VerifyVertexInputs(geometry, GeometryVertexLayouts()))

	image, err := shader.NewShaderFromPath("image", shader.ShaderTypeVertex, "../shader/testdata/image_plane.wgsl")
	require.NoError(t, err)
	assert.NoError(t, shader.VerifyVertexInputs(image, ImagePlaneVertexLayouts()))

	assert.Error(t, shader.VerifyVertexInputs(image, GeometryVertexLayouts()))
}

func TestImagePlaneVertexBytes(t *testing.T) {
	data := ImagePlaneVertexBytes()
	require.Len(t, data, ImagePlaneVertexCount*ImagePlaneVertexStride)

	vertices := ImagePlaneVertices()
	for i, want := range vertices {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		assert.Equal(t, want, got, "component %d", i)
	}

	vertices[0] = 42
	assert.NotEqual(t, float32(42), ImagePlaneVertices()[0])
}

func TestImagePlaneVerticesTransformed(t *testing.T) {
	assert.Equal(t, ImagePlaneVertexBytes(), ImagePlaneVertexBytesTransformed(mgl32.Ident3()))

	// Aspect fill of a camera image wider than the viewport: the middle 75% of u is shown.
	fill := mgl32.Translate2D(0.125, 0).Mul3(mgl32.Scale2D(0.75, 1))
	vertices := ImagePlaneVerticesTransformed(fill)
	base := ImagePlaneVertices()
	for i := 0; i < len(vertices); i += 4 {
		assert.Equal(t, base[i], vertices[i], "x of vertex %d", i/4)
		assert.Equal(t, base[i+1], vertices[i+1], "y of vertex %d", i/4)
		assert.InDelta(t, 0.125+0.75*base[i+2], vertices[i+2], 1e-6, "u of vertex %d", i/4)
		assert.InDelta(t, base[i+3], vertices[i+3], 1e-6, "v of vertex %d", i/4)
	}

	rotated := mgl32.Translate2D(1, 0).Mul3(mgl32.HomogRotate2D(mgl32.DegToRad(90)))
	inverse := rotated.Inv()
	turned := ImagePlaneVerticesTransformed(rotated)
	for i := 0; i < len(turned); i += 4 {
		uv := inverse.Mul3x1(mgl32.Vec3{turned[i+2], turned[i+3], 1})
		assert.InDelta(t, base[i+2], uv.X(), 1e-5, "u of vertex %d", i/4)
		assert.InDelta(t, base[i+3], uv.Y(), 1e-5, "v of vertex %d", i/4)
	}

	data := ImagePlaneVertexBytesTransformed(fill)
	require.Len(t, data, ImagePlaneVertexCount*ImagePlaneVertexStride)
	assert.InDelta(t, vertices[2], math.Float32frombits(binary.LittleEndian.Uint32(data[8:])), 1e-6)
}

func TestUniformBindGroupLayout(t *testing.T) {
	desc := UniformBindGroupLayout()
	require.Len(t, desc.Entries, 2)

	instance := desc.Entries[0]
	assert.EqualValues(t, contract.BufferIndexInstanceUniforms, instance.Binding)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, instance.Buffer.Type)
	assert.True(t, instance.Buffer.HasDynamicOffset)
	assert.EqualValues(t, contract.InstanceUniformsSize, instance.Buffer.MinBindingSize)

	shared := desc.Entries[1]
	assert.EqualValues(t, contract.BufferIndexSharedUniforms, shared.Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, shared.Buffer.Type)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, shared.Visibility)
	assert.EqualValues(t, contract.SharedUniformsSize, shared.Buffer.MinBindingSize)
}

func TestTextureBindGroupLayouts(t *testing.T) {
	camera := CameraTextureBindGroupLayout()
	require.Len(t, camera.Entries, 3)
	assert.EqualValues(t, contract.TextureIndexY, camera.Entries[0].Binding)
	assert.EqualValues(t, contract.TextureIndexCbCr, camera.Entries[1].Binding)
	assert.Equal(t, SamplerBinding, camera.Entries[2].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, camera.Entries[2].Sampler.Type)

	material := MaterialBindGroupLayout()
	require.Len(t, material.Entries, 2)
	assert.EqualValues(t, contract.TextureIndexColor, material.Entries[0].Binding)
}

func TestBindGroupLayoutsHaveNoCollisions(t *testing.T) {
	groups := BindGroupLayouts()
	require.Len(t, groups, 3)
	for g, desc := range groups {
		seen := make(map[uint32]bool)
		for _, e := range desc.Entries {
			assert.False(t, seen[e.Binding], "group %d binding %d", g, e.Binding)
			seen[e.Binding] = true
		}
	}
}

func formatSize(f wgpu.VertexFormat) uint64 {
	switch f {
	case wgpu.VertexFormatFloat32x2:
		return 8
	case wgpu.VertexFormatFloat32x3:
		return 12
	default:
		return 0
	}
}
