package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../shader/testdata/"

func loadShaders(t *testing.T, file string) (shader.Shader, shader.Shader) {
	t.Helper()
	vs, err := shader.NewShaderFromPath(file+"_vs", shader.ShaderTypeVertex, testdata+file)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromPath(file+"_fs", shader.ShaderTypeFragment, testdata+file)
	require.NoError(t, err)
	return vs, fs
}

func TestCapturedImagePipeline(t *testing.T) {
	vs, fs := loadShaders(t, "image_plane.wgsl")
	p := NewCapturedImagePipeline(vs, fs)
	require.NoError(t, p.Validate())

	assert.Equal(t, "captured_image", p.PipelineKey())
	assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))
	assert.Nil(t, p.Shader(shader.ShaderType(5)))

	desc := p.Descriptor(nil, nil, nil)
	assert.Equal(t, "captured_image Render Pipeline", desc.Label)
	assert.Equal(t, "capturedImageVertexTransform", desc.Vertex.EntryPoint)
	assert.Equal(t, "capturedImageFragmentShader", desc.Fragment.EntryPoint)
	assert.Equal(t, layout.ImagePlaneVertexLayouts(), desc.Vertex.Buffers)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, desc.Primitive.Topology)
	assert.Equal(t, wgpu.CullModeNone, desc.Primitive.CullMode)
	assert.Equal(t, wgpu.CompareFunctionAlways, desc.DepthStencil.DepthCompare)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Nil(t, desc.Fragment.Targets[0].Blend)
}

func TestAnchorGeometryPipeline(t *testing.T) {
	vs, fs := loadShaders(t, "anchor_geometry.wgsl")
	p := NewAnchorGeometryPipeline(vs, fs, WithSampleCount(4), WithColorFormat(wgpu.TextureFormatRGBA8Unorm))
	require.NoError(t, p.Validate())

	desc := p.Descriptor(nil, nil, nil)
	assert.Len(t, desc.Vertex.Buffers, int(contract.BufferIndexMeshGenerics)+1)
	assert.Equal(t, wgpu.CullModeBack, desc.Primitive.CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, desc.Primitive.Topology)
	assert.Equal(t, wgpu.CompareFunctionLess, desc.DepthStencil.DepthCompare)
	assert.True(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.TextureFormatDepth32FloatStencil8, desc.DepthStencil.Format)
	assert.EqualValues(t, 4, desc.Multisample.Count)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, desc.Fragment.Targets[0].Format)
}

func TestValidateMissingShaders(t *testing.T) {
	vs, _ := loadShaders(t, "image_plane.wgsl")

	err := NewPipeline("empty").Validate()
	assert.ErrorIs(t, err, ErrMissingShader)
	assert.ErrorContains(t, err, "empty vertex")
	assert.ErrorContains(t, err, "empty fragment")

	err = NewPipeline("swapped", WithVertexShader(vs), WithFragmentShader(vs)).Validate()
	assert.ErrorIs(t, err, ErrMissingShader)
	assert.ErrorContains(t, err, "swapped fragment")
}

func TestValidateVertexLayoutMismatch(t *testing.T) {
	vs, fs := loadShaders(t, "image_plane.wgsl")
	p := NewCapturedImagePipeline(vs, fs, WithVertexLayouts(layout.GeometryVertexLayouts()))

	var mismatch *shader.LayoutMismatchError
	require.ErrorAs(t, p.Validate(), &mismatch)
	assert.Equal(t, "position", mismatch.Field)
}

func TestValidateBindGroupMismatch(t *testing.T) {
	vs, fs := loadShaders(t, "image_plane.wgsl")

	noCamera := layout.BindGroupLayouts()
	delete(noCamera, layout.CameraTextureGroup)
	err := NewCapturedImagePipeline(vs, fs, WithBindGroupLayouts(noCamera)).Validate()
	var mismatch *BindGroupMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, layout.CameraTextureGroup, mismatch.Group)
	assert.Equal(t, "no host bind group layout", mismatch.Reason)

	swapped := layout.BindGroupLayouts()
	swapped[layout.CameraTextureGroup] = layout.UniformBindGroupLayout()
	err = NewCapturedImagePipeline(vs, fs, WithBindGroupLayouts(swapped)).Validate()
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int(contract.TextureIndexY), mismatch.Binding)
	assert.Equal(t, "no host binding", mismatch.Reason)

	kinds := map[int]wgpu.BindGroupLayoutDescriptor{
		layout.UniformGroup: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: uint32(contract.BufferIndexInstanceUniforms), Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: contract.InstanceUniformsSize}},
			{Binding: uint32(contract.BufferIndexSharedUniforms), Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 16}},
		}},
	}
	avs, afs := loadShaders(t, "anchor_geometry.wgsl")
	err = NewAnchorGeometryPipeline(avs, afs, WithBindGroupLayouts(kinds)).Validate()
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int(contract.BufferIndexSharedUniforms), mismatch.Binding)
	assert.Contains(t, mismatch.Reason, "minimum binding size 16")

	kinds[layout.UniformGroup].Entries[0].Buffer.Type = wgpu.BufferBindingTypeUniform
	err = NewAnchorGeometryPipeline(avs, afs, WithBindGroupLayouts(kinds)).Validate()
	var found bool
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		if errors.As(e, &mismatch) && mismatch.Binding == int(contract.BufferIndexInstanceUniforms) {
			found = true
			assert.Equal(t, "host binds a uniform buffer, shader declares a read-only storage buffer", mismatch.Reason)
		}
	}
	assert.True(t, found)
}

func TestDescriptorOptions(t *testing.T) {
	blend := &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
	p := NewPipeline("custom",
		WithBlendState(blend),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithFrontFace(wgpu.FrontFaceCW),
		WithDepthFormat(wgpu.TextureFormatDepth32Float),
		WithSampleCount(0),
	)
	desc := p.Descriptor(nil, nil, nil)
	assert.Same(t, blend, desc.Fragment.Targets[0].Blend)
	assert.Equal(t, wgpu.ColorWriteMaskRed, desc.Fragment.Targets[0].WriteMask)
	assert.Equal(t, wgpu.FrontFaceCW, desc.Primitive.FrontFace)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, desc.DepthStencil.Format)
	assert.EqualValues(t, 1, desc.Multisample.Count)
	assert.Empty(t, desc.Vertex.EntryPoint)

	assert.Nil(t, p.RenderPipeline())
	assert.Len(t, p.BindGroupLayouts(), 3)
}
