package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformEntries(t *testing.T) {
	instances, shared := &wgpu.Buffer{}, &wgpu.Buffer{}
	p := NewBindGroupProvider("uniforms",
		WithGroup(layout.UniformGroup),
		WithBuffer(contract.BufferIndexInstanceUniforms, instances),
		WithBuffer(contract.BufferIndexSharedUniforms, shared))

	entries, err := p.Entries(layout.UniformBindGroupLayout(), map[contract.BufferIndex]uint64{
		contract.BufferIndexSharedUniforms: contract.SharedUniformsSize,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint32(contract.BufferIndexInstanceUniforms), entries[0].Binding)
	assert.Same(t, instances, entries[0].Buffer)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[0].Size)

	assert.Equal(t, uint32(contract.BufferIndexSharedUniforms), entries[1].Binding)
	assert.Same(t, shared, entries[1].Buffer)
	assert.EqualValues(t, contract.SharedUniformsSize, entries[1].Size)
}

func TestCameraTextureEntries(t *testing.T) {
	y, cbcr, s := &wgpu.TextureView{}, &wgpu.TextureView{}, &wgpu.Sampler{}
	p := NewBindGroupProvider("camera", WithGroup(layout.CameraTextureGroup),
		WithTextureView(contract.TextureIndexY, y))

	_, err := p.Entries(layout.CameraTextureBindGroupLayout(), nil)
	assert.ErrorIs(t, err, ErrMissingResource)
	assert.ErrorContains(t, err, "camera has no texture for @group(1) @binding(2)")

	p.SetTextureView(contract.TextureIndexCbCr, cbcr)
	_, err = p.Entries(layout.CameraTextureBindGroupLayout(), nil)
	assert.ErrorContains(t, err, "no sampler")

	p.SetSampler(s)
	entries, err := p.Entries(layout.CameraTextureBindGroupLayout(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Same(t, y, entries[0].TextureView)
	assert.Same(t, cbcr, entries[1].TextureView)
	assert.Same(t, s, entries[2].Sampler)
	assert.Equal(t, uint32(layout.SamplerBinding), entries[2].Binding)
}

func TestMissingBuffer(t *testing.T) {
	p := NewBindGroupProvider("uniforms")
	_, err := p.Entries(layout.UniformBindGroupLayout(), nil)
	assert.ErrorIs(t, err, ErrMissingResource)
	assert.ErrorContains(t, err, "no buffer for @group(0) @binding(2)")
}

func TestAccessors(t *testing.T) {
	positions, index := &wgpu.Buffer{}, &wgpu.Buffer{}
	p := NewBindGroupProvider("mesh", WithBuffer(contract.BufferIndexMeshPositions, positions))
	p.SetIndexBuffer(index, 36)

	assert.Equal(t, "mesh", p.Label())
	assert.Zero(t, p.Group())
	assert.Same(t, positions, p.Buffer(contract.BufferIndexMeshPositions))
	assert.Nil(t, p.Buffer(contract.BufferIndexMeshGenerics))
	assert.Len(t, p.Buffers(), 1)
	assert.Same(t, index, p.IndexBuffer())
	assert.Equal(t, 36, p.IndexCount())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.BindGroupLayout())
	assert.Nil(t, p.Sampler())
	assert.Nil(t, p.TextureView(contract.TextureIndexColor))
}
