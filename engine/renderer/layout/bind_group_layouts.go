package layout

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// UniformGroup is the bind group holding the instance and shared uniform buffers.
	UniformGroup = 0

	// CameraTextureGroup is the bind group holding the captured image planes and their sampler.
	CameraTextureGroup = 1

	// MaterialGroup is the bind group holding the color texture of anchor geometry.
	MaterialGroup = 2

	// SamplerBinding is the binding of the sampler inside a texture group.
	SamplerBinding = contract.SamplerBinding
)

// UniformBindGroupLayout describes group UniformGroup. Both buffers are bound with dynamic
// offsets so one buffer per kind serves every frame in flight.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: entries sorted by binding
func UniformBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    uint32(contract.BufferIndexInstanceUniforms),
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeReadOnlyStorage,
					HasDynamicOffset: true,
					MinBindingSize:   contract.InstanceUniformsSize,
				},
			},
			{
				Binding:    uint32(contract.BufferIndexSharedUniforms),
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   contract.SharedUniformsSize,
				},
			},
		},
	}
}

// CameraTextureBindGroupLayout describes group CameraTextureGroup: the luma and chroma planes
// of the captured image and a filtering sampler at SamplerBinding.
func CameraTextureBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "camera_textures",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(contract.TextureIndexY),
			textureEntry(contract.TextureIndexCbCr),
			samplerEntry(),
		},
	}
}

// MaterialBindGroupLayout describes group MaterialGroup: the base color texture and its sampler.
func MaterialBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(contract.TextureIndexColor),
			samplerEntry(),
		},
	}
}

// BindGroupLayouts returns every host bind group layout keyed by group index.
func BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return map[int]wgpu.BindGroupLayoutDescriptor{
		UniformGroup:       UniformBindGroupLayout(),
		CameraTextureGroup: CameraTextureBindGroupLayout(),
		MaterialGroup:      MaterialBindGroupLayout(),
	}
}

func textureEntry(t contract.TextureIndex) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    uint32(t),
		Visibility: wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func samplerEntry() wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    SamplerBinding,
		Visibility: wgpu.ShaderStageFragment,
		Sampler: wgpu.SamplerBindingLayout{
			Type: wgpu.SamplerBindingTypeFiltering,
		},
	}
}
