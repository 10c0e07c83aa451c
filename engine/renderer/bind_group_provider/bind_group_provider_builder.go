package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithGroup sets the bind group index the provider is set at.
//
// Parameters:
//   - group: the bind group index
//
// Returns:
//   - BindGroupProviderOption: a function that sets the group for this provider
func WithGroup(group int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.group = group
	}
}

// WithBuffer sets the buffer at a uniform binding or vertex slot.
//
// Parameters:
//   - index: the binding or slot
//   - buf: the buffer to associate with it
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer
func WithBuffer(index contract.BufferIndex, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[index] = buf
	}
}

// WithTextureView sets the texture view at a texture binding.
func WithTextureView(index contract.TextureIndex, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[index] = tv
	}
}

// WithSampler sets the sampler shared by the provider's textures.
func WithSampler(s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.sampler = s
	}
}
