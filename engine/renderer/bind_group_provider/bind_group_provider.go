package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMissingResource is returned by Entries when a layout entry has no resource to bind.
var ErrMissingResource = errors.New("bind group provider: missing resource")

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// group is the bind group index the provider is set at.
	group int

	// The following fields are GPU allocated resources owned by the provider and released by Release.

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers are keyed by BufferIndex, which numbers vertex buffer slots and uniform
	// bindings in one space.
	buffers      map[contract.BufferIndex]*wgpu.Buffer
	textureViews map[contract.TextureIndex]*wgpu.TextureView
	sampler      *wgpu.Sampler

	indexBuffer *wgpu.Buffer
	indexCount  int
}

// BindGroupProvider holds the GPU resources of one bind group, or of one mesh, addressed by
// the contract's BufferIndex and TextureIndex numbers.
//
// Usage pattern:
//  1. The renderer creates a provider per bind group or mesh and stores GPU resources on it
//  2. Entries turns the stored resources into bind group entries for a layout descriptor
//  3. Draw calls read BindGroup, Buffer and IndexBuffer back
//  4. Release frees everything the provider holds
type BindGroupProvider interface {
	// Release releases every GPU resource held by this provider.
	Release()

	// Label returns the debug label for this provider.
	Label() string

	// Group returns the bind group index this provider is set at.
	Group() int

	// BindGroup returns the created bind group, or nil.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the created bind group layout, or nil.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a uniform binding or vertex slot, or nil.
	//
	// Parameters:
	//   - index: the binding or vertex buffer slot
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(index contract.BufferIndex) *wgpu.Buffer

	// Buffers returns every buffer held by this provider.
	Buffers() map[contract.BufferIndex]*wgpu.Buffer

	// TextureView returns the texture view at a texture binding, or nil.
	TextureView(index contract.TextureIndex) *wgpu.TextureView

	// Sampler returns the sampler shared by the provider's textures, or nil.
	Sampler() *wgpu.Sampler

	// IndexBuffer returns the mesh index buffer, or nil.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices in IndexBuffer.
	IndexCount() int

	// Entries builds the bind group entries for a layout descriptor from the stored resources.
	// Buffer entries bind sizes[binding] bytes, or the whole buffer when no size is given.
	// Sampler entries bind the provider's sampler whatever their binding number.
	//
	// Parameters:
	//   - desc: the layout the bind group is created with
	//   - sizes: the bound byte size of buffer entries with dynamic offsets (nil safe)
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per layout entry, in layout order
	//   - error: ErrMissingResource naming the first entry with nothing to bind
	Entries(desc wgpu.BindGroupLayoutDescriptor, sizes map[contract.BufferIndex]uint64) ([]wgpu.BindGroupEntry, error)

	SetBindGroup(bg *wgpu.BindGroup)
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)
	SetBuffer(index contract.BufferIndex, buf *wgpu.Buffer)
	SetTextureView(index contract.TextureIndex, tv *wgpu.TextureView)
	SetSampler(s *wgpu.Sampler)

	// SetIndexBuffer stores the mesh index buffer and its index count.
	SetIndexBuffer(buf *wgpu.Buffer, count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: the debug label used for GPU object labels
//   - options: functional options applied in order
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[contract.BufferIndex]*wgpu.Buffer),
		textureViews: make(map[contract.TextureIndex]*wgpu.TextureView),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(index contract.BufferIndex) *wgpu.Buffer {
	return p.buffers[index]
}

func (p *bindGroupProvider) Buffers() map[contract.BufferIndex]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(index contract.TextureIndex) *wgpu.TextureView {
	return p.textureViews[index]
}

func (p *bindGroupProvider) Sampler() *wgpu.Sampler {
	return p.sampler
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) Entries(desc wgpu.BindGroupLayoutDescriptor, sizes map[contract.BufferIndex]uint64) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			entry.TextureView = p.textureViews[contract.TextureIndex(e.Binding)]
			if entry.TextureView == nil {
				return nil, p.missing("texture", e.Binding)
			}
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			entry.Sampler = p.sampler
			if entry.Sampler == nil {
				return nil, p.missing("sampler", e.Binding)
			}
		default:
			idx := contract.BufferIndex(e.Binding)
			entry.Buffer = p.buffers[idx]
			if entry.Buffer == nil {
				return nil, p.missing("buffer", e.Binding)
			}
			entry.Size = wgpu.WholeSize
			if size, ok := sizes[idx]; ok {
				entry.Size = size
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (p *bindGroupProvider) missing(kind string, binding uint32) error {
	return fmt.Errorf("%w: %s has no %s for @group(%d) @binding(%d)", ErrMissingResource, p.label, kind, p.group, binding)
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(index contract.BufferIndex, buf *wgpu.Buffer) {
	p.buffers[index] = buf
}

func (p *bindGroupProvider) SetTextureView(index contract.TextureIndex, tv *wgpu.TextureView) {
	p.textureViews[index] = tv
}

func (p *bindGroupProvider) SetSampler(s *wgpu.Sampler) {
	p.sampler = s
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer, count int) {
	p.indexBuffer = buf
	p.indexCount = count
}

// Release frees owned resources. Texture views supplied by the caller through SetTextureView
// are dropped but not released.
func (p *bindGroupProvider) Release() {
	clear(p.textureViews)
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
