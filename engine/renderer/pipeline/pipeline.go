package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// CapturedImagePipelineKey is the key of NewCapturedImagePipeline.
	CapturedImagePipelineKey = "captured_image"
	// AnchorGeometryPipelineKey is the key of NewAnchorGeometryPipeline.
	AnchorGeometryPipelineKey = "anchor_geometry"
)

var (
	// ErrMissingShader is returned by Validate when the vertex or fragment shader is unset or
	// compiled for the wrong stage.
	ErrMissingShader = errors.New("pipeline: missing shader")
)

// BindGroupMismatchError reports a shader resource that the host bind group layouts do not
// provide, or provide as a different kind of resource.
type BindGroupMismatchError struct {
	Shader  string
	Group   int
	Binding int
	Reason  string
}

func (e *BindGroupMismatchError) Error() string {
	return fmt.Sprintf("pipeline: shader %s @group(%d) @binding(%d): %s", e.Shader, e.Group, e.Binding, e.Reason)
}

// pipeline is the implementation of the Pipeline interface.
// It holds the shaders, host layouts and fixed-function state of one render pipeline.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// vertexLayouts are the host vertex buffer layouts indexed by BufferIndex
	vertexLayouts []wgpu.VertexBufferLayout
	// bindGroupLayouts are the host bind group layouts keyed by group index
	bindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor

	// renderPipeline is set by whoever owns the device once the descriptor has been created
	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
	colorFormat       wgpu.TextureFormat
	depthFormat       wgpu.TextureFormat
	sampleCount       uint32
}

// Pipeline describes a render pipeline that draws with the binding contract. It checks its
// shaders against the host layouts and builds the wgpu descriptor without touching a device.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified stage if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the stage of shader to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader of that stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexLayouts returns the host vertex buffer layouts, indexed by BufferIndex.
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayouts returns the host bind group layouts keyed by group index.
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// Validate checks that both shaders are set, that the host vertex layouts supply every
	// attribute the vertex shader reads, and that every resource either shader declares exists
	// in the host bind group layouts with the same kind.
	//
	// Returns:
	//   - error: nil, or an errors.Join of ErrMissingShader, *shader.LayoutMismatchError and
	//     *BindGroupMismatchError
	Validate() error

	// Descriptor builds the wgpu render pipeline descriptor.
	//
	// Parameters:
	//   - pipelineLayout: the pipeline layout created from BindGroupLayouts
	//   - vertexModule: the module created from the vertex shader's Module()
	//   - fragmentModule: the module created from the fragment shader's Module()
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor, ready for Device.CreateRenderPipeline
	Descriptor(pipelineLayout *wgpu.PipelineLayout, vertexModule, fragmentModule *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor

	// RenderPipeline returns the created pipeline, or nil before SetRenderPipeline.
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. Defaults: depth test and write on,
// no culling, triangle list, CCW front face, bgra8unorm color, depth32float-stencil8 depth and
// one sample, with every host bind group layout of the layout package.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		bindGroupLayouts:  layout.BindGroupLayouts(),
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		colorFormat:       wgpu.TextureFormatBGRA8Unorm,
		depthFormat:       wgpu.TextureFormatDepth32FloatStencil8,
		sampleCount:       1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewCapturedImagePipeline describes the full-screen camera image pass: a triangle strip over
// the image plane quad, drawn behind everything with depth testing and writing off.
func NewCapturedImagePipeline(vs, fs shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	base := []PipelineBuilderOption{
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexLayouts(layout.ImagePlaneVertexLayouts()),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithCullMode(wgpu.CullModeNone),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
	}
	return NewPipeline(CapturedImagePipelineKey, append(base, opts...)...)
}

// NewAnchorGeometryPipeline describes the instanced anchor pass: de-interleaved geometry
// buffers, back-face culling, and a depth test that writes depth.
func NewAnchorGeometryPipeline(vs, fs shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	base := []PipelineBuilderOption{
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexLayouts(layout.GeometryVertexLayouts()),
		WithCullMode(wgpu.CullModeBack),
	}
	return NewPipeline(AnchorGeometryPipelineKey, append(base, opts...)...)
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayouts
}

func (p *pipeline) Validate() error {
	var errs []error
	for _, want := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(want)
		if s == nil || s.ShaderType() != want {
			errs = append(errs, fmt.Errorf("%w: %s %s", ErrMissingShader, p.pipelineKey, want))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if err := shader.VerifyVertexInputs(p.vertexShader, p.vertexLayouts); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, p.checkBindGroups(p.vertexShader)...)
	errs = append(errs, p.checkBindGroups(p.fragmentShader)...)
	return errors.Join(errs...)
}

func (p *pipeline) checkBindGroups(s shader.Shader) []error {
	var errs []error
	descs := s.BindGroupLayoutDescriptors()
	groups := make([]int, 0, len(descs))
	for g := range descs {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	for _, g := range groups {
		host, ok := p.bindGroupLayouts[g]
		for _, entry := range descs[g].Entries {
			mismatch := func(reason string) {
				errs = append(errs, &BindGroupMismatchError{Shader: s.Key(), Group: g, Binding: int(entry.Binding), Reason: reason})
			}
			if !ok {
				mismatch("no host bind group layout")
				continue
			}
			hostEntry, found := findEntry(host, entry.Binding)
			if !found {
				mismatch("no host binding")
				continue
			}
			if got, want := resourceKind(hostEntry), resourceKind(entry); got != want {
				mismatch(fmt.Sprintf("host binds a %s, shader declares a %s", got, want))
				continue
			}
			if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined && hostEntry.Buffer.MinBindingSize < entry.Buffer.MinBindingSize {
				mismatch(fmt.Sprintf("host minimum binding size %d is below the shader's %d", hostEntry.Buffer.MinBindingSize, entry.Buffer.MinBindingSize))
			}
		}
	}
	return errs
}

func (p *pipeline) Descriptor(pipelineLayout *wgpu.PipelineLayout, vertexModule, fragmentModule *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	target := wgpu.ColorTargetState{
		Format:    p.colorFormat,
		WriteMask: p.writeMask,
	}
	if p.blendState != nil {
		target.Blend = p.blendState
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}

	var vertexEntry, fragmentEntry string
	if p.vertexShader != nil {
		vertexEntry = p.vertexShader.EntryPoint()
	}
	if p.fragmentShader != nil {
		fragmentEntry = p.fragmentShader.EntryPoint()
	}

	return &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vertexModule,
			EntryPoint: vertexEntry,
			Buffers:    p.vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fragmentModule,
			EntryPoint: fragmentEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: p.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func findEntry(desc wgpu.BindGroupLayoutDescriptor, binding uint32) (wgpu.BindGroupLayoutEntry, bool) {
	for _, e := range desc.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return wgpu.BindGroupLayoutEntry{}, false
}

// resourceKind names the resource an entry binds, distinguishing buffer binding types.
func resourceKind(e wgpu.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
		return "uniform buffer"
	case e.Buffer.Type == wgpu.BufferBindingTypeStorage:
		return "storage buffer"
	case e.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage:
		return "read-only storage buffer"
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return "sampler"
	case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return "texture"
	default:
		return "unknown resource"
	}
}
