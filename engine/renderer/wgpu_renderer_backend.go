package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/anchor"
	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/uniform_ring"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range pipelines {
		if _, exists := r.pipelineCache[p.PipelineKey()]; exists {
			continue
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if err := r.registerRenderPipeline(p); err != nil {
			return fmt.Errorf("renderer: pipeline %q: %w", p.PipelineKey(), err)
		}
	}
	return nil
}

// registerRenderPipeline creates the GPU objects of a validated pipeline. Caller must hold r.mu.
func (r *renderer) registerRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := r.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := r.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}
	defer fs.Release()

	groups := usedGroups(p)
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(groups))
	for i, g := range groups {
		desc, ok := p.BindGroupLayouts()[g]
		if !ok {
			return fmt.Errorf("no host bind group layout for group %d", g)
		}
		bgl, err := r.bindGroupLayout(g, desc)
		if err != nil {
			return err
		}
		bindGroupLayouts[i] = bgl
	}

	pipelineLayout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	created, err := r.device.CreateRenderPipeline(p.Descriptor(pipelineLayout, vs, fs))
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created)
	r.pipelineCache[p.PipelineKey()] = p
	r.pipelineGroups[p.PipelineKey()] = groups

	r.logger.Debug("registered pipeline",
		zap.String("pipeline", p.PipelineKey()),
		zap.Ints("groups", groups))
	return nil
}

// bindGroupLayout returns the layout of group g, creating it on first use. Every pipeline
// shares one layout per group so one bind group serves them all. Caller must hold r.mu.
func (r *renderer) bindGroupLayout(g int, desc wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	if bgl, ok := r.groupLayouts[g]; ok {
		return bgl, nil
	}
	if desc.Label == "" {
		desc.Label = fmt.Sprintf("Group %d", g)
	}
	bgl, err := r.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
	}
	r.groupLayouts[g] = bgl
	return bgl, nil
}

func (r *renderer) InitUniformBuffers(ring uniform_ring.Ring) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.uniforms.Release()

	sizes := map[contract.BufferIndex]uint64{
		contract.BufferIndexInstanceUniforms: ring.InstanceBufferSize(),
		contract.BufferIndexSharedUniforms:   ring.SharedBufferSize(),
	}
	usages := map[contract.BufferIndex]wgpu.BufferUsage{
		contract.BufferIndexInstanceUniforms: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		contract.BufferIndexSharedUniforms:   wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}
	for _, idx := range []contract.BufferIndex{contract.BufferIndexInstanceUniforms, contract.BufferIndexSharedUniforms} {
		buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s %s Buffer", r.uniforms.Label(), idx),
			Size:  sizes[idx],
			Usage: usages[idx],
		})
		if err != nil {
			return err
		}
		r.uniforms.SetBuffer(idx, buf)
	}

	// Dynamic offsets select the frame region, so each binding spans exactly one region.
	bound := map[contract.BufferIndex]uint64{
		contract.BufferIndexInstanceUniforms: contract.InstanceUniformsSize * uint64(ring.MaxInstanceCount()),
		contract.BufferIndexSharedUniforms:   contract.SharedUniformsSize,
	}
	if err := r.createBindGroup(r.uniforms, layout.UniformBindGroupLayout(), bound); err != nil {
		return err
	}

	r.logger.Debug("initialized uniform buffers",
		zap.Uint64("shared_bytes", sizes[contract.BufferIndexSharedUniforms]),
		zap.Uint64("instance_bytes", sizes[contract.BufferIndexInstanceUniforms]))
	return nil
}

// createBindGroup creates provider's bind group from desc. Caller must hold r.mu.
func (r *renderer) createBindGroup(provider bind_group_provider.BindGroupProvider, desc wgpu.BindGroupLayoutDescriptor, sizes map[contract.BufferIndex]uint64) error {
	entries, err := provider.Entries(desc, sizes)
	if err != nil {
		return err
	}
	bgl, err := r.bindGroupLayout(provider.Group(), desc)
	if err != nil {
		return err
	}
	bindGroup, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  bgl,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	if old := provider.BindGroup(); old != nil {
		old.Release()
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (r *renderer) InitImagePlane() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, err := r.createBuffer(r.imagePlane.Label()+" Vertex Buffer", wgpu.BufferUsageVertex, layout.ImagePlaneVertexBytesTransformed(r.displayToCamera))
	if err != nil {
		return err
	}
	if old := r.imagePlane.Buffer(contract.BufferIndexMeshPositions); old != nil {
		old.Release()
	}
	r.imagePlane.SetBuffer(contract.BufferIndexMeshPositions, buf)
	return nil
}

func (r *renderer) UpdateImagePlane(displayToCamera mgl32.Mat3) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.displayToCamera = displayToCamera
	buf := r.imagePlane.Buffer(contract.BufferIndexMeshPositions)
	if buf == nil {
		return fmt.Errorf("%w: image plane", ErrNotInitialized)
	}
	r.queue.WriteBuffer(buf, 0, layout.ImagePlaneVertexBytesTransformed(displayToCamera))
	return nil
}

func (r *renderer) InitMesh(kind anchor.Kind, m *model.Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s Mesh %s", kind, m.Name))
	streams := map[contract.BufferIndex][]byte{
		contract.BufferIndexMeshPositions: m.PositionBytes(),
		contract.BufferIndexMeshGenerics:  m.GenericsBytes(),
	}
	for idx, data := range streams {
		buf, err := r.createBuffer(fmt.Sprintf("%s %s Buffer", provider.Label(), idx), wgpu.BufferUsageVertex, data)
		if err != nil {
			provider.Release()
			return err
		}
		provider.SetBuffer(idx, buf)
	}
	indexBuf, err := r.createBuffer(provider.Label()+" Index Buffer", wgpu.BufferUsageIndex, m.IndexBytes())
	if err != nil {
		provider.Release()
		return err
	}
	provider.SetIndexBuffer(indexBuf, m.IndexCount())

	if old, ok := r.meshes[kind]; ok {
		old.Release()
	}
	r.meshes[kind] = provider

	r.logger.Debug("initialized mesh",
		zap.Stringer("kind", kind),
		zap.String("mesh", m.Name),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("indices", m.IndexCount()))
	return nil
}

// createBuffer creates a buffer of the given usage and uploads data into it. Caller must hold r.mu.
func (r *renderer) createBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	r.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (r *renderer) SetCameraTextures(y, cbcr *wgpu.TextureView) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.camera.Sampler() == nil {
		samp, err := r.device.CreateSampler(&wgpu.SamplerDescriptor{
			Label:         r.camera.Label() + " Sampler",
			AddressModeU:  wgpu.AddressModeClampToEdge,
			AddressModeV:  wgpu.AddressModeClampToEdge,
			AddressModeW:  wgpu.AddressModeClampToEdge,
			MagFilter:     wgpu.FilterModeLinear,
			MinFilter:     wgpu.FilterModeLinear,
			MipmapFilter:  wgpu.MipmapFilterModeNearest,
			LodMaxClamp:   32,
			MaxAnisotropy: 1,
		})
		if err != nil {
			return err
		}
		r.camera.SetSampler(samp)
	}
	r.camera.SetTextureView(contract.TextureIndexY, y)
	r.camera.SetTextureView(contract.TextureIndexCbCr, cbcr)
	return r.createBindGroup(r.camera, layout.CameraTextureBindGroupLayout(), nil)
}

func (r *renderer) Render(frame scene.Frame, target RenderTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmds, err := planDraws(frame, r.drawState())
	if err != nil {
		return err
	}

	for _, w := range frame.Writes {
		buf := r.uniforms.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("%w: no buffer for %s", ErrNotInitialized, w.Binding)
		}
		r.queue.WriteBuffer(buf, w.Offset, w.Data)
	}

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(r.renderPassDescriptor(target))
	for _, cmd := range cmds {
		r.encodeDraw(pass, cmd, frame.DynamicOffsets)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	r.queue.Submit(commandBuffer)

	if r.profiler != nil {
		r.profiler.Tick()
	}
	return nil
}

// renderPassDescriptor clears color to the clear color and depth to the far plane.
func (r *renderer) renderPassDescriptor(target RenderTarget) *wgpu.RenderPassDescriptor {
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          target.Color,
				ResolveTarget: target.Resolve,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       wgpu.StoreOpStore,
				ClearValue:    r.clearColor,
			},
		},
	}
	if target.Resolve != nil {
		desc.ColorAttachments[0].StoreOp = wgpu.StoreOpDiscard
	}
	if target.Depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:              target.Depth,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpDiscard,
			StencilClearValue: 0,
		}
	}
	return desc
}

// encodeDraw records one draw command. Caller must hold r.mu.
func (r *renderer) encodeDraw(pass *wgpu.RenderPassEncoder, cmd drawCommand, dynamicOffsets []uint32) {
	pass.SetPipeline(r.pipelineCache[cmd.pipelineKey].RenderPipeline())
	for _, g := range cmd.groups {
		var offsets []uint32
		if g == layout.UniformGroup {
			offsets = dynamicOffsets
		}
		pass.SetBindGroup(uint32(g), r.groupProvider(g).BindGroup(), offsets)
	}

	if cmd.imagePlane {
		pass.SetVertexBuffer(uint32(contract.BufferIndexMeshPositions), r.imagePlane.Buffer(contract.BufferIndexMeshPositions), 0, wgpu.WholeSize)
		pass.Draw(layout.ImagePlaneVertexCount, 1, 0, 0)
		return
	}

	mesh := r.meshes[cmd.kind]
	for _, idx := range []contract.BufferIndex{contract.BufferIndexMeshPositions, contract.BufferIndexMeshGenerics} {
		pass.SetVertexBuffer(uint32(idx), mesh.Buffer(idx), 0, wgpu.WholeSize)
	}
	pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(cmd.indexCount, cmd.instanceCount, 0, 0, cmd.firstInstance)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.pipelineCache {
		if rp := p.RenderPipeline(); rp != nil {
			rp.Release()
			p.SetRenderPipeline(nil)
		}
	}
	clear(r.pipelineCache)
	clear(r.pipelineGroups)

	// Group layouts are released here rather than by the providers that share them.
	for _, p := range []bind_group_provider.BindGroupProvider{r.uniforms, r.camera, r.imagePlane} {
		p.Release()
	}
	for kind, m := range r.meshes {
		m.Release()
		delete(r.meshes, kind)
	}
	for g, bgl := range r.groupLayouts {
		bgl.Release()
		delete(r.groupLayouts, g)
	}
}
