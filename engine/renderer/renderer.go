package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/engine/anchor"
	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/uniform_ring"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// RenderTarget is the attachments one frame is drawn into. The AR host owns the drawable,
// so the renderer never acquires or presents surface textures itself.
type RenderTarget struct {
	// Color is the color attachment, multisampled when the pipelines are.
	Color *wgpu.TextureView
	// Resolve receives the resolved image of a multisampled Color. Nil for single-sampled targets.
	Resolve *wgpu.TextureView
	// Depth is the depth-stencil attachment. Nil draws without depth.
	Depth *wgpu.TextureView
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue
	logger *zap.Logger

	profiler   *profiler.Profiler
	clearColor wgpu.Color

	// displayToCamera maps the image plane texcoords so the camera image aspect-fills the target.
	displayToCamera mgl32.Mat3

	pipelineCache   map[string]pipeline.Pipeline
	pipelineGroups  map[string][]int
	groupLayouts    map[int]*wgpu.BindGroupLayout
	anchorPipelines map[anchor.Kind]string

	uniforms   bind_group_provider.BindGroupProvider
	camera     bind_group_provider.BindGroupProvider
	imagePlane bind_group_provider.BindGroupProvider
	meshes     map[anchor.Kind]bind_group_provider.BindGroupProvider
}

// Renderer draws recorded AR frames: the captured camera image behind instanced anchor
// geometry, on a device owned by the caller.
type Renderer interface {
	// Device returns the device the renderer creates its resources on.
	Device() *wgpu.Device

	// Pipeline retrieves the registered Pipeline with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the registered pipelines keyed by PipelineKey.
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines validates each pipeline against the host layouts, creates its GPU
	// render pipeline and caches it by PipelineKey. Already registered keys are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: a validation or GPU error for the first pipeline that fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// InitUniformBuffers creates the shared and instance uniform buffers sized for the ring
	// and the uniform bind group that addresses them with dynamic offsets.
	//
	// Parameters:
	//   - r: the ring frames are recorded with
	//
	// Returns:
	//   - error: an error if buffer or bind group creation fails
	InitUniformBuffers(r uniform_ring.Ring) error

	// InitImagePlane uploads the full-screen image plane vertices, mapped through the last
	// display transform given to UpdateImagePlane.
	InitImagePlane() error

	// UpdateImagePlane rewrites the image plane texcoords so the camera image aspect-fills the
	// render target. Call it whenever the viewport or the camera orientation changes.
	//
	// Parameters:
	//   - displayToCamera: the inverse of the AR session's display transform, mapping viewport
	//     coordinates to camera image coordinates, in homogeneous 2D form
	//
	// Returns:
	//   - error: ErrNotInitialized before InitImagePlane
	UpdateImagePlane(displayToCamera mgl32.Mat3) error

	// InitMesh uploads the geometry drawn at anchors of one kind, replacing any previous mesh.
	//
	// Parameters:
	//   - kind: the anchor kind the mesh is drawn for
	//   - m: the mesh to upload
	//
	// Returns:
	//   - error: a validation or GPU error
	InitMesh(kind anchor.Kind, m *model.Mesh) error

	// SetCameraTextures binds the luma and chroma planes of the current camera image.
	// The views stay owned by the caller.
	//
	// Parameters:
	//   - y: the r8unorm luma plane
	//   - cbcr: the rg8unorm chroma plane
	//
	// Returns:
	//   - error: an error if the bind group cannot be created
	SetCameraTextures(y, cbcr *wgpu.TextureView) error

	// Render uploads the frame's uniform writes and draws it into target in one render pass.
	// The frame's ring region must be released by the caller once the GPU has finished with it.
	//
	// Parameters:
	//   - frame: the frame recorded by scene.PrepareFrame
	//   - target: the attachments to draw into
	//
	// Returns:
	//   - error: ErrNotInitialized or ErrPipelineNotRegistered for missing resources, or a GPU error
	Render(frame scene.Frame, target RenderTarget) error

	// Release releases every GPU resource created by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer on an existing device. Resources are created by the Init
// methods and RegisterPipelines.
//
// Parameters:
//   - device: the device owned by the AR host
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer with nothing registered
func NewRenderer(device *wgpu.Device, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:              &sync.Mutex{},
		device:          device,
		logger:          zap.NewNop(),
		clearColor:      wgpu.Color{A: 1},
		displayToCamera: mgl32.Ident3(),
		pipelineCache:   make(map[string]pipeline.Pipeline),
		pipelineGroups:  make(map[string][]int),
		groupLayouts:    make(map[int]*wgpu.BindGroupLayout),
		anchorPipelines: make(map[anchor.Kind]string),
		uniforms:        bind_group_provider.NewBindGroupProvider("Uniforms", bind_group_provider.WithGroup(layout.UniformGroup)),
		camera:          bind_group_provider.NewBindGroupProvider("Captured Image", bind_group_provider.WithGroup(layout.CameraTextureGroup)),
		imagePlane:      bind_group_provider.NewBindGroupProvider("Image Plane"),
		meshes:          make(map[anchor.Kind]bind_group_provider.BindGroupProvider),
	}
	for _, opt := range options {
		opt(r)
	}
	if device != nil {
		r.queue = device.GetQueue()
	}
	return r
}

func (r *renderer) Device() *wgpu.Device {
	return r.device
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

// drawState snapshots the resources a frame plan depends on. Caller must hold r.mu.
func (r *renderer) drawState() drawState {
	st := drawState{
		pipelineGroups:  r.pipelineGroups,
		boundGroups:     make(map[int]bool),
		imagePlaneReady: r.imagePlane.Buffer(contract.BufferIndexMeshPositions) != nil && r.camera.BindGroup() != nil,
		anchorPipelines: r.anchorPipelines,
		indexCounts:     make(map[anchor.Kind]uint32, len(r.meshes)),
	}
	for _, p := range []bind_group_provider.BindGroupProvider{r.uniforms, r.camera} {
		if p.BindGroup() != nil {
			st.boundGroups[p.Group()] = true
		}
	}
	for kind, m := range r.meshes {
		st.indexCounts[kind] = uint32(m.IndexCount())
	}
	return st
}

// groupProvider returns the provider bound at group g, or nil.
func (r *renderer) groupProvider(g int) bind_group_provider.BindGroupProvider {
	switch g {
	case layout.UniformGroup:
		return r.uniforms
	case layout.CameraTextureGroup:
		return r.camera
	default:
		return nil
	}
}
