package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultNear and DefaultFar bracket a handheld AR scene in meters.
	DefaultNear float32 = 0.001
	DefaultFar  float32 = 1000

	// NeutralAmbientIntensity is the light estimate, in lumens, that leaves the lighting unscaled.
	NeutralAmbientIntensity float32 = 1000
)

// DefaultFov is the vertical field of view in radians used when the tracker reports none.
var DefaultFov = mgl32.DegToRad(60)

type cameraImpl struct {
	mu sync.Mutex

	fov      float32
	near     float32
	far      float32
	viewport [2]float32

	// pose is the camera-to-world transform reported by the tracker.
	pose             mgl32.Mat4
	ambientIntensity float32
	lighting         contract.Lighting

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
}

// Camera tracks the device pose, viewport and light estimate of an AR session and
// turns them into the per-frame SharedUniforms block.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Aspect returns the viewport aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio, or 1 for a degenerate viewport
	Aspect() float32

	// Viewport returns the drawable size in pixels.
	Viewport() (width, height float32)

	// Pose returns the camera-to-world transform.
	Pose() mgl32.Mat4

	// ViewMatrix returns the world-to-camera matrix, the inverse of Pose.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection with a zero-to-one depth range.
	ProjectionMatrix() mgl32.Mat4

	// AmbientIntensity returns the last light estimate in lumens.
	AmbientIntensity() float32

	// SetPose updates the camera-to-world transform and recomputes the view matrix.
	//
	// Parameters:
	//   - pose: the tracked camera transform, column-major
	SetPose(pose mgl32.Mat4)

	// SetViewport updates the drawable size and recomputes the projection.
	// Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width, height: drawable size in pixels
	SetViewport(width, height float32)

	// SetFov updates the vertical field of view in radians. Non-positive values are ignored.
	SetFov(fov float32)

	// SetLightEstimate scales the light colors by lumens / NeutralAmbientIntensity.
	// Negative estimates are clamped to zero.
	//
	// Parameters:
	//   - lumens: the ambient intensity estimate of the current frame
	SetLightEstimate(lumens float32)

	// SharedUniforms builds the frame block from the current matrices and light estimate.
	//
	// Returns:
	//   - contract.SharedUniforms: the block to write at BufferIndexSharedUniforms
	SharedUniforms() contract.SharedUniforms
}

var _ Camera = &cameraImpl{}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect()
}

func (c *cameraImpl) Viewport() (width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport[0], c.viewport[1]
}

func (c *cameraImpl) Pose() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) AmbientIntensity() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ambientIntensity
}

func (c *cameraImpl) SetPose(pose mgl32.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pose = pose
	c.updateMatrices()
}

func (c *cameraImpl) SetViewport(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = [2]float32{width, height}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	if fov <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetLightEstimate(lumens float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ambientIntensity = max(lumens, 0)
}

func (c *cameraImpl) SharedUniforms() contract.SharedUniforms {
	c.mu.Lock()
	defer c.mu.Unlock()

	scale := c.ambientIntensity / NeutralAmbientIntensity
	l := c.lighting
	l.AmbientColor = l.AmbientColor.Mul(scale)
	l.DirectionalColor = l.DirectionalColor.Mul(scale)

	u := contract.NewSharedUniforms(c.projectionMatrix, c.viewMatrix)
	u.SetLighting(l)
	return u
}

// aspect is width / height, falling back to 1. Caller must hold the mutex.
func (c *cameraImpl) aspect() float32 {
	if c.viewport[0] <= 0 || c.viewport[1] <= 0 {
		return 1
	}
	return c.viewport[0] / c.viewport[1]
}

// updateMatrices recalculates the view and projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = c.pose.Inv()
	c.projectionMatrix = perspective(c.fov, c.aspect(), c.near, c.far)
}

// perspective builds a right-handed projection mapping view-space depth to [0, 1],
// the clip volume WebGPU expects. mgl32.Perspective targets OpenGL's [-1, 1].
func perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / float32(math.Tan(float64(fovY)/2))
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far / (near - far), -1,
		0, 0, (near * far) / (near - far), 0,
	}
}
