package camera

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/go-gl/mathgl/mgl32"
)

type CameraBuilderOption func(*cameraImpl)

// NewCamera creates a Camera at the world origin with DefaultFov, DefaultNear, DefaultFar,
// a 1x1 viewport, a neutral light estimate and contract.DefaultLighting.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Camera: the configured camera with its matrices computed
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		fov:              DefaultFov,
		near:             DefaultNear,
		far:              DefaultFar,
		viewport:         [2]float32{1, 1},
		pose:             mgl32.Ident4(),
		ambientIntensity: NeutralAmbientIntensity,
		lighting:         contract.DefaultLighting(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.updateMatrices()
	return c
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if fov > 0 {
			c.fov = fov
		}
	}
}

// WithViewport sets the drawable size the aspect ratio is derived from.
//
// Parameters:
//   - width, height: drawable size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's viewport
func WithViewport(width, height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width > 0 && height > 0 {
			c.viewport = [2]float32{width, height}
		}
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithPose sets the initial camera-to-world transform.
func WithPose(pose mgl32.Mat4) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.pose = pose
	}
}

// WithLighting replaces the unscaled lighting the light estimate is applied to.
func WithLighting(l contract.Lighting) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lighting = l
	}
}
