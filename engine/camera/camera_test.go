package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.Equal(t, DefaultFov, c.Fov())
	assert.Equal(t, DefaultNear, c.Near())
	assert.Equal(t, DefaultFar, c.Far())
	assert.Equal(t, float32(1), c.Aspect())
	assert.Equal(t, mgl32.Ident4(), c.Pose())
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
	assert.Equal(t, NeutralAmbientIntensity, c.AmbientIntensity())
}

func TestViewMatrixInvertsPose(t *testing.T) {
	pose := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	c := NewCamera(WithPose(pose))

	origin := c.ViewMatrix().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	assert.InDelta(t, 0, origin.Vec3().Len(), 1e-5)
	assert.True(t, c.ViewMatrix().Mul4(pose).ApproxEqualThreshold(mgl32.Ident4(), 1e-5))

	c.SetPose(mgl32.Ident4())
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera(WithViewport(1920, 1080), WithNear(0.1), WithFar(100))
	assert.InDelta(t, 1920.0/1080.0, c.Aspect(), 1e-6)

	p := c.ProjectionMatrix()
	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
	assert.InDelta(t, p.At(1, 1)/(1920.0/1080.0), p.At(0, 0), 1e-5)
}

func TestSetViewportAndFov(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetViewport(0, 100)
	c.SetFov(-1)
	assert.Equal(t, before, c.ProjectionMatrix())

	c.SetViewport(300, 600)
	w, h := c.Viewport()
	assert.Equal(t, float32(300), w)
	assert.Equal(t, float32(600), h)
	assert.Equal(t, float32(0.5), c.Aspect())

	c.SetFov(mgl32.DegToRad(90))
	assert.InDelta(t, 1, c.ProjectionMatrix().At(1, 1), 1e-6)
	assert.InDelta(t, 2, c.ProjectionMatrix().At(0, 0), 1e-6)
}

func TestSharedUniformsLightEstimate(t *testing.T) {
	c := NewCamera(WithViewport(4, 3))
	def := contract.DefaultLighting()

	u := c.SharedUniforms()
	assert.Equal(t, c.ProjectionMatrix(), u.ProjectionMatrix)
	assert.Equal(t, c.ViewMatrix(), u.ViewMatrix)
	assert.Equal(t, def, u.Lighting())

	c.SetLightEstimate(500)
	u = c.SharedUniforms()
	assert.InDelta(t, 0.25, u.AmbientLightColor.X(), 1e-6)
	assert.InDelta(t, 0.3, u.DirectionalLightColor.Y(), 1e-6)
	assert.Equal(t, def.Direction, u.DirectionalLightDirection)
	assert.Equal(t, def.Shininess, u.MaterialShininess)

	c.SetLightEstimate(-10)
	assert.Zero(t, c.AmbientIntensity())
	assert.Equal(t, mgl32.Vec3{}, c.SharedUniforms().AmbientLightColor)
}

func TestWithLighting(t *testing.T) {
	l := contract.Lighting{
		AmbientColor:     mgl32.Vec3{1, 1, 1},
		Direction:        mgl32.Vec3{0, -2, 0},
		DirectionalColor: mgl32.Vec3{1, 0, 0},
		Shininess:        8,
	}
	u := NewCamera(WithLighting(l)).SharedUniforms()
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, u.DirectionalLightDirection)
	assert.Equal(t, float32(8), u.MaterialShininess)
}
