package anchor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewAnchorDefaults(t *testing.T) {
	a := NewAnchor()
	b := NewAnchor()

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, KindGeometry, a.Kind())
	assert.True(t, a.Enabled())
	assert.Equal(t, mgl32.Ident4(), a.Transform())
}

func TestAnchorOptions(t *testing.T) {
	transform := mgl32.Translate3D(1, 2, 3)
	a := NewAnchor(WithID(7), WithKind(KindPlane), WithTransform(transform), WithEnabled(false))

	assert.Equal(t, uint64(7), a.ID())
	assert.Equal(t, KindPlane, a.Kind())
	assert.False(t, a.Enabled())
	assert.Equal(t, transform, a.Transform())

	a.SetEnabled(true)
	a.SetTransform(mgl32.Ident4())
	assert.True(t, a.Enabled())
	assert.Equal(t, mgl32.Ident4(), a.Transform())
}

func TestGeometryModelMatrixFlipsZ(t *testing.T) {
	a := NewAnchor(WithTransform(mgl32.Translate3D(1, 2, 3)))

	p := a.ModelMatrix().Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	assert.Equal(t, mgl32.Vec4{1, 2, 2, 1}, p)
	assert.Equal(t, a.ModelMatrix(), a.InstanceUniforms().ModelMatrix)
}

func TestPlaneModelMatrixRotates(t *testing.T) {
	a := NewAnchor(WithKind(KindPlane))

	x := a.ModelMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 0})
	assert.InDelta(t, 0, x.X(), 1e-6)
	assert.InDelta(t, 1, x.Y(), 1e-6)

	z := a.ModelMatrix().Mul4x1(mgl32.Vec4{0, 0, 1, 0})
	assert.InDelta(t, -1, z.Z(), 1e-6)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "geometry", KindGeometry.String())
	assert.Equal(t, "plane", KindPlane.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
