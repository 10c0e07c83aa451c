package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatAt(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestNewBox(t *testing.T) {
	m := NewBox(DefaultAnchorSize, DefaultAnchorSize, DefaultAnchorSize)
	require.NoError(t, m.Validate())
	assert.Equal(t, 24, m.VertexCount())
	assert.Equal(t, 36, m.IndexCount())

	half := DefaultAnchorSize / 2
	for _, p := range m.Positions {
		for i := range 3 {
			assert.InDelta(t, half, math.Abs(float64(p[i])), 1e-6)
		}
	}

	for tri := 0; tri < len(m.Indices); tri += 3 {
		a, b, c := m.Positions[m.Indices[tri]], m.Positions[m.Indices[tri+1]], m.Positions[m.Indices[tri+2]]
		n := m.Normals[m.Indices[tri]]
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Positive(t, face.Dot(n), "triangle %d winds clockwise", tri/3)
	}
}

func TestNewPlane(t *testing.T) {
	m := NewPlane(2, 1)
	require.NoError(t, m.Validate())
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, m.Positions[2])

	a, b, c := m.Positions[0], m.Positions[1], m.Positions[2]
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, b.Sub(a).Cross(c.Sub(a)).Normalize())
}

func TestValidate(t *testing.T) {
	m := NewPlane(1, 1)
	m.Normals = m.Normals[:3]
	assert.ErrorIs(t, m.Validate(), ErrMalformedMesh)
	assert.Nil(t, m.GenericsBytes())

	m = NewPlane(1, 1)
	m.Indices = append(m.Indices, 0)
	assert.ErrorContains(t, m.Validate(), "not a multiple of 3")

	m = NewPlane(1, 1)
	m.Indices[4] = 9
	assert.ErrorContains(t, m.Validate(), "references vertex 9 of 4")
}

func TestStreams(t *testing.T) {
	m := NewPlane(2, 2)

	positions := m.PositionBytes()
	require.Len(t, positions, 4*layout.GeometryPositionStride)
	assert.Equal(t, float32(1), floatAt(positions, layout.GeometryPositionStride+0))
	assert.Equal(t, float32(-1), floatAt(positions, layout.GeometryPositionStride+4))

	generics := m.GenericsBytes()
	require.Len(t, generics, 4*layout.GeometryGenericsStride)
	second := layout.GeometryGenericsStride
	assert.Equal(t, float32(1), floatAt(generics, second))
	assert.Equal(t, float32(1), floatAt(generics, second+4))
	assert.Equal(t, float32(1), floatAt(generics, second+16))

	indices := m.IndexBytes()
	require.Len(t, indices, 24)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(indices[20:]))
}
