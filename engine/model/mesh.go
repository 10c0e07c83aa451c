package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/layout"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrMalformedMesh is returned by Validate for meshes whose vertex streams disagree in length
// or whose indices point past the last vertex.
var ErrMalformedMesh = errors.New("model: malformed mesh")

// Mesh is indexed anchor geometry split into the two vertex streams of the geometry pipeline:
// positions at BufferIndexMeshPositions and texcoord+normal generics at BufferIndexMeshGenerics.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Texcoords []mgl32.Vec2
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// IndexCount returns the number of indices in the mesh.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// Validate checks that every stream has one entry per vertex and every index is in range.
//
// Returns:
//   - error: an ErrMalformedMesh wrapping the first problem found, or nil
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if len(m.Texcoords) != n || len(m.Normals) != n {
		return fmt.Errorf("%w: %s has %d positions, %d texcoords, %d normals",
			ErrMalformedMesh, m.Name, n, len(m.Texcoords), len(m.Normals))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %s index count %d is not a multiple of 3", ErrMalformedMesh, m.Name, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: %s index %d references vertex %d of %d", ErrMalformedMesh, m.Name, i, idx, n)
		}
	}
	return nil
}

// PositionBytes returns the position stream packed at layout.GeometryPositionStride.
func (m *Mesh) PositionBytes() []byte {
	buf := make([]byte, len(m.Positions)*layout.GeometryPositionStride)
	for i, p := range m.Positions {
		putVec(buf[i*layout.GeometryPositionStride:], p[:])
	}
	return buf
}

// GenericsBytes returns the interleaved texcoord and normal stream packed at
// layout.GeometryGenericsStride: texcoord at 0, normal at 8.
//
// Returns:
//   - []byte: the generics stream, or nil if the streams disagree in length
func (m *Mesh) GenericsBytes() []byte {
	if len(m.Texcoords) != len(m.Positions) || len(m.Normals) != len(m.Positions) {
		return nil
	}
	buf := make([]byte, len(m.Positions)*layout.GeometryGenericsStride)
	for i := range m.Positions {
		v := buf[i*layout.GeometryGenericsStride:]
		putVec(v, m.Texcoords[i][:])
		putVec(v[8:], m.Normals[i][:])
	}
	return buf
}

// IndexBytes returns the index list as little-endian uint32 values.
func (m *Mesh) IndexBytes() []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func putVec(dst []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
