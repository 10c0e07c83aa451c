package model

import "github.com/go-gl/mathgl/mgl32"

// DefaultAnchorSize is the edge length, in meters, of the cube drawn at geometry anchors.
const DefaultAnchorSize float32 = 0.075

// boxFaces lists each face of a unit box as its outward normal and the two axes spanning it,
// chosen so (u x v) == normal and the face winds counter-clockwise from outside.
var boxFaces = [6]struct{ normal, u, v mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// NewBox builds an axis-aligned box centered on the origin with flat-shaded faces:
// 4 vertices and 2 triangles per face.
//
// Parameters:
//   - width, height, depth: the box extents along X, Y and Z
//
// Returns:
//   - *Mesh: the box mesh
func NewBox(width, height, depth float32) *Mesh {
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}
	m := &Mesh{Name: "box"}
	for _, f := range boxFaces {
		base := uint32(len(m.Positions))
		for _, c := range [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}} {
			u := f.u.Mul(c.X()*2 - 1)
			v := f.v.Mul(1 - c.Y()*2)
			p := f.normal.Add(u).Add(v)
			m.Positions = append(m.Positions, mgl32.Vec3{p.X() * half.X(), p.Y() * half.Y(), p.Z() * half.Z()})
			m.Texcoords = append(m.Texcoords, c)
			m.Normals = append(m.Normals, f.normal)
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// NewPlane builds a single-sided quad in the XY plane facing +Z, centered on the origin.
// Plane anchors rotate it onto their XZ plane.
//
// Parameters:
//   - width, height: the quad extents along X and Y
//
// Returns:
//   - *Mesh: the plane mesh
func NewPlane(width, height float32) *Mesh {
	w, h := width/2, height/2
	return &Mesh{
		Name:      "plane",
		Positions: []mgl32.Vec3{{-w, -h, 0}, {w, -h, 0}, {w, h, 0}, {-w, h, 0}},
		Texcoords: []mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}
