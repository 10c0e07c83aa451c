package contract

import "github.com/go-gl/mathgl/mgl32"

// Lighting is the lighting portion of SharedUniforms.
type Lighting struct {
	AmbientColor     mgl32.Vec3
	Direction        mgl32.Vec3
	DirectionalColor mgl32.Vec3
	Shininess        float32
}

// DefaultLighting is a soft grey ambient term plus a directional light shining down -Z.
func DefaultLighting() Lighting {
	return Lighting{
		AmbientColor:     mgl32.Vec3{0.5, 0.5, 0.5},
		Direction:        mgl32.Vec3{0, 0, -1}.Normalize(),
		DirectionalColor: mgl32.Vec3{0.6, 0.6, 0.6},
		Shininess:        30,
	}
}

// NewSharedUniforms builds a frame block from the camera matrices and DefaultLighting.
//
// Parameters:
//   - projection: camera projection matrix, column-major
//   - view: camera view matrix, column-major
//
// Returns:
//   - SharedUniforms: the populated block
func NewSharedUniforms(projection, view mgl32.Mat4) SharedUniforms {
	u := SharedUniforms{
		ProjectionMatrix: projection,
		ViewMatrix:       view,
	}
	u.SetLighting(DefaultLighting())
	return u
}

// SetLighting copies l into the lighting fields. The direction is normalized; a zero vector
// is stored as-is.
func (u *SharedUniforms) SetLighting(l Lighting) {
	u.AmbientLightColor = l.AmbientColor
	u.DirectionalLightDirection = l.Direction
	if l.Direction.Len() > 0 {
		u.DirectionalLightDirection = l.Direction.Normalize()
	}
	u.DirectionalLightColor = l.DirectionalColor
	u.MaterialShininess = l.Shininess
}

// Lighting returns the lighting fields of the block.
func (u *SharedUniforms) Lighting() Lighting {
	return Lighting{
		AmbientColor:     u.AmbientLightColor,
		Direction:        u.DirectionalLightDirection,
		DirectionalColor: u.DirectionalLightColor,
		Shininess:        u.MaterialShininess,
	}
}
