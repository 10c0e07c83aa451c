package contract

import "unsafe"

// Build-time LayoutMismatch checks. Each expression indexes a one-element array with
// (actual - expected) as a uintptr constant: a larger actual value is an out-of-bounds index
// and a smaller one overflows uintptr, so both directions stop compilation.
var (
	_ = [1]struct{}{}[unsafe.Sizeof(SharedUniforms{})-SharedUniformsSize]
	_ = [1]struct{}{}[unsafe.Offsetof(SharedUniforms{}.ProjectionMatrix)-SharedUniformsOffsetProjectionMatrix]
	_ = [1]struct{}{}[unsafe.Offsetof(SharedUniforms{}.ViewMatrix)-SharedUniformsOffsetViewMatrix]
	_ = [1]struct{}{}[unsafe.Offsetof(SharedUniforms{}.AmbientLightColor)-SharedUniformsOffsetAmbientLightColor]
	_ = [1]struct{}{}[unsafe.Offsetof(SharedUniforms{}.DirectionalLightDirection)-SharedUniformsOffsetDirectionalLightDirection]
	_ = [1]struct{}{}[unsafe.Offsetof(SharedUniforms{}.DirectionalLightColor)-SharedUniformsOffsetDirectionalLightColor]
	_ = [1]struct{}{}[unsafe.Offsetof(SharedUniforms{}.MaterialShininess)-SharedUniformsOffsetMaterialShininess]
	_ = [1]struct{}{}[SharedUniformsSize%SharedUniformsAlign]

	_ = [1]struct{}{}[unsafe.Sizeof(InstanceUniforms{})-InstanceUniformsSize]
	_ = [1]struct{}{}[unsafe.Offsetof(InstanceUniforms{}.ModelMatrix)-InstanceUniformsOffsetModelMatrix]
	_ = [1]struct{}{}[InstanceUniformsSize%InstanceUniformsAlign]

	// mgl32 types must stay plain float32 arrays.
	_ = [1]struct{}{}[unsafe.Sizeof(InstanceUniforms{}.ModelMatrix)-64]
	_ = [1]struct{}{}[unsafe.Sizeof(SharedUniforms{}.AmbientLightColor)-12]
)
