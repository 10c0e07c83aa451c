package contract

import "unsafe"

// FieldLayout describes one field of a uniform block as seen from both sides of the contract:
// the WGSL field name and type, and the byte offset and size the Go struct reserves for it.
type FieldLayout struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// StructLayout describes a uniform block: its WGSL struct name, total size, alignment and
// fields in declaration order.
type StructLayout struct {
	Name   string
	Size   uint64
	Align  uint64
	Fields []FieldLayout
}

// Field returns the field with the given WGSL name.
func (s StructLayout) Field(name string) (FieldLayout, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}

// SharedUniformsLayout returns the layout of SharedUniforms, derived from the Go struct.
func SharedUniformsLayout() StructLayout {
	var u SharedUniforms
	return StructLayout{
		Name:  "SharedUniforms",
		Size:  uint64(unsafe.Sizeof(u)),
		Align: SharedUniformsAlign,
		Fields: []FieldLayout{
			{"projectionMatrix", "mat4x4<f32>", uint64(unsafe.Offsetof(u.ProjectionMatrix)), uint64(unsafe.Sizeof(u.ProjectionMatrix))},
			{"viewMatrix", "mat4x4<f32>", uint64(unsafe.Offsetof(u.ViewMatrix)), uint64(unsafe.Sizeof(u.ViewMatrix))},
			{"ambientLightColor", "vec3<f32>", uint64(unsafe.Offsetof(u.AmbientLightColor)), uint64(unsafe.Sizeof(u.AmbientLightColor))},
			{"directionalLightDirection", "vec3<f32>", uint64(unsafe.Offsetof(u.DirectionalLightDirection)), uint64(unsafe.Sizeof(u.DirectionalLightDirection))},
			{"directionalLightColor", "vec3<f32>", uint64(unsafe.Offsetof(u.DirectionalLightColor)), uint64(unsafe.Sizeof(u.DirectionalLightColor))},
			{"materialShininess", "f32", uint64(unsafe.Offsetof(u.MaterialShininess)), uint64(unsafe.Sizeof(u.MaterialShininess))},
		},
	}
}

// InstanceUniformsLayout returns the layout of InstanceUniforms, derived from the Go struct.
func InstanceUniformsLayout() StructLayout {
	var u InstanceUniforms
	return StructLayout{
		Name:  "InstanceUniforms",
		Size:  uint64(unsafe.Sizeof(u)),
		Align: InstanceUniformsAlign,
		Fields: []FieldLayout{
			{"modelMatrix", "mat4x4<f32>", uint64(unsafe.Offsetof(u.ModelMatrix)), uint64(unsafe.Sizeof(u.ModelMatrix))},
		},
	}
}

// StructLayouts returns every uniform block layout keyed by WGSL struct name.
func StructLayouts() map[string]StructLayout {
	shared, instance := SharedUniformsLayout(), InstanceUniformsLayout()
	return map[string]StructLayout{
		shared.Name:   shared,
		instance.Name: instance,
	}
}
