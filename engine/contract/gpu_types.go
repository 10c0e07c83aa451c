package contract

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrShortBuffer is returned when a byte region is smaller than the block being read or written.
var ErrShortBuffer = errors.New("contract: buffer too small for uniform block")

// Byte offsets and sizes of the WGSL SharedUniforms struct. Any drift between these and the Go
// struct below fails the build (see layout_assert.go).
const (
	SharedUniformsOffsetProjectionMatrix          = 0
	SharedUniformsOffsetViewMatrix                = 64
	SharedUniformsOffsetAmbientLightColor         = 128
	SharedUniformsOffsetDirectionalLightDirection = 144
	SharedUniformsOffsetDirectionalLightColor     = 160
	SharedUniformsOffsetMaterialShininess         = 172

	// SharedUniformsSize is the WGSL struct size: last field ends at 176, already a multiple of
	// the struct alignment (16).
	SharedUniformsSize = 176
	// SharedUniformsAlign is the WGSL struct alignment, the largest member alignment.
	SharedUniformsAlign = 16
)

// Byte offsets and sizes of the WGSL InstanceUniforms struct.
const (
	InstanceUniformsOffsetModelMatrix = 0

	// InstanceUniformsSize is one mat4x4<f32> with no padding; it is also the array stride.
	InstanceUniformsSize = 64
	// InstanceUniformsAlign is the WGSL struct alignment.
	InstanceUniformsAlign = 16
)

// GPUSharedUniformsSource is the canonical WGSL definition of the SharedUniforms struct.
// Matches SharedUniforms layout exactly (176 bytes, WGSL host-shareable layout).
//
//go:embed assets/shared_uniforms.wgsl
var GPUSharedUniformsSource string

// SharedUniforms is the per-frame camera and lighting block, written once per frame and bound
// at BufferIndexSharedUniforms for both the vertex and fragment stages.
// Matches the WGSL SharedUniforms struct layout exactly (see GPUSharedUniformsSource).
//
// WGSL aligns vec3<f32> to 16 bytes, so each colour/direction vector is followed by four
// reserved bytes, except the last one whose tail holds MaterialShininess.
type SharedUniforms struct {
	ProjectionMatrix          mgl32.Mat4 // offset   0: camera projection, column-major (mat4x4<f32>)
	ViewMatrix                mgl32.Mat4 // offset  64: camera view, column-major (mat4x4<f32>)
	AmbientLightColor         mgl32.Vec3 // offset 128: ambient RGB (vec3<f32>)
	_pad0                     float32    // offset 140: vec3 alignment padding
	DirectionalLightDirection mgl32.Vec3 // offset 144: normalized light direction (vec3<f32>)
	_pad1                     float32    // offset 156: vec3 alignment padding
	DirectionalLightColor     mgl32.Vec3 // offset 160: directional RGB (vec3<f32>)
	MaterialShininess         float32    // offset 172: specular exponent (f32)
}

// Size returns the size of the SharedUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (176)
func (u *SharedUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the SharedUniforms struct into a byte buffer suitable for GPU upload.
// Padding bytes are written as zero.
//
// Returns:
//   - []byte: 176-byte buffer ready for GPU upload
func (u *SharedUniforms) Marshal() []byte {
	buf := make([]byte, SharedUniformsSize)
	_ = u.MarshalTo(buf)
	return buf
}

// MarshalTo writes the block into the first SharedUniformsSize bytes of dst, which is usually a
// region of a mapped uniform buffer.
//
// Parameters:
//   - dst: destination region, at least SharedUniformsSize bytes
//
// Returns:
//   - error: ErrShortBuffer if dst is too small
func (u *SharedUniforms) MarshalTo(dst []byte) error {
	if len(dst) < SharedUniformsSize {
		return fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(dst), SharedUniformsSize)
	}
	putMat4(dst[SharedUniformsOffsetProjectionMatrix:], u.ProjectionMatrix)
	putMat4(dst[SharedUniformsOffsetViewMatrix:], u.ViewMatrix)
	putVec3(dst[SharedUniformsOffsetAmbientLightColor:], u.AmbientLightColor)
	binary.LittleEndian.PutUint32(dst[140:], 0) // _pad0
	putVec3(dst[SharedUniformsOffsetDirectionalLightDirection:], u.DirectionalLightDirection)
	binary.LittleEndian.PutUint32(dst[156:], 0) // _pad1
	putVec3(dst[SharedUniformsOffsetDirectionalLightColor:], u.DirectionalLightColor)
	putFloat(dst[SharedUniformsOffsetMaterialShininess:], u.MaterialShininess)
	return nil
}

// Unmarshal reads every field back from src at its documented offset. Padding is ignored.
//
// Parameters:
//   - src: a region shaped like SharedUniforms, at least SharedUniformsSize bytes
//
// Returns:
//   - error: ErrShortBuffer if src is too small
func (u *SharedUniforms) Unmarshal(src []byte) error {
	if len(src) < SharedUniformsSize {
		return fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(src), SharedUniformsSize)
	}
	u.ProjectionMatrix = mat4(src[SharedUniformsOffsetProjectionMatrix:])
	u.ViewMatrix = mat4(src[SharedUniformsOffsetViewMatrix:])
	u.AmbientLightColor = vec3(src[SharedUniformsOffsetAmbientLightColor:])
	u.DirectionalLightDirection = vec3(src[SharedUniformsOffsetDirectionalLightDirection:])
	u.DirectionalLightColor = vec3(src[SharedUniformsOffsetDirectionalLightColor:])
	u.MaterialShininess = float(src[SharedUniformsOffsetMaterialShininess:])
	return nil
}

// GPUInstanceUniformsSource is the canonical WGSL definition of the InstanceUniforms struct.
// Matches InstanceUniforms layout exactly (64 bytes, WGSL host-shareable layout).
//
//go:embed assets/instance_uniforms.wgsl
var GPUInstanceUniformsSource string

// InstanceUniforms is the per-instance transform block. Instances are packed back to back in
// the buffer bound at BufferIndexInstanceUniforms and indexed by instance id in the shader.
// Size: 64 bytes (mat4x4<f32>, no padding required).
type InstanceUniforms struct {
	ModelMatrix mgl32.Mat4 // offset 0: model-to-world transform, column-major (mat4x4<f32>)
}

// Size returns the size of the InstanceUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (u *InstanceUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the InstanceUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (u *InstanceUniforms) Marshal() []byte {
	buf := make([]byte, InstanceUniformsSize)
	putMat4(buf, u.ModelMatrix)
	return buf
}

// PutInstanceUniforms writes u as element i of a contiguous InstanceUniforms array held in dst.
//
// Parameters:
//   - dst: the array region
//   - i: the instance index, element offset is i*InstanceUniformsSize
//   - u: the instance block to write
//
// Returns:
//   - error: ErrShortBuffer if element i does not fit in dst
func PutInstanceUniforms(dst []byte, i int, u InstanceUniforms) error {
	off := i * InstanceUniformsSize
	if i < 0 || off+InstanceUniformsSize > len(dst) {
		return fmt.Errorf("%w: instance %d needs %d bytes, have %d", ErrShortBuffer, i, off+InstanceUniformsSize, len(dst))
	}
	putMat4(dst[off+InstanceUniformsOffsetModelMatrix:], u.ModelMatrix)
	return nil
}

// InstanceUniformsAt reads element i of a contiguous InstanceUniforms array held in src.
//
// Parameters:
//   - src: the array region
//   - i: the instance index
//
// Returns:
//   - InstanceUniforms: the decoded block
//   - error: ErrShortBuffer if element i lies outside src
func InstanceUniformsAt(src []byte, i int) (InstanceUniforms, error) {
	off := i * InstanceUniformsSize
	if i < 0 || off+InstanceUniformsSize > len(src) {
		return InstanceUniforms{}, fmt.Errorf("%w: instance %d needs %d bytes, have %d", ErrShortBuffer, i, off+InstanceUniformsSize, len(src))
	}
	return InstanceUniforms{ModelMatrix: mat4(src[off+InstanceUniformsOffsetModelMatrix:])}, nil
}

func putFloat(dst []byte, f float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(f))
}

func putVec3(dst []byte, v mgl32.Vec3) {
	for i := range 3 {
		putFloat(dst[i*4:], v[i])
	}
}

func putMat4(dst []byte, m mgl32.Mat4) {
	for i := range 16 {
		putFloat(dst[i*4:], m[i])
	}
}

func float(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}

func vec3(src []byte) mgl32.Vec3 {
	return mgl32.Vec3{float(src[0:]), float(src[4:]), float(src[8:])}
}

func mat4(src []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range 16 {
		m[i] = float(src[i*4:])
	}
	return m
}
