// Package layout builds the host-side WebGPU descriptors that feed the binding contract:
// vertex buffer layouts addressed by BufferIndex with attributes at their VertexAttribute
// locations, and bind group layouts whose bindings are the contract buffer and texture slots.
package layout

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ImagePlaneVertexStride is the byte stride of one captured image vertex: float2 position
	// followed by float2 texcoord.
	ImagePlaneVertexStride = 16

	// ImagePlaneVertexCount is the number of vertices of the full-screen triangle strip.
	ImagePlaneVertexCount = 4

	// GeometryPositionStride is the byte stride of the MeshPositions buffer of anchor geometry.
	GeometryPositionStride = 12

	// GeometryGenericsStride is the byte stride of the MeshGenerics buffer of anchor geometry:
	// float2 texcoord followed by float3 normal.
	GeometryGenericsStride = 20
)

// imagePlaneVertexData is the clip-space quad the camera image is drawn on, as a triangle
// strip of (x, y, u, v). Texture v grows downward.
var imagePlaneVertexData = [ImagePlaneVertexCount * 4]float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

// ImagePlaneVertices returns a copy of the captured image quad as (x, y, u, v) tuples.
func ImagePlaneVertices() []float32 {
	out := make([]float32, len(imagePlaneVertexData))
	copy(out, imagePlaneVertexData[:])
	return out
}

// ImagePlaneVerticesTransformed returns the captured image quad with every texcoord mapped
// through displayToCamera, so the camera image aspect-fills a viewport whose aspect ratio
// differs from the camera's. Positions are unchanged.
//
// Parameters:
//   - displayToCamera: an affine 2D transform from viewport to camera image coordinates, in
//     homogeneous form with a last row of (0, 0, 1)
//
// Returns:
//   - []float32: the transformed (x, y, u, v) tuples
func ImagePlaneVerticesTransformed(displayToCamera mgl32.Mat3) []float32 {
	out := ImagePlaneVertices()
	for i := 0; i < len(out); i += 4 {
		uv := displayToCamera.Mul3x1(mgl32.Vec3{out[i+2], out[i+3], 1})
		out[i+2], out[i+3] = uv.X(), uv.Y()
	}
	return out
}

// ImagePlaneVertexBytes returns the captured image quad encoded for upload into the
// MeshPositions vertex buffer.
//
// Returns:
//   - []byte: ImagePlaneVertexCount * ImagePlaneVertexStride little-endian bytes
func ImagePlaneVertexBytes() []byte {
	return encodeFloats(imagePlaneVertexData[:])
}

// ImagePlaneVertexBytesTransformed encodes ImagePlaneVerticesTransformed for upload.
func ImagePlaneVertexBytesTransformed(displayToCamera mgl32.Mat3) []byte {
	return encodeFloats(ImagePlaneVerticesTransformed(displayToCamera))
}

func encodeFloats(floats []float32) []byte {
	buf := make([]byte, 0, len(floats)*4)
	for _, f := range floats {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// ImagePlaneVertexLayouts returns the vertex buffer layouts of the captured image pipeline.
// The slice is indexed by BufferIndex; only BufferIndexMeshPositions is used, carrying both
// the position and texcoord attributes interleaved.
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per bound mesh buffer slot
func ImagePlaneVertexLayouts() []wgpu.VertexBufferLayout {
	layouts := make([]wgpu.VertexBufferLayout, contract.BufferIndexMeshPositions+1)
	layouts[contract.BufferIndexMeshPositions] = wgpu.VertexBufferLayout{
		ArrayStride: ImagePlaneVertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{
				Format:         wgpu.VertexFormatFloat32x2,
				Offset:         0,
				ShaderLocation: uint32(contract.VertexAttributePosition),
			},
			{
				Format:         wgpu.VertexFormatFloat32x2,
				Offset:         8,
				ShaderLocation: uint32(contract.VertexAttributeTexcoord),
			},
		},
	}
	return layouts
}

// GeometryVertexLayouts returns the vertex buffer layouts of the anchor geometry pipeline.
// Positions are de-interleaved into BufferIndexMeshPositions; texcoords and normals share
// BufferIndexMeshGenerics.
//
// Returns:
//   - []wgpu.VertexBufferLayout: layouts indexed by BufferIndex
func GeometryVertexLayouts() []wgpu.VertexBufferLayout {
	layouts := make([]wgpu.VertexBufferLayout, contract.BufferIndexMeshGenerics+1)
	layouts[contract.BufferIndexMeshPositions] = wgpu.VertexBufferLayout{
		ArrayStride: GeometryPositionStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{
				Format:         wgpu.VertexFormatFloat32x3,
				Offset:         0,
				ShaderLocation: uint32(contract.VertexAttributePosition),
			},
		},
	}
	layouts[contract.BufferIndexMeshGenerics] = wgpu.VertexBufferLayout{
		ArrayStride: GeometryGenericsStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{
				Format:         wgpu.VertexFormatFloat32x2,
				Offset:         0,
				ShaderLocation: uint32(contract.VertexAttributeTexcoord),
			},
			{
				Format:         wgpu.VertexFormatFloat32x3,
				Offset:         8,
				ShaderLocation: uint32(contract.VertexAttributeNormal),
			},
		},
	}
	return layouts
}
