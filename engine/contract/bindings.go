// Package contract is the single source of truth shared by the host renderer and the WGSL
// shader programs. It fixes the numeric binding slots for vertex buffers, uniform buffers,
// vertex attributes and textures, and the byte layout of the two uniform blocks.
//
// Shaders receive the same integers through WGSLBindingsSource, which renders every index
// as a WGSL const declaration. The integer value is the contract: the symbolic names exist
// only for readability on either side.
package contract

import "strings"

// BufferIndex is the numbered binding point a buffer occupies when attached to a draw call.
// Vertex buffers use it as the vertex buffer slot; uniform and storage buffers use it as the
// @binding index inside the uniform bind group.
type BufferIndex uint32

const (
	// BufferIndexMeshPositions holds per-vertex positions.
	BufferIndexMeshPositions BufferIndex = 0
	// BufferIndexMeshGenerics holds the remaining interleaved vertex attributes (texcoord, normal).
	BufferIndexMeshGenerics BufferIndex = 1
	// BufferIndexInstanceUniforms holds an array of InstanceUniforms indexed by instance id.
	BufferIndexInstanceUniforms BufferIndex = 2
	// BufferIndexSharedUniforms holds the per-frame SharedUniforms block.
	BufferIndexSharedUniforms BufferIndex = 3

	// BufferIndexCount is the number of buffer slots in the contract.
	BufferIndexCount BufferIndex = 4
)

// VertexAttribute is the numbered attribute slot (WGSL @location) of a vertex component.
type VertexAttribute uint32

const (
	// VertexAttributePosition is the vertex position.
	VertexAttributePosition VertexAttribute = 0
	// VertexAttributeTexcoord is the texture coordinate.
	VertexAttributeTexcoord VertexAttribute = 1
	// VertexAttributeNormal is the vertex normal.
	VertexAttributeNormal VertexAttribute = 2

	// VertexAttributeCount is the number of vertex attribute slots in the contract.
	VertexAttributeCount VertexAttribute = 3
)

// TextureIndex is the numbered binding point of a texture inside its bind group.
type TextureIndex uint32

const (
	// TextureIndexColor is the material color texture.
	TextureIndexColor TextureIndex = 0
	// TextureIndexY is the luma plane of the captured camera image.
	TextureIndexY TextureIndex = 1
	// TextureIndexCbCr is the chroma plane of the captured camera image.
	TextureIndexCbCr TextureIndex = 2

	// TextureIndexCount is the number of texture slots in the contract.
	TextureIndexCount TextureIndex = 3
)

// SamplerBinding is the binding of the sampler inside a texture bind group. It follows the
// last texture slot so a sampler never shares a binding with a TextureIndex.
const SamplerBinding = uint32(TextureIndexCount)

// SamplerBindingWGSLName is the WGSL const that carries SamplerBinding.
const SamplerBindingWGSLName = "SAMPLER_BINDING"

// The name tables below double as the IndexCollision check. Each one is an array literal of
// length <enum>Count keyed by every member, so a duplicated value is a "duplicate index"
// compile error and a value outside [0, Count) is an "index out of bounds" compile error.

var bufferIndexNames = [BufferIndexCount]string{
	BufferIndexMeshPositions:    "mesh_positions",
	BufferIndexMeshGenerics:     "mesh_generics",
	BufferIndexInstanceUniforms: "instance_uniforms",
	BufferIndexSharedUniforms:   "shared_uniforms",
}

var vertexAttributeNames = [VertexAttributeCount]string{
	VertexAttributePosition: "position",
	VertexAttributeTexcoord: "texcoord",
	VertexAttributeNormal:   "normal",
}

var textureIndexNames = [TextureIndexCount]string{
	TextureIndexColor: "color",
	TextureIndexY:     "y",
	TextureIndexCbCr:  "cbcr",
}

// String returns the snake_case name of the buffer slot.
func (b BufferIndex) String() string {
	if b < BufferIndexCount {
		return bufferIndexNames[b]
	}
	return "buffer_index_invalid"
}

// WGSLName returns the name of the WGSL const that carries this slot, e.g. BUFFER_INDEX_SHARED_UNIFORMS.
func (b BufferIndex) WGSLName() string {
	return wgslConstName("buffer_index", b.String())
}

// String returns the snake_case name of the vertex attribute.
func (v VertexAttribute) String() string {
	if v < VertexAttributeCount {
		return vertexAttributeNames[v]
	}
	return "vertex_attribute_invalid"
}

// WGSLName returns the name of the WGSL const that carries this attribute, e.g. VERTEX_ATTRIBUTE_NORMAL.
func (v VertexAttribute) WGSLName() string {
	return wgslConstName("vertex_attribute", v.String())
}

// String returns the snake_case name of the texture slot.
func (t TextureIndex) String() string {
	if t < TextureIndexCount {
		return textureIndexNames[t]
	}
	return "texture_index_invalid"
}

// WGSLName returns the name of the WGSL const that carries this slot, e.g. TEXTURE_INDEX_CBCR.
func (t TextureIndex) WGSLName() string {
	return wgslConstName("texture_index", t.String())
}

// BufferIndices returns every buffer slot in ascending order.
func BufferIndices() []BufferIndex {
	out := make([]BufferIndex, 0, BufferIndexCount)
	for b := range BufferIndexCount {
		out = append(out, b)
	}
	return out
}

// VertexAttributes returns every vertex attribute slot in ascending order.
func VertexAttributes() []VertexAttribute {
	out := make([]VertexAttribute, 0, VertexAttributeCount)
	for v := range VertexAttributeCount {
		out = append(out, v)
	}
	return out
}

// TextureIndices returns every texture slot in ascending order.
func TextureIndices() []TextureIndex {
	out := make([]TextureIndex, 0, TextureIndexCount)
	for t := range TextureIndexCount {
		out = append(out, t)
	}
	return out
}

func wgslConstName(prefix, name string) string {
	return strings.ToUpper(prefix + "_" + name)
}
