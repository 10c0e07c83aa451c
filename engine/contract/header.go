package contract

import (
	"fmt"
	"strings"
)

// WGSLConstant is a named integer exported to shaders as `const NAME: u32 = Vu;`.
type WGSLConstant struct {
	Name  string
	Value uint32
}

// WGSLConstants returns every binding index of the contract in the order buffers, vertex
// attributes, textures, each group ascending by value, followed by the sampler binding.
func WGSLConstants() []WGSLConstant {
	out := make([]WGSLConstant, 0, BufferIndexCount+BufferIndex(VertexAttributeCount)+BufferIndex(TextureIndexCount)+1)
	for _, b := range BufferIndices() {
		out = append(out, WGSLConstant{Name: b.WGSLName(), Value: uint32(b)})
	}
	for _, v := range VertexAttributes() {
		out = append(out, WGSLConstant{Name: v.WGSLName(), Value: uint32(v)})
	}
	for _, t := range TextureIndices() {
		out = append(out, WGSLConstant{Name: t.WGSLName(), Value: uint32(t)})
	}
	return append(out, WGSLConstant{Name: SamplerBindingWGSLName, Value: SamplerBinding})
}

// WGSLConstantValue looks up a contract constant by its WGSL name.
func WGSLConstantValue(name string) (uint32, bool) {
	for _, c := range WGSLConstants() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

// WGSLBindingsSource renders the binding indices as WGSL const declarations. Shaders include
// it and use the names in @binding and @location attributes, so the GPU side never carries a
// hand-typed slot number.
func WGSLBindingsSource() string {
	var sb strings.Builder
	sb.WriteString("// Binding indices shared with the host renderer. Generated; do not edit.\n")
	for _, c := range WGSLConstants() {
		fmt.Fprintf(&sb, "const %s: u32 = %du;\n", c.Name, c.Value)
	}
	return sb.String()
}

// WGSLHeader returns the bindings followed by both uniform struct definitions: everything a
// shader needs to speak the contract.
func WGSLHeader() string {
	return strings.Join([]string{WGSLBindingsSource(), GPUSharedUniformsSource, GPUInstanceUniformsSource}, "\n")
}
