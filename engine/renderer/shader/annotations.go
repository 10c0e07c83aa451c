// annotations.go defines the annotation types and parser for the Oxy WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that inject the binding
// contract into a shader: the WGSL const header, the uniform struct definitions, and the
// @group/@binding declarations of contract buffers and textures.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a contract source at the annotation site. It produces no
	// declaration.
	//
	// Syntax: //@oxy:include <bindings|shared_uniforms|instance_uniforms>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBuffer generates the @group/@binding declaration of a contract uniform
	// buffer, using the buffer index const as the binding.
	//
	// Syntax: //@oxy:buffer <group> <instance_uniforms|shared_uniforms> <var_name>
	//
	// Example: //@oxy:buffer 0 shared_uniforms sharedUniforms
	//   => @group(0) @binding(BUFFER_INDEX_SHARED_UNIFORMS) var<uniform> sharedUniforms: SharedUniforms;
	AnnotationTypeBuffer AnnotationType = "buffer"

	// AnnotationTypeTexture generates the @group/@binding declaration of a contract texture.
	//
	// Syntax: //@oxy:texture <group> <color|y|cbcr> <var_name>
	//
	// Example: //@oxy:texture 1 y cameraImageTextureY
	//   => @group(1) @binding(TEXTURE_INDEX_Y) var cameraImageTextureY: texture_2d<f32>;
	AnnotationTypeTexture AnnotationType = "texture"

	// AnnotationTypeSampler generates the @group/@binding declaration of the filtering sampler
	// of a texture group.
	//
	// Syntax: //@oxy:sampler <group> <var_name>
	//
	// Example: //@oxy:sampler 1 cameraImageSampler
	//   => @group(1) @binding(SAMPLER_BINDING) var cameraImageSampler: sampler;
	AnnotationTypeSampler AnnotationType = "sampler"
)

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

const (
	// AnnotationArgBindings identifies the WGSL const header of every contract index.
	AnnotationArgBindings AnnotationArg = "bindings"

	// AnnotationArgSharedUniforms identifies the SharedUniforms struct and its buffer slot.
	AnnotationArgSharedUniforms AnnotationArg = "shared_uniforms"

	// AnnotationArgInstanceUniforms identifies the InstanceUniforms struct and its buffer slot.
	AnnotationArgInstanceUniforms AnnotationArg = "instance_uniforms"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
// Buffer and texture annotations are recorded as declarations by the PreProcessor.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments:
	//   - include: [0] = source key
	//   - buffer:  [0] = buffer index name, [1] = var name
	//   - texture: [0] = texture index name, [1] = var name
	//   - sampler: [0] = var name
	Args []AnnotationArg

	// Line is the 1-based source line of the annotation, used for error reporting.
	Line int

	// Group is the @group index for buffer, texture and sampler annotations. Nil for include annotations.
	Group *int

	// Binding is the resolved contract index for buffer, texture and sampler annotations.
	Binding *int
}

// validIncludes lists the sources accepted by @oxy:include.
var validIncludes = []AnnotationArg{
	AnnotationArgBindings,
	AnnotationArgSharedUniforms,
	AnnotationArgInstanceUniforms,
}

// uniformBuffers are the contract buffer slots that are bound as resources. The mesh slots are
// vertex buffers and cannot appear in a bind group.
var uniformBuffers = map[AnnotationArg]contract.BufferIndex{
	AnnotationArgSharedUniforms:   contract.BufferIndexSharedUniforms,
	AnnotationArgInstanceUniforms: contract.BufferIndexInstanceUniforms,
}

// textureSlots maps texture annotation arguments to contract texture slots.
var textureSlots = func() map[AnnotationArg]contract.TextureIndex {
	m := make(map[AnnotationArg]contract.TextureIndex, contract.TextureIndexCount)
	for _, t := range contract.TextureIndices() {
		m[AnnotationArg(t.String())] = t
	}
	return m
}()

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validIncludes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown include %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBuffer, AnnotationTypeTexture:
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation requires exactly three arguments (group, index name, var name)", lineNum, args[0])
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy %s annotation", lineNum, args[1], args[0])
		}

		var binding int
		if AnnotationType(args[0]) == AnnotationTypeBuffer {
			b, ok := uniformBuffers[AnnotationArg(args[2])]
			if !ok {
				return nil, fmt.Errorf("line %d: %q is not a bindable buffer index in @oxy buffer annotation", lineNum, args[2])
			}
			binding = int(b)
		} else {
			t, ok := textureSlots[AnnotationArg(args[2])]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown texture index %q in @oxy texture annotation", lineNum, args[2])
			}
			binding = int(t)
		}

		return &Annotation{
			Type:    AnnotationType(args[0]),
			Args:    []AnnotationArg{AnnotationArg(args[2]), AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case AnnotationTypeSampler:
		if len(args) != 3 {
			return nil, fmt.Errorf("line %d: @oxy sampler annotation requires exactly two arguments (group, var name)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy sampler annotation", lineNum, args[1])
		}
		binding := int(contract.SamplerBinding)
		return &Annotation{
			Type:    AnnotationTypeSampler,
			Args:    []AnnotationArg{AnnotationArg(args[2])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
