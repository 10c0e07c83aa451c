// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader source for
// @oxy: annotations, replaces them with contract sources or generated binding declarations,
// and collects the declarations for downstream bind group wiring.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"go.uber.org/zap"
)

// registryEntry pairs a WGSL source injected by @oxy:include with the WGSL type name that
// generated declarations reference. Type is empty for the bindings header.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps include/buffer argument keys to their contract source and type name.
	registry map[AnnotationArg]registryEntry

	// declarations accumulates buffer, texture and sampler annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces @oxy: annotations with their WGSL output. @oxy:include is replaced by the
	// contract source; @oxy:buffer, @oxy:texture and @oxy:sampler by @group/@binding declarations that use
	// the contract const names. The bindings header and any referenced uniform struct that was
	// not included explicitly are prepended so every generated name resolves.
	//
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or a source is included twice
	Process(source string) (string, error)

	// Declarations returns the buffer, texture and sampler annotations collected during the most recent
	// call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor backed by the contract sources.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[AnnotationArg]registryEntry{
			AnnotationArgBindings:         {Source: contract.WGSLBindingsSource()},
			AnnotationArgSharedUniforms:   {Source: contract.GPUSharedUniformsSource, Type: contract.SharedUniformsLayout().Name},
			AnnotationArgInstanceUniforms: {Source: contract.GPUInstanceUniformsSource, Type: contract.InstanceUniformsLayout().Name},
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[AnnotationArg]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			if included[a.Args[0]] {
				return "", fmt.Errorf("line %d: %q already included", a.Line, a.Args[0])
			}
			included[a.Args[0]] = true
			out = append(out, p.registry[a.Args[0]].Source)
		case AnnotationTypeBuffer:
			b := contract.BufferIndex(*a.Binding)
			entry := p.registry[a.Args[0]]
			decl := fmt.Sprintf("@group(%d) @binding(%s) var<uniform> %s: %s;", *a.Group, b.WGSLName(), a.Args[1], entry.Type)
			if b == contract.BufferIndexInstanceUniforms {
				decl = fmt.Sprintf("@group(%d) @binding(%s) var<storage, read> %s: array<%s>;", *a.Group, b.WGSLName(), a.Args[1], entry.Type)
			}
			out = append(out, decl)
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeTexture:
			t := contract.TextureIndex(*a.Binding)
			out = append(out, fmt.Sprintf("@group(%d) @binding(%s) var %s: texture_2d<f32>;", *a.Group, t.WGSLName(), a.Args[1]))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeSampler:
			out = append(out, fmt.Sprintf("@group(%d) @binding(%s) var %s: sampler;", *a.Group, contract.SamplerBindingWGSLName, a.Args[0]))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", a.Line, a.Type)
		}
	}

	// Generated declarations reference the const header and the struct types by name.
	var prelude []string
	if len(p.declarations) > 0 && !included[AnnotationArgBindings] {
		prelude = append(prelude, p.registry[AnnotationArgBindings].Source)
	}
	for _, d := range p.declarations {
		if d.Type == AnnotationTypeBuffer && !included[d.Args[0]] {
			prelude = append(prelude, p.registry[d.Args[0]].Source)
			included[d.Args[0]] = true
		}
	}
	out = append(prelude, out...)

	Logger().Debug("pre-processed shader",
		zap.Int("lines", len(lines)),
		zap.Int("declarations", len(p.declarations)))

	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
