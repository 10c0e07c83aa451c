package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// LayoutMismatchError reports a uniform block or vertex input whose WGSL layout differs from
// the host layout.
type LayoutMismatchError struct {
	// Struct is the WGSL struct name, or "vertex" for vertex input checks.
	Struct string
	// Field is the WGSL field name, empty when the struct as a whole differs.
	Field string
	// Property names what differs: "offset", "size", "type", "name", "fields" or "format".
	Property string
	Want     string
	Got      string
}

func (e *LayoutMismatchError) Error() string {
	target := e.Struct
	if e.Field != "" {
		target += "." + e.Field
	}
	return fmt.Sprintf("layout mismatch: %s %s: want %s, got %s", target, e.Property, e.Want, e.Got)
}

// IndexCollisionError reports two resources or attributes that share one slot.
type IndexCollisionError struct {
	// Kind is "binding" or "location".
	Kind string
	// Group is the bind group of a binding collision, -1 for locations.
	Group int
	Index int
	Names []string
}

func (e *IndexCollisionError) Error() string {
	if e.Group >= 0 {
		return fmt.Sprintf("index collision: @group(%d) @%s(%d) used by %s", e.Group, e.Kind, e.Index, strings.Join(e.Names, ", "))
	}
	return fmt.Sprintf("index collision: @%s(%d) used by %s", e.Kind, e.Index, strings.Join(e.Names, ", "))
}

// BindingMismatchError reports a resource, attribute or const that uses a different number
// than the contract assigns to it.
type BindingMismatchError struct {
	Name string
	Want int
	Got  int
}

func (e *BindingMismatchError) Error() string {
	return fmt.Sprintf("binding mismatch: %s: want %d, got %d", e.Name, e.Want, e.Got)
}

// UnresolvedIndexError reports a @group or @binding argument that is neither an integer
// literal nor a const declared in the source, so its slot cannot be checked.
type UnresolvedIndexError struct {
	// Name is the variable the attribute belongs to.
	Name string
	// Attribute is "group" or "binding".
	Attribute string
	Token     string
}

func (e *UnresolvedIndexError) Error() string {
	return fmt.Sprintf("unresolved index: %s: @%s(%s) is not a literal or declared const", e.Name, e.Attribute, e.Token)
}

// Verify checks pre-processed WGSL source against the binding contract:
//   - consts named like contract indices carry the contract values
//   - SharedUniforms and InstanceUniforms structs have the host field order, types, offsets and size
//   - every @group and @binding argument resolves to a number
//   - no two resources of one bind group share a binding, and contract-typed buffers and samplers sit at their slot
//   - @vertex entry point input locations are unique and inside the vertex attribute range
//
// Structs and bindings the contract does not know about are ignored.
//
// Parameters:
//   - source: WGSL source, usually the output of PreProcessor.Process
//
// Returns:
//   - error: nil, or an errors.Join of *LayoutMismatchError, *IndexCollisionError, *BindingMismatchError
//     and *UnresolvedIndexError
func Verify(source string) error {
	cleaned := stripComments(source)
	consts := parseConstants(cleaned)
	structs := parseStructBlocks(cleaned, consts)

	var errs []error
	errs = append(errs, verifyConstants(consts)...)
	errs = append(errs, verifyStructLayouts(computeStructSizes(structs))...)
	bindings, unresolved := parseBindings(cleaned, consts)
	errs = append(errs, unresolved...)
	errs = append(errs, verifyBindings(bindings)...)
	errs = append(errs, verifyVertexLocations(parseVertexInputs(cleaned, consts, structs))...)

	if len(errs) > 0 {
		Logger().Debug("shader violates binding contract", zap.Int("violations", len(errs)))
	}
	return errors.Join(errs...)
}

func verifyConstants(consts map[string]uint32) []error {
	var errs []error
	for _, c := range contract.WGSLConstants() {
		got, ok := consts[c.Name]
		if ok && got != c.Value {
			errs = append(errs, &BindingMismatchError{Name: c.Name, Want: int(c.Value), Got: int(got)})
		}
	}
	return errs
}

func verifyStructLayouts(layouts map[string]wgslStructLayout) []error {
	var errs []error
	want := contract.StructLayouts()
	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		got, ok := layouts[name]
		if !ok {
			continue
		}
		errs = append(errs, compareStructLayout(want[name], got)...)
	}
	return errs
}

func compareStructLayout(want contract.StructLayout, got wgslStructLayout) []error {
	var errs []error
	mismatch := func(field, property string, w, g any) {
		errs = append(errs, &LayoutMismatchError{
			Struct:   want.Name,
			Field:    field,
			Property: property,
			Want:     fmt.Sprint(w),
			Got:      fmt.Sprint(g),
		})
	}

	if len(want.Fields) != len(got.fields) {
		mismatch("", "fields", len(want.Fields), len(got.fields))
	}
	for i := range min(len(want.Fields), len(got.fields)) {
		w, g := want.Fields[i], got.fields[i]
		if w.Name != g.name {
			mismatch(w.Name, "name", w.Name, g.name)
			continue
		}
		if w.Type != g.typeName {
			mismatch(w.Name, "type", w.Type, g.typeName)
		}
		if w.Offset != g.offset {
			mismatch(w.Name, "offset", w.Offset, g.offset)
		}
		if w.Size != g.size {
			mismatch(w.Name, "size", w.Size, g.size)
		}
	}
	if want.Size != got.size {
		mismatch("", "size", want.Size, got.size)
	}
	return errs
}

func verifyBindings(bindings []parsedBinding) []error {
	var errs []error

	type slot struct{ group, binding int }
	users := make(map[slot][]string)
	var order []slot
	for _, b := range bindings {
		s := slot{b.group, b.binding}
		if _, seen := users[s]; !seen {
			order = append(order, s)
		}
		users[s] = append(users[s], b.varName)

		switch elemType(b.typeName) {
		case contract.SharedUniformsLayout().Name:
			if b.binding != int(contract.BufferIndexSharedUniforms) {
				errs = append(errs, &BindingMismatchError{Name: b.varName, Want: int(contract.BufferIndexSharedUniforms), Got: b.binding})
			}
		case contract.InstanceUniformsLayout().Name:
			if b.binding != int(contract.BufferIndexInstanceUniforms) {
				errs = append(errs, &BindingMismatchError{Name: b.varName, Want: int(contract.BufferIndexInstanceUniforms), Got: b.binding})
			}
		}
		if isTextureType(b.typeName) && b.binding >= int(contract.TextureIndexCount) {
			errs = append(errs, &BindingMismatchError{Name: b.varName, Want: int(contract.TextureIndexCount) - 1, Got: b.binding})
		}
		if isSamplerType(b.typeName) && b.binding != int(contract.SamplerBinding) {
			errs = append(errs, &BindingMismatchError{Name: b.varName, Want: int(contract.SamplerBinding), Got: b.binding})
		}
	}

	for _, s := range order {
		if names := users[s]; len(names) > 1 {
			errs = append(errs, &IndexCollisionError{Kind: "binding", Group: s.group, Index: s.binding, Names: names})
		}
	}
	return errs
}

func verifyVertexLocations(inputs []parsedStruct) []error {
	var errs []error
	for _, ps := range inputs {
		users := make(map[int][]string)
		var order []int
		for _, f := range ps.fields {
			if f.location < 0 {
				continue
			}
			if _, seen := users[f.location]; !seen {
				order = append(order, f.location)
			}
			users[f.location] = append(users[f.location], ps.name+"."+f.name)
			if f.location >= int(contract.VertexAttributeCount) {
				errs = append(errs, &BindingMismatchError{Name: ps.name + "." + f.name, Want: int(contract.VertexAttributeCount) - 1, Got: f.location})
			}
		}
		for _, loc := range order {
			if names := users[loc]; len(names) > 1 {
				errs = append(errs, &IndexCollisionError{Kind: "location", Group: -1, Index: loc, Names: names})
			}
		}
	}
	return errs
}

// VerifyVertexInputs checks that every attribute a shader reads is supplied by the host vertex
// buffer layouts at the same location with the same format.
//
// Parameters:
//   - s: the vertex shader
//   - host: the vertex buffer layouts the pipeline is created with
//
// Returns:
//   - error: nil, or an errors.Join of *LayoutMismatchError
func VerifyVertexInputs(s Shader, host []wgpu.VertexBufferLayout) error {
	supplied := make(map[uint32]wgpu.VertexFormat)
	for _, l := range host {
		for _, a := range l.Attributes {
			supplied[a.ShaderLocation] = a.Format
		}
	}

	var errs []error
	keys := make([]int, 0, len(s.VertexLayouts()))
	for k := range s.VertexLayouts() {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		for _, l := range s.VertexLayouts()[k] {
			for _, a := range l.Attributes {
				field := contract.VertexAttribute(a.ShaderLocation).String()
				got, ok := supplied[a.ShaderLocation]
				if !ok {
					errs = append(errs, &LayoutMismatchError{Struct: "vertex", Field: field, Property: "format", Want: fmt.Sprint(a.Format), Got: "missing"})
					continue
				}
				if got != a.Format {
					errs = append(errs, &LayoutMismatchError{Struct: "vertex", Field: field, Property: "format", Want: fmt.Sprint(a.Format), Got: fmt.Sprint(got)})
				}
			}
		}
	}
	return errors.Join(errs...)
}

// elemType returns the element type of an array type, or the type itself.
func elemType(typeName string) string {
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok {
		return typeName
	}
	elem, _, _ := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	return strings.TrimSpace(elem)
}
