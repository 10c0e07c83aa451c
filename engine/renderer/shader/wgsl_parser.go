package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
}

// wgslSampledTextureMap maps WGSL sampled texture base names to their view dimension and multisampled flag
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their wgpu texture sample type
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) and @location(NAME) attributes
	locationRegex = regexp.MustCompile(`@location\(\s*(\w+)\s*\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// vertexParamsRegex matches the start of every @vertex function's parameter list
	vertexParamsRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)\s*\(`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type.
	// Group and binding accept integer literals or const names:
	//   @group(0) @binding(BUFFER_INDEX_SHARED_UNIFORMS) var<uniform> shared: SharedUniforms;
	//   @group(1) @binding(1) var cameraY: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\(\s*(\w+)\s*\)\s*@binding\(\s*(\w+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	// constDeclRegex captures module-scope integer constants: const NAME: u32 = 3u;
	constDeclRegex = regexp.MustCompile(`\bconst\s+(\w+)\s*(?::\s*\w+\s*)?=\s*(\d+)[ui]?\s*;`)
)

// parseConstants extracts every module-scope integer const declaration from WGSL source.
// A name declared twice keeps the last value; WGSL rejects the redeclaration anyway.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - map[string]uint32: constant values keyed by name
func parseConstants(source string) map[string]uint32 {
	consts := make(map[string]uint32)
	for _, match := range constDeclRegex.FindAllStringSubmatch(source, -1) {
		v, err := strconv.ParseUint(match[2], 10, 32)
		if err != nil {
			continue
		}
		consts[match[1]] = uint32(v)
	}
	return consts
}

// resolveIndex turns an attribute argument into an integer, either by parsing a literal
// (optionally suffixed with u or i) or by looking up a const name.
//
// Parameters:
//   - token: the attribute argument, e.g. "3", "3u" or "BUFFER_INDEX_SHARED_UNIFORMS"
//   - consts: known constants keyed by name
//
// Returns:
//   - int: the resolved value
//   - bool: false if the token is neither a literal nor a known constant
func resolveIndex(token string, consts map[string]uint32) (int, bool) {
	literal := strings.TrimRight(token, "ui")
	if v, err := strconv.Atoi(literal); err == nil {
		return v, true
	}
	if v, ok := consts[token]; ok {
		return int(v), true
	}
	return 0, false
}

// parseVertexLayouts extracts vertex buffer layouts from WGSL source code.
// Only the inputs of @vertex entry points become layouts: each struct parameter is one layout,
// and the @location parameters declared directly on an entry point form one more. Inputs
// containing unrecognized WGSL types are skipped.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: vertex layouts keyed by sequential index
func parseVertexLayouts(source string) map[int][]wgpu.VertexBufferLayout {
	result := make(map[int][]wgpu.VertexBufferLayout)
	cleaned := stripComments(source)
	consts := parseConstants(cleaned)

	layoutIndex := 0
	for _, input := range parseVertexInputs(cleaned, consts, parseStructBlocks(cleaned, consts)) {
		layout, ok := buildVertexBufferLayout(input)
		if !ok {
			continue
		}
		result[layoutIndex] = []wgpu.VertexBufferLayout{layout}
		layoutIndex++
	}

	return result
}

// parseVertexInputs collects the vertex attribute inputs of every @vertex entry point.
// Struct parameters resolve to their struct; @location parameters declared directly on the
// function are gathered into a struct named after the function. Builtin fields are dropped.
// Structs only used as inter-stage varyings or fragment outputs are never returned.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - consts: known constants used to resolve named @location values
//   - structs: the parsed struct blocks of source
//
// Returns:
//   - []parsedStruct: the vertex inputs in source order, each struct at most once
func parseVertexInputs(source string, consts map[string]uint32, structs []parsedStruct) []parsedStruct {
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	var inputs []parsedStruct
	seen := make(map[string]bool)
	for _, loc := range vertexParamsRegex.FindAllStringSubmatchIndex(source, -1) {
		params, ok := enclosedParams(source[loc[1]:])
		if !ok {
			continue
		}
		direct := parsedStruct{name: source[loc[2]:loc[3]]}
		for _, p := range parseStructFields(params, consts) {
			if p.isBuiltin {
				continue
			}
			if p.location >= 0 {
				direct.fields = append(direct.fields, p)
				continue
			}
			if ps, ok := byName[p.typeName]; ok && !seen[ps.name] {
				seen[ps.name] = true
				inputs = append(inputs, withoutBuiltins(ps))
			}
		}
		if len(direct.fields) > 0 {
			inputs = append(inputs, direct)
		}
	}
	return inputs
}

// enclosedParams returns the text up to the parenthesis closing an already opened one.
func enclosedParams(s string) (string, bool) {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i], true
			}
		}
	}
	return "", false
}

// parseBindings extracts all @group/@binding resource declarations from cleaned WGSL source
// in source order. A group or binding argument that is neither an integer literal nor a known
// const is reported as an *UnresolvedIndexError and its declaration is left out.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - consts: known constants used to resolve named indices
//
// Returns:
//   - []parsedBinding: the resolved declarations
//   - []error: one *UnresolvedIndexError per unresolved argument
func parseBindings(source string, consts map[string]uint32) ([]parsedBinding, []error) {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	out := make([]parsedBinding, 0, len(matches))
	var errs []error
	for _, match := range matches {
		varName := strings.TrimSpace(match[4])
		group, groupOK := resolveIndex(match[1], consts)
		if !groupOK {
			errs = append(errs, &UnresolvedIndexError{Name: varName, Attribute: "group", Token: match[1]})
		}
		binding, bindingOK := resolveIndex(match[2], consts)
		if !bindingOK {
			errs = append(errs, &UnresolvedIndexError{Name: varName, Attribute: "binding", Token: match[2]})
		}
		if !groupOK || !bindingOK {
			continue
		}
		out = append(out, parsedBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(match[3]),
			varName:      varName,
			typeName:     normalizeTypeName(strings.TrimSpace(match[5])),
		})
	}
	return out, errs
}

// parseBindGroupLayouts converts the resource declarations of WGSL source into
// wgpu.BindGroupLayoutDescriptor values grouped by group index. Each descriptor's entries are
// sorted by binding index and carry the provided visibility flag.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)
	cleaned := stripComments(source)
	consts := parseConstants(cleaned)
	structSizes := computeStructSizes(parseStructBlocks(cleaned, consts))

	bindings, _ := parseBindings(cleaned, consts)
	for _, b := range bindings {
		entry := classifyResource(uint32(b.binding), visibility, b.addressSpace, b.typeName)

		// MinBindingSize lets the renderer size buffers straight from the shader.
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(b.typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}

		groups[b.group] = append(groups[b.group], entry)
		if varNames[b.group] == nil {
			varNames[b.group] = make(map[int]string)
		}
		varNames[b.group][b.binding] = b.varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Entries: entries,
		}
	}

	return result, varNames
}

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: ShaderTypeVertex or ShaderTypeFragment
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - consts: known constants used to resolve named @location values
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string, consts map[string]uint32) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2], consts),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type.
// A @location whose argument cannot be resolved is recorded as -1.
//
// Parameters:
//   - body: the content between { and } of a struct declaration
//   - consts: known constants used to resolve named @location values
//
// Returns:
//   - []parsedField: all fields found in the struct body
func parseStructFields(body string, consts map[string]uint32) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, ok := resolveIndex(locMatch[1], consts); ok {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = normalizeTypeName(strings.TrimSpace(fm[2]))

		fields = append(fields, field)
	}

	return fields
}
