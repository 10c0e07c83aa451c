package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/anchor"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
)

var (
	// ErrNotInitialized is returned when a frame needs GPU resources that were never created.
	ErrNotInitialized = errors.New("renderer: not initialized")
	// ErrPipelineNotRegistered is returned when a frame draws with a pipeline key that has no
	// registered pipeline.
	ErrPipelineNotRegistered = errors.New("renderer: pipeline not registered")
)

// drawCommand is one draw of a frame, resolved against the renderer's resources.
type drawCommand struct {
	pipelineKey string
	// groups are the bind group indices the pipeline layout spans, all of which are set.
	groups        []int
	imagePlane    bool
	kind          anchor.Kind
	indexCount    uint32
	instanceCount uint32
	firstInstance uint32
}

// drawState is the part of the renderer a frame plan depends on.
type drawState struct {
	// pipelineGroups maps registered pipeline keys to the groups their layout spans.
	pipelineGroups map[string][]int
	// boundGroups are the groups that have a bind group.
	boundGroups map[int]bool
	// imagePlaneReady is set once the image plane vertices and camera textures exist.
	imagePlaneReady bool
	anchorPipelines map[anchor.Kind]string
	indexCounts     map[anchor.Kind]uint32
}

// planDraws turns a recorded frame into draw commands: the captured image first when it is
// ready, then one instanced draw per anchor range.
func planDraws(frame scene.Frame, st drawState) ([]drawCommand, error) {
	var cmds []drawCommand

	if groups, ok := st.pipelineGroups[pipeline.CapturedImagePipelineKey]; ok && st.imagePlaneReady {
		if err := checkGroups(pipeline.CapturedImagePipelineKey, groups, st.boundGroups); err != nil {
			return nil, err
		}
		cmds = append(cmds, drawCommand{
			pipelineKey:   pipeline.CapturedImagePipelineKey,
			groups:        groups,
			imagePlane:    true,
			instanceCount: 1,
		})
	}

	for _, d := range frame.Draws {
		if d.InstanceCount == 0 {
			continue
		}
		key, ok := st.anchorPipelines[d.Kind]
		if !ok {
			key = pipeline.AnchorGeometryPipelineKey
		}
		groups, ok := st.pipelineGroups[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s anchors", ErrPipelineNotRegistered, key, d.Kind)
		}
		if err := checkGroups(key, groups, st.boundGroups); err != nil {
			return nil, err
		}
		indexCount, ok := st.indexCounts[d.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: no mesh for %s anchors", ErrNotInitialized, d.Kind)
		}
		cmds = append(cmds, drawCommand{
			pipelineKey:   key,
			groups:        groups,
			kind:          d.Kind,
			indexCount:    indexCount,
			instanceCount: d.InstanceCount,
			firstInstance: d.FirstInstance,
		})
	}
	return cmds, nil
}

func checkGroups(key string, groups []int, bound map[int]bool) error {
	for _, g := range groups {
		if !bound[g] {
			return fmt.Errorf("%w: pipeline %q needs a bind group at group %d", ErrNotInitialized, key, g)
		}
	}
	return nil
}

// usedGroups returns 0 through the highest group either shader of p declares. A pipeline
// layout must be contiguous, so groups below the highest are included even when unused.
func usedGroups(p pipeline.Pipeline) []int {
	highest := -1
	for _, t := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(t)
		if s == nil {
			continue
		}
		for g := range s.BindGroupLayoutDescriptors() {
			highest = max(highest, g)
		}
	}
	groups := make([]int, 0, highest+1)
	for g := 0; g <= highest; g++ {
		groups = append(groups, g)
	}
	return groups
}
