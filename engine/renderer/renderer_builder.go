package renderer

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/anchor"
	"github.com/Carmen-Shannon/oxy-ar/engine/profiler"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger GPU resource creation is reported to. Nil is ignored.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProfiler ticks p once per rendered frame.
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}

// WithClearColor sets the color the target is cleared to before the captured image is drawn.
// Defaults to opaque black.
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithAnchorPipeline draws anchors of one kind with the pipeline registered under key instead
// of the anchor geometry pipeline.
//
// Parameters:
//   - kind: the anchor kind
//   - key: the PipelineKey of a pipeline passed to RegisterPipelines
//
// Returns:
//   - RendererBuilderOption: a function that applies the anchor pipeline option to a renderer
func WithAnchorPipeline(kind anchor.Kind, key string) RendererBuilderOption {
	return func(r *renderer) {
		r.anchorPipelines[kind] = key
	}
}
