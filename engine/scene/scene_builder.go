package scene

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/anchor"
	"go.uber.org/zap"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithAnchors adds initial anchors to the scene in the given order.
//
// Parameters:
//   - anchors: the anchors to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAnchors(anchors ...anchor.Anchor) SceneBuilderOption {
	return func(s *scene) {
		for _, a := range anchors {
			s.add(a)
		}
	}
}

// WithLogger sets the logger frame preparation is reported to. Nil is ignored.
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
