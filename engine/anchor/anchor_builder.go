package anchor

import "github.com/go-gl/mathgl/mgl32"

// AnchorBuilderOption is a functional option for configuring an Anchor during construction.
type AnchorBuilderOption func(*anchor)

// WithID sets the ID of the Anchor, usually the tracker's identifier.
//
// Parameters:
//   - id: unique identifier for the Anchor
//
// Returns:
//   - AnchorBuilderOption: functional option to set the ID
func WithID(id uint64) AnchorBuilderOption {
	return func(a *anchor) {
		a.id = id
	}
}

// WithKind sets the geometry the Anchor is drawn with.
func WithKind(kind Kind) AnchorBuilderOption {
	return func(a *anchor) {
		a.kind = kind
	}
}

// WithTransform sets the initial anchor-to-world transform.
//
// Parameters:
//   - transform: the tracked transform, column-major
//
// Returns:
//   - AnchorBuilderOption: functional option to set the transform
func WithTransform(transform mgl32.Mat4) AnchorBuilderOption {
	return func(a *anchor) {
		a.transform = transform
	}
}

// WithEnabled sets whether the Anchor is drawn.
func WithEnabled(enabled bool) AnchorBuilderOption {
	return func(a *anchor) {
		a.enabled.Store(enabled)
	}
}
