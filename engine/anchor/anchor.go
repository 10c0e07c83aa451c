package anchor

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/go-gl/mathgl/mgl32"
)

// anchorCount generates IDs for anchors built without WithID.
var anchorCount atomic.Uint64

// Kind selects the geometry an anchor is drawn with.
type Kind uint32

const (
	// KindGeometry anchors are drawn with the anchor mesh, a unit cube by default.
	KindGeometry Kind = iota
	// KindPlane anchors are detected surfaces, drawn with the plane mesh lying in their XZ plane.
	KindPlane
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindPlane:
		return "plane"
	default:
		return "unknown"
	}
}

// coordinateSpaceTransform flips Z to take right-handed tracker geometry into the
// left-handed space the meshes are authored in.
var coordinateSpaceTransform = mgl32.Scale3D(1, 1, -1)

// planeRotation stands plane meshes, authored in XY, onto the anchor's XZ plane.
var planeRotation = mgl32.HomogRotate3DZ(mgl32.DegToRad(90))

type anchor struct {
	id      uint64
	kind    Kind
	enabled atomic.Bool

	mu        sync.Mutex
	transform mgl32.Mat4
}

// Anchor is a tracked position in the world that an instance of geometry is drawn at.
type Anchor interface {
	// ID returns the anchor's unique identifier.
	//
	// Returns:
	//   - uint64: the anchor ID
	ID() uint64

	// Kind returns the geometry the anchor is drawn with.
	Kind() Kind

	// Enabled returns whether this anchor is drawn.
	Enabled() bool

	// Transform returns the anchor-to-world transform reported by the tracker.
	Transform() mgl32.Mat4

	// ModelMatrix returns the transform the anchor's mesh is drawn with: Transform with
	// the Z flip applied, and for planes the rotation onto the XZ plane.
	//
	// Returns:
	//   - mgl32.Mat4: the model matrix, column-major
	ModelMatrix() mgl32.Mat4

	// InstanceUniforms returns the per-instance block for this anchor.
	InstanceUniforms() contract.InstanceUniforms

	// SetEnabled sets whether this anchor is drawn.
	SetEnabled(enabled bool)

	// SetTransform replaces the anchor-to-world transform, typically on a tracker update.
	//
	// Parameters:
	//   - transform: the new transform, column-major
	SetTransform(transform mgl32.Mat4)
}

var _ Anchor = &anchor{}

// NewAnchor creates an enabled geometry anchor at the world origin.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Anchor: the configured anchor
func NewAnchor(options ...AnchorBuilderOption) Anchor {
	a := &anchor{
		id:        anchorCount.Add(1),
		kind:      KindGeometry,
		transform: mgl32.Ident4(),
	}
	a.enabled.Store(true)
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *anchor) ID() uint64 {
	return a.id
}

func (a *anchor) Kind() Kind {
	return a.kind
}

func (a *anchor) Enabled() bool {
	return a.enabled.Load()
}

func (a *anchor) Transform() mgl32.Mat4 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transform
}

func (a *anchor) ModelMatrix() mgl32.Mat4 {
	t := a.Transform()
	if a.kind == KindPlane {
		return t.Mul4(planeRotation.Mul4(coordinateSpaceTransform))
	}
	return t.Mul4(coordinateSpaceTransform)
}

func (a *anchor) InstanceUniforms() contract.InstanceUniforms {
	return contract.InstanceUniforms{ModelMatrix: a.ModelMatrix()}
}

func (a *anchor) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

func (a *anchor) SetTransform(transform mgl32.Mat4) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transform = transform
}
