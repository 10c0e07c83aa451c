package uniform_ring

import "go.uber.org/zap"

// RingBuilderOption is a functional option used to configure a Ring during construction.
type RingBuilderOption func(*ring)

// WithBuffersInFlight sets how many frames may be recorded before the GPU finishes the oldest.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the number of frame regions in each uniform buffer
//
// Returns:
//   - RingBuilderOption: a function that sets the frames in flight of the ring
func WithBuffersInFlight(n int) RingBuilderOption {
	return func(r *ring) {
		if n > 0 {
			r.buffersInFlight = n
		}
	}
}

// WithMaxInstanceCount sets how many InstanceUniforms each frame region holds.
// Values below 1 are ignored.
//
// Parameters:
//   - n: the instance capacity per frame
//
// Returns:
//   - RingBuilderOption: a function that sets the instance capacity of the ring
func WithMaxInstanceCount(n int) RingBuilderOption {
	return func(r *ring) {
		if n > 0 {
			r.maxInstances = n
		}
	}
}

// WithAlignment sets the byte alignment of every frame region, usually the device's
// minUniformBufferOffsetAlignment. Values that are not a power of two are ignored.
//
// Parameters:
//   - alignment: the region alignment in bytes
//
// Returns:
//   - RingBuilderOption: a function that sets the region alignment of the ring
func WithAlignment(alignment uint64) RingBuilderOption {
	return func(r *ring) {
		if alignment > 0 && alignment&(alignment-1) == 0 {
			r.alignment = alignment
		}
	}
}

// WithLogger sets the logger used for frame lifecycle debug output.
func WithLogger(l *zap.Logger) RingBuilderOption {
	return func(r *ring) {
		if l != nil {
			r.logger = l
		}
	}
}
