// Package uniform_ring stages per-frame uniform data for several frames in flight. Each uniform
// buffer is split into one aligned region per frame; the CPU writes region N while the GPU
// still reads the others, and a weighted semaphore keeps the CPU from lapping the GPU.
package uniform_ring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// MaxBuffersInFlight is the default number of frames the CPU may run ahead of the GPU.
	MaxBuffersInFlight = 3

	// MaxInstanceCount is the default number of anchor instances drawn per frame.
	MaxInstanceCount = 64

	// UniformAlignment is the default alignment of each frame region, the WebGPU default
	// minUniformBufferOffsetAlignment and minStorageBufferOffsetAlignment.
	UniformAlignment uint64 = 256

	// AlignedSharedUniformsSize is the region size of one frame of SharedUniforms.
	AlignedSharedUniformsSize = (contract.SharedUniformsSize + UniformAlignment - 1) &^ (UniformAlignment - 1)

	// AlignedInstanceUniformsSize is the region size of one frame of MaxInstanceCount InstanceUniforms.
	AlignedInstanceUniformsSize = (contract.InstanceUniformsSize*MaxInstanceCount + UniformAlignment - 1) &^ (UniformAlignment - 1)
)

var (
	// ErrFrameNotStarted is returned when frame data is written or collected outside Begin/Writes.
	ErrFrameNotStarted = errors.New("uniform ring: frame not started")

	// ErrFrameInProgress is returned by Begin while the previous frame is still being recorded.
	ErrFrameInProgress = errors.New("uniform ring: frame already in progress")

	// ErrInstanceOutOfRange is returned for an instance index outside [0, max instance count).
	ErrInstanceOutOfRange = errors.New("uniform ring: instance index out of range")

	// ErrNoFrameInFlight is returned by End when every acquired frame has already been released.
	ErrNoFrameInFlight = errors.New("uniform ring: no frame in flight")
)

// ring is the implementation of the Ring interface.
type ring struct {
	buffersInFlight int
	maxInstances    int
	alignment       uint64
	logger          *zap.Logger

	sem *semaphore.Weighted

	mu        sync.Mutex
	frame     uint64
	index     int
	recording bool
	// beginning is set while a Begin waits for a free region.
	beginning bool
	inFlight  int

	shared        []byte
	sharedWritten bool
	instances     []byte
	instanceCount int
}

// Ring hands out uniform buffer regions to frames. A frame is recorded between Begin and
// Writes; End is called once the GPU has consumed a submitted frame, typically from the
// queue's work-done callback.
type Ring interface {
	// Begin waits for a free frame region and starts recording into it.
	//
	// Parameters:
	//   - ctx: cancels the wait while every region is still in use by the GPU
	//
	// Returns:
	//   - error: ctx.Err() if the wait was cancelled, or ErrFrameInProgress while
	//     another frame is recording or another Begin is waiting
	Begin(ctx context.Context) error

	// WriteShared stages the SharedUniforms of the current frame.
	//
	// Parameters:
	//   - u: the frame's camera and lighting uniforms
	//
	// Returns:
	//   - error: ErrFrameNotStarted outside a frame
	WriteShared(u contract.SharedUniforms) error

	// WriteInstance stages the InstanceUniforms of instance i of the current frame.
	//
	// Parameters:
	//   - i: the instance index, also the shader's instance_index
	//   - u: the instance's model matrix
	//
	// Returns:
	//   - error: ErrFrameNotStarted outside a frame, ErrInstanceOutOfRange for a bad index
	WriteInstance(i int, u contract.InstanceUniforms) error

	// Writes ends recording and returns the buffer writes of the current frame: the shared
	// region if WriteShared was called, and the instance region up to InstanceCount.
	//
	// Returns:
	//   - []BufferWrite: writes ordered by binding
	//   - error: ErrFrameNotStarted outside a frame
	Writes() ([]BufferWrite, error)

	// End releases the oldest submitted frame region for reuse.
	//
	// Returns:
	//   - error: ErrNoFrameInFlight if no frame is outstanding
	End() error

	// Index returns the frame region of the most recent Begin.
	Index() int

	// InstanceCount returns one past the highest instance index written in the current frame.
	InstanceCount() int

	// MaxInstanceCount returns the number of instances a frame region holds.
	MaxInstanceCount() int

	// SharedOffset returns the byte offset of the current frame's SharedUniforms region.
	SharedOffset() uint64

	// InstanceOffset returns the byte offset of the current frame's InstanceUniforms region.
	InstanceOffset() uint64

	// DynamicOffsets returns the offsets to pass to SetBindGroup for the uniform group, in
	// binding order: instance uniforms then shared uniforms.
	DynamicOffsets() []uint32

	// SharedBufferSize returns the byte size the shared uniform buffer must be created with.
	SharedBufferSize() uint64

	// InstanceBufferSize returns the byte size the instance uniform buffer must be created with.
	InstanceBufferSize() uint64
}

var _ Ring = &ring{}

// NewRing creates a Ring with MaxBuffersInFlight regions of MaxInstanceCount instances,
// aligned to UniformAlignment, unless overridden by options.
//
// Parameters:
//   - opts: a variadic list of RingBuilderOption functions to configure the ring
//
// Returns:
//   - Ring: a ring with no frame in flight
func NewRing(opts ...RingBuilderOption) Ring {
	r := &ring{
		buffersInFlight: MaxBuffersInFlight,
		maxInstances:    MaxInstanceCount,
		alignment:       UniformAlignment,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sem = semaphore.NewWeighted(int64(r.buffersInFlight))
	r.shared = make([]byte, contract.SharedUniformsSize)
	r.instances = make([]byte, contract.InstanceUniformsSize*uint64(r.maxInstances))
	return r
}

func (r *ring) Begin(ctx context.Context) error {
	r.mu.Lock()
	if r.recording || r.beginning {
		r.mu.Unlock()
		return ErrFrameInProgress
	}
	r.beginning = true
	r.mu.Unlock()

	err := r.sem.Acquire(ctx, 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.beginning = false
	if err != nil {
		return fmt.Errorf("uniform ring: wait for frame: %w", err)
	}
	r.index = int(r.frame % uint64(r.buffersInFlight))
	r.frame++
	r.inFlight++
	r.recording = true
	r.sharedWritten = false
	r.instanceCount = 0
	clear(r.shared)
	clear(r.instances)

	r.logger.Debug("begin frame",
		zap.Uint64("frame", r.frame),
		zap.Int("index", r.index),
		zap.Int("in_flight", r.inFlight))
	return nil
}

func (r *ring) WriteShared(u contract.SharedUniforms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return ErrFrameNotStarted
	}
	if err := u.MarshalTo(r.shared); err != nil {
		return err
	}
	r.sharedWritten = true
	return nil
}

func (r *ring) WriteInstance(i int, u contract.InstanceUniforms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return ErrFrameNotStarted
	}
	if i < 0 || i >= r.maxInstances {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInstanceOutOfRange, i, r.maxInstances)
	}
	if err := contract.PutInstanceUniforms(r.instances, i, u); err != nil {
		return err
	}
	r.instanceCount = max(r.instanceCount, i+1)
	return nil
}

func (r *ring) Writes() ([]BufferWrite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil, ErrFrameNotStarted
	}
	r.recording = false

	writes := make([]BufferWrite, 0, 2)
	if r.instanceCount > 0 {
		data := make([]byte, contract.InstanceUniformsSize*uint64(r.instanceCount))
		copy(data, r.instances)
		writes = append(writes, BufferWrite{
			Binding: contract.BufferIndexInstanceUniforms,
			Offset:  r.instanceOffset(),
			Data:    data,
		})
	}
	if r.sharedWritten {
		writes = append(writes, BufferWrite{
			Binding: contract.BufferIndexSharedUniforms,
			Offset:  r.sharedOffset(),
			Data:    append([]byte(nil), r.shared...),
		})
	}
	return writes, nil
}

func (r *ring) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight == 0 {
		return ErrNoFrameInFlight
	}
	r.inFlight--
	r.sem.Release(1)
	return nil
}

func (r *ring) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

func (r *ring) InstanceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instanceCount
}

func (r *ring) MaxInstanceCount() int {
	return r.maxInstances
}

func (r *ring) SharedOffset() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sharedOffset()
}

func (r *ring) InstanceOffset() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instanceOffset()
}

func (r *ring) DynamicOffsets() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return []uint32{uint32(r.instanceOffset()), uint32(r.sharedOffset())}
}

func (r *ring) SharedBufferSize() uint64 {
	return r.sharedRegion() * uint64(r.buffersInFlight)
}

func (r *ring) InstanceBufferSize() uint64 {
	return r.instanceRegion() * uint64(r.buffersInFlight)
}

func (r *ring) sharedRegion() uint64 {
	return alignUp(contract.SharedUniformsSize, r.alignment)
}

func (r *ring) instanceRegion() uint64 {
	return alignUp(contract.InstanceUniformsSize*uint64(r.maxInstances), r.alignment)
}

func (r *ring) sharedOffset() uint64 {
	return r.sharedRegion() * uint64(r.index)
}

func (r *ring) instanceOffset() uint64 {
	return r.instanceRegion() * uint64(r.index)
}

// alignUp rounds size up to a multiple of the power-of-two alignment.
func alignUp(size, alignment uint64) uint64 {
	return (size + alignment - 1) &^ (alignment - 1)
}
