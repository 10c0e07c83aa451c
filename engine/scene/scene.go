package scene

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/engine/anchor"
	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/uniform_ring"
	"go.uber.org/zap"
)

// DrawRange is one instanced draw of a frame. FirstInstance is passed as the draw's first
// instance so the shader's instance_index addresses the frame's instance array directly.
type DrawRange struct {
	Kind          anchor.Kind
	FirstInstance uint32
	InstanceCount uint32
}

// Frame is everything the command encoder needs to draw one recorded frame.
type Frame struct {
	// Index is the uniform ring region the frame was recorded into.
	Index int
	// Writes are the queue buffer writes of the frame, ordered by binding.
	Writes []uniform_ring.BufferWrite
	// DynamicOffsets are passed to SetBindGroup for the uniform group.
	DynamicOffsets []uint32
	// Draws lists the instanced draws, geometry anchors first. Kinds with no visible
	// anchors are omitted.
	Draws []DrawRange
}

type scene struct {
	mu *sync.RWMutex

	name   string
	cam    camera.Camera
	ring   uniform_ring.Ring
	logger *zap.Logger

	// order keeps anchor IDs in insertion order; newer anchors win when a kind is over capacity.
	order    []uint64
	registry map[uint64]anchor.Anchor
}

// Scene owns the camera and tracked anchors of an AR session and records them into a
// uniform ring once per frame.
type Scene interface {
	// Name returns the scene name.
	Name() string

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Ring returns the uniform ring frames are recorded into.
	Ring() uniform_ring.Ring

	// Add registers an anchor, replacing any anchor with the same ID in place.
	//
	// Parameters:
	//   - a: the anchor to add
	//
	// Returns:
	//   - uint64: the anchor ID
	Add(a anchor.Anchor) uint64

	// Get returns the anchor with the given ID, or nil.
	Get(id uint64) anchor.Anchor

	// Remove unregisters the anchor with the given ID. Unknown IDs are ignored.
	Remove(id uint64)

	// Clear unregisters every anchor.
	Clear()

	// Count returns the number of registered anchors.
	Count() int

	// Visible returns the enabled anchors of a kind in insertion order, keeping only the
	// newest limit of them.
	//
	// Parameters:
	//   - kind: the anchor kind to select
	//   - limit: the maximum number of anchors returned; negative means no limit
	//
	// Returns:
	//   - []anchor.Anchor: the selected anchors, oldest first
	Visible(kind anchor.Kind, limit int) []anchor.Anchor

	// PrepareFrame waits for a free ring region and records the camera's SharedUniforms and
	// the InstanceUniforms of every visible anchor into it. Geometry anchors take the front
	// of the instance array; plane anchors fill the capacity that remains.
	//
	// Parameters:
	//   - ctx: cancels the wait for a free region
	//
	// Returns:
	//   - Frame: the recorded frame
	//   - error: an error from the ring
	PrepareFrame(ctx context.Context) (Frame, error)

	// EndFrame releases the region of the oldest prepared frame once the GPU is done with it.
	EndFrame() error
}

var _ Scene = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the scene name, used in logs
//   - cam: the scene camera
//   - r: the uniform ring frames are recorded into
//   - options: functional options applied in order
//
// Returns:
//   - Scene: the configured scene
func NewScene(name string, cam camera.Camera, r uniform_ring.Ring, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		cam:      cam,
		ring:     r,
		logger:   zap.NewNop(),
		registry: make(map[uint64]anchor.Anchor),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Ring() uniform_ring.Ring {
	return s.ring
}

func (s *scene) Add(a anchor.Anchor) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(a)
	return a.ID()
}

// add registers a. Caller must hold s.mu write lock.
func (s *scene) add(a anchor.Anchor) {
	if _, ok := s.registry[a.ID()]; !ok {
		s.order = append(s.order, a.ID())
	}
	s.registry[a.ID()] = a
}

func (s *scene) Get(id uint64) anchor.Anchor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[id]; !ok {
		return
	}
	delete(s.registry, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	clear(s.registry)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Visible(kind anchor.Kind, limit int) []anchor.Anchor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []anchor.Anchor
	for _, id := range s.order {
		a := s.registry[id]
		if a.Kind() == kind && a.Enabled() {
			out = append(out, a)
		}
	}
	if limit >= 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (s *scene) PrepareFrame(ctx context.Context) (Frame, error) {
	if err := s.ring.Begin(ctx); err != nil {
		return Frame{}, fmt.Errorf("scene %s: %w", s.name, err)
	}

	if err := s.ring.WriteShared(s.cam.SharedUniforms()); err != nil {
		return Frame{}, s.abort(err)
	}

	capacity := s.ring.MaxInstanceCount()
	frame := Frame{Index: s.ring.Index()}
	next := 0
	for _, kind := range []anchor.Kind{anchor.KindGeometry, anchor.KindPlane} {
		visible := s.Visible(kind, capacity-next)
		if len(visible) == 0 {
			continue
		}
		for i, a := range visible {
			if err := s.ring.WriteInstance(next+i, a.InstanceUniforms()); err != nil {
				return Frame{}, s.abort(fmt.Errorf("%s anchor %d: %w", kind, a.ID(), err))
			}
		}
		frame.Draws = append(frame.Draws, DrawRange{
			Kind:          kind,
			FirstInstance: uint32(next),
			InstanceCount: uint32(len(visible)),
		})
		next += len(visible)
	}

	writes, err := s.ring.Writes()
	if err != nil {
		return Frame{}, s.abort(err)
	}
	frame.Writes = writes
	frame.DynamicOffsets = s.ring.DynamicOffsets()

	s.logger.Debug("prepared frame",
		zap.String("scene", s.name),
		zap.Int("region", frame.Index),
		zap.Int("instances", next),
		zap.Int("draws", len(frame.Draws)))
	return frame, nil
}

// abort ends recording and releases the region of a frame that failed to record.
func (s *scene) abort(err error) error {
	_, _ = s.ring.Writes()
	_ = s.ring.End()
	s.logger.Warn("dropped frame", zap.String("scene", s.name), zap.Error(err))
	return fmt.Errorf("scene %s: %w", s.name, err)
}

func (s *scene) EndFrame() error {
	return s.ring.End()
}
