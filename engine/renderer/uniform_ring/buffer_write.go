package uniform_ring

import "github.com/Carmen-Shannon/oxy-ar/engine/contract"

// BufferWrite describes a single GPU buffer write operation targeting the buffer bound at a
// contract buffer slot, at a given byte offset.
type BufferWrite struct {
	Binding contract.BufferIndex
	Offset  uint64
	Data    []byte
}
