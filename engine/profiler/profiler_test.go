package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickReportsPerInterval(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewProfiler(zap.New(core), 100*time.Millisecond)

	clock := p.lastTime
	p.now = func() time.Time { return clock }

	for range 4 {
		clock = clock.Add(20 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock = clock.Add(20 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.Equal(t, 5, s.Frames)
	assert.InDelta(t, 50, s.FPS, 1e-9)
	assert.Positive(t, s.SysMB)

	entries := logs.FilterMessage("frame stats").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 5, entries[0].ContextMap()["frames"])

	clock = clock.Add(10 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestNewProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0)
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
	assert.False(t, p.Tick())
}
