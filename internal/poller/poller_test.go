package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(gate *atomic.Bool, interval time.Duration) (*Poller, *atomic.Int32) {
	var n atomic.Int32
	p := &Poller{
		Name:     "test",
		Interval: interval,
		Gate:     gate.Load,
		Fetch:    func(context.Context) { n.Add(1) },
	}
	return p, &n
}

func TestClosedGateFetchesOnce(t *testing.T) {
	var gate atomic.Bool
	p, n := counting(&gate, 5*time.Millisecond)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestOpenGateTicks(t *testing.T) {
	var gate atomic.Bool
	gate.Store(true)
	p, n := counting(&gate, 5*time.Millisecond)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return n.Load() >= 4 }, time.Second, time.Millisecond)
}

func TestNotifyStartsAndStopsTicking(t *testing.T) {
	var gate atomic.Bool
	p, n := counting(&gate, 5*time.Millisecond)
	p.Start(context.Background())
	defer p.Stop()
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	gate.Store(true)
	p.Notify()
	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	gate.Store(false)
	p.Notify()
	time.Sleep(20 * time.Millisecond)
	settled := n.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, n.Load())
}

func TestStopEndsLoop(t *testing.T) {
	var gate atomic.Bool
	gate.Store(true)
	p, n := counting(&gate, 5*time.Millisecond)
	p.Start(context.Background())
	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())

	p.Stop()
	p.Notify()
}

func TestStopCancelsInflightFetch(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	p := &Poller{
		Name:     "slow",
		Interval: time.Hour,
		Fetch: func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
		},
	}
	p.Start(context.Background())
	<-started
	p.Stop()
	assert.True(t, cancelled.Load())
}

func TestRestartAfterStop(t *testing.T) {
	var gate atomic.Bool
	p, n := counting(&gate, time.Hour)
	p.Start(context.Background())
	p.Start(context.Background())
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)
	p.Stop()

	p.Start(context.Background())
	defer p.Stop()
	require.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, time.Millisecond)
	assert.True(t, p.Running())
}

func TestFetchPanicIsContained(t *testing.T) {
	p := &Poller{Name: "boom", Interval: time.Hour, Fetch: func(context.Context) { panic("bad payload") }}
	p.Start(context.Background())
	p.Stop()
}

func TestSlotDiscardsStaleResponses(t *testing.T) {
	var s Slot[string]
	_, ok := s.Get()
	assert.False(t, ok)

	first := s.Begin()
	second := s.Begin()
	assert.True(t, s.Apply(second, "new"))
	assert.False(t, s.Apply(first, "old"))

	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.False(t, s.UpdatedAt().IsZero())
}

func TestSlotRejectsUnissuedSequence(t *testing.T) {
	var s Slot[int]
	assert.False(t, s.Apply(1, 1))
	seq := s.Begin()
	assert.True(t, s.Apply(seq, 1))
	assert.False(t, s.Apply(seq, 2))
}

func TestSlotResetInvalidatesInflight(t *testing.T) {
	var s Slot[int]
	seq := s.Begin()
	require.True(t, s.Apply(seq, 7))

	pending := s.Begin()
	s.Reset()
	assert.False(t, s.Apply(pending, 9))
	_, ok := s.Get()
	assert.False(t, ok)

	assert.True(t, s.Apply(s.Begin(), 10))
	v, _ := s.Get()
	assert.Equal(t, 10, v)
}
