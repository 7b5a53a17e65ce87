package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestThrottleCoalescesBursts(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	th := NewThrottle(10)
	th.now = clock.now

	assert.True(t, th.Trigger())
	clock.advance(20 * time.Millisecond)
	assert.False(t, th.Trigger())
	assert.False(t, th.Trigger())
	assert.True(t, th.Pending())
	assert.False(t, th.Flush())

	clock.advance(90 * time.Millisecond)
	assert.True(t, th.Flush())
	assert.False(t, th.Flush())
	assert.False(t, th.Pending())
}

func TestThrottleDefaultRate(t *testing.T) {
	th := NewThrottle(0)
	assert.Equal(t, time.Second/30, th.interval)
}

func TestControlClamp(t *testing.T) {
	c := ParameterControl{Min: 0, Max: 100, HasMin: true, HasMax: true}
	assert.Equal(t, 0.0, c.Clamp(-5))
	assert.Equal(t, 100.0, c.Clamp(150))
	assert.Equal(t, 42.0, c.Clamp(42))
	assert.Equal(t, 500.0, ParameterControl{}.Clamp(500))
}

func TestSnapshotLookup(t *testing.T) {
	s := ParameterSnapshot{Groups: []ParameterGroup{
		{Name: "A", Params: []Parameter{{Key: "a", Value: "1"}}},
		{Name: "B", Params: []Parameter{{Key: "b", Value: "2"}}},
	}}
	p, ok := s.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "2", p.Value)
	_, ok = s.Lookup("c")
	assert.False(t, ok)
}
