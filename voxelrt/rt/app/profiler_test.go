package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerAveragesScopes(t *testing.T) {
	p := NewProfiler()
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	for _, d := range []time.Duration{2 * time.Millisecond, 4 * time.Millisecond} {
		p.BeginScope("draw")
		clock = clock.Add(d)
		p.EndScope("draw")
	}
	assert.Equal(t, 3*time.Millisecond, p.Average("draw"))

	p.EndScope("draw")
	assert.Equal(t, 3*time.Millisecond, p.Average("draw"), "end without begin is ignored")
	assert.Zero(t, p.Average("missing"))

	err := p.Time("pick", func() error {
		clock = clock.Add(time.Millisecond)
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, time.Millisecond, p.Average("pick"))

	p.SetCount("voxels", 12)
	lines := p.Lines()
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "draw")
	assert.Contains(t, lines[0], "3.00 ms")
	assert.Contains(t, lines[1], "pick")
	assert.Contains(t, lines[2], "12")
}

func TestProfilerWindow(t *testing.T) {
	p := NewProfiler()
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }
	for i := 0; i < profileWindow; i++ {
		p.BeginScope("s")
		clock = clock.Add(time.Second)
		p.EndScope("s")
	}
	for i := 0; i < profileWindow; i++ {
		p.BeginScope("s")
		p.EndScope("s")
	}
	assert.Zero(t, p.Average("s"), "old samples fall out of the window")
}
