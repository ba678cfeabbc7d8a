package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPackColorKnownValues(t *testing.T) {
	assert.Equal(t, uint32(0xFF0000FF), PackColor(mgl32.Vec4{1, 0, 0, 1}))
	assert.Equal(t, uint32(0x00FF00FF), PackColor(mgl32.Vec4{0, 1, 0, 1}))
	assert.Equal(t, uint32(0), PackColor(mgl32.Vec4{}))
	assert.Equal(t, uint32(0xFFFFFFFF), PackColor(mgl32.Vec4{1, 1, 1, 1}))
}

func TestPackColorClamps(t *testing.T) {
	for ch := 0; ch < 4; ch++ {
		low := mgl32.Vec4{0.5, 0.5, 0.5, 0.5}
		low[ch] = -3
		high := mgl32.Vec4{0.5, 0.5, 0.5, 0.5}
		high[ch] = 7

		shift := uint(24 - 8*ch)
		assert.Equal(t, uint32(0), (PackColor(low)>>shift)&0xFF, "channel %d low", ch)
		assert.Equal(t, uint32(255), (PackColor(high)>>shift)&0xFF, "channel %d high", ch)

		// The other channels are unaffected.
		assert.Equal(t, uint32(127), (PackColor(low)>>uint(24-8*((ch+1)%4)))&0xFF)
	}
}

func TestColorRoundTripQuantized(t *testing.T) {
	const step = 1.0 / 255.0
	for i := 0; i <= 1000; i++ {
		v := float32(i) / 1000
		c := mgl32.Vec4{v, 1 - v, v * v, 0.5}
		got := UnpackColor(PackColor(c))
		for ch := 0; ch < 4; ch++ {
			assert.InDelta(t, c[ch], got[ch], step+1e-6, "value %v channel %d", v, ch)
		}
		assert.Equal(t, PackColor(c), PackColor(got), "pack(unpack(pack)) for %v", c)
	}
}

func TestPackColors(t *testing.T) {
	got := PackColors([]mgl32.Vec4{{1, 0, 0, 1}, {0, 0, 1, 1}})
	assert.Equal(t, []uint32{0xFF0000FF, 0x0000FFFF}, got)
}
