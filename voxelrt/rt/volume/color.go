package volume

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PackColor clamps each channel to [0,1] and packs it as RRGGBBAA.
func PackColor(c mgl32.Vec4) uint32 {
	r := uint32(mgl32.Clamp(c[0], 0, 1) * 255)
	g := uint32(mgl32.Clamp(c[1], 0, 1) * 255)
	b := uint32(mgl32.Clamp(c[2], 0, 1) * 255)
	a := uint32(mgl32.Clamp(c[3], 0, 1) * 255)
	return r<<24 | g<<16 | b<<8 | a
}

func UnpackColor(v uint32) mgl32.Vec4 {
	return mgl32.Vec4{
		float32((v>>24)&0xFF) / 255,
		float32((v>>16)&0xFF) / 255,
		float32((v>>8)&0xFF) / 255,
		float32(v&0xFF) / 255,
	}
}

// PackColors packs colors in order.
func PackColors(colors []mgl32.Vec4) []uint32 {
	out := make([]uint32, len(colors))
	for i, c := range colors {
		out[i] = PackColor(c)
	}
	return out
}
