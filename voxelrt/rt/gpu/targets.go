package gpu

import (
	"fmt"
)

const (
	DefaultWidth  = 1080
	DefaultHeight = 1024
)

// FrameTargets are the off-screen images of one frame: the primary pass
// output (color, bloom source, depth) and the two bloom ping-pong images.
type FrameTargets struct {
	dev    Device
	Width  uint32
	Height uint32

	Color    Texture
	Bright   Texture
	Depth    Texture
	PingPong [2]Texture
}

func NewFrameTargets(dev Device, width, height uint32) (*FrameTargets, error) {
	t := &FrameTargets{dev: dev}
	if err := t.Resize(width, height); err != nil {
		return nil, err
	}
	return t, nil
}

// Resize reallocates every target at the new size.
func (t *FrameTargets) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	t.Release()

	specs := []struct {
		dst    *Texture
		label  string
		format TextureFormat
	}{
		{&t.Color, "primary-color", FormatRGBA16Float},
		{&t.Bright, "primary-bright", FormatRGBA16Float},
		{&t.Depth, "primary-depth", FormatDepth32Float},
		{&t.PingPong[0], "pingpong-0", FormatRGBA16Float},
		{&t.PingPong[1], "pingpong-1", FormatRGBA16Float},
	}
	for _, s := range specs {
		tex, err := t.dev.CreateTexture(TextureDesc{Label: s.label, Width: width, Height: height, Format: s.format})
		if err != nil {
			t.Release()
			return fmt.Errorf("create %s: %w", s.label, err)
		}
		*s.dst = tex
	}
	t.Width, t.Height = width, height
	return nil
}

func (t *FrameTargets) Release() {
	for _, tex := range []*Texture{&t.Color, &t.Bright, &t.Depth, &t.PingPong[0], &t.PingPong[1]} {
		if *tex != nil {
			(*tex).Release()
			*tex = nil
		}
	}
}
