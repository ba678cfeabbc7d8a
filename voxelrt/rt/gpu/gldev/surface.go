package gldev

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
)

// Surface presents through the default framebuffer of the current context.
// swap is typically the window's SwapBuffers.
type Surface struct {
	target *Texture
	swap   func()
	Clear  [4]float64
}

func NewSurface(width, height uint32, swap func()) (*Surface, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", gpu.ErrInvalidSize, width, height)
	}
	return &Surface{
		target: &Texture{
			desc:        gpu.TextureDesc{Label: "surface", Width: width, Height: height, Format: gpu.FormatSurface},
			framebuffer: true,
		},
		swap:  swap,
		Clear: [4]float64{0, 0, 0, 1},
	}, nil
}

func (s *Surface) ClearColor() [4]float64 { return s.Clear }

func (s *Surface) CurrentTarget() (gpu.Texture, error) { return s.target, nil }

func (s *Surface) Present() {
	if s.swap != nil {
		s.swap()
	}
}

// Resize follows the window's framebuffer size. Zero sizes are ignored.
func (s *Surface) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	s.target.desc.Width = width
	s.target.desc.Height = height
}

func (s *Surface) Size() (uint32, uint32) { return s.target.desc.Width, s.target.desc.Height }
