package wgpudev

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context is an adapter, device and configured surface brought up together.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *Device
	Surface  *Surface
}

// Open creates a device that presents to the surface described by desc.
func Open(desc *wgpu.SurfaceDescriptor, width, height uint32) (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(desc)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpudev: request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpudev: request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return nil, fmt.Errorf("wgpudev: surface reports no formats")
	}
	s := &Surface{
		surface: surface,
		adapter: adapter,
		device:  device,
		config: &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      caps.Formats[0],
			Width:       width,
			Height:      height,
			PresentMode: wgpu.PresentModeFifo,
			AlphaMode:   caps.AlphaModes[0],
		},
		Clear: [4]float64{0, 0, 0, 1},
	}
	surface.Configure(adapter, device, s.config)

	return &Context{
		Instance: instance,
		Adapter:  adapter,
		Device:   New(device, caps.Formats[0]),
		Surface:  s,
	}, nil
}

// Surface is the swap chain of a window.
type Surface struct {
	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device
	config  *wgpu.SurfaceConfiguration
	current *Texture
	Clear   [4]float64
}

func (s *Surface) ClearColor() [4]float64 { return s.Clear }

func (s *Surface) CurrentTarget() (gpu.Texture, error) {
	if s.current != nil {
		return s.current, nil
	}
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("wgpudev: acquire surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("wgpudev: surface view: %w", err)
	}
	s.current = &Texture{
		desc: gpu.TextureDesc{Label: "surface", Width: s.config.Width, Height: s.config.Height, Format: gpu.FormatSurface},
		tex:  tex,
		view: view,
	}
	return s.current, nil
}

// Present shows the acquired target and drops it.
func (s *Surface) Present() {
	if s.current == nil {
		return
	}
	s.surface.Present()
	s.current.Release()
	s.current = nil
}

func (s *Surface) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
	s.config.Width = width
	s.config.Height = height
	s.surface.Configure(s.adapter, s.device, s.config)
}

func (s *Surface) Size() (uint32, uint32) { return s.config.Width, s.config.Height }

func (c *Context) Release() {
	if c.Surface != nil && c.Surface.current != nil {
		c.Surface.current.Release()
		c.Surface.current = nil
	}
	if c.Surface != nil {
		c.Surface.surface.Release()
	}
	if c.Device != nil {
		c.Device.device.Release()
	}
	if c.Adapter != nil {
		c.Adapter.Release()
	}
	if c.Instance != nil {
		c.Instance.Release()
	}
}
