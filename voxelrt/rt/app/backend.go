package app

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/gldev"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/hostdev"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/wgpudev"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Backend is a device together with the surface it presents to.
type Backend interface {
	Name() string
	Device() gpu.Device
	Surface() gpu.Surface
	Present()
	Resize(width, height uint32)
	Release()
}

// WindowHints sets the GLFW hints a backend needs before the window exists.
func WindowHints(backend string) {
	switch backend {
	case BackendOpenGL:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 3)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}
}

// OpenBackend brings up the named device on window.
func OpenBackend(name string, window *glfw.Window) (Backend, error) {
	w, h := window.GetFramebufferSize()
	switch name {
	case BackendWebGPU:
		return openWebGPU(wgpuglfw.GetSurfaceDescriptor(window), uint32(w), uint32(h))
	case BackendOpenGL:
		window.MakeContextCurrent()
		glfw.SwapInterval(1)
		return openGL(uint32(w), uint32(h), window.SwapBuffers)
	case BackendHost:
		return NewHostBackend(uint32(w), uint32(h))
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

type webgpuBackend struct {
	ctx *wgpudev.Context
}

func openWebGPU(desc *wgpu.SurfaceDescriptor, w, h uint32) (*webgpuBackend, error) {
	ctx, err := wgpudev.Open(desc, w, h)
	if err != nil {
		return nil, err
	}
	return &webgpuBackend{ctx: ctx}, nil
}

func (b *webgpuBackend) Name() string                { return BackendWebGPU }
func (b *webgpuBackend) Device() gpu.Device          { return b.ctx.Device }
func (b *webgpuBackend) Surface() gpu.Surface        { return b.ctx.Surface }
func (b *webgpuBackend) Present()                    { b.ctx.Surface.Present() }
func (b *webgpuBackend) Resize(width, height uint32) { b.ctx.Surface.Resize(width, height) }
func (b *webgpuBackend) Release()                    { b.ctx.Release() }

type glBackend struct {
	dev     *gldev.Device
	surface *gldev.Surface
}

func openGL(w, h uint32, swap func()) (*glBackend, error) {
	dev, err := gldev.New()
	if err != nil {
		return nil, err
	}
	surface, err := gldev.NewSurface(w, h, swap)
	if err != nil {
		dev.Release()
		return nil, err
	}
	return &glBackend{dev: dev, surface: surface}, nil
}

func (b *glBackend) Name() string                { return BackendOpenGL + " " + b.dev.Version() }
func (b *glBackend) Device() gpu.Device          { return b.dev }
func (b *glBackend) Surface() gpu.Surface        { return b.surface }
func (b *glBackend) Present()                    { b.surface.Present() }
func (b *glBackend) Resize(width, height uint32) { b.surface.Resize(width, height) }
func (b *glBackend) Release()                    { b.dev.Release() }

// HostBackend renders nowhere. It records passes on a hostdev.Device.
type HostBackend struct {
	Dev     *hostdev.Device
	surface *hostdev.Surface
}

func NewHostBackend(w, h uint32) (*HostBackend, error) {
	dev := hostdev.New()
	surface, err := hostdev.NewSurface(dev, w, h)
	if err != nil {
		return nil, err
	}
	return &HostBackend{Dev: dev, surface: surface}, nil
}

func (b *HostBackend) Name() string         { return BackendHost }
func (b *HostBackend) Device() gpu.Device   { return b.Dev }
func (b *HostBackend) Surface() gpu.Surface { return b.surface }
func (b *HostBackend) Present()             {}
func (b *HostBackend) Release()             {}

func (b *HostBackend) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if s, err := hostdev.NewSurface(b.Dev, width, height); err == nil {
		b.surface.Target.Release()
		b.surface = s
	}
}
