// Package gldev implements the gpu device contract on OpenGL 4.3 core. Every
// call must come from the goroutine that owns the current GL context.
package gldev

import (
	"errors"
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/go-gl/gl/v4.3-core/gl"
)

var ErrReleased = errors.New("gldev: resource used after release")

type Buffer struct {
	label  string
	id     uint32
	target uint32
	size   uint64
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return b.size }

func (b *Buffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// Texture is a 2D texture, or the default framebuffer when it belongs to a
// Surface.
type Texture struct {
	desc        gpu.TextureDesc
	id          uint32
	framebuffer bool
	released    bool
}

func (t *Texture) Label() string             { return t.desc.Label }
func (t *Texture) Width() uint32             { return t.desc.Width }
func (t *Texture) Height() uint32            { return t.desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }

func (t *Texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
	t.released = true
}

func (t *Texture) usable() bool { return !t.released && (t.framebuffer || t.id != 0) }

type Device struct {
	vao     uint32
	version string
}

// New loads the GL entry points of the current context and checks that it
// provides compute shaders.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gldev: init: %w", err)
	}
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 3) {
		return nil, fmt.Errorf("gldev: OpenGL %d.%d lacks compute shaders, need 4.3", major, minor)
	}
	d := &Device{version: gl.GoStr(gl.GetString(gl.VERSION))}
	// Core profiles refuse to draw without a bound vertex array, even when
	// every vertex is generated from gl_VertexID.
	gl.GenVertexArrays(1, &d.vao)
	return d, nil
}

func (d *Device) Name() string { return "opengl" }

// Version is the driver's GL_VERSION string.
func (d *Device) Version() string { return d.version }

func (d *Device) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func bufferTarget(u gpu.BufferUsage) uint32 {
	if u == gpu.UsageUniform {
		return gl.UNIFORM_BUFFER
	}
	return gl.SHADER_STORAGE_BUFFER
}

func (d *Device) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if size == 0 || size%4 != 0 {
		return nil, fmt.Errorf("gldev: buffer %q size %d must be a positive multiple of 4", label, size)
	}
	b := &Buffer{label: label, target: bufferTarget(usage), size: size}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(b.target, b.id)
	gl.BufferData(b.target, int(size), nil, gl.DYNAMIC_DRAW)
	gl.ClearBufferData(b.target, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)
	gl.BindBuffer(b.target, 0)
	if err := glError("create buffer " + label); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (d *Device) buffer(b gpu.Buffer) (*Buffer, error) {
	gb, ok := b.(*Buffer)
	if !ok || gb == nil {
		return nil, fmt.Errorf("gldev: foreign buffer %T", b)
	}
	if gb.id == 0 {
		return nil, fmt.Errorf("%w: buffer %q", ErrReleased, gb.label)
	}
	return gb, nil
}

func checkRange(op string, b *Buffer, offset, size uint64) error {
	if offset%4 != 0 || size%4 != 0 {
		return fmt.Errorf("gldev: unaligned %s %d+%d on %q", op, offset, size, b.label)
	}
	if offset+size > b.size {
		return fmt.Errorf("%w: %s %d+%d on %q of %d", gpu.ErrOutOfRange, op, offset, size, b.label, b.size)
	}
	return nil
}

func (d *Device) WriteBuffer(b gpu.Buffer, offset uint64, data []byte) error {
	gb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if err := checkRange("write", gb, offset, uint64(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gb.target, gb.id)
	gl.BufferSubData(gb.target, int(offset), len(data), gl.Ptr(data))
	gl.BindBuffer(gb.target, 0)
	return nil
}

func (d *Device) ReadBuffer(b gpu.Buffer, offset, size uint64) ([]byte, error) {
	gb, err := d.buffer(b)
	if err != nil {
		return nil, err
	}
	if err := checkRange("read", gb, offset, size); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	gl.MemoryBarrier(gl.BUFFER_UPDATE_BARRIER_BIT)
	gl.BindBuffer(gb.target, gb.id)
	gl.GetBufferSubData(gb.target, int(offset), int(size), gl.Ptr(out))
	gl.BindBuffer(gb.target, 0)
	return out, glError("read buffer " + gb.label)
}

// texFormat returns the internal format, pixel format and pixel type of f.
func texFormat(f gpu.TextureFormat) (internal int32, format, xtype uint32) {
	switch f {
	case gpu.FormatRGBA16Float:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	case gpu.FormatDepth32Float:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT
	case gpu.FormatR8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q %dx%d", gpu.ErrInvalidSize, desc.Label, desc.Width, desc.Height)
	}
	t := &Texture{desc: desc}
	internal, format, xtype := texFormat(desc.Format)
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := glError("create texture " + desc.Label); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (d *Device) WriteTexture(t gpu.Texture, pixels []byte) error {
	gt, ok := t.(*Texture)
	if !ok || gt == nil || gt.framebuffer {
		return fmt.Errorf("gldev: texture %T is not uploadable", t)
	}
	if gt.id == 0 {
		return fmt.Errorf("%w: texture %q", ErrReleased, gt.desc.Label)
	}
	if gt.desc.Format != gpu.FormatR8 {
		return fmt.Errorf("gldev: texture %q is not uploadable", gt.desc.Label)
	}
	if uint32(len(pixels)) != gt.desc.Width*gt.desc.Height {
		return fmt.Errorf("%w: %d bytes for %dx%d texture %q", gpu.ErrInvalidSize, len(pixels), gt.desc.Width, gt.desc.Height, gt.desc.Label)
	}
	gl.BindTexture(gl.TEXTURE_2D, gt.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(gt.desc.Width), int32(gt.desc.Height), gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return glError("upload texture " + gt.desc.Label)
}

func (d *Device) BeginFrame() (gpu.Encoder, error) {
	return &encoder{dev: d}, nil
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gldev: %s: GL error 0x%x", op, code)
	}
	return nil
}
