// Package wgpudev implements the gpu device contract on WebGPU.
package wgpudev

import (
	"errors"
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
)

type Buffer struct {
	label string
	buf   *wgpu.Buffer
	size  uint64
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return b.size }

func (b *Buffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type Texture struct {
	desc gpu.TextureDesc
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (t *Texture) Label() string             { return t.desc.Label }
func (t *Texture) Width() uint32             { return t.desc.Width }
func (t *Texture) Height() uint32            { return t.desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }

func (t *Texture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

type Device struct {
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceFormat wgpu.TextureFormat
}

// New wraps an existing WebGPU device. surfaceFormat is used for kernels
// that target gpu.FormatSurface.
func New(device *wgpu.Device, surfaceFormat wgpu.TextureFormat) *Device {
	return &Device{device: device, queue: device.GetQueue(), surfaceFormat: surfaceFormat}
}

func (d *Device) Name() string { return "webgpu" }

func (d *Device) Raw() *wgpu.Device { return d.device }

func (d *Device) format(f gpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gpu.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case gpu.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case gpu.FormatR8:
		return wgpu.TextureFormatR8Unorm
	default:
		return d.surfaceFormat
	}
}

func (d *Device) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if size == 0 || size%4 != 0 {
		return nil, fmt.Errorf("wgpudev: buffer %q size %d must be a positive multiple of 4", label, size)
	}
	u := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	if usage == gpu.UsageUniform {
		u = wgpu.BufferUsageUniform
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: u | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpudev: create buffer %q: %w", label, err)
	}
	return &Buffer{label: label, buf: buf, size: size}, nil
}

func (d *Device) buffer(b gpu.Buffer) (*Buffer, error) {
	wb, ok := b.(*Buffer)
	if !ok || wb == nil || wb.buf == nil {
		return nil, fmt.Errorf("wgpudev: buffer is released or foreign")
	}
	return wb, nil
}

func (d *Device) WriteBuffer(b gpu.Buffer, offset uint64, data []byte) error {
	wb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("wgpudev: unaligned write %d+%d to %q", offset, len(data), wb.label)
	}
	if offset+uint64(len(data)) > wb.size {
		return fmt.Errorf("%w: write %d+%d to %q of %d", gpu.ErrOutOfRange, offset, len(data), wb.label, wb.size)
	}
	if len(data) == 0 {
		return nil
	}
	return d.queue.WriteBuffer(wb.buf, offset, data)
}

// ReadBuffer copies the range into a mappable staging buffer and waits for
// the device to map it.
func (d *Device) ReadBuffer(b gpu.Buffer, offset, size uint64) ([]byte, error) {
	wb, err := d.buffer(b)
	if err != nil {
		return nil, err
	}
	if offset%4 != 0 || size%4 != 0 {
		return nil, fmt.Errorf("wgpudev: unaligned read %d+%d from %q", offset, size, wb.label)
	}
	if offset+size > wb.size {
		return nil, fmt.Errorf("%w: read %d+%d from %q of %d", gpu.ErrOutOfRange, offset, size, wb.label, wb.size)
	}
	if size == 0 {
		return []byte{}, nil
	}

	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: wb.label + " readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	encoder.CopyBufferToBuffer(wb.buf, offset, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	d.queue.Submit(cmd)
	cmd.Release()

	var status wgpu.BufferMapAsyncStatus
	if err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return nil, err
	}
	d.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, errors.New("wgpudev: buffer map failed")
	}
	out := make([]byte, size)
	copy(out, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return out, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q %dx%d", gpu.ErrInvalidSize, desc.Label, desc.Width, desc.Height)
	}
	usage := wgpu.TextureUsageTextureBinding
	if desc.Format == gpu.FormatR8 {
		usage |= wgpu.TextureUsageCopyDst
	} else {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        d.format(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpudev: create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("wgpudev: create view %q: %w", desc.Label, err)
	}
	return &Texture{desc: desc, tex: tex, view: view}, nil
}

func (d *Device) WriteTexture(t gpu.Texture, pixels []byte) error {
	wt, ok := t.(*Texture)
	if !ok || wt.tex == nil {
		return fmt.Errorf("wgpudev: texture is released or foreign")
	}
	if wt.desc.Format != gpu.FormatR8 {
		return fmt.Errorf("wgpudev: texture %q is not uploadable", wt.desc.Label)
	}
	if uint32(len(pixels)) != wt.desc.Width*wt.desc.Height {
		return fmt.Errorf("%w: %d bytes for %dx%d texture %q", gpu.ErrInvalidSize, len(pixels), wt.desc.Width, wt.desc.Height, wt.desc.Label)
	}
	return d.queue.WriteTexture(wt.tex.AsImageCopy(), pixels, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  wt.desc.Width,
		RowsPerImage: wt.desc.Height,
	}, &wgpu.Extent3D{Width: wt.desc.Width, Height: wt.desc.Height, DepthOrArrayLayers: 1})
}

func (d *Device) BeginFrame() (gpu.Encoder, error) {
	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpudev: create command encoder: %w", err)
	}
	return &encoder{dev: d, enc: enc}, nil
}
