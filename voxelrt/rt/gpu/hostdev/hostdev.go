// Package hostdev is an in-memory gpu.Device. Buffers and textures live in
// host memory, the occupancy kernel runs on the CPU and render passes are
// validated and recorded instead of rasterized. It backs headless runs and
// tests.
package hostdev

import (
	"errors"
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"
)

var ErrReleased = errors.New("hostdev: resource used after release")

type Buffer struct {
	label    string
	data     []byte
	usage    gpu.BufferUsage
	released bool
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return uint64(len(b.data)) }
func (b *Buffer) Release()      { b.released = true }

type Texture struct {
	desc     gpu.TextureDesc
	pixels   []byte
	released bool
}

func (t *Texture) Label() string             { return t.desc.Label }
func (t *Texture) Width() uint32             { return t.desc.Width }
func (t *Texture) Height() uint32            { return t.desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }
func (t *Texture) Release()                  { t.released = true }
func (t *Texture) Released() bool            { return t.released }

type Kernel struct {
	desc     gpu.KernelDesc
	compute  bool
	released bool
}

func (k *Kernel) Label() string             { return k.desc.Label }
func (k *Kernel) Layout() gpu.BindingLayout { return k.desc.Layout }
func (k *Kernel) Release()                  { k.released = true }

// Pass is one submitted dispatch or draw.
type Pass struct {
	Kernel   string
	Label    string
	Groups   [3]uint32
	Vertices uint32
	Reads    map[uint32]string // texture slot -> label
	Writes   []string
	Depth    string
	Clear    bool
}

type Device struct {
	// Passes holds every submitted pass in submission order.
	Passes []Pass
	// Submits counts Submit calls.
	Submits int

	created []releasable
}

type releasable interface{ isReleased() bool }

func (b *Buffer) isReleased() bool  { return b.released }
func (t *Texture) isReleased() bool { return t.released }
func (k *Kernel) isReleased() bool  { return k.released }

func New() *Device {
	return &Device{}
}

func (d *Device) Name() string { return "host" }

// Live counts resources created and not yet released.
func (d *Device) Live() int {
	n := 0
	for _, r := range d.created {
		if !r.isReleased() {
			n++
		}
	}
	return n
}

func (d *Device) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	if size == 0 || size%4 != 0 {
		return nil, fmt.Errorf("hostdev: buffer %q size %d must be a positive multiple of 4", label, size)
	}
	b := &Buffer{label: label, data: make([]byte, size), usage: usage}
	d.created = append(d.created, b)
	return b, nil
}

func (d *Device) buffer(b gpu.Buffer) (*Buffer, error) {
	hb, ok := b.(*Buffer)
	if !ok || hb == nil {
		return nil, fmt.Errorf("hostdev: foreign buffer %T", b)
	}
	if hb.released {
		return nil, fmt.Errorf("%w: buffer %q", ErrReleased, hb.label)
	}
	return hb, nil
}

func (d *Device) WriteBuffer(b gpu.Buffer, offset uint64, data []byte) error {
	hb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("hostdev: unaligned write of %d bytes at %d", len(data), offset)
	}
	if offset+uint64(len(data)) > hb.Size() {
		return fmt.Errorf("%w: write [%d,%d) into %q of %d", gpu.ErrOutOfRange, offset, offset+uint64(len(data)), hb.label, hb.Size())
	}
	copy(hb.data[offset:], data)
	return nil
}

func (d *Device) ReadBuffer(b gpu.Buffer, offset, size uint64) ([]byte, error) {
	hb, err := d.buffer(b)
	if err != nil {
		return nil, err
	}
	if offset+size > hb.Size() {
		return nil, fmt.Errorf("%w: read [%d,%d) from %q of %d", gpu.ErrOutOfRange, offset, offset+size, hb.label, hb.Size())
	}
	out := make([]byte, size)
	copy(out, hb.data[offset:offset+size])
	return out, nil
}

func bytesPerPixel(f gpu.TextureFormat) int {
	switch f {
	case gpu.FormatRGBA16Float:
		return 8
	case gpu.FormatR8:
		return 1
	default:
		return 4
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q %dx%d", gpu.ErrInvalidSize, desc.Label, desc.Width, desc.Height)
	}
	n := int(desc.Width) * int(desc.Height) * bytesPerPixel(desc.Format)
	t := &Texture{desc: desc, pixels: make([]byte, n)}
	d.created = append(d.created, t)
	return t, nil
}

func (d *Device) WriteTexture(t gpu.Texture, pixels []byte) error {
	ht, ok := t.(*Texture)
	if !ok || ht == nil {
		return fmt.Errorf("hostdev: foreign texture %T", t)
	}
	if ht.released {
		return fmt.Errorf("%w: texture %q", ErrReleased, ht.desc.Label)
	}
	if len(pixels) != len(ht.pixels) {
		return fmt.Errorf("hostdev: texture %q expects %d bytes, got %d", ht.desc.Label, len(ht.pixels), len(pixels))
	}
	copy(ht.pixels, pixels)
	return nil
}

// Pixels returns the last uploaded contents of a texture.
func (t *Texture) Pixels() []byte { return t.pixels }

func knownKernel(label string, compute bool) bool {
	if compute {
		return label == gpu.OccupancyKernel
	}
	switch label {
	case gpu.PrimaryKernel, gpu.BlurKernel, gpu.CompositeKernel, gpu.TextKernel:
		return true
	}
	return false
}

func (d *Device) createKernel(desc gpu.KernelDesc, compute bool) (gpu.Kernel, error) {
	if !knownKernel(desc.Label, compute) {
		return nil, fmt.Errorf("%w: %q", gpu.ErrUnknownKernel, desc.Label)
	}
	k := &Kernel{desc: desc, compute: compute}
	d.created = append(d.created, k)
	return k, nil
}

func (d *Device) CreateComputeKernel(desc gpu.KernelDesc) (gpu.Kernel, error) {
	return d.createKernel(desc, true)
}

func (d *Device) CreateRenderKernel(desc gpu.KernelDesc) (gpu.Kernel, error) {
	return d.createKernel(desc, false)
}

func (d *Device) BeginFrame() (gpu.Encoder, error) {
	return &encoder{dev: d}, nil
}

// Surface is an off-screen presentation target.
type Surface struct {
	Target *Texture
	Clear  [4]float64
}

func NewSurface(d *Device, width, height uint32) (*Surface, error) {
	t, err := d.CreateTexture(gpu.TextureDesc{Label: "surface", Width: width, Height: height, Format: gpu.FormatSurface})
	if err != nil {
		return nil, err
	}
	return &Surface{Target: t.(*Texture), Clear: [4]float64{0, 0, 0, 1}}, nil
}

func (s *Surface) ClearColor() [4]float64 { return s.Clear }

func (s *Surface) CurrentTarget() (gpu.Texture, error) { return s.Target, nil }

// PassesOf filters the recorded passes by kernel label.
func (d *Device) PassesOf(kernel string) []Pass {
	var out []Pass
	for _, p := range d.Passes {
		if p.Kernel == kernel {
			out = append(out, p)
		}
	}
	return out
}

// Reset drops the recorded passes.
func (d *Device) Reset() {
	d.Passes = nil
	d.Submits = 0
}

// runOccupancy is the CPU form of the sub-chunk occupancy kernel.
func runOccupancy(d *Device, b *gpu.Bindings) error {
	params, err := d.buffer(b.Buffers[gpu.SlotParams])
	if err != nil {
		return err
	}
	voxBuf, err := d.buffer(b.Buffers[gpu.SlotVoxels])
	if err != nil {
		return err
	}
	occBuf, err := d.buffer(b.Buffers[gpu.SlotOccupancy])
	if err != nil {
		return err
	}

	p := gpu.DecodeOccupancyParams(params.data)
	grid := p.Layout()
	start := uint64(p.Chunk) * volume.CellsPerChunk * 4
	end := start + volume.CellsPerChunk*4
	if end > occBuf.Size() {
		return fmt.Errorf("%w: occupancy slice of chunk %d", gpu.ErrOutOfRange, p.Chunk)
	}

	voxels := gpu.BytesToWords(voxBuf.data)
	if uint32(len(voxels)) > p.Capacity {
		voxels = voxels[:p.Capacity]
	}
	cells := gpu.BytesToWords(occBuf.data[start:end])
	volume.ComputeOccupancy(grid, voxels, p.Chunk, cells)
	copy(occBuf.data[start:end], gpu.WordsToBytes(cells))
	return nil
}
