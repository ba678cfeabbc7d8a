package gpu

import (
	"errors"
)

var (
	ErrOutOfRange      = errors.New("gpu: range outside buffer")
	ErrBindingMismatch = errors.New("gpu: bindings do not match kernel layout")
	ErrChunkOutOfRange = errors.New("gpu: chunk index out of range")
	ErrInvalidSize     = errors.New("gpu: invalid target size")
	ErrUnknownKernel   = errors.New("gpu: unknown kernel")
)

// Kernel labels. Devices resolve their shader sources by label.
const (
	OccupancyKernel = "subchunks"
	PrimaryKernel   = "voxel"
	BlurKernel      = "blur"
	CompositeKernel = "postprocess"
	TextKernel      = "text"
)

type BufferUsage uint32

const (
	UsageStorage BufferUsage = 1 << iota
	UsageUniform
)

type TextureFormat int

const (
	FormatRGBA16Float TextureFormat = iota
	FormatDepth32Float
	FormatR8 // HUD glyph atlas
	FormatSurface
)

func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA16Float:
		return "rgba16float"
	case FormatDepth32Float:
		return "depth32float"
	case FormatR8:
		return "r8unorm"
	case FormatSurface:
		return "surface"
	}
	return "unknown"
}

func (f TextureFormat) IsDepth() bool { return f == FormatDepth32Float }

type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
}

type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Format() TextureFormat
	Release()
}

// KernelDesc describes a compute or full-screen render program. Targets and
// Depth only apply to render kernels.
type KernelDesc struct {
	Label   string
	Layout  BindingLayout
	Targets []TextureFormat
	Depth   bool
	Blend   bool
}

type Kernel interface {
	Label() string
	Layout() BindingLayout
	Release()
}

// RenderPass names the attachments of one draw. Clear selects clearing the
// attachments to ClearColor (and depth to 1) before drawing; otherwise they
// are loaded.
type RenderPass struct {
	Label      string
	Color      []Texture
	Depth      Texture
	Clear      bool
	ClearColor [4]float64
}

// Encoder records passes of one submission. Recorded work reads buffer
// contents as of Submit.
type Encoder interface {
	Dispatch(k Kernel, b *Bindings, groups [3]uint32) error
	Draw(k Kernel, b *Bindings, pass RenderPass, vertices uint32) error
	Submit() error
}

// Device is the resource and command facility the renderer runs on.
// WriteBuffer and WriteTexture are ordered with respect to Submit on the
// same device.
type Device interface {
	Name() string
	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	ReadBuffer(buf Buffer, offset, size uint64) ([]byte, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	WriteTexture(tex Texture, pixels []byte) error
	CreateComputeKernel(desc KernelDesc) (Kernel, error)
	CreateRenderKernel(desc KernelDesc) (Kernel, error)
	BeginFrame() (Encoder, error)
}

// Surface is the host presentation target the composite pass draws into.
type Surface interface {
	ClearColor() [4]float64
	CurrentTarget() (Texture, error)
}

// DrawFullscreen draws the single full-screen triangle the pass kernels expect.
func DrawFullscreen(e Encoder, k Kernel, b *Bindings, pass RenderPass) error {
	return e.Draw(k, b, pass, 3)
}

// WorkgroupCount covers n items with groups of size.
func WorkgroupCount(n, size uint32) uint32 {
	if size == 0 {
		return 0
	}
	return (n + size - 1) / size
}
