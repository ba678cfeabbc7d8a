package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
)

const TextVertexSize = 32

// Overlay is drawn into the surface target after the composite pass.
type Overlay interface {
	Encode(enc Encoder, target Texture) error
}

// TextOverlay draws HUD glyph quads from the core text atlas.
type TextOverlay struct {
	dev      Device
	kernel   Kernel
	atlas    Texture
	vertices Buffer
	count    uint32
}

func NewTextOverlay(dev Device, tr *core.TextRenderer) (*TextOverlay, error) {
	if tr == nil || tr.Atlas == nil {
		return nil, fmt.Errorf("gpu: text overlay needs an atlas")
	}
	o := &TextOverlay{dev: dev}
	var err error
	if o.kernel, err = dev.CreateRenderKernel(KernelDesc{
		Label:   TextKernel,
		Layout:  TextLayout,
		Targets: []TextureFormat{FormatSurface},
		Blend:   true,
	}); err != nil {
		return nil, fmt.Errorf("create text kernel: %w", err)
	}
	b := tr.Atlas.Bounds()
	if o.atlas, err = dev.CreateTexture(TextureDesc{
		Label:  "text-atlas",
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Format: FormatR8,
	}); err != nil {
		o.Release()
		return nil, fmt.Errorf("create text atlas: %w", err)
	}
	if err = dev.WriteTexture(o.atlas, tr.Atlas.Pix); err != nil {
		o.Release()
		return nil, fmt.Errorf("upload text atlas: %w", err)
	}
	return o, nil
}

// SetVertices uploads the quads drawn by the next Encode. The vertex
// buffer grows to fit and is never shrunk.
func (o *TextOverlay) SetVertices(vs []core.TextVertex) error {
	o.count = uint32(len(vs))
	if len(vs) == 0 {
		return nil
	}
	data := EncodeTextVertices(vs)
	if o.vertices == nil || o.vertices.Size() < uint64(len(data)) {
		if o.vertices != nil {
			o.vertices.Release()
			o.vertices = nil
		}
		buf, err := o.dev.CreateBuffer("text-vertices", uint64(len(data)), UsageStorage)
		if err != nil {
			o.count = 0
			return fmt.Errorf("create text vertices: %w", err)
		}
		o.vertices = buf
	}
	return o.dev.WriteBuffer(o.vertices, 0, data)
}

func (o *TextOverlay) Count() uint32 { return o.count }

func (o *TextOverlay) Encode(enc Encoder, target Texture) error {
	if o.count == 0 || o.vertices == nil {
		return nil
	}
	b := NewBindings().Buffer(SlotTextVertices, o.vertices).Texture(SlotTextAtlas, o.atlas)
	return enc.Draw(o.kernel, b, RenderPass{Label: "text", Color: []Texture{target}}, o.count)
}

func (o *TextOverlay) Release() {
	if o.kernel != nil {
		o.kernel.Release()
		o.kernel = nil
	}
	if o.atlas != nil {
		o.atlas.Release()
		o.atlas = nil
	}
	if o.vertices != nil {
		o.vertices.Release()
		o.vertices = nil
	}
	o.count = 0
}

func EncodeTextVertices(vs []core.TextVertex) []byte {
	out := make([]byte, len(vs)*TextVertexSize)
	put := func(off int, v float32) { binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v)) }
	for i, v := range vs {
		base := i * TextVertexSize
		put(base, v.Pos[0])
		put(base+4, v.Pos[1])
		put(base+8, v.UV[0])
		put(base+12, v.UV[1])
		for c := 0; c < 4; c++ {
			put(base+16+c*4, v.Color[c])
		}
	}
	return out
}
