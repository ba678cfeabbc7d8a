package gpu

import (
	"fmt"
	"sort"
)

// Fixed slots shared by the kernels. Every kernel layout below refers to
// these instead of numbering its own resources.
const (
	SlotChunks    uint32 = 0
	SlotVoxels    uint32 = 1
	SlotOccupancy uint32 = 2
	SlotLights    uint32 = 3
	SlotParams    uint32 = 4

	// Texture slots of the blur, composite and text kernels.
	SlotScreen uint32 = 0
	SlotBloom  uint32 = 1
	SlotDepth  uint32 = 2

	SlotTextVertices uint32 = 0
	SlotTextAtlas    uint32 = 1
)

type BindingKind int

const (
	BindStorageRead BindingKind = iota
	BindStorageRW
	BindUniform
	BindTexture
	BindDepthTexture
)

func (k BindingKind) String() string {
	switch k {
	case BindStorageRead:
		return "storage-read"
	case BindStorageRW:
		return "storage-rw"
	case BindUniform:
		return "uniform"
	case BindTexture:
		return "texture"
	case BindDepthTexture:
		return "depth-texture"
	}
	return fmt.Sprintf("BindingKind(%d)", int(k))
}

func (k BindingKind) IsBuffer() bool { return k <= BindUniform }

type Stage uint32

const (
	StageCompute Stage = 1 << iota
	StageVertex
	StageFragment
)

type LayoutEntry struct {
	Slot   uint32
	Kind   BindingKind
	Stages Stage
	Name   string
}

type BindingLayout []LayoutEntry

// Sorted returns a copy ordered by slot.
func (l BindingLayout) Sorted() BindingLayout {
	out := append(BindingLayout(nil), l...)
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (l BindingLayout) Entry(slot uint32) (LayoutEntry, bool) {
	for _, e := range l {
		if e.Slot == slot {
			return e, true
		}
	}
	return LayoutEntry{}, false
}

var (
	OccupancyLayout = BindingLayout{
		{Slot: SlotVoxels, Kind: BindStorageRead, Stages: StageCompute, Name: "voxels"},
		{Slot: SlotOccupancy, Kind: BindStorageRW, Stages: StageCompute, Name: "occupancy"},
		{Slot: SlotParams, Kind: BindUniform, Stages: StageCompute, Name: "params"},
	}

	PrimaryLayout = BindingLayout{
		{Slot: SlotChunks, Kind: BindStorageRead, Stages: StageFragment, Name: "chunks"},
		{Slot: SlotVoxels, Kind: BindStorageRead, Stages: StageFragment, Name: "voxels"},
		{Slot: SlotOccupancy, Kind: BindStorageRead, Stages: StageFragment, Name: "occupancy"},
		{Slot: SlotLights, Kind: BindStorageRead, Stages: StageFragment, Name: "lights"},
		{Slot: SlotParams, Kind: BindUniform, Stages: StageVertex | StageFragment, Name: "frame"},
	}

	BlurLayout = BindingLayout{
		{Slot: SlotScreen, Kind: BindTexture, Stages: StageFragment, Name: "image"},
		{Slot: SlotParams, Kind: BindUniform, Stages: StageFragment, Name: "blur"},
	}

	CompositeLayout = BindingLayout{
		{Slot: SlotScreen, Kind: BindTexture, Stages: StageFragment, Name: "screen"},
		{Slot: SlotBloom, Kind: BindTexture, Stages: StageFragment, Name: "bloom"},
		{Slot: SlotDepth, Kind: BindDepthTexture, Stages: StageFragment, Name: "depth"},
		{Slot: SlotParams, Kind: BindUniform, Stages: StageFragment, Name: "post"},
	}

	TextLayout = BindingLayout{
		{Slot: SlotTextVertices, Kind: BindStorageRead, Stages: StageVertex, Name: "vertices"},
		{Slot: SlotTextAtlas, Kind: BindTexture, Stages: StageFragment, Name: "atlas"},
	}
)

// Bindings assigns resources to slots for one pass.
type Bindings struct {
	Buffers  map[uint32]Buffer
	Textures map[uint32]Texture
}

func NewBindings() *Bindings {
	return &Bindings{Buffers: make(map[uint32]Buffer), Textures: make(map[uint32]Texture)}
}

func (b *Bindings) Buffer(slot uint32, buf Buffer) *Bindings {
	b.Buffers[slot] = buf
	return b
}

func (b *Bindings) Texture(slot uint32, tex Texture) *Bindings {
	b.Textures[slot] = tex
	return b
}

// Check verifies that b binds exactly the resources layout declares, with
// matching resource types.
func (b *Bindings) Check(layout BindingLayout) error {
	if b == nil {
		return fmt.Errorf("%w: no bindings", ErrBindingMismatch)
	}
	seen := 0
	for _, e := range layout {
		if e.Kind.IsBuffer() {
			buf, ok := b.Buffers[e.Slot]
			if !ok || buf == nil {
				return fmt.Errorf("%w: slot %d (%s) needs a buffer", ErrBindingMismatch, e.Slot, e.Name)
			}
			if _, clash := b.Textures[e.Slot]; clash {
				return fmt.Errorf("%w: slot %d (%s) bound to a texture", ErrBindingMismatch, e.Slot, e.Name)
			}
		} else {
			tex, ok := b.Textures[e.Slot]
			if !ok || tex == nil {
				return fmt.Errorf("%w: slot %d (%s) needs a texture", ErrBindingMismatch, e.Slot, e.Name)
			}
			if tex.Format().IsDepth() != (e.Kind == BindDepthTexture) {
				return fmt.Errorf("%w: slot %d (%s) got %s texture", ErrBindingMismatch, e.Slot, e.Name, tex.Format())
			}
		}
		seen++
	}
	if extra := len(b.Buffers) + len(b.Textures) - seen; extra > 0 {
		return fmt.Errorf("%w: %d resources bound to slots the kernel does not declare", ErrBindingMismatch, extra)
	}
	return nil
}
