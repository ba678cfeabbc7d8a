package gpu

import (
	"encoding/binary"
	"fmt"
)

type BufferKind int

const (
	ChunkBuffer BufferKind = iota
	VoxelBuffer
	OccupancyBuffer
	LightBuffer

	bufferKindCount
)

func (k BufferKind) String() string {
	switch k {
	case ChunkBuffer:
		return "chunks"
	case VoxelBuffer:
		return "voxels"
	case OccupancyBuffer:
		return "occupancy"
	case LightBuffer:
		return "lights"
	}
	return fmt.Sprintf("BufferKind(%d)", int(k))
}

// Slot is the binding slot the buffer of this kind is always bound to.
func (k BufferKind) Slot() uint32 {
	switch k {
	case ChunkBuffer:
		return SlotChunks
	case VoxelBuffer:
		return SlotVoxels
	case OccupancyBuffer:
		return SlotOccupancy
	default:
		return SlotLights
	}
}

// AlignSize rounds a byte size up to whole words. Empty buffers get one word.
func AlignSize(size uint64) uint64 {
	if size == 0 {
		return 4
	}
	if size%4 != 0 {
		size += 4 - size%4
	}
	return size
}

// BufferSet owns the storage buffers the voxel kernels read.
type BufferSet struct {
	dev   Device
	label string
	bufs  [bufferKindCount]Buffer
}

func NewBufferSet(dev Device, label string) *BufferSet {
	return &BufferSet{dev: dev, label: label}
}

func (s *BufferSet) Buffer(kind BufferKind) Buffer {
	if kind < 0 || kind >= bufferKindCount {
		return nil
	}
	return s.bufs[kind]
}

func (s *BufferSet) check(kind BufferKind) (Buffer, error) {
	buf := s.Buffer(kind)
	if buf == nil {
		return nil, fmt.Errorf("gpu: %s buffer not created", kind)
	}
	return buf, nil
}

// Create allocates a zero-filled buffer for kind, replacing any previous one.
func (s *BufferSet) Create(kind BufferKind, size uint64) error {
	if kind < 0 || kind >= bufferKindCount {
		return fmt.Errorf("gpu: unknown buffer kind %d", int(kind))
	}
	if old := s.bufs[kind]; old != nil {
		old.Release()
		s.bufs[kind] = nil
	}
	label := kind.String()
	if s.label != "" {
		label = s.label + "/" + label
	}
	buf, err := s.dev.CreateBuffer(label, AlignSize(size), UsageStorage)
	if err != nil {
		return fmt.Errorf("create %s buffer: %w", kind, err)
	}
	s.bufs[kind] = buf
	return nil
}

// PartialUpdate writes size bytes at offset. A nil data zero-fills the range.
func (s *BufferSet) PartialUpdate(kind BufferKind, data []byte, size, offset uint64) error {
	buf, err := s.check(kind)
	if err != nil {
		return err
	}
	if offset+size > buf.Size() || offset+size < offset {
		return fmt.Errorf("%w: %s [%d,%d) of %d", ErrOutOfRange, kind, offset, offset+size, buf.Size())
	}
	if data == nil {
		data = make([]byte, size)
	} else if uint64(len(data)) < size {
		return fmt.Errorf("%w: %d bytes given for a %d byte write", ErrOutOfRange, len(data), size)
	}
	if size == 0 {
		return nil
	}
	return s.dev.WriteBuffer(buf, offset, data[:size])
}

// Resize reallocates the buffer of kind. The new contents are all zero.
func (s *BufferSet) Resize(kind BufferKind, size uint64) error {
	if _, err := s.check(kind); err != nil {
		return err
	}
	return s.Create(kind, size)
}

func (s *BufferSet) ReadWords(kind BufferKind, wordOffset, count uint32) ([]uint32, error) {
	buf, err := s.check(kind)
	if err != nil {
		return nil, err
	}
	off, size := uint64(wordOffset)*4, uint64(count)*4
	if off+size > buf.Size() {
		return nil, fmt.Errorf("%w: read %s [%d,%d) of %d", ErrOutOfRange, kind, off, off+size, buf.Size())
	}
	raw, err := s.dev.ReadBuffer(buf, off, size)
	if err != nil {
		return nil, fmt.Errorf("read %s buffer: %w", kind, err)
	}
	return BytesToWords(raw), nil
}

// Bind assigns the given kinds to their fixed slots in b.
func (s *BufferSet) Bind(b *Bindings, kinds ...BufferKind) *Bindings {
	for _, k := range kinds {
		b.Buffer(k.Slot(), s.Buffer(k))
	}
	return b
}

func (s *BufferSet) Release() {
	for i, b := range s.bufs {
		if b != nil {
			b.Release()
			s.bufs[i] = nil
		}
	}
}

func WordsToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func BytesToWords(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}
