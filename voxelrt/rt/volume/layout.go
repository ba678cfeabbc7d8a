package volume

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// WorkgroupSize is the edge length of the occupancy kernel work-group.
	// Chunk dimensions must be multiples of it.
	WorkgroupSize = 8

	// MaxChunksPerAxis is the largest chunk count EncodeChunk can address.
	MaxChunksPerAxis = 1 << ChunkAxisBits
)

var ErrInvalidLayout = errors.New("volume: invalid grid layout")

// Index is an unsigned voxel coordinate within the whole grid.
type Index [3]uint32

// Layout describes the partitioning of the grid into chunks.
type Layout struct {
	ChunkNum  [3]uint32 `toml:"chunk_num"`
	ChunkDims [3]uint32 `toml:"chunk_dims"`
	ChunkSize float32   `toml:"chunk_size"`
}

func (l Layout) Validate() error {
	for i := 0; i < 3; i++ {
		if l.ChunkNum[i] == 0 || l.ChunkNum[i] > MaxChunksPerAxis {
			return fmt.Errorf("%w: chunk count %v on axis %d outside [1,%d]", ErrInvalidLayout, l.ChunkNum, i, MaxChunksPerAxis)
		}
		if l.ChunkDims[i] < WorkgroupSize || l.ChunkDims[i]%WorkgroupSize != 0 {
			return fmt.Errorf("%w: chunk dimensions %v must be positive multiples of %d", ErrInvalidLayout, l.ChunkDims, WorkgroupSize)
		}
	}
	if !(l.ChunkSize > 0) || math.IsInf(float64(l.ChunkSize), 0) {
		return fmt.Errorf("%w: chunk size %v", ErrInvalidLayout, l.ChunkSize)
	}

	// Buffer sizes and offsets are 32-bit.
	voxels, chunks := uint64(1), uint64(1)
	for i := 0; i < 3; i++ {
		if uint64(l.ChunkNum[i])*uint64(l.ChunkDims[i]) > math.MaxUint32 {
			return fmt.Errorf("%w: grid extent on axis %d overflows", ErrInvalidLayout, i)
		}
		voxels *= uint64(l.ChunkDims[i])
		chunks *= uint64(l.ChunkNum[i])
	}
	if voxels*4 > math.MaxUint32 {
		return fmt.Errorf("%w: chunk dimensions %v exceed the voxel buffer limit", ErrInvalidLayout, l.ChunkDims)
	}
	if chunks*CellsPerChunk*4 > math.MaxUint32 {
		return fmt.Errorf("%w: %d chunks exceed the occupancy buffer limit", ErrInvalidLayout, chunks)
	}
	return nil
}

// VoxelNum is the voxel count of one chunk. The voxel buffer is sized to it
// regardless of the chunk count.
func (l Layout) VoxelNum() uint32 {
	return l.ChunkDims[0] * l.ChunkDims[1] * l.ChunkDims[2]
}

func (l Layout) TotalChunks() uint32 {
	return l.ChunkNum[0] * l.ChunkNum[1] * l.ChunkNum[2]
}

// VoxelSize is the world-space edge length of one voxel per axis.
func (l Layout) VoxelSize() mgl32.Vec3 {
	return mgl32.Vec3{
		l.ChunkSize / float32(l.ChunkDims[0]),
		l.ChunkSize / float32(l.ChunkDims[1]),
		l.ChunkSize / float32(l.ChunkDims[2]),
	}
}

// GridDims is the voxel extent of the whole grid per axis.
func (l Layout) GridDims() [3]uint32 {
	return [3]uint32{
		l.ChunkNum[0] * l.ChunkDims[0],
		l.ChunkNum[1] * l.ChunkDims[1],
		l.ChunkNum[2] * l.ChunkDims[2],
	}
}

// WorldExtent is the world-space size of the grid. The grid starts at the origin.
func (l Layout) WorldExtent() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(l.ChunkNum[0]) * l.ChunkSize,
		float32(l.ChunkNum[1]) * l.ChunkSize,
		float32(l.ChunkNum[2]) * l.ChunkSize,
	}
}

// ChunkOf returns the chunk containing idx.
func (l Layout) ChunkOf(idx Index) ([3]uint32, bool) {
	var c [3]uint32
	for i := 0; i < 3; i++ {
		if l.ChunkDims[i] == 0 {
			return c, false
		}
		c[i] = idx[i] / l.ChunkDims[i]
		if c[i] >= l.ChunkNum[i] {
			return c, false
		}
	}
	return c, true
}

// ChunkIndex flattens a chunk coordinate, x most significant. This is the
// order ChunkTable is written in.
func (l Layout) ChunkIndex(c [3]uint32) uint32 {
	return c[0]*(l.ChunkNum[1]*l.ChunkNum[2]) + c[1]*l.ChunkNum[2] + c[2]
}

// LocalOffset flattens a chunk-relative voxel position, x fastest.
func (l Layout) LocalOffset(local [3]uint32) uint32 {
	return local[0] + l.ChunkDims[0]*(local[1]+l.ChunkDims[1]*local[2])
}

// FlattenIndex maps a voxel coordinate to its slot in the voxel buffer:
// the chunk-local flat offset plus the chunk index. ok is false when the
// coordinate lies outside the grid; the returned offset is then 0.
func (l Layout) FlattenIndex(idx Index) (offset uint32, ok bool) {
	chunk, ok := l.ChunkOf(idx)
	if !ok {
		return 0, false
	}
	var local [3]uint32
	for i := 0; i < 3; i++ {
		local[i] = idx[i] - chunk[i]*l.ChunkDims[i]
		if local[i] >= l.ChunkDims[i] {
			return 0, false
		}
	}
	return l.LocalOffset(local) + l.ChunkIndex(chunk), true
}

func (l Layout) Contains(idx Index) bool {
	_, ok := l.FlattenIndex(idx)
	return ok
}

// OwningChunk returns the flat chunk index of idx.
func (l Layout) OwningChunk(idx Index) (uint32, bool) {
	c, ok := l.ChunkOf(idx)
	if !ok {
		return 0, false
	}
	return l.ChunkIndex(c), true
}

// ChunkTable returns the encoded position of every chunk, x outer, z inner.
func (l Layout) ChunkTable() []uint32 {
	table := make([]uint32, 0, l.TotalChunks())
	for x := uint32(0); x < l.ChunkNum[0]; x++ {
		for y := uint32(0); y < l.ChunkNum[1]; y++ {
			for z := uint32(0); z < l.ChunkNum[2]; z++ {
				table = append(table, EncodeChunk(int(x), int(y), int(z)))
			}
		}
	}
	return table
}
