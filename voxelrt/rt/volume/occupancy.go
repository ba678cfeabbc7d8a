package volume

const (
	SubDivision   = 16
	CellsPerChunk = SubDivision * SubDivision * SubDivision
)

// CellExtent is the number of voxels a sub-chunk cell spans per axis.
func (l Layout) CellExtent() [3]uint32 {
	var e [3]uint32
	for i := 0; i < 3; i++ {
		e[i] = (l.ChunkDims[i] + SubDivision - 1) / SubDivision
		if e[i] == 0 {
			e[i] = 1
		}
	}
	return e
}

// CellOf returns the flat cell index of a chunk-local voxel position.
func (l Layout) CellOf(local [3]uint32) uint32 {
	e := l.CellExtent()
	cx, cy, cz := local[0]/e[0], local[1]/e[1], local[2]/e[2]
	return cx + SubDivision*(cy+SubDivision*cz)
}

// FilledTemplate returns one chunk's worth of "may contain" cells.
func FilledTemplate() []uint32 {
	t := make([]uint32, CellsPerChunk)
	for i := range t {
		t[i] = 1
	}
	return t
}

// ComputeOccupancy recomputes the cells of one chunk from the voxel words.
// cells is the chunk's slice of the occupancy buffer, laid out as CellOf.
// Cells no voxel maps to are left untouched, as the GPU kernel does.
func ComputeOccupancy(l Layout, voxels []uint32, chunk uint32, cells []uint32) {
	if chunk >= l.TotalChunks() || len(cells) < CellsPerChunk {
		return
	}
	touched := make([]bool, CellsPerChunk)
	for z := uint32(0); z < l.ChunkDims[2]; z++ {
		for y := uint32(0); y < l.ChunkDims[1]; y++ {
			for x := uint32(0); x < l.ChunkDims[0]; x++ {
				local := [3]uint32{x, y, z}
				cell := l.CellOf(local)
				if cell >= CellsPerChunk {
					continue
				}
				if !touched[cell] {
					touched[cell] = true
					cells[cell] = 0
				}
				off := l.LocalOffset(local) + chunk
				if off < uint32(len(voxels)) && voxels[off] != 0 {
					cells[cell] = 1
				}
			}
		}
	}
}
