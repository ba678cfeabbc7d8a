package gpu

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"
)

// OccupancyUpdater recomputes the sub-chunk occupancy slices on the device.
type OccupancyUpdater struct {
	dev      Device
	set      *BufferSet
	grid     volume.Layout
	kernel   Kernel
	params   Buffer
	template []byte
}

func NewOccupancyUpdater(dev Device, set *BufferSet, grid volume.Layout) (*OccupancyUpdater, error) {
	kernel, err := dev.CreateComputeKernel(KernelDesc{Label: OccupancyKernel, Layout: OccupancyLayout})
	if err != nil {
		return nil, fmt.Errorf("create occupancy kernel: %w", err)
	}
	params, err := dev.CreateBuffer("occupancy-params", OccupancyParamsSize, UsageUniform)
	if err != nil {
		kernel.Release()
		return nil, fmt.Errorf("create occupancy params: %w", err)
	}
	return &OccupancyUpdater{
		dev:      dev,
		set:      set,
		grid:     grid,
		kernel:   kernel,
		params:   params,
		template: WordsToBytes(volume.FilledTemplate()),
	}, nil
}

// UpdateChunk resets slice i to "may contain" and runs the kernel over it.
// Each call is its own submission so the params write lands before the
// dispatch that reads it.
func (u *OccupancyUpdater) UpdateChunk(i uint32) error {
	if i >= u.grid.TotalChunks() {
		return fmt.Errorf("%w: %d of %d", ErrChunkOutOfRange, i, u.grid.TotalChunks())
	}
	slice := uint64(volume.CellsPerChunk) * 4
	if err := u.set.PartialUpdate(OccupancyBuffer, u.template, slice, uint64(i)*slice); err != nil {
		return fmt.Errorf("reset occupancy of chunk %d: %w", i, err)
	}
	if err := u.dev.WriteBuffer(u.params, 0, BuildOccupancyParams(u.grid, i)); err != nil {
		return fmt.Errorf("write occupancy params: %w", err)
	}

	enc, err := u.dev.BeginFrame()
	if err != nil {
		return err
	}
	b := u.set.Bind(NewBindings(), VoxelBuffer, OccupancyBuffer).Buffer(SlotParams, u.params)
	groups := [3]uint32{
		u.grid.ChunkDims[0] / volume.WorkgroupSize,
		u.grid.ChunkDims[1] / volume.WorkgroupSize,
		u.grid.ChunkDims[2] / volume.WorkgroupSize,
	}
	if err := enc.Dispatch(u.kernel, b, groups); err != nil {
		return fmt.Errorf("dispatch occupancy of chunk %d: %w", i, err)
	}
	return enc.Submit()
}

func (u *OccupancyUpdater) UpdateAll() error {
	for i := uint32(0); i < u.grid.TotalChunks(); i++ {
		if err := u.UpdateChunk(i); err != nil {
			return err
		}
	}
	return nil
}

func (u *OccupancyUpdater) Release() {
	if u.kernel != nil {
		u.kernel.Release()
		u.kernel = nil
	}
	if u.params != nil {
		u.params.Release()
		u.params = nil
	}
}
