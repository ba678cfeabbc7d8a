package renderer

import (
	"bytes"
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/hostdev"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var single = volume.Layout{ChunkNum: [3]uint32{1, 1, 1}, ChunkDims: [3]uint32{8, 8, 8}, ChunkSize: 8}

func newRenderer(t *testing.T, layout volume.Layout, initial []volume.Voxel) (*Renderer, *hostdev.Device) {
	t.Helper()
	dev := hostdev.New()
	r := New(dev, WithViewport(64, 48))
	require.NoError(t, r.Init(layout, initial))
	return r, dev
}

func voxelWords(t *testing.T, r *Renderer) []uint32 {
	t.Helper()
	words, err := r.buffers.ReadWords(gpu.VoxelBuffer, 0, r.layout.VoxelNum())
	require.NoError(t, err)
	return words
}

func TestCallsBeforeInit(t *testing.T) {
	r := New(hostdev.New())
	assert.False(t, r.Initialized())
	assert.ErrorIs(t, r.UpdateVoxel(volume.Voxel{}), ErrNotInitialized)
	assert.ErrorIs(t, r.UpdateAllVoxels(nil), ErrNotInitialized)
	assert.ErrorIs(t, r.ClearVoxel(volume.Index{}), ErrNotInitialized)
	assert.ErrorIs(t, r.ClearAllVoxels(), ErrNotInitialized)
	assert.ErrorIs(t, r.MoveVoxel(volume.Voxel{}, volume.Index{1, 0, 0}), ErrNotInitialized)
	assert.ErrorIs(t, r.Draw(core.NewFlyCamera(), nil), ErrNotInitialized)
	assert.ErrorIs(t, r.OnResize(10, 10), ErrNotInitialized)
	_, err := r.PackedAt(0)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitRejectsInvalidLayout(t *testing.T) {
	r := New(hostdev.New())
	err := r.Init(volume.Layout{ChunkNum: [3]uint32{1, 1, 1}, ChunkDims: [3]uint32{6, 8, 8}, ChunkSize: 8}, nil)
	assert.ErrorIs(t, err, volume.ErrInvalidLayout)
	assert.False(t, r.Initialized())
}

func TestUpdateVoxelPacksColor(t *testing.T) {
	r, _ := newRenderer(t, single, nil)

	require.NoError(t, r.UpdateVoxel(volume.Voxel{Index: volume.Index{0, 0, 0}, Color: mgl32.Vec4{1, 0, 0, 1}}))
	packed, err := r.PackedAt(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF0000FF), packed)

	c, ok, err := r.VoxelAt(volume.Index{0, 0, 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, c)
}

func TestUpdateVoxelOutOfBoundsIsDropped(t *testing.T) {
	r, _ := newRenderer(t, single, nil)
	before := voxelWords(t, r)

	for _, idx := range []volume.Index{{8, 0, 0}, {0, 9, 0}, {100, 100, 100}} {
		require.NoError(t, r.UpdateVoxel(volume.Voxel{Index: idx, Color: mgl32.Vec4{1, 1, 1, 1}}))
		require.NoError(t, r.ClearVoxel(idx))
		_, ok, err := r.VoxelAt(idx)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, before, voxelWords(t, r))
}

func TestUpdateAllVoxels(t *testing.T) {
	r, _ := newRenderer(t, single, nil)
	before := voxelWords(t, r)

	require.NoError(t, r.UpdateAllVoxels(make([]volume.Voxel, 10)))
	assert.Equal(t, before, voxelWords(t, r), "wrong length is a no-op")

	list := make([]volume.Voxel, single.VoxelNum())
	for i := range list {
		list[i].Color = mgl32.Vec4{0, 0, 1, 1}
	}
	list[3].Color = mgl32.Vec4{1, 1, 1, 1}
	require.NoError(t, r.UpdateAllVoxels(list))

	words := voxelWords(t, r)
	assert.Equal(t, uint32(0x0000FFFF), words[0])
	assert.Equal(t, uint32(0xFFFFFFFF), words[3])

	cells, err := r.Occupancy(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cells[single.CellOf([3]uint32{7, 7, 7})])
}

func TestClearVoxelAndClearAll(t *testing.T) {
	r, _ := newRenderer(t, single, []volume.Voxel{
		{Index: volume.Index{0, 0, 0}, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Index: volume.Index{2, 3, 4}, Color: mgl32.Vec4{0, 1, 0, 1}},
	})

	off, _ := single.FlattenIndex(volume.Index{2, 3, 4})
	packed, err := r.PackedAt(off)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00FF00FF), packed)

	require.NoError(t, r.ClearVoxel(volume.Index{2, 3, 4}))
	packed, err = r.PackedAt(off)
	require.NoError(t, err)
	assert.Zero(t, packed)
	packed, err = r.PackedAt(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), packed, "neighbouring voxels survive")

	require.NoError(t, r.ClearAllVoxels())
	for i, w := range voxelWords(t, r) {
		assert.Zero(t, w, "slot %d", i)
	}
	cells, err := r.Occupancy(0)
	require.NoError(t, err)
	assert.Zero(t, cells[0])
}

func TestMoveVoxel(t *testing.T) {
	green := mgl32.Vec4{0, 1, 0, 1}
	r, _ := newRenderer(t, single, []volume.Voxel{{Index: volume.Index{0, 0, 0}, Color: green}})

	require.NoError(t, r.MoveVoxel(volume.Voxel{Index: volume.Index{0, 0, 0}, Color: green}, volume.Index{1, 0, 0}))

	packed, err := r.PackedAt(0)
	require.NoError(t, err)
	assert.Zero(t, packed)

	off, ok := single.FlattenIndex(volume.Index{1, 0, 0})
	require.True(t, ok)
	packed, err = r.PackedAt(off)
	require.NoError(t, err)
	assert.Equal(t, volume.PackColor(green), packed)
}

func TestOccupancyFollowsEdits(t *testing.T) {
	r, _ := newRenderer(t, single, nil)
	cells, err := r.Occupancy(0)
	require.NoError(t, err)
	require.Len(t, cells, volume.CellsPerChunk)
	assert.Zero(t, cells[0], "empty grid")
	assert.Equal(t, uint32(1), cells[8], "cells outside the chunk keep the template")

	require.NoError(t, r.UpdateVoxel(volume.Voxel{Index: volume.Index{1, 0, 0}, Color: mgl32.Vec4{1, 1, 1, 1}}))
	cells, err = r.Occupancy(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cells[1])
	assert.Zero(t, cells[0])

	require.NoError(t, r.ClearVoxel(volume.Index{1, 0, 0}))
	cells, err = r.Occupancy(0)
	require.NoError(t, err)
	assert.Zero(t, cells[1])

	_, err = r.Occupancy(1)
	assert.ErrorIs(t, err, gpu.ErrChunkOutOfRange)
}

func TestMultiChunkWritesUseChunkOffset(t *testing.T) {
	layout := volume.Layout{ChunkNum: [3]uint32{2, 1, 1}, ChunkDims: [3]uint32{8, 8, 8}, ChunkSize: 8}
	r, _ := newRenderer(t, layout, nil)

	require.NoError(t, r.UpdateVoxel(volume.Voxel{Index: volume.Index{8, 0, 0}, Color: mgl32.Vec4{1, 1, 1, 1}}))
	packed, err := r.PackedAt(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), packed, "local offset 0 plus chunk index 1")

	cells, err := r.Occupancy(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cells[0])

	// Local offset 511 plus chunk index 1 is past the voxel capacity.
	require.NoError(t, r.UpdateVoxel(volume.Voxel{Index: volume.Index{15, 7, 7}, Color: mgl32.Vec4{1, 1, 1, 1}}))
	_, ok, err := r.VoxelAt(volume.Index{15, 7, 7})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDrawAndResize(t *testing.T) {
	r, dev := newRenderer(t, single, nil)
	surface, err := hostdev.NewSurface(dev, 64, 48)
	require.NoError(t, err)

	r.SetViewingMode(core.ViewNormal)
	r.SetViewingMode(core.ViewingMode(99))
	assert.Equal(t, core.ViewNormal, r.ViewingMode())

	dev.Reset()
	require.NoError(t, r.Draw(core.NewFlyCamera(), surface))
	require.NotEmpty(t, dev.PassesOf(gpu.PrimaryKernel))

	require.NoError(t, r.OnResize(32, 16))
	w, h := r.Viewport()
	assert.Equal(t, uint32(32), w)
	assert.Equal(t, uint32(16), h)
	assert.ErrorIs(t, r.OnResize(0, 16), gpu.ErrInvalidSize)

	packed, err := r.PackedAt(0)
	require.NoError(t, err)
	assert.Zero(t, packed, "resize leaves voxel data alone")
}

func TestDrawAlwaysRunsFullBloom(t *testing.T) {
	r, dev := newRenderer(t, single, nil)
	surface, err := hostdev.NewSurface(dev, 64, 48)
	require.NoError(t, err)

	for _, s := range []core.Settings{{}, core.DefaultSettings()} {
		r.SetSettings(s)
		dev.Reset()
		require.NoError(t, r.Draw(core.NewFlyCamera(), surface))
		assert.Len(t, dev.PassesOf(gpu.BlurKernel), 10)
		post := dev.PassesOf(gpu.CompositeKernel)
		require.Len(t, post, 1)
		assert.Equal(t, "pingpong-0", post[0].Reads[gpu.SlotBloom])
	}
}

func TestSetPointLightsGrowsBuffer(t *testing.T) {
	r, _ := newRenderer(t, single, nil)
	l := core.NewPointLight(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 1, 1}, 2, 10)
	require.NoError(t, r.SetPointLights([]core.Light{l, l, l}))
	assert.Equal(t, uint64(3*core.LightStride), r.buffers.Buffer(gpu.LightBuffer).Size())
	assert.Equal(t, uint32(3), r.lights)

	require.NoError(t, r.SetPointLights(nil))
	assert.Zero(t, r.lights)
}

func TestReinitReleasesPreviousGrid(t *testing.T) {
	r, dev := newRenderer(t, single, []volume.Voxel{{Index: volume.Index{0, 0, 0}, Color: mgl32.Vec4{1, 1, 1, 1}}})
	live := dev.Live()

	require.NoError(t, r.Init(single, nil))
	assert.Equal(t, live, dev.Live())
	packed, err := r.PackedAt(0)
	require.NoError(t, err)
	assert.Zero(t, packed, "re-init drops previous content")

	r.Release()
	assert.Zero(t, dev.Live())
	assert.False(t, r.Initialized())
}

func TestDebugLogging(t *testing.T) {
	var out bytes.Buffer
	log := core.NewWriterLogger(&out, &out, "voxgrid", true)
	r := New(hostdev.New(), WithLogger(log))
	require.NoError(t, r.Init(single, nil))
	require.NoError(t, r.UpdateVoxel(volume.Voxel{Index: volume.Index{99, 0, 0}}))
	assert.Contains(t, out.String(), r.ID.String())
	assert.Contains(t, out.String(), "dropped update")
}
