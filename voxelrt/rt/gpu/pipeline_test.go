package gpu_test

import (
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/hostdev"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBloomSchedule(t *testing.T) {
	steps, final := gpu.BloomSchedule(10)
	require.Len(t, steps, 10)

	assert.Equal(t, gpu.BloomStep{Target: 1, Source: gpu.BloomSource, Horizontal: true}, steps[0])
	assert.Equal(t, gpu.BloomStep{Target: 0, Source: 1, Horizontal: false}, steps[1])
	assert.Equal(t, gpu.BloomStep{Target: 1, Source: 0, Horizontal: true}, steps[2])
	for i := 1; i < len(steps); i++ {
		assert.Equal(t, steps[i-1].Target, steps[i].Source, "step %d reads the previous output", i)
		assert.NotEqual(t, steps[i-1].Horizontal, steps[i].Horizontal)
	}
	assert.Equal(t, 0, final)

	_, final = gpu.BloomSchedule(3)
	assert.Equal(t, 1, final)

	steps, final = gpu.BloomSchedule(0)
	assert.Empty(t, steps)
	assert.Equal(t, gpu.BloomSource, final)
}

type pipelineFixture struct {
	dev     *hostdev.Device
	set     *gpu.BufferSet
	pipe    *gpu.Pipeline
	surface *hostdev.Surface
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	grid := volume.Layout{ChunkNum: [3]uint32{1, 1, 1}, ChunkDims: [3]uint32{8, 8, 8}, ChunkSize: 8}
	dev := hostdev.New()
	set := gpu.NewBufferSet(dev, "")
	require.NoError(t, set.Create(gpu.ChunkBuffer, 4))
	require.NoError(t, set.Create(gpu.VoxelBuffer, uint64(grid.VoxelNum())*4))
	require.NoError(t, set.Create(gpu.OccupancyBuffer, volume.CellsPerChunk*4))
	require.NoError(t, set.Create(gpu.LightBuffer, core.LightStride))

	pipe, err := gpu.NewPipeline(dev, set, grid, gpu.DefaultWidth, gpu.DefaultHeight)
	require.NoError(t, err)
	surface, err := hostdev.NewSurface(dev, 640, 480)
	require.NoError(t, err)
	return &pipelineFixture{dev: dev, set: set, pipe: pipe, surface: surface}
}

func TestPipelineRenderPassOrder(t *testing.T) {
	f := newPipelineFixture(t)
	assert.Equal(t, uint32(1080), f.pipe.Targets.Width)
	assert.Equal(t, uint32(1024), f.pipe.Targets.Height)

	err := f.pipe.Render(gpu.Frame{Camera: core.NewFlyCamera(), Settings: core.DefaultSettings(), Surface: f.surface})
	require.NoError(t, err)
	require.Equal(t, 1, f.dev.Submits)
	require.Len(t, f.dev.Passes, 12)

	primary := f.dev.Passes[0]
	assert.Equal(t, gpu.PrimaryKernel, primary.Kernel)
	assert.Equal(t, []string{"primary-color", "primary-bright"}, primary.Writes)
	assert.Equal(t, "primary-depth", primary.Depth)
	assert.True(t, primary.Clear)
	assert.Equal(t, uint32(3), primary.Vertices)

	blur := f.dev.PassesOf(gpu.BlurKernel)
	require.Len(t, blur, 10)
	assert.Equal(t, "primary-bright", blur[0].Reads[gpu.SlotScreen])
	assert.Equal(t, []string{"pingpong-1"}, blur[0].Writes)
	assert.Equal(t, "pingpong-1", blur[1].Reads[gpu.SlotScreen])
	assert.Equal(t, []string{"pingpong-0"}, blur[9].Writes)

	post := f.dev.Passes[11]
	assert.Equal(t, gpu.CompositeKernel, post.Kernel)
	assert.Equal(t, "primary-color", post.Reads[gpu.SlotScreen])
	assert.Equal(t, "pingpong-0", post.Reads[gpu.SlotBloom])
	assert.Equal(t, "primary-depth", post.Reads[gpu.SlotDepth])
	assert.Equal(t, []string{"surface"}, post.Writes)
}

func TestPipelineBloomIgnoresSettings(t *testing.T) {
	f := newPipelineFixture(t)
	require.NoError(t, f.pipe.Render(gpu.Frame{Camera: core.NewFlyCamera(), Settings: core.Settings{}, Surface: f.surface}))
	assert.Len(t, f.dev.PassesOf(gpu.BlurKernel), gpu.BloomIterations)
	require.Len(t, f.dev.Passes, gpu.BloomIterations+2)
	assert.Equal(t, "pingpong-0", f.dev.Passes[gpu.BloomIterations+1].Reads[gpu.SlotBloom])
}

func TestPipelineResize(t *testing.T) {
	f := newPipelineFixture(t)
	live := f.dev.Live()

	require.NoError(t, f.pipe.Resize(320, 200))
	w, h := f.pipe.Size()
	assert.Equal(t, uint32(320), w)
	assert.Equal(t, uint32(200), h)
	assert.Equal(t, uint32(320), f.pipe.Targets.PingPong[1].Width())
	assert.Equal(t, live, f.dev.Live(), "old targets are released")

	assert.ErrorIs(t, f.pipe.Resize(0, 200), gpu.ErrInvalidSize)
	w, _ = f.pipe.Size()
	assert.Equal(t, uint32(320), w)
}

func TestPipelineRenderNeedsSurface(t *testing.T) {
	f := newPipelineFixture(t)
	assert.Error(t, f.pipe.Render(gpu.Frame{Camera: core.NewFlyCamera()}))
}

func TestPipelineRelease(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipe.Release()
	f.set.Release()
	assert.Equal(t, 1, f.dev.Live(), "only the surface remains")
}
