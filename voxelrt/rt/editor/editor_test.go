package editor

import (
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/hostdev"
	"github.com/gekko3d/voxgrid/voxelrt/rt/renderer"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grid = volume.Layout{ChunkNum: [3]uint32{1, 1, 1}, ChunkDims: [3]uint32{8, 8, 8}, ChunkSize: 8}

var red = mgl32.Vec4{1, 0, 0, 1}

func newEditor(t *testing.T, initial ...volume.Voxel) (*Editor, *renderer.Renderer) {
	t.Helper()
	r := renderer.New(hostdev.New(), renderer.WithViewport(32, 32))
	require.NoError(t, r.Init(grid, initial))
	e := NewEditor(r)
	e.Track(initial)
	return e, r
}

func down(x, y float32) Ray {
	return Ray{Origin: mgl32.Vec3{x, y, 20}, Direction: mgl32.Vec3{0, 0, -1}}
}

func TestPickRayThroughCentre(t *testing.T) {
	cam := core.NewFlyCamera()
	cam.Yaw = 0.3
	ray := PickRay(320, 240, 640, 480, cam)
	assert.Equal(t, cam.Position(), ray.Origin)
	assert.InDelta(t, 1, ray.Direction.Dot(cam.Forward()), 1e-5)

	left := PickRay(0, 240, 640, 480, cam)
	assert.Less(t, left.Direction.Dot(cam.Right()), float32(0))
	top := PickRay(320, 0, 640, 480, cam)
	assert.Greater(t, top.Direction.Dot(cam.Up()), float32(0))
}

func TestPick(t *testing.T) {
	e, _ := newEditor(t, volume.Voxel{Index: volume.Index{4, 4, 4}, Color: red})

	tests := []struct {
		name   string
		ray    Ray
		hit    bool
		index  volume.Index
		normal [3]int
		t      float32
	}{
		{"straight down z", down(4.5, 4.5), true, volume.Index{4, 4, 4}, [3]int{0, 0, 1}, 15},
		{"beside the voxel", down(5.5, 4.5), false, volume.Index{}, [3]int{}, 0},
		{"pointing away", Ray{Origin: mgl32.Vec3{4.5, 4.5, 20}, Direction: mgl32.Vec3{0, 0, 1}}, false, volume.Index{}, [3]int{}, 0},
		{"along x", Ray{Origin: mgl32.Vec3{-3, 4.5, 4.5}, Direction: mgl32.Vec3{1, 0, 0}}, true, volume.Index{4, 4, 4}, [3]int{-1, 0, 0}, 7},
		{"from inside", Ray{Origin: mgl32.Vec3{4.5, 4.5, 4.5}, Direction: mgl32.Vec3{0, 1, 0}}, true, volume.Index{4, 4, 4}, [3]int{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := e.Pick(tt.ray)
			if !tt.hit {
				assert.Nil(t, hit)
				return
			}
			require.NotNil(t, hit)
			assert.Equal(t, tt.index, hit.Index)
			assert.Equal(t, tt.normal, hit.Normal)
			assert.InDelta(t, tt.t, hit.T, 1e-4)
		})
	}
}

func TestPlaceAndErase(t *testing.T) {
	e, r := newEditor(t, volume.Voxel{Index: volume.Index{4, 4, 4}, Color: red})
	e.BrushRadius = 0
	e.BrushColor = mgl32.Vec4{0, 1, 0, 1}

	require.NoError(t, e.Place(e.Pick(down(4.5, 4.5))))
	c, ok, err := r.VoxelAt(volume.Index{4, 4, 5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, c)
	assert.Equal(t, 2, e.Count())

	hit := e.Pick(down(4.5, 4.5))
	require.NotNil(t, hit)
	assert.Equal(t, volume.Index{4, 4, 5}, hit.Index)

	require.NoError(t, e.Erase(hit))
	c, _, err = r.VoxelAt(volume.Index{4, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{}, c)
	assert.Equal(t, volume.Index{4, 4, 4}, e.Pick(down(4.5, 4.5)).Index)

	assert.NoError(t, e.Place(nil))
	assert.NoError(t, e.Erase(nil))
}

func TestBrushStaysInsideGrid(t *testing.T) {
	e, _ := newEditor(t, volume.Voxel{Index: volume.Index{0, 0, 0}, Color: red})
	e.BrushRadius = 1
	hit := &HitResult{Index: volume.Index{0, 0, 0}, Normal: [3]int{-1, 0, 0}}
	require.NoError(t, e.Place(hit))
	// The centre (-1,0,0) is off the grid; (0,0,0) is the only cell of the
	// sphere left after clipping.
	_, ok := e.At(volume.Index{0, 0, 0})
	assert.True(t, ok)
	assert.Equal(t, 1, e.Count())
}

func TestMoveSelected(t *testing.T) {
	e, r := newEditor(t,
		volume.Voxel{Index: volume.Index{4, 4, 4}, Color: red},
		volume.Voxel{Index: volume.Index{6, 4, 4}, Color: red},
	)
	moved, err := e.MoveSelected([3]int{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, moved, "nothing selected")

	e.Select(down(4.5, 4.5))
	require.NotNil(t, e.Selected)

	moved, err = e.MoveSelected([3]int{1, 0, 0})
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, volume.Index{5, 4, 4}, *e.Selected)

	c, _, err := r.VoxelAt(volume.Index{5, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, red, c)
	c, _, err = r.VoxelAt(volume.Index{4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{}, c)

	moved, _ = e.MoveSelected([3]int{1, 0, 0})
	assert.False(t, moved, "target occupied")
	moved, _ = e.MoveSelected([3]int{0, 0, 8})
	assert.False(t, moved, "off the grid")
	moved, _ = e.MoveSelected([3]int{-9, 0, 0})
	assert.False(t, moved, "negative coordinate")

	e.Select(down(0.5, 0.5))
	assert.Nil(t, e.Selected)
}

func TestBrushRadiusAndRing(t *testing.T) {
	e, _ := newEditor(t)
	e.AdjustBrush(100)
	assert.Equal(t, float32(16), e.BrushRadius)
	e.AdjustBrush(0)
	assert.Zero(t, e.BrushRadius)
	e.AdjustBrush(1.1)
	assert.Equal(t, float32(0.5), e.BrushRadius)

	cam := core.NewFlyCamera()
	cam.Fov = 90
	e.BrushRadius = 1.5
	ring := e.RingRadius(&HitResult{T: 10}, cam, 400)
	assert.InDelta(t, 2.0/10*200, ring, 1e-3)
	assert.Zero(t, e.RingRadius(nil, cam, 400))
}

func TestTrackAndForget(t *testing.T) {
	e, _ := newEditor(t)
	e.Track([]volume.Voxel{
		{Index: volume.Index{1, 1, 1}, Color: red},
		{Index: volume.Index{9, 0, 0}, Color: red},
	})
	assert.Equal(t, 1, e.Count())
	e.Track([]volume.Voxel{{Index: volume.Index{1, 1, 1}}})
	assert.Zero(t, e.Count())

	e.Track([]volume.Voxel{{Index: volume.Index{1, 1, 1}, Color: red}})
	e.Forget()
	assert.Zero(t, e.Count())
	assert.Nil(t, e.Pick(down(1.5, 1.5)))
}
