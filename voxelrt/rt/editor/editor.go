// Package editor picks voxels under the cursor and edits the grid through
// the renderer's mutation API. It keeps a CPU mirror of every voxel it has
// seen so picking never reads the GPU.
package editor

import (
	"math"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Grid is the part of the renderer the editor writes through.
type Grid interface {
	Layout() volume.Layout
	UpdateVoxel(v volume.Voxel) error
	ClearVoxel(idx volume.Index) error
	MoveVoxel(old volume.Voxel, to volume.Index) error
}

type Editor struct {
	BrushRadius float32
	BrushColor  mgl32.Vec4
	Selected    *volume.Index

	grid   Grid
	mirror map[volume.Index]mgl32.Vec4
}

func NewEditor(grid Grid) *Editor {
	return &Editor{
		BrushRadius: 2.0,
		BrushColor:  mgl32.Vec4{0.8, 0.8, 0.8, 1},
		grid:        grid,
		mirror:      make(map[volume.Index]mgl32.Vec4),
	}
}

// Track records voxels written to the grid by someone else, such as the
// initial scene passed to Init.
func (e *Editor) Track(voxels []volume.Voxel) {
	l := e.grid.Layout()
	for _, v := range voxels {
		if !l.Contains(v.Index) {
			continue
		}
		if volume.PackColor(v.Color) == 0 {
			delete(e.mirror, v.Index)
			continue
		}
		e.mirror[v.Index] = v.Color
	}
}

// Forget empties the mirror, matching ClearAllVoxels.
func (e *Editor) Forget() {
	e.mirror = make(map[volume.Index]mgl32.Vec4)
	e.Selected = nil
}

func (e *Editor) Count() int { return len(e.mirror) }

func (e *Editor) At(idx volume.Index) (mgl32.Vec4, bool) {
	c, ok := e.mirror[idx]
	return c, ok
}

// PickRay returns the world-space ray through a cursor position given in
// window pixels from the top-left corner.
func PickRay(mouseX, mouseY float64, width, height int, cam core.Camera) Ray {
	if width <= 0 || height <= 0 {
		return Ray{cam.Position(), cam.Forward()}
	}
	nx := (2.0*float32(mouseX))/float32(width) - 1.0
	ny := 1.0 - (2.0*float32(mouseY))/float32(height)

	aspect := float32(width) / float32(height)
	tanHalfFov := float32(math.Tan(float64(mgl32.DegToRad(cam.FOV()) / 2.0)))

	dir := cam.Forward().
		Add(cam.Right().Mul(nx * aspect * tanHalfFov)).
		Add(cam.Up().Mul(ny * tanHalfFov))
	return Ray{cam.Position(), dir.Normalize()}
}

type HitResult struct {
	Index volume.Index
	// Normal is the face the ray entered through, zero when the ray starts
	// inside the voxel.
	Normal [3]int
	// T is the world distance along the ray to the entry point.
	T float32
}

// Pick walks the voxel grid along ray and returns the first voxel present
// in the mirror, or nil.
func (e *Editor) Pick(ray Ray) *HitResult {
	l := e.grid.Layout()
	if l.Validate() != nil || ray.Direction.Len() == 0 {
		return nil
	}
	vs := l.VoxelSize()
	dims := l.GridDims()

	var ro, rd [3]float64
	for i := 0; i < 3; i++ {
		ro[i] = float64(ray.Origin[i] / vs[i])
		rd[i] = float64(ray.Direction.Normalize()[i] / vs[i])
	}

	tEnter, tExit, enterAxis := intersectBox(ro, rd, dims)
	if tEnter > tExit || tExit < 0 {
		return nil
	}
	t := math.Max(tEnter, 0)

	var cell, step [3]int
	var tMax, tDelta [3]float64
	for i := 0; i < 3; i++ {
		p := ro[i] + rd[i]*t
		c := int(math.Floor(p))
		if c < 0 {
			c = 0
		}
		if c >= int(dims[i]) {
			c = int(dims[i]) - 1
		}
		cell[i] = c
		switch {
		case rd[i] > 0:
			step[i] = 1
			tDelta[i] = 1 / rd[i]
			tMax[i] = t + (float64(c+1)-p)/rd[i]
		case rd[i] < 0:
			step[i] = -1
			tDelta[i] = -1 / rd[i]
			tMax[i] = t + (float64(c)-p)/rd[i]
		default:
			tDelta[i] = math.Inf(1)
			tMax[i] = math.Inf(1)
		}
	}

	var normal [3]int
	if tEnter > 0 && enterAxis >= 0 {
		normal[enterAxis] = -sign(rd[enterAxis])
	}

	maxSteps := int(dims[0] + dims[1] + dims[2])
	for n := 0; n <= maxSteps; n++ {
		idx := volume.Index{uint32(cell[0]), uint32(cell[1]), uint32(cell[2])}
		if _, ok := e.mirror[idx]; ok {
			return &HitResult{Index: idx, Normal: normal, T: float32(t)}
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t = tMax[axis]
		if t > tExit {
			return nil
		}
		cell[axis] += step[axis]
		if cell[axis] < 0 || cell[axis] >= int(dims[axis]) {
			return nil
		}
		tMax[axis] += tDelta[axis]
		normal = [3]int{}
		normal[axis] = -step[axis]
	}
	return nil
}

func (e *Editor) Select(ray Ray) {
	if hit := e.Pick(ray); hit != nil {
		idx := hit.Index
		e.Selected = &idx
	} else {
		e.Selected = nil
	}
}

// Place fills the brush sphere on the face of hit with BrushColor.
func (e *Editor) Place(hit *HitResult) error {
	if hit == nil {
		return nil
	}
	var center [3]int
	for i := 0; i < 3; i++ {
		center[i] = int(hit.Index[i]) + hit.Normal[i]
	}
	return e.brush(center, func(idx volume.Index) error {
		if err := e.grid.UpdateVoxel(volume.Voxel{Index: idx, Color: e.BrushColor}); err != nil {
			return err
		}
		e.mirror[idx] = e.BrushColor
		return nil
	})
}

// Erase clears the brush sphere centred on the hit voxel.
func (e *Editor) Erase(hit *HitResult) error {
	if hit == nil {
		return nil
	}
	center := [3]int{int(hit.Index[0]), int(hit.Index[1]), int(hit.Index[2])}
	return e.brush(center, func(idx volume.Index) error {
		if _, ok := e.mirror[idx]; !ok {
			return nil
		}
		if err := e.grid.ClearVoxel(idx); err != nil {
			return err
		}
		delete(e.mirror, idx)
		if e.Selected != nil && *e.Selected == idx {
			e.Selected = nil
		}
		return nil
	})
}

func (e *Editor) brush(center [3]int, apply func(volume.Index) error) error {
	l := e.grid.Layout()
	r := int(math.Ceil(float64(e.BrushRadius)))
	r2 := e.BrushRadius * e.BrushRadius
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if float32(dx*dx+dy*dy+dz*dz) > r2 {
					continue
				}
				x, y, z := center[0]+dx, center[1]+dy, center[2]+dz
				if x < 0 || y < 0 || z < 0 {
					continue
				}
				idx := volume.Index{uint32(x), uint32(y), uint32(z)}
				if !l.Contains(idx) {
					continue
				}
				if err := apply(idx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// MoveSelected shifts the selected voxel by delta. Moves off the grid or
// onto another voxel are refused and report false.
func (e *Editor) MoveSelected(delta [3]int) (bool, error) {
	if e.Selected == nil {
		return false, nil
	}
	from := *e.Selected
	color, ok := e.mirror[from]
	if !ok {
		e.Selected = nil
		return false, nil
	}
	var to volume.Index
	for i := 0; i < 3; i++ {
		v := int(from[i]) + delta[i]
		if v < 0 {
			return false, nil
		}
		to[i] = uint32(v)
	}
	if to == from || !e.grid.Layout().Contains(to) {
		return false, nil
	}
	if _, taken := e.mirror[to]; taken {
		return false, nil
	}
	if err := e.grid.MoveVoxel(volume.Voxel{Index: from, Color: color}, to); err != nil {
		return false, err
	}
	delete(e.mirror, from)
	e.mirror[to] = color
	e.Selected = &to
	return true, nil
}

// AdjustBrush scales the brush radius, keeping it within [0, 16] voxels.
func (e *Editor) AdjustBrush(factor float32) {
	r := e.BrushRadius * factor
	if factor > 1 && r < 0.5 {
		r = 0.5
	}
	e.BrushRadius = mgl32.Clamp(r, 0, 16)
}

// RingRadius is the on-screen radius in pixels of the brush sphere at the
// hit point, for the composite pass's edit ring.
func (e *Editor) RingRadius(hit *HitResult, cam core.Camera, height int) float32 {
	if hit == nil || hit.T <= 0 || height <= 0 {
		return 0
	}
	vs := e.grid.Layout().VoxelSize()
	world := (e.BrushRadius + 0.5) * vs.X()
	tanHalfFov := float32(math.Tan(float64(mgl32.DegToRad(cam.FOV()) / 2.0)))
	return world / (hit.T * tanHalfFov) * float32(height) / 2
}

// intersectBox clips a ray to [0, dims). It returns the entry and exit
// parameters and the axis of the entry face.
func intersectBox(ro, rd [3]float64, dims [3]uint32) (float64, float64, int) {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	axis := -1
	for i := 0; i < 3; i++ {
		hi := float64(dims[i])
		if rd[i] == 0 {
			if ro[i] < 0 || ro[i] >= hi {
				return 1, 0, -1
			}
			continue
		}
		t1 := (0 - ro[i]) / rd[i]
		t2 := (hi - ro[i]) / rd[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
			axis = i
		}
		tMax = math.Min(tMax, t2)
	}
	return tMin, tMax, axis
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
