package app

import (
	"fmt"
	"sort"

	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
)

// A scene preset builds the initial voxels of a grid. Coordinates are in
// voxel units.
type scenePreset func(l volume.Layout) []volume.Voxel

var scenes = map[string]scenePreset{
	"empty": func(volume.Layout) []volume.Voxel { return nil },
	"demo":  demoScene,
	"floor": func(l volume.Layout) []volume.Voxel {
		d := l.GridDims()
		return l.Cube(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{float32(d[0]), 1, float32(d[2])}, mgl32.Vec4{0.45, 0.5, 0.4, 1})
	},
}

func demoScene(l volume.Layout) []volume.Voxel {
	d := l.GridDims()
	w, h, depth := float32(d[0]), float32(d[1]), float32(d[2])
	c := mgl32.Vec3{w / 2, 0, depth / 2}
	s := min(w, min(h, depth))

	var out []volume.Voxel
	out = append(out, l.Cube(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{w, 1, depth}, mgl32.Vec4{0.45, 0.5, 0.4, 1})...)
	out = append(out, l.Sphere(c.Add(mgl32.Vec3{0, s * 0.3, 0}), s*0.2, mgl32.Vec4{0.9, 0.2, 0.2, 1})...)
	out = append(out, l.Cube(
		c.Add(mgl32.Vec3{-s * 0.45, 1, -s * 0.1}),
		c.Add(mgl32.Vec3{-s * 0.25, s * 0.2, s * 0.1}),
		mgl32.Vec4{0.2, 0.4, 0.9, 1})...)
	out = append(out, l.Cone(c.Add(mgl32.Vec3{s * 0.35, 1, 0}), c.Add(mgl32.Vec3{s * 0.35, s * 0.35, 0}), s*0.1, mgl32.Vec4{0.9, 0.8, 0.2, 1})...)
	out = append(out, l.Pyramid(c.Add(mgl32.Vec3{0, 1, s * 0.35}), c.Add(mgl32.Vec3{0, s * 0.25, s * 0.35}), s*0.2, mgl32.Vec4{0.3, 0.8, 0.8, 0.5})...)
	return out
}

// BuildScene returns the voxels of a named preset.
func BuildScene(name string, l volume.Layout) ([]volume.Voxel, error) {
	p, ok := scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	return p(l), nil
}

func SceneNames() []string {
	out := make([]string, 0, len(scenes))
	for n := range scenes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
