package app

import (
	"fmt"
	"io"
	"math"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/editor"
	"github.com/gekko3d/voxgrid/voxelrt/rt/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// HeadlessStats summarizes a headless run.
type HeadlessStats struct {
	Frames        int
	Passes        int
	Submits       int
	Voxels        int
	OccupiedCells int
	Edits         int
}

// RunHeadless renders frames of the configured scene on the host device
// while orbiting the camera around the grid floor and placing one voxel per
// frame under the screen centre.
func RunHeadless(cfg Config, frames int, log core.Logger, out io.Writer) (HeadlessStats, error) {
	var stats HeadlessStats
	if err := cfg.Validate(); err != nil {
		return stats, err
	}
	backend, err := NewHostBackend(uint32(cfg.Window.Width), uint32(cfg.Window.Height))
	if err != nil {
		return stats, err
	}
	defer backend.Release()

	r := renderer.New(backend.Device(),
		renderer.WithLogger(log),
		renderer.WithSettings(cfg.Settings),
		renderer.WithViewport(uint32(cfg.Window.Width), uint32(cfg.Window.Height)),
	)
	voxels, err := BuildScene(cfg.Scene, cfg.Grid)
	if err != nil {
		return stats, err
	}
	if err := r.Init(cfg.Grid, voxels); err != nil {
		return stats, fmt.Errorf("init renderer: %w", err)
	}
	defer r.Release()
	r.SetViewingMode(cfg.Mode)
	if err := r.SetPointLights(cfg.PointLights()); err != nil {
		return stats, err
	}

	ed := editor.NewEditor(r)
	ed.Track(voxels)
	ed.BrushRadius = 0

	prof := NewProfiler()
	cam := core.NewFlyCamera()
	extent := cfg.Grid.WorldExtent()
	centre := extent.Mul(0.5)
	orbit := extent.Len()

	for i := 0; i < frames; i++ {
		a := 2 * math.Pi * float64(i) / float64(max(frames, 1))
		cam.Pos = centre.Add(mgl32.Vec3{
			float32(math.Sin(a)) * orbit,
			extent.Y(),
			float32(math.Cos(a)) * orbit,
		})
		cam.Far = orbit * 4
		cam.LookAt(mgl32.Vec3{centre.X(), 0, centre.Z()})

		if hit := ed.Pick(editor.PickRay(0.5, 0.5, 1, 1, cam)); hit != nil {
			if err := prof.Time("edit", func() error { return ed.Place(hit) }); err != nil {
				return stats, err
			}
			stats.Edits++
		}
		if err := prof.Time("draw", func() error { return r.Draw(cam, backend.Surface()) }); err != nil {
			return stats, fmt.Errorf("frame %d: %w", i, err)
		}
		backend.Present()
	}

	for c := uint32(0); c < cfg.Grid.TotalChunks(); c++ {
		cells, err := r.Occupancy(c)
		if err != nil {
			return stats, err
		}
		for _, v := range cells {
			if v != 0 {
				stats.OccupiedCells++
			}
		}
	}
	stats.Frames = frames
	stats.Passes = len(backend.Dev.Passes)
	stats.Submits = backend.Dev.Submits
	stats.Voxels = ed.Count()
	prof.SetCount("voxels", stats.Voxels)
	prof.SetCount("cells", stats.OccupiedCells)
	prof.SetCount("chunks", visibleChunks(cam, cfg.Grid, cfg.Window.Width, cfg.Window.Height))

	fmt.Fprintf(out, "grid %v x %v, %d frames on %s\n", cfg.Grid.ChunkNum, cfg.Grid.ChunkDims, frames, backend.Name())
	fmt.Fprintf(out, "%d passes in %d submits, %d edits\n", stats.Passes, stats.Submits, stats.Edits)
	for _, l := range prof.Lines() {
		fmt.Fprintln(out, l)
	}
	return stats, nil
}
