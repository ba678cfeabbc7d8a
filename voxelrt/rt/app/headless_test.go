package app

import (
	"bytes"
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/hostdev"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = BackendHost
	cfg.Scene = "floor"
	cfg.Window = WindowConfig{Width: 64, Height: 48, Title: "test"}
	cfg.Grid = volume.Layout{ChunkNum: [3]uint32{1, 1, 1}, ChunkDims: [3]uint32{8, 8, 8}, ChunkSize: 8}
	return cfg
}

func TestRunHeadless(t *testing.T) {
	var out bytes.Buffer
	stats, err := RunHeadless(smallConfig(), 4, core.NewNopLogger(), &out)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 4, stats.Edits)
	assert.GreaterOrEqual(t, stats.Submits, 4)
	assert.GreaterOrEqual(t, stats.Passes, 4*12)
	assert.GreaterOrEqual(t, stats.Voxels, 128)
	assert.GreaterOrEqual(t, stats.OccupiedCells, 128)
	assert.Contains(t, out.String(), "4 frames on host")
	assert.Contains(t, out.String(), "draw")
}

func TestRunHeadlessRejectsBadConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Scene = "castle"
	_, err := RunHeadless(cfg, 1, core.NewNopLogger(), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestHUDUpload(t *testing.T) {
	dev := hostdev.New()
	hud, err := NewHUD(dev)
	require.NoError(t, err)
	defer hud.Release()

	require.NoError(t, hud.Upload(640, 480))
	assert.Zero(t, hud.Overlay().Count())

	hud.DrawText(Status(59.5, "host", core.ViewColor, 2, 10, []string{"draw 1.00 ms"}), 10, 10, 1, hudColor)
	require.NoError(t, hud.Upload(640, 480))
	assert.NotZero(t, hud.Overlay().Count())
	assert.Zero(t, hud.Overlay().Count()%6)

	hud.Clear()
	require.NoError(t, hud.Upload(640, 480))
	assert.Zero(t, hud.Overlay().Count())
}

func TestStatusAndFPS(t *testing.T) {
	s := Status(30, "opengl", core.ViewNormal, 1.5, 42, []string{"pick 0.10 ms"})
	assert.Equal(t, "FPS 30.0  opengl\nmode normal  brush 1.5  voxels 42\npick 0.10 ms", s)

	h := &HUD{}
	for i := 0; i <= 11; i++ {
		h.Tick(1 + float64(i)*0.1)
	}
	assert.InDelta(t, 10, h.FPS, 1e-6)
}
