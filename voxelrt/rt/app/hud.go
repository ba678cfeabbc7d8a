package app

import (
	"fmt"
	"strings"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
)

var hudColor = [4]float32{1, 1, 0, 1}

// HUD lays out status text and feeds it to the text overlay.
type HUD struct {
	text    *core.TextRenderer
	overlay *gpu.TextOverlay
	items   []core.TextItem

	frames int
	since  float64
	last   float64
	FPS    float64
}

func NewHUD(dev gpu.Device) (*HUD, error) {
	tr, err := core.NewTextRenderer(nil, 16)
	if err != nil {
		return nil, err
	}
	overlay, err := gpu.NewTextOverlay(dev, tr)
	if err != nil {
		return nil, err
	}
	return &HUD{text: tr, overlay: overlay}, nil
}

func (h *HUD) Overlay() *gpu.TextOverlay { return h.overlay }

// Tick counts a frame presented at now, in seconds.
func (h *HUD) Tick(now float64) {
	if h.last > 0 {
		h.frames++
		h.since += now - h.last
		if h.since >= 1.0 {
			h.FPS = float64(h.frames) / h.since
			h.frames = 0
			h.since = 0
		}
	}
	h.last = now
}

func (h *HUD) Clear() { h.items = h.items[:0] }

func (h *HUD) DrawText(text string, x, y float32, scale float32, color [4]float32) {
	h.items = append(h.items, core.TextItem{
		Text:     text,
		Position: [2]float32{x, y},
		Scale:    scale,
		Color:    color,
	})
}

// Status lists the HUD lines for one frame.
func Status(fps float64, backend string, mode core.ViewingMode, brush float32, voxels int, profile []string) string {
	lines := []string{
		fmt.Sprintf("FPS %.1f  %s", fps, backend),
		fmt.Sprintf("mode %s  brush %.1f  voxels %d", mode, brush, voxels),
	}
	lines = append(lines, profile...)
	return strings.Join(lines, "\n")
}

// Upload lays out the queued text for a surface of the given size.
func (h *HUD) Upload(width, height int) error {
	return h.overlay.SetVertices(h.text.BuildVertices(h.items, width, height))
}

func (h *HUD) Release() {
	if h.overlay != nil {
		h.overlay.Release()
		h.overlay = nil
	}
}
