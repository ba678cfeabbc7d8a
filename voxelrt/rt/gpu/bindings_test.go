package gpu_test

import (
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu/hostdev"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingsCheck(t *testing.T) {
	dev := hostdev.New()
	buf := func(label string) gpu.Buffer {
		b, err := dev.CreateBuffer(label, 64, gpu.UsageStorage)
		require.NoError(t, err)
		return b
	}
	tex := func(label string, f gpu.TextureFormat) gpu.Texture {
		x, err := dev.CreateTexture(gpu.TextureDesc{Label: label, Width: 4, Height: 4, Format: f})
		require.NoError(t, err)
		return x
	}
	color := tex("color", gpu.FormatRGBA16Float)
	depth := tex("depth", gpu.FormatDepth32Float)

	tests := []struct {
		name   string
		layout gpu.BindingLayout
		b      *gpu.Bindings
		ok     bool
	}{
		{
			name:   "occupancy complete",
			layout: gpu.OccupancyLayout,
			b:      gpu.NewBindings().Buffer(gpu.SlotVoxels, buf("v")).Buffer(gpu.SlotOccupancy, buf("o")).Buffer(gpu.SlotParams, buf("p")),
			ok:     true,
		},
		{
			name:   "missing buffer",
			layout: gpu.OccupancyLayout,
			b:      gpu.NewBindings().Buffer(gpu.SlotVoxels, buf("v")).Buffer(gpu.SlotParams, buf("p")),
		},
		{
			name:   "extra slot",
			layout: gpu.BlurLayout,
			b:      gpu.NewBindings().Texture(gpu.SlotScreen, color).Buffer(gpu.SlotParams, buf("p")).Buffer(gpu.SlotVoxels, buf("v")),
		},
		{
			name:   "texture where buffer expected",
			layout: gpu.BlurLayout,
			b:      gpu.NewBindings().Texture(gpu.SlotScreen, color).Texture(gpu.SlotParams, color),
		},
		{
			name:   "color texture in depth slot",
			layout: gpu.CompositeLayout,
			b: gpu.NewBindings().Texture(gpu.SlotScreen, color).Texture(gpu.SlotBloom, color).
				Texture(gpu.SlotDepth, color).Buffer(gpu.SlotParams, buf("p")),
		},
		{
			name:   "composite complete",
			layout: gpu.CompositeLayout,
			b: gpu.NewBindings().Texture(gpu.SlotScreen, color).Texture(gpu.SlotBloom, color).
				Texture(gpu.SlotDepth, depth).Buffer(gpu.SlotParams, buf("p")),
			ok: true,
		},
		{
			name:   "nil bindings",
			layout: gpu.BlurLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Check(tt.layout)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, gpu.ErrBindingMismatch)
			}
		})
	}
}

func TestLayoutsUseFixedSlots(t *testing.T) {
	e, ok := gpu.PrimaryLayout.Entry(gpu.SlotChunks)
	require.True(t, ok)
	assert.Equal(t, "chunks", e.Name)

	for kind, slot := range map[gpu.BufferKind]uint32{
		gpu.ChunkBuffer:     0,
		gpu.VoxelBuffer:     1,
		gpu.OccupancyBuffer: 2,
		gpu.LightBuffer:     3,
	} {
		assert.Equal(t, slot, kind.Slot(), kind.String())
		_, ok := gpu.PrimaryLayout.Entry(slot)
		assert.True(t, ok, "primary layout binds %s", kind)
	}

	sorted := gpu.BindingLayout{{Slot: 4}, {Slot: 1}, {Slot: 2}}.Sorted()
	assert.Equal(t, []uint32{1, 2, 4}, []uint32{sorted[0].Slot, sorted[1].Slot, sorted[2].Slot})
}
