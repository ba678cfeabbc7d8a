package gldev

import (
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tex(label string, f gpu.TextureFormat) *Texture {
	return &Texture{desc: gpu.TextureDesc{Label: label, Width: 4, Height: 4, Format: f}, id: 1}
}

func TestCheckPass(t *testing.T) {
	primary := gpu.KernelDesc{
		Label:   gpu.PrimaryKernel,
		Targets: []gpu.TextureFormat{gpu.FormatRGBA16Float, gpu.FormatRGBA16Float},
		Depth:   true,
	}
	color, bright := tex("c", gpu.FormatRGBA16Float), tex("b", gpu.FormatRGBA16Float)
	depth := tex("d", gpu.FormatDepth32Float)
	none := gpu.NewBindings()

	assert.NoError(t, checkPass(primary, none, gpu.RenderPass{Color: []gpu.Texture{color, bright}, Depth: depth}))
	assert.Error(t, checkPass(primary, none, gpu.RenderPass{Color: []gpu.Texture{color}, Depth: depth}), "count")
	assert.Error(t, checkPass(primary, none, gpu.RenderPass{Color: []gpu.Texture{color, bright}}), "missing depth")
	assert.Error(t, checkPass(primary, none, gpu.RenderPass{Color: []gpu.Texture{color, depth}, Depth: depth}), "format")
	assert.Error(t, checkPass(primary, none, gpu.RenderPass{Color: []gpu.Texture{color, bright}, Depth: color}), "depth format")

	blur := gpu.KernelDesc{Label: gpu.BlurKernel, Targets: []gpu.TextureFormat{gpu.FormatRGBA16Float}}
	self := gpu.NewBindings().Texture(gpu.SlotScreen, color)
	assert.Error(t, checkPass(blur, self, gpu.RenderPass{Color: []gpu.Texture{color}}), "feedback loop")
	assert.NoError(t, checkPass(blur, self, gpu.RenderPass{Color: []gpu.Texture{bright}}))

	released := tex("r", gpu.FormatRGBA16Float)
	released.id = 0
	assert.Error(t, checkPass(blur, none, gpu.RenderPass{Color: []gpu.Texture{released}}))
}

func TestSurfaceTarget(t *testing.T) {
	swaps := 0
	s, err := NewSurface(640, 480, func() { swaps++ })
	require.NoError(t, err)

	target, err := s.CurrentTarget()
	require.NoError(t, err)
	assert.Equal(t, "surface", target.Label())
	assert.Equal(t, gpu.FormatSurface, target.Format())

	post := gpu.KernelDesc{Label: gpu.CompositeKernel, Targets: []gpu.TextureFormat{gpu.FormatSurface}}
	assert.NoError(t, checkPass(post, gpu.NewBindings(), gpu.RenderPass{Color: []gpu.Texture{target}}))
	assert.Error(t, checkPass(post, gpu.NewBindings(), gpu.RenderPass{Color: []gpu.Texture{target}, Depth: tex("d", gpu.FormatDepth32Float)}))

	s.Resize(0, 10)
	w, h := s.Size()
	assert.Equal(t, []uint32{640, 480}, []uint32{w, h})
	s.Resize(800, 600)
	assert.Equal(t, uint32(800), target.Width())

	s.Present()
	assert.Equal(t, 1, swaps)

	_, err = NewSurface(0, 1, nil)
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}

func TestFormatsAndTargets(t *testing.T) {
	internal, format, xtype := texFormat(gpu.FormatDepth32Float)
	assert.Equal(t, int32(gl.DEPTH_COMPONENT32F), internal)
	assert.Equal(t, uint32(gl.DEPTH_COMPONENT), format)
	assert.Equal(t, uint32(gl.FLOAT), xtype)

	internal, _, _ = texFormat(gpu.FormatR8)
	assert.Equal(t, int32(gl.R8), internal)

	assert.Equal(t, uint32(gl.UNIFORM_BUFFER), bufferTarget(gpu.UsageUniform))
	assert.Equal(t, uint32(gl.SHADER_STORAGE_BUFFER), bufferTarget(gpu.UsageStorage))
}
