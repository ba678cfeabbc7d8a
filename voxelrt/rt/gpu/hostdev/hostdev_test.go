package hostdev

import (
	"testing"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteRead(t *testing.T) {
	d := New()
	b, err := d.CreateBuffer("b", 16, gpu.UsageStorage)
	require.NoError(t, err)

	require.NoError(t, d.WriteBuffer(b, 4, []byte{1, 2, 3, 4}))
	out, err := d.ReadBuffer(b, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, out)

	assert.ErrorIs(t, d.WriteBuffer(b, 16, []byte{1, 2, 3, 4}), gpu.ErrOutOfRange)
	assert.Error(t, d.WriteBuffer(b, 2, []byte{1, 2, 3, 4}))

	b.Release()
	assert.ErrorIs(t, d.WriteBuffer(b, 0, []byte{1, 2, 3, 4}), ErrReleased)

	_, err = d.CreateBuffer("odd", 6, gpu.UsageStorage)
	assert.Error(t, err)
}

func TestDrawValidatesAttachments(t *testing.T) {
	d := New()
	k, err := d.CreateRenderKernel(gpu.KernelDesc{Label: gpu.BlurKernel, Layout: gpu.BlurLayout, Targets: []gpu.TextureFormat{gpu.FormatRGBA16Float}})
	require.NoError(t, err)
	params, err := d.CreateBuffer("p", gpu.BlurUniformSize, gpu.UsageUniform)
	require.NoError(t, err)
	a, _ := d.CreateTexture(gpu.TextureDesc{Label: "a", Width: 4, Height: 4, Format: gpu.FormatRGBA16Float})
	b, _ := d.CreateTexture(gpu.TextureDesc{Label: "b", Width: 4, Height: 4, Format: gpu.FormatRGBA16Float})
	depth, _ := d.CreateTexture(gpu.TextureDesc{Label: "d", Width: 4, Height: 4, Format: gpu.FormatDepth32Float})

	enc, err := d.BeginFrame()
	require.NoError(t, err)
	bind := func(src gpu.Texture) *gpu.Bindings {
		return gpu.NewBindings().Texture(gpu.SlotScreen, src).Buffer(gpu.SlotParams, params)
	}

	assert.Error(t, enc.Draw(k, bind(a), gpu.RenderPass{Color: []gpu.Texture{a}}, 3), "feedback loop")
	assert.Error(t, enc.Draw(k, bind(a), gpu.RenderPass{Color: []gpu.Texture{depth}}, 3), "format mismatch")
	assert.Error(t, enc.Draw(k, bind(a), gpu.RenderPass{Color: []gpu.Texture{b}, Depth: depth}, 3), "unexpected depth")
	assert.Error(t, enc.Draw(k, bind(a), gpu.RenderPass{}, 3), "missing attachment")
	assert.ErrorIs(t, enc.Draw(k, gpu.NewBindings(), gpu.RenderPass{Color: []gpu.Texture{b}}, 3), gpu.ErrBindingMismatch)
	require.NoError(t, enc.Draw(k, bind(a), gpu.RenderPass{Label: "ok", Color: []gpu.Texture{b}}, 3))

	require.NoError(t, enc.Submit())
	require.Len(t, d.Passes, 1)
	assert.Equal(t, "ok", d.Passes[0].Label)
	assert.Error(t, enc.Submit())

	_, err = d.CreateComputeKernel(gpu.KernelDesc{Label: gpu.BlurKernel})
	assert.ErrorIs(t, err, gpu.ErrUnknownKernel)
}

func TestTextureUpload(t *testing.T) {
	d := New()
	tex, err := d.CreateTexture(gpu.TextureDesc{Label: "atlas", Width: 2, Height: 2, Format: gpu.FormatR8})
	require.NoError(t, err)
	require.NoError(t, d.WriteTexture(tex, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, tex.(*Texture).Pixels())
	assert.Error(t, d.WriteTexture(tex, []byte{1}))

	_, err = d.CreateTexture(gpu.TextureDesc{Label: "empty"})
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}
