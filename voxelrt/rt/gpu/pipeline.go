package gpu

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"
)

// BloomSource marks a blur step reading the primary pass bright image.
const BloomSource = -1

type BloomStep struct {
	Target     int // ping-pong image written
	Source     int // ping-pong image read, or BloomSource
	Horizontal bool
}

// BloomSchedule plans n alternating blur passes. The first pass is
// horizontal and writes image 1. final is the image holding the result,
// BloomSource when n is 0.
func BloomSchedule(n int) (steps []BloomStep, final int) {
	horizontal := true
	final = BloomSource
	for i := 0; i < n; i++ {
		h := 0
		if horizontal {
			h = 1
		}
		src := 1 - h
		if i == 0 {
			src = BloomSource
		}
		steps = append(steps, BloomStep{Target: h, Source: src, Horizontal: horizontal})
		final = h
		horizontal = !horizontal
	}
	return steps, final
}

// Frame is the input of one Render call.
type Frame struct {
	Camera      core.Camera
	Settings    core.Settings
	Mode        core.ViewingMode
	PointLights uint32
	Surface     Surface
	Overlay     Overlay // optional, drawn over the composite
}

// Pipeline runs the primary, bloom and composite passes over a BufferSet.
type Pipeline struct {
	dev     Device
	set     *BufferSet
	grid    volume.Layout
	Targets *FrameTargets

	primary   Kernel
	blur      Kernel
	composite Kernel

	frameBuf Buffer
	postBuf  Buffer
	blurBufs [2]Buffer // index 1 is the horizontal pass
}

func NewPipeline(dev Device, set *BufferSet, grid volume.Layout, width, height uint32) (*Pipeline, error) {
	p := &Pipeline{dev: dev, set: set, grid: grid}
	if err := p.init(width, height); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) init(width, height uint32) error {
	var err error
	if p.primary, err = p.dev.CreateRenderKernel(KernelDesc{
		Label:   PrimaryKernel,
		Layout:  PrimaryLayout,
		Targets: []TextureFormat{FormatRGBA16Float, FormatRGBA16Float},
		Depth:   true,
	}); err != nil {
		return fmt.Errorf("create primary kernel: %w", err)
	}
	if p.blur, err = p.dev.CreateRenderKernel(KernelDesc{
		Label:   BlurKernel,
		Layout:  BlurLayout,
		Targets: []TextureFormat{FormatRGBA16Float},
	}); err != nil {
		return fmt.Errorf("create blur kernel: %w", err)
	}
	if p.composite, err = p.dev.CreateRenderKernel(KernelDesc{
		Label:   CompositeKernel,
		Layout:  CompositeLayout,
		Targets: []TextureFormat{FormatSurface},
	}); err != nil {
		return fmt.Errorf("create composite kernel: %w", err)
	}

	if p.frameBuf, err = p.dev.CreateBuffer("frame-uniforms", FrameUniformSize, UsageUniform); err != nil {
		return err
	}
	if p.postBuf, err = p.dev.CreateBuffer("post-uniforms", PostUniformSize, UsageUniform); err != nil {
		return err
	}
	for i := range p.blurBufs {
		if p.blurBufs[i], err = p.dev.CreateBuffer(fmt.Sprintf("blur-uniforms-%d", i), BlurUniformSize, UsageUniform); err != nil {
			return err
		}
		if err = p.dev.WriteBuffer(p.blurBufs[i], 0, BuildBlurUniforms(i == 1)); err != nil {
			return err
		}
	}

	p.Targets, err = NewFrameTargets(p.dev, width, height)
	return err
}

func (p *Pipeline) Resize(width, height uint32) error {
	return p.Targets.Resize(width, height)
}

func (p *Pipeline) Size() (uint32, uint32) {
	return p.Targets.Width, p.Targets.Height
}

// Render encodes and submits one frame into f.Surface.
func (p *Pipeline) Render(f Frame) error {
	if f.Camera == nil || f.Surface == nil {
		return fmt.Errorf("gpu: frame needs a camera and a surface")
	}
	w, h := p.Size()
	frame := BuildFrameUniforms(FrameParams{
		Grid:        p.grid,
		Camera:      f.Camera,
		Settings:    f.Settings,
		Mode:        f.Mode,
		Width:       w,
		Height:      h,
		PointLights: f.PointLights,
	})
	if err := p.dev.WriteBuffer(p.frameBuf, 0, frame); err != nil {
		return err
	}
	if err := p.dev.WriteBuffer(p.postBuf, 0, BuildPostUniforms(f.Camera, f.Settings, w, h)); err != nil {
		return err
	}

	target, err := f.Surface.CurrentTarget()
	if err != nil {
		return fmt.Errorf("acquire surface: %w", err)
	}
	enc, err := p.dev.BeginFrame()
	if err != nil {
		return err
	}
	clearColor := f.Surface.ClearColor()
	t := p.Targets

	primary := p.set.Bind(NewBindings(), ChunkBuffer, VoxelBuffer, OccupancyBuffer, LightBuffer).
		Buffer(SlotParams, p.frameBuf)
	if err := DrawFullscreen(enc, p.primary, primary, RenderPass{
		Label:      "primary",
		Color:      []Texture{t.Color, t.Bright},
		Depth:      t.Depth,
		Clear:      true,
		ClearColor: clearColor,
	}); err != nil {
		return fmt.Errorf("primary pass: %w", err)
	}

	steps, final := BloomSchedule(BloomIterations)
	for i, s := range steps {
		src := t.Bright
		if s.Source != BloomSource {
			src = t.PingPong[s.Source]
		}
		b := NewBindings().Texture(SlotScreen, src).Buffer(SlotParams, p.blurBufs[boolIndex(s.Horizontal)])
		if err := DrawFullscreen(enc, p.blur, b, RenderPass{
			Label: fmt.Sprintf("bloom-%d", i),
			Color: []Texture{t.PingPong[s.Target]},
			Clear: true,
		}); err != nil {
			return fmt.Errorf("bloom pass %d: %w", i, err)
		}
	}
	bloom := t.Bright
	if final != BloomSource {
		bloom = t.PingPong[final]
	}

	post := NewBindings().
		Texture(SlotScreen, t.Color).
		Texture(SlotBloom, bloom).
		Texture(SlotDepth, t.Depth).
		Buffer(SlotParams, p.postBuf)
	if err := DrawFullscreen(enc, p.composite, post, RenderPass{
		Label:      "composite",
		Color:      []Texture{target},
		Clear:      true,
		ClearColor: clearColor,
	}); err != nil {
		return fmt.Errorf("composite pass: %w", err)
	}
	if f.Overlay != nil {
		if err := f.Overlay.Encode(enc, target); err != nil {
			return fmt.Errorf("overlay pass: %w", err)
		}
	}
	return enc.Submit()
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (p *Pipeline) Release() {
	for _, k := range []*Kernel{&p.primary, &p.blur, &p.composite} {
		if *k != nil {
			(*k).Release()
			*k = nil
		}
	}
	for _, b := range []*Buffer{&p.frameBuf, &p.postBuf, &p.blurBufs[0], &p.blurBufs[1]} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	if p.Targets != nil {
		p.Targets.Release()
	}
}
