package gldev

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/go-gl/gl/v4.3-core/gl"
)

// encoder defers every pass to Submit so passes observe buffer writes made
// after they were recorded.
type encoder struct {
	dev       *Device
	ops       []func() error
	submitted bool
}

func (e *encoder) kernel(k gpu.Kernel, compute bool) (*Kernel, error) {
	gk, ok := k.(*Kernel)
	if !ok || gk == nil {
		return nil, fmt.Errorf("gldev: foreign kernel %T", k)
	}
	if gk.program == 0 {
		return nil, fmt.Errorf("%w: kernel %q", ErrReleased, gk.desc.Label)
	}
	if gk.compute != compute {
		return nil, fmt.Errorf("gldev: kernel %q used as the wrong pipeline type", gk.desc.Label)
	}
	return gk, nil
}

// bind attaches the pass resources to their slots. Buffer slots map to
// indexed SSBO or UBO binding points and texture slots to texture units.
func (e *encoder) bind(k *Kernel, b *gpu.Bindings) error {
	for _, le := range k.desc.Layout.Sorted() {
		if le.Kind.IsBuffer() {
			buf, err := e.dev.buffer(b.Buffers[le.Slot])
			if err != nil {
				return fmt.Errorf("slot %d (%s): %w", le.Slot, le.Name, err)
			}
			target := uint32(gl.SHADER_STORAGE_BUFFER)
			if le.Kind == gpu.BindUniform {
				target = gl.UNIFORM_BUFFER
			}
			gl.BindBufferBase(target, le.Slot, buf.id)
			continue
		}
		tex, ok := b.Textures[le.Slot].(*Texture)
		if !ok || tex.framebuffer || !tex.usable() {
			return fmt.Errorf("gldev: slot %d (%s) texture is released or not sampleable", le.Slot, le.Name)
		}
		gl.ActiveTexture(gl.TEXTURE0 + le.Slot)
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
	}
	return nil
}

func (e *encoder) Dispatch(k gpu.Kernel, b *gpu.Bindings, groups [3]uint32) error {
	if e.submitted {
		return fmt.Errorf("gldev: encoder already submitted")
	}
	gk, err := e.kernel(k, true)
	if err != nil {
		return err
	}
	if err := b.Check(gk.desc.Layout); err != nil {
		return err
	}
	e.ops = append(e.ops, func() error {
		gl.UseProgram(gk.program)
		if err := e.bind(gk, b); err != nil {
			return err
		}
		gl.DispatchCompute(groups[0], groups[1], groups[2])
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
		return glError("dispatch " + gk.desc.Label)
	})
	return nil
}

// checkPass validates the attachments of a draw against the kernel.
func checkPass(desc gpu.KernelDesc, b *gpu.Bindings, rp gpu.RenderPass) error {
	if len(rp.Color) != len(desc.Targets) {
		return fmt.Errorf("gldev: pass %q has %d color attachments, kernel %q writes %d", rp.Label, len(rp.Color), desc.Label, len(desc.Targets))
	}
	onScreen := false
	for i, c := range rp.Color {
		tex, ok := c.(*Texture)
		if !ok || !tex.usable() {
			return fmt.Errorf("gldev: pass %q attachment %d is released or foreign", rp.Label, i)
		}
		if tex.desc.Format != desc.Targets[i] {
			return fmt.Errorf("gldev: pass %q attachment %d is %s, kernel writes %s", rp.Label, i, tex.desc.Format, desc.Targets[i])
		}
		for slot, in := range b.Textures {
			if in == c {
				return fmt.Errorf("gldev: pass %q samples its own attachment at slot %d", rp.Label, slot)
			}
		}
		onScreen = onScreen || tex.framebuffer
	}
	if onScreen && len(rp.Color) > 1 {
		return fmt.Errorf("gldev: pass %q mixes the default framebuffer with textures", rp.Label)
	}
	if desc.Depth != (rp.Depth != nil) {
		return fmt.Errorf("gldev: pass %q depth attachment does not match kernel %q", rp.Label, desc.Label)
	}
	if rp.Depth != nil {
		tex, ok := rp.Depth.(*Texture)
		if !ok || !tex.usable() || !tex.desc.Format.IsDepth() {
			return fmt.Errorf("gldev: pass %q depth attachment is not a depth texture", rp.Label)
		}
		if onScreen {
			return fmt.Errorf("gldev: pass %q cannot attach depth to the default framebuffer", rp.Label)
		}
	}
	return nil
}

func (e *encoder) Draw(k gpu.Kernel, b *gpu.Bindings, rp gpu.RenderPass, vertices uint32) error {
	if e.submitted {
		return fmt.Errorf("gldev: encoder already submitted")
	}
	gk, err := e.kernel(k, false)
	if err != nil {
		return err
	}
	if err := b.Check(gk.desc.Layout); err != nil {
		return err
	}
	if err := checkPass(gk.desc, b, rp); err != nil {
		return err
	}
	e.ops = append(e.ops, func() error { return e.draw(gk, b, rp, vertices) })
	return nil
}

func (e *encoder) draw(k *Kernel, b *gpu.Bindings, rp gpu.RenderPass, vertices uint32) error {
	first := rp.Color[0].(*Texture)

	var fbo uint32
	if first.framebuffer {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	} else {
		gl.GenFramebuffers(1, &fbo)
		defer gl.DeleteFramebuffers(1, &fbo)
		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		bufs := make([]uint32, len(rp.Color))
		for i, c := range rp.Color {
			bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, bufs[i], gl.TEXTURE_2D, c.(*Texture).id, 0)
		}
		if rp.Depth != nil {
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, rp.Depth.(*Texture).id, 0)
		}
		gl.DrawBuffers(int32(len(bufs)), &bufs[0])
		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return fmt.Errorf("gldev: pass %q framebuffer incomplete: 0x%x", rp.Label, status)
		}
	}
	gl.Viewport(0, 0, int32(first.desc.Width), int32(first.desc.Height))

	if k.desc.Depth {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LEQUAL)
		gl.DepthMask(true)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if k.desc.Blend {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE)
	} else {
		gl.Disable(gl.BLEND)
	}

	if rp.Clear {
		cc := rp.ClearColor
		gl.ClearColor(float32(cc[0]), float32(cc[1]), float32(cc[2]), float32(cc[3]))
		mask := uint32(gl.COLOR_BUFFER_BIT)
		if rp.Depth != nil {
			gl.ClearDepth(1)
			mask |= gl.DEPTH_BUFFER_BIT
		}
		gl.Clear(mask)
	}

	gl.UseProgram(k.program)
	if err := e.bind(k, b); err != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return err
	}
	gl.BindVertexArray(e.dev.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(vertices))
	gl.BindVertexArray(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return glError("draw " + rp.Label)
}

func (e *encoder) Submit() error {
	if e.submitted {
		return fmt.Errorf("gldev: encoder already submitted")
	}
	e.submitted = true
	ops := e.ops
	e.ops = nil
	for _, op := range ops {
		if err := op(); err != nil {
			return err
		}
	}
	gl.Flush()
	return nil
}
