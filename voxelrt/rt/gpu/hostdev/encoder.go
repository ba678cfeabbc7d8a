package hostdev

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
)

type op struct {
	pass   Pass
	kernel *Kernel
	b      *gpu.Bindings
}

type encoder struct {
	dev       *Device
	ops       []op
	submitted bool
}

func (e *encoder) kernel(k gpu.Kernel, compute bool) (*Kernel, error) {
	hk, ok := k.(*Kernel)
	if !ok || hk == nil {
		return nil, fmt.Errorf("hostdev: foreign kernel %T", k)
	}
	if hk.released {
		return nil, fmt.Errorf("%w: kernel %q", ErrReleased, hk.desc.Label)
	}
	if hk.compute != compute {
		return nil, fmt.Errorf("hostdev: kernel %q used as the wrong pipeline type", hk.desc.Label)
	}
	return hk, nil
}

func (e *encoder) checkResources(b *gpu.Bindings) error {
	for slot, buf := range b.Buffers {
		if _, err := e.dev.buffer(buf); err != nil {
			return fmt.Errorf("slot %d: %w", slot, err)
		}
	}
	for slot, tex := range b.Textures {
		ht, ok := tex.(*Texture)
		if !ok || ht.released {
			return fmt.Errorf("slot %d: %w: texture", slot, ErrReleased)
		}
	}
	return nil
}

func (e *encoder) Dispatch(k gpu.Kernel, b *gpu.Bindings, groups [3]uint32) error {
	if e.submitted {
		return fmt.Errorf("hostdev: encoder already submitted")
	}
	hk, err := e.kernel(k, true)
	if err != nil {
		return err
	}
	if err := b.Check(hk.Layout()); err != nil {
		return err
	}
	if err := e.checkResources(b); err != nil {
		return err
	}
	e.ops = append(e.ops, op{
		pass:   Pass{Kernel: hk.Label(), Label: hk.Label(), Groups: groups},
		kernel: hk,
		b:      b,
	})
	return nil
}

func (e *encoder) Draw(k gpu.Kernel, b *gpu.Bindings, rp gpu.RenderPass, vertices uint32) error {
	if e.submitted {
		return fmt.Errorf("hostdev: encoder already submitted")
	}
	hk, err := e.kernel(k, false)
	if err != nil {
		return err
	}
	if err := b.Check(hk.Layout()); err != nil {
		return err
	}
	if err := e.checkResources(b); err != nil {
		return err
	}
	if len(rp.Color) != len(hk.desc.Targets) {
		return fmt.Errorf("hostdev: pass %q has %d color attachments, kernel %q writes %d", rp.Label, len(rp.Color), hk.Label(), len(hk.desc.Targets))
	}
	if (rp.Depth != nil) != hk.desc.Depth {
		return fmt.Errorf("hostdev: pass %q depth attachment does not match kernel %q", rp.Label, hk.Label())
	}

	pass := Pass{
		Kernel:   hk.Label(),
		Label:    rp.Label,
		Vertices: vertices,
		Reads:    make(map[uint32]string),
		Clear:    rp.Clear,
	}
	for slot, tex := range b.Textures {
		pass.Reads[slot] = tex.Label()
	}

	attachments := append([]gpu.Texture(nil), rp.Color...)
	if rp.Depth != nil {
		if !rp.Depth.Format().IsDepth() {
			return fmt.Errorf("hostdev: pass %q depth attachment has format %s", rp.Label, rp.Depth.Format())
		}
		attachments = append(attachments, rp.Depth)
		pass.Depth = rp.Depth.Label()
	}
	for i, tex := range attachments {
		if tex == nil {
			return fmt.Errorf("hostdev: pass %q attachment %d is nil", rp.Label, i)
		}
		ht, ok := tex.(*Texture)
		if !ok || ht.released {
			return fmt.Errorf("hostdev: pass %q attachment %d: %w", rp.Label, i, ErrReleased)
		}
		if ht.Width() != attachments[0].Width() || ht.Height() != attachments[0].Height() {
			return fmt.Errorf("hostdev: pass %q attachments differ in size", rp.Label)
		}
		if i < len(rp.Color) && ht.Format() != hk.desc.Targets[i] {
			return fmt.Errorf("hostdev: pass %q attachment %d is %s, kernel writes %s", rp.Label, i, ht.Format(), hk.desc.Targets[i])
		}
		for _, read := range b.Textures {
			if read == tex {
				return fmt.Errorf("hostdev: pass %q samples its own attachment %q", rp.Label, tex.Label())
			}
		}
		if i < len(rp.Color) {
			pass.Writes = append(pass.Writes, tex.Label())
		}
	}

	e.ops = append(e.ops, op{pass: pass, kernel: hk, b: b})
	return nil
}

// Submit runs the recorded compute work against current buffer contents and
// records every pass on the device.
func (e *encoder) Submit() error {
	if e.submitted {
		return fmt.Errorf("hostdev: encoder already submitted")
	}
	e.submitted = true
	for _, o := range e.ops {
		if o.kernel.compute && o.kernel.Label() == gpu.OccupancyKernel {
			if err := runOccupancy(e.dev, o.b); err != nil {
				return fmt.Errorf("occupancy kernel: %w", err)
			}
		}
		e.dev.Passes = append(e.dev.Passes, o.pass)
	}
	e.dev.Submits++
	return nil
}
