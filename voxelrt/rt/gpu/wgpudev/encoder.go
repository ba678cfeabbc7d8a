package wgpudev

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
)

type encoder struct {
	dev       *Device
	enc       *wgpu.CommandEncoder
	groups    []*wgpu.BindGroup
	submitted bool
}

func (e *encoder) bindGroup(k *Kernel, b *gpu.Bindings) (*wgpu.BindGroup, error) {
	if err := b.Check(k.desc.Layout); err != nil {
		return nil, err
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(k.desc.Layout))
	for _, le := range k.desc.Layout.Sorted() {
		if le.Kind.IsBuffer() {
			buf, err := e.dev.buffer(b.Buffers[le.Slot])
			if err != nil {
				return nil, fmt.Errorf("slot %d (%s): %w", le.Slot, le.Name, err)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: le.Slot, Buffer: buf.buf, Size: wgpu.WholeSize})
			continue
		}
		tex, ok := b.Textures[le.Slot].(*Texture)
		if !ok || tex.view == nil {
			return nil, fmt.Errorf("wgpudev: slot %d (%s) texture is released or foreign", le.Slot, le.Name)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: le.Slot, TextureView: tex.view})
	}
	bg, err := e.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.desc.Label,
		Layout:  k.bgl,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpudev: bind group %q: %w", k.desc.Label, err)
	}
	e.groups = append(e.groups, bg)
	return bg, nil
}

func (e *encoder) Dispatch(k gpu.Kernel, b *gpu.Bindings, groups [3]uint32) error {
	if e.submitted {
		return fmt.Errorf("wgpudev: encoder already submitted")
	}
	wk, ok := k.(*Kernel)
	if !ok || wk.compute == nil {
		return fmt.Errorf("wgpudev: %q is not a compute kernel", k.Label())
	}
	bg, err := e.bindGroup(wk, b)
	if err != nil {
		return err
	}
	pass := e.enc.BeginComputePass(nil)
	pass.SetPipeline(wk.compute)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	err = pass.End()
	pass.Release()
	return err
}

func (e *encoder) Draw(k gpu.Kernel, b *gpu.Bindings, rp gpu.RenderPass, vertices uint32) error {
	if e.submitted {
		return fmt.Errorf("wgpudev: encoder already submitted")
	}
	wk, ok := k.(*Kernel)
	if !ok || wk.render == nil {
		return fmt.Errorf("wgpudev: %q is not a render kernel", k.Label())
	}
	if len(rp.Color) != len(wk.desc.Targets) {
		return fmt.Errorf("wgpudev: pass %q has %d color attachments, kernel %q writes %d", rp.Label, len(rp.Color), wk.desc.Label, len(wk.desc.Targets))
	}
	bg, err := e.bindGroup(wk, b)
	if err != nil {
		return err
	}

	load := wgpu.LoadOpLoad
	if rp.Clear {
		load = wgpu.LoadOpClear
	}
	cc := rp.ClearColor
	colors := make([]wgpu.RenderPassColorAttachment, len(rp.Color))
	for i, c := range rp.Color {
		tex, ok := c.(*Texture)
		if !ok || tex.view == nil {
			return fmt.Errorf("wgpudev: pass %q attachment %d is released or foreign", rp.Label, i)
		}
		colors[i] = wgpu.RenderPassColorAttachment{
			View:       tex.view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
		}
	}
	desc := &wgpu.RenderPassDescriptor{Label: rp.Label, ColorAttachments: colors}
	if rp.Depth != nil {
		tex, ok := rp.Depth.(*Texture)
		if !ok || tex.view == nil {
			return fmt.Errorf("wgpudev: pass %q depth attachment is released or foreign", rp.Label)
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            tex.view,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		}
	}

	pass := e.enc.BeginRenderPass(desc)
	pass.SetPipeline(wk.render)
	pass.SetBindGroup(0, bg, nil)
	pass.Draw(vertices, 1, 0, 0)
	err = pass.End()
	pass.Release()
	return err
}

func (e *encoder) Submit() error {
	if e.submitted {
		return fmt.Errorf("wgpudev: encoder already submitted")
	}
	e.submitted = true
	defer func() {
		for _, bg := range e.groups {
			bg.Release()
		}
		e.groups = nil
		e.enc.Release()
	}()
	cmd, err := e.enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("wgpudev: finish: %w", err)
	}
	e.dev.queue.Submit(cmd)
	cmd.Release()
	return nil
}
