package wgpudev

import (
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

type Kernel struct {
	desc    gpu.KernelDesc
	bgl     *wgpu.BindGroupLayout
	layout  *wgpu.PipelineLayout
	module  *wgpu.ShaderModule
	compute *wgpu.ComputePipeline
	render  *wgpu.RenderPipeline
}

func (k *Kernel) Label() string             { return k.desc.Label }
func (k *Kernel) Layout() gpu.BindingLayout { return k.desc.Layout }

func (k *Kernel) Release() {
	if k.compute != nil {
		k.compute.Release()
		k.compute = nil
	}
	if k.render != nil {
		k.render.Release()
		k.render = nil
	}
	if k.layout != nil {
		k.layout.Release()
		k.layout = nil
	}
	if k.bgl != nil {
		k.bgl.Release()
		k.bgl = nil
	}
	if k.module != nil {
		k.module.Release()
		k.module = nil
	}
}

func visibility(s gpu.Stage) wgpu.ShaderStage {
	var v wgpu.ShaderStage
	if s&gpu.StageCompute != 0 {
		v |= wgpu.ShaderStageCompute
	}
	if s&gpu.StageVertex != 0 {
		v |= wgpu.ShaderStageVertex
	}
	if s&gpu.StageFragment != 0 {
		v |= wgpu.ShaderStageFragment
	}
	return v
}

// layoutEntries turns the binding table into an explicit bind group layout.
func layoutEntries(l gpu.BindingLayout) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(l))
	for _, e := range l.Sorted() {
		entry := wgpu.BindGroupLayoutEntry{Binding: e.Slot, Visibility: visibility(e.Stages)}
		switch e.Kind {
		case gpu.BindStorageRead:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}
		case gpu.BindStorageRW:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
		case gpu.BindUniform:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
		case gpu.BindTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case gpu.BindDepthTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeDepth,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (d *Device) newKernel(desc gpu.KernelDesc) (*Kernel, error) {
	src, ok := shaders.WGSL(desc.Label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", gpu.ErrUnknownKernel, desc.Label)
	}
	k := &Kernel{desc: desc}
	var err error
	if k.module, err = d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	}); err != nil {
		return nil, fmt.Errorf("wgpudev: compile %q: %w", desc.Label, err)
	}
	if k.bgl, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label + " BGL",
		Entries: layoutEntries(desc.Layout),
	}); err != nil {
		k.Release()
		return nil, fmt.Errorf("wgpudev: bind group layout %q: %w", desc.Label, err)
	}
	if k.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{k.bgl},
	}); err != nil {
		k.Release()
		return nil, fmt.Errorf("wgpudev: pipeline layout %q: %w", desc.Label, err)
	}
	return k, nil
}

func (d *Device) CreateComputeKernel(desc gpu.KernelDesc) (gpu.Kernel, error) {
	k, err := d.newKernel(desc)
	if err != nil {
		return nil, err
	}
	if k.compute, err = d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label + " pipeline",
		Layout: k.layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     k.module,
			EntryPoint: shaders.ComputeEntry,
		},
	}); err != nil {
		k.Release()
		return nil, fmt.Errorf("wgpudev: compute pipeline %q: %w", desc.Label, err)
	}
	return k, nil
}

var alphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

func (d *Device) CreateRenderKernel(desc gpu.KernelDesc) (gpu.Kernel, error) {
	k, err := d.newKernel(desc)
	if err != nil {
		return nil, err
	}
	targets := make([]wgpu.ColorTargetState, len(desc.Targets))
	for i, f := range desc.Targets {
		targets[i] = wgpu.ColorTargetState{Format: d.format(f), WriteMask: wgpu.ColorWriteMaskAll}
		if desc.Blend {
			targets[i].Blend = alphaBlend
		}
	}
	var depth *wgpu.DepthStencilState
	if desc.Depth {
		always := wgpu.StencilFaceState{
			Compare:     wgpu.CompareFunctionAlways,
			FailOp:      wgpu.StencilOperationKeep,
			DepthFailOp: wgpu.StencilOperationKeep,
			PassOp:      wgpu.StencilOperationKeep,
		}
		depth = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      always,
			StencilBack:       always,
		}
	}
	if k.render, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " pipeline",
		Layout: k.layout,
		Vertex: wgpu.VertexState{
			Module:     k.module,
			EntryPoint: shaders.VertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     k.module,
			EntryPoint: shaders.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		DepthStencil: depth,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}); err != nil {
		k.Release()
		return nil, fmt.Errorf("wgpudev: render pipeline %q: %w", desc.Label, err)
	}
	return k, nil
}
