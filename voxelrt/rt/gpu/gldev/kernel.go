package gldev

import (
	"fmt"
	"strings"

	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/shaders"

	"github.com/go-gl/gl/v4.3-core/gl"
)

type Kernel struct {
	desc    gpu.KernelDesc
	program uint32
	compute bool
}

func (k *Kernel) Label() string             { return k.desc.Label }
func (k *Kernel) Layout() gpu.BindingLayout { return k.desc.Layout }

func (k *Kernel) Release() {
	if k.program != 0 {
		gl.DeleteProgram(k.program)
		k.program = 0
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func linkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DetachShader(program, s)
		gl.DeleteShader(s)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func (d *Device) CreateComputeKernel(desc gpu.KernelDesc) (gpu.Kernel, error) {
	src, ok := shaders.GLSL(desc.Label)
	if !ok || src.Compute == "" {
		return nil, fmt.Errorf("%w: %q", gpu.ErrUnknownKernel, desc.Label)
	}
	cs, err := compileShader(src.Compute, gl.COMPUTE_SHADER)
	if err != nil {
		return nil, fmt.Errorf("gldev: %s: %w", desc.Label, err)
	}
	program, err := linkProgram(cs)
	if err != nil {
		return nil, fmt.Errorf("gldev: %s: %w", desc.Label, err)
	}
	return &Kernel{desc: desc, program: program, compute: true}, nil
}

func (d *Device) CreateRenderKernel(desc gpu.KernelDesc) (gpu.Kernel, error) {
	src, ok := shaders.GLSL(desc.Label)
	if !ok || src.Vertex == "" {
		return nil, fmt.Errorf("%w: %q", gpu.ErrUnknownKernel, desc.Label)
	}
	vs, err := compileShader(src.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("gldev: %s vertex: %w", desc.Label, err)
	}
	fs, err := compileShader(src.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return nil, fmt.Errorf("gldev: %s fragment: %w", desc.Label, err)
	}
	program, err := linkProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("gldev: %s: %w", desc.Label, err)
	}
	return &Kernel{desc: desc, program: program}, nil
}
