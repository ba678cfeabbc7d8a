package shaders

import (
	"embed"
	"sort"
)

//go:embed subchunks.wgsl
var SubchunksWGSL string

//go:embed voxel.wgsl
var VoxelWGSL string

//go:embed blur.wgsl
var BlurWGSL string

//go:embed postprocess.wgsl
var PostprocessWGSL string

//go:embed text.wgsl
var TextWGSL string

//go:embed glsl/*.vert glsl/*.frag glsl/*.comp
var glslFS embed.FS

// Entry points shared by every WGSL module.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
	ComputeEntry  = "cs_main"
)

var wgsl = map[string]string{
	"subchunks":   SubchunksWGSL,
	"voxel":       VoxelWGSL,
	"blur":        BlurWGSL,
	"postprocess": PostprocessWGSL,
	"text":        TextWGSL,
}

// GLSLProgram holds the stage sources of one GL program. Compute is set
// only for compute kernels.
type GLSLProgram struct {
	Vertex   string
	Fragment string
	Compute  string
}

var glsl = map[string][2]string{
	"voxel":       {"fullscreen.vert", "voxel.frag"},
	"blur":        {"fullscreen.vert", "blur.frag"},
	"postprocess": {"fullscreen.vert", "postprocess.frag"},
	"text":        {"text.vert", "text.frag"},
}

// WGSL returns the WGSL module for a kernel label.
func WGSL(label string) (string, bool) {
	src, ok := wgsl[label]
	return src, ok
}

// Labels lists every kernel with a WGSL module, sorted.
func Labels() []string {
	out := make([]string, 0, len(wgsl))
	for k := range wgsl {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GLSL returns the GLSL 4.30 sources for a kernel label.
func GLSL(label string) (GLSLProgram, bool) {
	if label == "subchunks" {
		return GLSLProgram{Compute: mustRead("subchunks.comp")}, true
	}
	files, ok := glsl[label]
	if !ok {
		return GLSLProgram{}, false
	}
	return GLSLProgram{Vertex: mustRead(files[0]), Fragment: mustRead(files[1])}, true
}

func mustRead(name string) string {
	b, err := glslFS.ReadFile("glsl/" + name)
	if err != nil {
		panic(err)
	}
	return string(b)
}
