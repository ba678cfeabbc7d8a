package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	FrameUniformSize    = 368
	PostUniformSize     = 64
	BlurUniformSize     = 16
	OccupancyParamsSize = 64
	PrimaryRayOffset    = 0
)

// Fixed composite and bloom parameters.
const (
	Exposure        = 1.5
	BloomIntensity  = 2.5
	BloomIterations = 10
)

// uniformWriter packs std140 / WGSL uniform data in 16 byte rows.
type uniformWriter struct {
	buf []byte
	off int
}

func newUniformWriter(size int) *uniformWriter {
	return &uniformWriter{buf: make([]byte, size)}
}

func (w *uniformWriter) f32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(v))
	w.off += 4
}

func (w *uniformWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *uniformWriter) mat4(m mgl32.Mat4) {
	for _, v := range m {
		w.f32(v)
	}
}

func (w *uniformWriter) vec4(x, y, z, a float32) {
	w.f32(x)
	w.f32(y)
	w.f32(z)
	w.f32(a)
}

func (w *uniformWriter) uvec4(x, y, z, a uint32) {
	w.u32(x)
	w.u32(y)
	w.u32(z)
	w.u32(a)
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// FrameParams is everything the primary pass uniforms are derived from.
type FrameParams struct {
	Grid        volume.Layout
	Camera      core.Camera
	Settings    core.Settings
	Mode        core.ViewingMode
	Width       uint32
	Height      uint32
	PointLights uint32 // lights present in the light buffer
}

// BuildFrameUniforms encodes the primary pass uniform block:
//
//	view        mat4      0
//	proj        mat4     64
//	origin      vec4    128  w: fov (radians)
//	right       vec4    144  w: near
//	up          vec4    160  w: far
//	resolution  vec4    176  xy: size, z: chunk size, w: ray offset
//	light_dir   vec4    192
//	ambient     vec4    208
//	diffuse     vec4    224
//	specular    vec4    240
//	light_color vec4    256
//	chunk_num   uvec4   272  w: total chunks
//	chunk_dims  uvec4   288  w: voxel capacity
//	subdiv      uvec4   304  xyz: cells per axis, w: cells per chunk
//	flags       uvec4   320  shadows, reflections, transparency, mode
//	limits      uvec4   336  max reflections, max transparency, light limit, light count
//	distances   vec4    352  shadow dist, shadow far, reflection far
func BuildFrameUniforms(p FrameParams) []byte {
	w := newUniformWriter(FrameUniformSize)
	cam, s, g := p.Camera, p.Settings, p.Grid

	aspect := float32(1)
	if p.Height > 0 {
		aspect = float32(p.Width) / float32(p.Height)
	}
	near, far := cam.NearFar()
	pos, right, up := cam.Position(), cam.Right(), cam.Up()

	w.mat4(cam.ViewMatrix())
	w.mat4(cam.ProjectionMatrix(aspect))
	w.vec4(pos[0], pos[1], pos[2], mgl32.DegToRad(cam.FOV()))
	w.vec4(right[0], right[1], right[2], near)
	w.vec4(up[0], up[1], up[2], far)
	w.vec4(float32(p.Width), float32(p.Height), g.ChunkSize, PrimaryRayOffset)

	sun := core.DefaultSun()
	dir := sun.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	w.vec4(dir[0], dir[1], dir[2], 0)
	w.vec4(sun.Ambient, sun.Ambient, sun.Ambient, 0)
	w.vec4(sun.Diffuse, sun.Diffuse, sun.Diffuse, 0)
	w.vec4(sun.Specular, sun.Specular, sun.Specular, 0)
	w.vec4(sun.Color[0], sun.Color[1], sun.Color[2], 1)

	w.uvec4(g.ChunkNum[0], g.ChunkNum[1], g.ChunkNum[2], g.TotalChunks())
	w.uvec4(g.ChunkDims[0], g.ChunkDims[1], g.ChunkDims[2], g.VoxelNum())
	w.uvec4(volume.SubDivision, volume.SubDivision, volume.SubDivision, volume.CellsPerChunk)

	mode := p.Mode
	if !mode.Valid() {
		mode = core.ViewRender
	}
	w.uvec4(boolU32(s.ShadowEnabled), boolU32(s.EnableReflections), boolU32(s.EnableTransparency), uint32(mode))
	w.uvec4(s.MaxReflectionNum, s.MaxTransparencyNum, s.MultipleLights, min(p.PointLights, s.MultipleLights))
	w.vec4(s.ShadowDist, s.ShadowFar, s.ReflectionFar, 0)
	return w.buf
}

// BuildPostUniforms encodes the composite pass block:
//
//	resolution, near, far          0
//	fog start, end, density        16
//	fog color                      32
//	exposure, bloom, edit radius, edit opacity  48
func BuildPostUniforms(cam core.Camera, s core.Settings, width, height uint32) []byte {
	w := newUniformWriter(PostUniformSize)
	near, far := cam.NearFar()
	w.vec4(float32(width), float32(height), near, far)
	w.vec4(s.Fog.Start, s.Fog.End, s.Fog.Density, 0)
	w.vec4(s.Fog.Color[0], s.Fog.Color[1], s.Fog.Color[2], 1)
	w.vec4(Exposure, BloomIntensity, s.EditRadius, s.RadiusOpacity)
	return w.buf
}

func BuildBlurUniforms(horizontal bool) []byte {
	w := newUniformWriter(BlurUniformSize)
	w.uvec4(boolU32(horizontal), 0, 0, 0)
	return w.buf
}

// BuildOccupancyParams encodes the occupancy kernel block:
//
//	dims, chunk index          0
//	chunk num, total chunks    16
//	subdivision, capacity      32
//	chunk size                 48
func BuildOccupancyParams(g volume.Layout, chunk uint32) []byte {
	w := newUniformWriter(OccupancyParamsSize)
	w.uvec4(g.ChunkDims[0], g.ChunkDims[1], g.ChunkDims[2], chunk)
	w.uvec4(g.ChunkNum[0], g.ChunkNum[1], g.ChunkNum[2], g.TotalChunks())
	w.uvec4(volume.SubDivision, volume.SubDivision, volume.SubDivision, g.VoxelNum())
	w.vec4(g.ChunkSize, 0, 0, 0)
	return w.buf
}

// OccupancyParams is the decoded form of BuildOccupancyParams.
type OccupancyParams struct {
	Dims     [3]uint32
	Chunk    uint32
	ChunkNum [3]uint32
	Capacity uint32
	Size     float32
}

func DecodeOccupancyParams(b []byte) OccupancyParams {
	u := func(i int) uint32 { return binary.LittleEndian.Uint32(b[i*4:]) }
	return OccupancyParams{
		Dims:     [3]uint32{u(0), u(1), u(2)},
		Chunk:    u(3),
		ChunkNum: [3]uint32{u(4), u(5), u(6)},
		Capacity: u(11),
		Size:     math.Float32frombits(u(12)),
	}
}

func (p OccupancyParams) Layout() volume.Layout {
	return volume.Layout{ChunkNum: p.ChunkNum, ChunkDims: p.Dims, ChunkSize: p.Size}
}

// EncodeLights packs lights into LightStride byte records.
func EncodeLights(lights []core.Light) []byte {
	w := newUniformWriter(len(lights) * core.LightStride)
	for _, l := range lights {
		w.vec4(l.Position[0], l.Position[1], l.Position[2], l.Position[3])
		w.vec4(l.Direction[0], l.Direction[1], l.Direction[2], l.Direction[3])
		w.vec4(l.Color[0], l.Color[1], l.Color[2], l.Color[3])
		w.vec4(l.Params[0], l.Params[1], l.Params[2], l.Params[3])
	}
	return w.buf
}
