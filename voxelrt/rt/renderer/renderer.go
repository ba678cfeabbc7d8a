// Package renderer owns the GPU-resident voxel grid and its frame pipeline.
// Every method must be called from the render thread.
package renderer

import (
	"errors"
	"fmt"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/gpu"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var ErrNotInitialized = errors.New("renderer: not initialized")

type Option func(*Renderer)

func WithLogger(l core.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

func WithSettings(s core.Settings) Option {
	return func(r *Renderer) { r.settings = s }
}

// WithViewport sets the frame target size allocated by Init.
func WithViewport(width, height uint32) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

type Renderer struct {
	ID  uuid.UUID
	dev gpu.Device
	log core.Logger

	layout   volume.Layout
	settings core.Settings
	mode     core.ViewingMode
	width    uint32
	height   uint32

	buffers   *gpu.BufferSet
	occupancy *gpu.OccupancyUpdater
	pipeline  *gpu.Pipeline
	overlay   gpu.Overlay
	lights    uint32

	initialized bool
}

func New(dev gpu.Device, opts ...Option) *Renderer {
	r := &Renderer{
		ID:       uuid.New(),
		dev:      dev,
		log:      core.NewNopLogger(),
		settings: core.DefaultSettings(),
		mode:     core.ViewRender,
		width:    gpu.DefaultWidth,
		height:   gpu.DefaultHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init allocates buffers, kernels and frame targets for layout and uploads
// initial. Calling Init again releases everything and starts over.
func (r *Renderer) Init(layout volume.Layout, initial []volume.Voxel) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	if r.initialized {
		r.log.Debugf("renderer %s: re-init, releasing previous grid", r.ID)
		r.Release()
	}
	r.layout = layout

	if err := r.allocate(); err != nil {
		r.Release()
		return err
	}
	r.initialized = true

	touched := make(map[uint32]struct{})
	dropped := 0
	for _, v := range initial {
		ok, err := r.writeVoxel(v.Index, volume.PackColor(v.Color))
		if err != nil {
			return err
		}
		if !ok {
			dropped++
			continue
		}
		chunk, _ := layout.OwningChunk(v.Index)
		touched[chunk] = struct{}{}
	}
	for chunk := range touched {
		if err := r.occupancy.UpdateChunk(chunk); err != nil {
			return err
		}
	}

	r.log.Debugf("renderer %s: init %v chunks of %v, %d voxels, %d dropped, backend %s",
		r.ID, layout.ChunkNum, layout.ChunkDims, len(initial)-dropped, dropped, r.dev.Name())
	return nil
}

func (r *Renderer) allocate() error {
	l := r.layout
	r.buffers = gpu.NewBufferSet(r.dev, "grid")
	sizes := []struct {
		kind gpu.BufferKind
		size uint64
	}{
		{gpu.ChunkBuffer, uint64(l.TotalChunks()) * 4},
		{gpu.VoxelBuffer, uint64(l.VoxelNum()) * 4},
		{gpu.OccupancyBuffer, uint64(l.TotalChunks()) * volume.CellsPerChunk * 4},
		{gpu.LightBuffer, core.LightStride},
	}
	for _, s := range sizes {
		if err := r.buffers.Create(s.kind, s.size); err != nil {
			return err
		}
	}
	table := gpu.WordsToBytes(l.ChunkTable())
	if err := r.buffers.PartialUpdate(gpu.ChunkBuffer, table, uint64(len(table)), 0); err != nil {
		return fmt.Errorf("upload chunk table: %w", err)
	}

	var err error
	if r.occupancy, err = gpu.NewOccupancyUpdater(r.dev, r.buffers, l); err != nil {
		return err
	}
	if err = r.occupancy.UpdateAll(); err != nil {
		return err
	}
	r.pipeline, err = gpu.NewPipeline(r.dev, r.buffers, l, r.width, r.height)
	return err
}

func (r *Renderer) Initialized() bool { return r.initialized }

func (r *Renderer) Layout() volume.Layout { return r.layout }

// writeVoxel stores one packed word. It reports false for coordinates
// outside the grid.
func (r *Renderer) writeVoxel(idx volume.Index, packed uint32) (bool, error) {
	off, ok := r.layout.FlattenIndex(idx)
	if !ok {
		return false, nil
	}
	word := gpu.WordsToBytes([]uint32{packed})
	if err := r.buffers.PartialUpdate(gpu.VoxelBuffer, word, 4, uint64(off)*4); err != nil {
		if errors.Is(err, gpu.ErrOutOfRange) {
			// Past the voxel buffer capacity: dropped like any other
			// out-of-bounds write.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Renderer) recompute(idx volume.Index) error {
	chunk, ok := r.layout.OwningChunk(idx)
	if !ok {
		return nil
	}
	return r.occupancy.UpdateChunk(chunk)
}

// UpdateVoxel writes one voxel and refreshes its chunk occupancy.
// Coordinates outside the grid are ignored.
func (r *Renderer) UpdateVoxel(v volume.Voxel) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	ok, err := r.writeVoxel(v.Index, volume.PackColor(v.Color))
	if err != nil {
		return err
	}
	if !ok {
		r.log.Debugf("renderer %s: dropped update at %v", r.ID, v.Index)
		return nil
	}
	return r.recompute(v.Index)
}

// UpdateAllVoxels replaces the whole voxel buffer with the colors of list
// in order. Lists whose length is not the buffer capacity are ignored.
func (r *Renderer) UpdateAllVoxels(list []volume.Voxel) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if uint32(len(list)) != r.layout.VoxelNum() {
		r.log.Debugf("renderer %s: bulk update of %d voxels ignored, capacity %d", r.ID, len(list), r.layout.VoxelNum())
		return nil
	}
	words := make([]uint32, len(list))
	for i, v := range list {
		words[i] = volume.PackColor(v.Color)
	}
	data := gpu.WordsToBytes(words)
	if err := r.buffers.PartialUpdate(gpu.VoxelBuffer, data, uint64(len(data)), 0); err != nil {
		return err
	}
	return r.occupancy.UpdateAll()
}

func (r *Renderer) ClearVoxel(idx volume.Index) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	ok, err := r.writeVoxel(idx, 0)
	if err != nil || !ok {
		return err
	}
	return r.recompute(idx)
}

// ClearAllVoxels reallocates the voxel buffer, which zeroes it.
func (r *Renderer) ClearAllVoxels() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	size := r.buffers.Buffer(gpu.VoxelBuffer).Size()
	if err := r.buffers.Resize(gpu.VoxelBuffer, size); err != nil {
		return err
	}
	return r.occupancy.UpdateAll()
}

// MoveVoxel clears old.Index and writes old.Color at to. The two writes are
// not atomic.
func (r *Renderer) MoveVoxel(old volume.Voxel, to volume.Index) error {
	if err := r.ClearVoxel(old.Index); err != nil {
		return err
	}
	return r.UpdateVoxel(volume.Voxel{Index: to, Color: old.Color})
}

func (r *Renderer) SetViewingMode(mode core.ViewingMode) {
	if !mode.Valid() {
		r.log.Warnf("renderer %s: unknown viewing mode %d", r.ID, uint32(mode))
		return
	}
	r.mode = mode
}

func (r *Renderer) ViewingMode() core.ViewingMode { return r.mode }

func (r *Renderer) Settings() core.Settings { return r.settings }

func (r *Renderer) SetSettings(s core.Settings) { r.settings = s }

// SetOverlay installs a pass drawn over the final image, or removes it
// when o is nil.
func (r *Renderer) SetOverlay(o gpu.Overlay) { r.overlay = o }

// SetPointLights uploads lights. Only the first Settings.MultipleLights are
// shaded.
func (r *Renderer) SetPointLights(lights []core.Light) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	data := gpu.EncodeLights(lights)
	size := uint64(max(len(lights), 1)) * core.LightStride
	if r.buffers.Buffer(gpu.LightBuffer).Size() < size {
		if err := r.buffers.Resize(gpu.LightBuffer, size); err != nil {
			return err
		}
	}
	r.lights = uint32(len(lights))
	return r.buffers.PartialUpdate(gpu.LightBuffer, data, uint64(len(data)), 0)
}

func (r *Renderer) Draw(cam core.Camera, surface gpu.Surface) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	return r.pipeline.Render(gpu.Frame{
		Camera:      cam,
		Settings:    r.settings,
		Mode:        r.mode,
		PointLights: r.lights,
		Surface:     surface,
		Overlay:     r.overlay,
	})
}

// OnResize reallocates the frame targets. Voxel data is untouched.
func (r *Renderer) OnResize(width, height uint32) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.pipeline.Resize(width, height); err != nil {
		return err
	}
	r.width, r.height = width, height
	r.log.Debugf("renderer %s: resized to %dx%d", r.ID, width, height)
	return nil
}

func (r *Renderer) Viewport() (uint32, uint32) { return r.width, r.height }

// PackedAt reads the packed word stored at a voxel buffer offset.
func (r *Renderer) PackedAt(offset uint32) (uint32, error) {
	if !r.initialized {
		return 0, ErrNotInitialized
	}
	words, err := r.buffers.ReadWords(gpu.VoxelBuffer, offset, 1)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// VoxelAt reads back the color stored for idx. The bool is false for
// coordinates outside the grid.
func (r *Renderer) VoxelAt(idx volume.Index) (mgl32.Vec4, bool, error) {
	if !r.initialized {
		return mgl32.Vec4{}, false, ErrNotInitialized
	}
	off, ok := r.layout.FlattenIndex(idx)
	if !ok || off >= r.layout.VoxelNum() {
		return mgl32.Vec4{}, false, nil
	}
	packed, err := r.PackedAt(off)
	if err != nil {
		return mgl32.Vec4{}, false, err
	}
	return volume.UnpackColor(packed), true, nil
}

// Occupancy reads the sub-chunk flags of one chunk.
func (r *Renderer) Occupancy(chunk uint32) ([]uint32, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	if chunk >= r.layout.TotalChunks() {
		return nil, fmt.Errorf("%w: %d", gpu.ErrChunkOutOfRange, chunk)
	}
	return r.buffers.ReadWords(gpu.OccupancyBuffer, chunk*volume.CellsPerChunk, volume.CellsPerChunk)
}

func (r *Renderer) Release() {
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.occupancy != nil {
		r.occupancy.Release()
		r.occupancy = nil
	}
	if r.buffers != nil {
		r.buffers.Release()
		r.buffers = nil
	}
	r.lights = 0
	r.initialized = false
}
