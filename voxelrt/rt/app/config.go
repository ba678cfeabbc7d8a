package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gekko3d/voxgrid/voxelrt/rt/core"
	"github.com/gekko3d/voxgrid/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

const (
	BackendWebGPU = "webgpu"
	BackendOpenGL = "opengl"
	BackendHost   = "host"
)

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type LightConfig struct {
	Position  mgl32.Vec3 `toml:"position"`
	Color     mgl32.Vec3 `toml:"color"`
	Intensity float32    `toml:"intensity"`
	Radius    float32    `toml:"radius"`
}

type Config struct {
	Backend string           `toml:"backend"`
	Scene   string           `toml:"scene"`
	Mode    core.ViewingMode `toml:"mode"`
	Debug   bool             `toml:"debug"`

	Window   WindowConfig  `toml:"window"`
	Grid     volume.Layout `toml:"grid"`
	Settings core.Settings `toml:"settings"`
	Lights   []LightConfig `toml:"lights"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendWebGPU,
		Scene:   "demo",
		Mode:    core.ViewRender,
		Window:  WindowConfig{Width: 1280, Height: 720, Title: "VoxelRT Go"},
		Grid: volume.Layout{
			ChunkNum:  [3]uint32{1, 1, 1},
			ChunkDims: [3]uint32{64, 64, 64},
			ChunkSize: 32,
		},
		Settings: defaultSettings(),
	}
}

func defaultSettings() core.Settings {
	s := core.DefaultSettings()
	s.RadiusOpacity = 0.6
	return s
}

// LoadConfig reads a TOML file over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendWebGPU, BackendOpenGL, BackendHost:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, ok := scenes[c.Scene]; !ok {
		return fmt.Errorf("unknown scene %q", c.Scene)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid viewing mode %d", uint32(c.Mode))
	}
	return c.Grid.Validate()
}

// PointLights converts the configured lights for the renderer.
func (c Config) PointLights() []core.Light {
	out := make([]core.Light, len(c.Lights))
	for i, l := range c.Lights {
		out[i] = core.NewPointLight(l.Position, l.Color, l.Intensity, l.Radius)
	}
	return out
}
