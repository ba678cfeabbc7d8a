package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Fog struct {
	Start   float32    `toml:"start"`
	End     float32    `toml:"end"`
	Density float32    `toml:"density"`
	Color   mgl32.Vec3 `toml:"color"`
}

// Settings is a snapshot of the render options. The pipeline reads it once
// per frame; changing it takes effect on the next Draw.
type Settings struct {
	ShadowEnabled bool    `toml:"shadows"`
	ShadowDist    float32 `toml:"shadow_dist"`
	ShadowFar     float32 `toml:"shadow_far"`

	EnableReflections bool    `toml:"reflections"`
	ReflectionFar     float32 `toml:"reflection_far"`
	MaxReflectionNum  uint32  `toml:"max_reflections"`

	EnableTransparency bool   `toml:"transparency"`
	MaxTransparencyNum uint32 `toml:"max_transparency"`

	// MultipleLights is the number of point lights the shader evaluates.
	MultipleLights uint32 `toml:"point_lights"`

	Fog Fog `toml:"fog"`

	// Edit ring drawn around the cursor by the composite pass.
	EditRadius    float32 `toml:"edit_radius"`
	RadiusOpacity float32 `toml:"radius_opacity"`
}

func DefaultSettings() Settings {
	return Settings{
		ShadowEnabled: true,
		ShadowDist:    100,
		ShadowFar:     100,

		EnableReflections: false,
		ReflectionFar:     100,
		MaxReflectionNum:  2,

		EnableTransparency: false,
		MaxTransparencyNum: 2,

		Fog: Fog{
			Start:   0,
			End:     1,
			Density: 0.5,
			Color:   mgl32.Vec3{1, 1, 1},
		},
	}
}
