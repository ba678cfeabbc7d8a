package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

const LightStride = 64

// Light is the GPU representation of a point light.
type Light struct {
	Position  [4]float32 // xyz, w unused
	Direction [4]float32 // xyz, w unused
	Color     [4]float32 // rgb, intensity
	Params    [4]float32 // range, cone cos, type, unused
}

const (
	LightPoint = 0
	LightSpot  = 1
)

func NewPointLight(pos mgl32.Vec3, color mgl32.Vec3, intensity, radius float32) Light {
	return Light{
		Position: [4]float32{pos[0], pos[1], pos[2], 1},
		Color:    [4]float32{color[0], color[1], color[2], intensity},
		Params:   [4]float32{radius, 0, LightPoint, 0},
	}
}

// DirectionalLight is the single sun light of the primary pass.
type DirectionalLight struct {
	Direction mgl32.Vec3
	Ambient   float32
	Diffuse   float32
	Specular  float32
	Color     mgl32.Vec3
}

func DefaultSun() DirectionalLight {
	return DirectionalLight{
		Direction: mgl32.Vec3{0, -1, 0},
		Ambient:   0.2,
		Diffuse:   0.8,
		Specular:  0.25,
		Color:     mgl32.Vec3{1, 0.95, 0.9},
	}
}
