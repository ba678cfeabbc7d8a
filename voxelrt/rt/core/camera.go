package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is what the renderer needs from the host camera. FOV is the vertical
// field of view in degrees.
type Camera interface {
	Position() mgl32.Vec3
	Forward() mgl32.Vec3
	Right() mgl32.Vec3
	Up() mgl32.Vec3
	FOV() float32
	NearFar() (near, far float32)
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix(aspect float32) mgl32.Mat4
}

// FlyCamera is a Y-up free-look camera. Yaw 0 looks down -Z.
type FlyCamera struct {
	Pos         mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	Sensitivity float32
	Fov         float32
	Near        float32
	Far         float32
}

func NewFlyCamera() *FlyCamera {
	return &FlyCamera{
		Pos:         mgl32.Vec3{0, 2, 20},
		Speed:       10.0,
		Sensitivity: 0.003,
		Fov:         60,
		Near:        0.1,
		Far:         1000,
	}
}

func (c *FlyCamera) Position() mgl32.Vec3 { return c.Pos }
func (c *FlyCamera) FOV() float32         { return c.Fov }

func (c *FlyCamera) NearFar() (float32, float32) { return c.Near, c.Far }

func (c *FlyCamera) Forward() mgl32.Vec3 {
	cp, sp := math.Cos(float64(c.Pitch)), math.Sin(float64(c.Pitch))
	cy, sy := math.Cos(float64(c.Yaw)), math.Sin(float64(c.Yaw))
	return mgl32.Vec3{float32(cp * sy), float32(sp), float32(-cp * cy)}
}

func (c *FlyCamera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		0,
		float32(math.Sin(float64(c.Yaw))),
	}
}

func (c *FlyCamera) Up() mgl32.Vec3 {
	return c.Right().Cross(c.Forward()).Normalize()
}

func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	eye := c.Pos
	return mgl32.LookAtV(eye, eye.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *FlyCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

// Rotate applies a mouse delta in pixels. Pitch is kept short of the poles.
func (c *FlyCamera) Rotate(dx, dy float64) {
	c.Yaw += float32(dx) * c.Sensitivity
	c.Pitch -= float32(dy) * c.Sensitivity
	const limit = math.Pi/2 - 0.01
	c.Pitch = mgl32.Clamp(c.Pitch, -limit, limit)
}

// Move translates along the camera basis; each axis is in [-1,1].
func (c *FlyCamera) Move(forward, right, up float32, dt float32) {
	step := c.Speed * dt
	d := c.Forward().Mul(forward).Add(c.Right().Mul(right)).Add(mgl32.Vec3{0, up, 0})
	c.Pos = c.Pos.Add(d.Mul(step))
}

// LookAt points the camera at target from its current position.
func (c *FlyCamera) LookAt(target mgl32.Vec3) {
	d := target.Sub(c.Pos)
	if d.Len() < 1e-6 {
		return
	}
	d = d.Normalize()
	c.Pitch = float32(math.Asin(float64(mgl32.Clamp(d.Y(), -1, 1))))
	c.Yaw = float32(math.Atan2(float64(d.X()), float64(-d.Z())))
}
