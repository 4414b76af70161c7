package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// flyCamera is a free-fly camera satisfying voxelworld.Camera (Position,
// Forward, FOVRadians) while also producing the view/projection matrices
// the demo's draw loop needs — the teacher's graphics.Camera split those
// across a player and a camera type; this demo has no player, so both
// live on one struct.
type flyCamera struct {
	pos         mgl32.Vec3
	yaw, pitch  float32
	fovDegrees  float32
	aspectRatio float32
	near, far   float32
}

func newFlyCamera(pos mgl32.Vec3, aspect float32) *flyCamera {
	return &flyCamera{
		pos:         pos,
		yaw:         -90,
		fovDegrees:  70,
		aspectRatio: aspect,
		near:        0.1,
		far:         1000,
	}
}

func (c *flyCamera) Position() mgl32.Vec3 { return c.pos }

func (c *flyCamera) Forward() mgl32.Vec3 {
	yaw := mgl32.DegToRad(c.yaw)
	pitch := mgl32.DegToRad(c.pitch)
	return mgl32.Vec3{
		float32(math.Cos(float64(yaw)) * math.Cos(float64(pitch))),
		float32(math.Sin(float64(pitch))),
		float32(math.Sin(float64(yaw)) * math.Cos(float64(pitch))),
	}.Normalize()
}

func (c *flyCamera) FOVRadians() float32 {
	return mgl32.DegToRad(c.fovDegrees)
}

func (c *flyCamera) right() mgl32.Vec3 {
	return c.Forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// Look applies mouse-motion deltas to yaw/pitch, clamping pitch to avoid
// gimbal flip at the poles.
func (c *flyCamera) Look(dYaw, dPitch float32) {
	c.yaw += dYaw
	c.pitch -= dPitch
	if c.pitch > 89 {
		c.pitch = 89
	}
	if c.pitch < -89 {
		c.pitch = -89
	}
}

// Move advances the camera along its own forward/right/up axes, scaled by
// dt and the fixed fly speed.
func (c *flyCamera) Move(forward, strafe, up float32, dt float32) {
	const speed = 12.0
	f := c.Forward()
	r := c.right()
	delta := f.Mul(forward).Add(r.Mul(strafe)).Add(mgl32.Vec3{0, up, 0})
	if delta.Len() > 0 {
		delta = delta.Normalize()
	}
	c.pos = c.pos.Add(delta.Mul(speed * dt))
}

func (c *flyCamera) viewProj() mgl32.Mat4 {
	proj := mgl32.Perspective(c.FOVRadians(), c.aspectRatio, c.near, c.far)
	view := mgl32.LookAtV(c.pos, c.pos.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}
