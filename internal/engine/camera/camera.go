// Package camera provides the editor's orbit camera.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a centre point on the terrain.
type OrbitCamera struct {
	Center mgl32.Vec3

	Distance float32
	// Pitch is the elevation above the horizon, Yaw the rotation about Y,
	// both in radians.
	Pitch float32
	Yaw   float32

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	// FOV is the vertical field of view in radians.
	FOV       float32
	Near, Far float32
}

// NewOrbitCamera returns a camera looking down at the origin, sized for a
// few chunks.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        150,
		Pitch:           0.6,
		MinDistance:     5,
		MaxDistance:     2000,
		MinPitch:        0.05,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             mgl32.DegToRad(45),
		Near:            0.5,
		Far:             3000,
	}
}

// Position returns the eye position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	horiz := c.Distance * math32.Cos(c.Pitch)
	return c.Center.Add(mgl32.Vec3{
		horiz * math32.Sin(c.Yaw),
		c.Distance * math32.Sin(c.Pitch),
		horiz * math32.Cos(c.Yaw),
	})
}

// View returns the view matrix.
func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix for a viewport aspect ratio.
func (c *OrbitCamera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// ViewProj returns Projection * View.
func (c *OrbitCamera) ViewProj(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom moves the camera toward (positive delta) or away from the
// centre.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the centre relative to the view direction. Speed
// scales with distance.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	speed := c.Distance * 0.01
	sin, cos := math32.Sin(c.Yaw), math32.Cos(c.Yaw)
	c.Center = c.Center.Add(mgl32.Vec3{
		(-sin*forward + cos*right) * speed,
		up * speed,
		(-cos*forward - sin*right) * speed,
	})
}

// FitToBounds centres the camera on a box and backs off to see all of it.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3) {
	c.Center = lo.Add(hi).Mul(0.5)
	size := max(hi.X()-lo.X(), hi.Z()-lo.Z())
	c.Distance = mgl32.Clamp(size*0.8, c.MinDistance, c.MaxDistance)
	c.Pitch = 0.6
	c.Yaw = 0
}
