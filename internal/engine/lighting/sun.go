// Package lighting provides the directional light used for terrain shading.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts a longitude (rotation about Y) and latitude
// (elevation above the horizon), both in degrees, to a unit vector pointing
// toward the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := mgl32.DegToRad(longitude)
	lat := mgl32.DegToRad(latitude)
	return mgl32.Vec3{
		math32.Cos(lat) * math32.Sin(lon),
		math32.Sin(lat),
		math32.Cos(lat) * math32.Cos(lon),
	}
}

// Sun is a directional light with ambient and diffuse colours.
type Sun struct {
	Longitude, Latitude float32
	Ambient             mgl32.Vec3
	Diffuse             mgl32.Vec3
}

// DefaultSun is a mid-morning light from the south-west.
func DefaultSun() Sun {
	return Sun{
		Longitude: 225,
		Latitude:  45,
		Ambient:   mgl32.Vec3{0.4, 0.4, 0.4},
		Diffuse:   mgl32.Vec3{0.7, 0.7, 0.7},
	}
}

// Direction returns the unit vector toward the sun.
func (s Sun) Direction() mgl32.Vec3 {
	return SunDirection(s.Longitude, s.Latitude)
}
