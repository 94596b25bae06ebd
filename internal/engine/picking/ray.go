// Package picking casts view rays against the terrain.
package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// ScreenToRay unprojects window pixel (x, y), y growing downward, through
// the inverse view-projection matrix.
func ScreenToRay(x, y, width, height float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height

	unproject := func(z float32) mgl32.Vec3 {
		p := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, z, 1})
		if p.W() != 0 {
			return p.Vec3().Mul(1 / p.W())
		}
		return p.Vec3()
	}
	near, far := unproject(-1), unproject(1)

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Dir: dir}
}

// IntersectPlaneY returns where the ray crosses the horizontal plane at
// height y.
func (r Ray) IntersectPlaneY(y float32) (mgl32.Vec3, bool) {
	if math32.Abs(r.Dir.Y()) < 1e-3 {
		return mgl32.Vec3{}, false
	}
	t := (y - r.Origin.Y()) / r.Dir.Y()
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.At(t), true
}

// IntersectBounds returns the distance at which the ray enters b, or the
// exit distance when it starts inside.
func (r Ray) IntersectBounds(b terrain.Bounds) (float32, bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)
	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Dir[axis]
		if d == 0 {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (b.Min[axis] - o) / d
		t2 := (b.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}
	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// MarchTerrain steps along the ray until it passes below the terrain, then
// bisects the last step. Points no chunk covers are skipped. It gives up
// after maxDist.
func MarchTerrain(r Ray, q terrain.HeightQuery, maxDist, step float32) (mgl32.Vec3, bool) {
	if step <= 0 {
		return mgl32.Vec3{}, false
	}
	below := func(t float32) (bool, bool) {
		p := r.At(t)
		v, ok := q.VertexAt(p.X(), p.Z())
		if !ok {
			return false, false
		}
		return p.Y() <= v.Y(), true
	}

	prev := float32(0)
	for t := step; t <= maxDist; t += step {
		hit, ok := below(t)
		if !ok || !hit {
			prev = t
			continue
		}
		lo, hi := prev, t
		for range 16 {
			mid := (lo + hi) / 2
			if b, ok := below(mid); ok && b {
				hi = mid
			} else {
				lo = mid
			}
		}
		return r.At(hi), true
	}
	return mgl32.Vec3{}, false
}
