package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Voxel is one colored grid cell.
type Voxel struct {
	Index Index
	Color mgl32.Vec4
}

// Shapes below are rasterized in voxel units. Cells outside the layout are
// skipped.

// bounds clips a float box to the grid and reports whether anything is left.
func (l Layout) bounds(minB, maxB mgl32.Vec3) (lo, hi [3]uint32, ok bool) {
	dims := l.GridDims()
	for i := 0; i < 3; i++ {
		a := math.Floor(float64(minB[i]))
		b := math.Ceil(float64(maxB[i]))
		if a < 0 {
			a = 0
		}
		if b > float64(dims[i])-1 {
			b = float64(dims[i]) - 1
		}
		if b < a {
			return lo, hi, false
		}
		lo[i], hi[i] = uint32(a), uint32(b)
	}
	return lo, hi, true
}

func (l Layout) fill(minB, maxB mgl32.Vec3, color mgl32.Vec4, inside func(p mgl32.Vec3) bool) []Voxel {
	lo, hi, ok := l.bounds(minB, maxB)
	if !ok {
		return nil
	}
	var out []Voxel
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				p := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
				if inside(p) {
					out = append(out, Voxel{Index: Index{x, y, z}, Color: color})
				}
			}
		}
	}
	return out
}

func (l Layout) Sphere(center mgl32.Vec3, radius float32, color mgl32.Vec4) []Voxel {
	r := mgl32.Vec3{radius, radius, radius}
	r2 := radius * radius
	return l.fill(center.Sub(r), center.Add(r), color, func(p mgl32.Vec3) bool {
		return p.Sub(center).LenSqr() <= r2
	})
}

// Cube fills every cell whose integer coordinate lies in [minB, maxB].
func (l Layout) Cube(minB, maxB mgl32.Vec3, color mgl32.Vec4) []Voxel {
	lo := mgl32.Vec3{float32(math.Floor(float64(minB[0]))), float32(math.Floor(float64(minB[1]))), float32(math.Floor(float64(minB[2])))}
	hi := mgl32.Vec3{float32(math.Floor(float64(maxB[0]))), float32(math.Floor(float64(maxB[1]))), float32(math.Floor(float64(maxB[2])))}
	return l.fill(lo, hi, color, func(mgl32.Vec3) bool { return true })
}

// Cone fills a cone; base is the center of the base disc, tip the apex.
func (l Layout) Cone(base, tip mgl32.Vec3, radius float32, color mgl32.Vec4) []Voxel {
	heightVec := tip.Sub(base)
	height := heightVec.Len()
	if height < 1e-5 {
		return nil
	}
	axis := heightVec.Normalize()

	maxDim := float32(math.Max(float64(radius), float64(height)))
	center := base.Add(tip).Mul(0.5)
	ext := mgl32.Vec3{maxDim, maxDim, maxDim}

	return l.fill(center.Sub(ext), center.Add(ext), color, func(p mgl32.Vec3) bool {
		v := p.Sub(base)
		along := v.Dot(axis)
		if along < 0 || along > height {
			return false
		}
		r := radius * (1.0 - along/height)
		return v.LenSqr()-along*along <= r*r
	})
}

// Pyramid fills a square pyramid with base edge size.
func (l Layout) Pyramid(base, tip mgl32.Vec3, size float32, color mgl32.Vec4) []Voxel {
	heightVec := tip.Sub(base)
	height := heightVec.Len()
	if height < 1e-5 {
		return nil
	}
	axis := heightVec.Normalize()

	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(axis.Dot(up))) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	right := axis.Cross(up).Normalize()
	forward := right.Cross(axis).Normalize()

	maxDim := float32(math.Max(float64(size), float64(height)))
	center := base.Add(tip).Mul(0.5)
	ext := mgl32.Vec3{maxDim, maxDim, maxDim}
	half := size * 0.5

	return l.fill(center.Sub(ext), center.Add(ext), color, func(p mgl32.Vec3) bool {
		v := p.Sub(base)
		along := v.Dot(axis)
		if along < 0 || along > height {
			return false
		}
		s := float64(half * (1.0 - along/height))
		return math.Abs(float64(v.Dot(right))) <= s && math.Abs(float64(v.Dot(forward))) <= s
	})
}
