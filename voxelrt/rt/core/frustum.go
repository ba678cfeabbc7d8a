package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0, normal pointing inside.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	w := row(3)
	planes := [6]mgl32.Vec4{
		w.Add(row(0)),
		w.Sub(row(0)),
		w.Add(row(1)),
		w.Sub(row(1)),
		w.Add(row(2)), // GL clip space, z in -1..1
		w.Sub(row(2)),
	}

	for i := range planes {
		p := planes[i]
		length := float32(math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])))
		if length > 0 {
			planes[i] = p.Mul(1.0 / length)
		}
	}
	return planes
}

// AABBInFrustum is conservative: boxes straddling a plane count as visible.
func AABBInFrustum(aabb [2]mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for _, plane := range planes {
		// Corner furthest along the plane normal.
		var p mgl32.Vec3
		for a := 0; a < 3; a++ {
			if plane[a] > 0 {
				p[a] = aabb[1][a]
			} else {
				p[a] = aabb[0][a]
			}
		}
		if plane[0]*p[0]+plane[1]*p[1]+plane[2]*p[2]+plane[3] < 0 {
			return false
		}
	}
	return true
}

// VisibleChunks counts the chunks of a grid of chunkNum cubes with edge
// chunkSize, anchored at the origin, that intersect the frustum.
func VisibleChunks(chunkNum [3]uint32, chunkSize float32, planes [6]mgl32.Vec4) int {
	n := 0
	for x := uint32(0); x < chunkNum[0]; x++ {
		for y := uint32(0); y < chunkNum[1]; y++ {
			for z := uint32(0); z < chunkNum[2]; z++ {
				lo := mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(chunkSize)
				hi := lo.Add(mgl32.Vec3{chunkSize, chunkSize, chunkSize})
				if AABBInFrustum([2]mgl32.Vec3{lo, hi}, planes) {
					n++
				}
			}
		}
	}
	return n
}
