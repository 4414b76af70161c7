// Package raycast implements the DDA voxel raycaster (C9): Amanatides–Woo
// traversal over an integer voxel grid, used for player break/place
// targeting.
//
// spec.md §9 resolves the teacher's two coexisting raycast implementations
// (a fixed-step sampler in internal/physics/raycast.go, and a DDA variant)
// in favor of DDA; this package keeps the teacher's GetBlockFunc-shaped
// query signature but replaces the sampler's algorithm entirely.
package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/block"
)

// GetBlockFunc queries world block storage at integer coordinates.
type GetBlockFunc func(x, y, z int) block.Kind

const epsilon = 1e-8

// Cast walks from origin along dir (need not be normalized) up to maxDist
// world units, stopping at the first solid block per block.Solid. It
// returns the hit cell, the cell stepped from immediately before it, and
// the hit kind. If nothing solid is found within maxDist, hit is
// block.Empty, previous is the last cell tested, and current is the cell
// the traversal stepped into beyond maxDist (not tested).
func Cast(get GetBlockFunc, origin, dir mgl32.Vec3, maxDist float32) (current, previous [3]int, hit block.Kind) {
	current = [3]int{int(math.Floor(float64(origin.X()))), int(math.Floor(float64(origin.Y()))), int(math.Floor(float64(origin.Z())))}
	previous = current

	step := [3]int{}
	delta := [3]float32{}
	tMax := [3]float32{}

	p := [3]float32{origin.X(), origin.Y(), origin.Z()}
	d := [3]float32{dir.X(), dir.Y(), dir.Z()}

	for axis := 0; axis < 3; axis++ {
		if d[axis] > epsilon {
			step[axis] = 1
			delta[axis] = 1 / d[axis]
			tMax[axis] = (float32(current[axis]+1) - p[axis]) * delta[axis]
		} else if d[axis] < -epsilon {
			step[axis] = -1
			delta[axis] = 1 / -d[axis]
			tMax[axis] = (p[axis] - float32(current[axis])) * delta[axis]
		} else {
			step[axis] = 0
			delta[axis] = math.MaxFloat32
			tMax[axis] = math.MaxFloat32
		}
	}

	if k := get(current[0], current[1], current[2]); block.Solid(k) {
		return current, previous, k
	}

	var t float32
	for t <= maxDist {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}

		previous = current
		current[axis] += step[axis]
		t = tMax[axis]
		tMax[axis] += delta[axis]

		if t > maxDist {
			break
		}

		if k := get(current[0], current[1], current[2]); block.Solid(k) {
			return current, previous, k
		}
	}

	return current, previous, block.Empty
}
