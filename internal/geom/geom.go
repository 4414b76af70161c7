// Package geom implements the geometry helpers (C10): the distance-ordered
// chunk sort index, precomputed once per grid size and reused every frame,
// and the loose cone frustum test used by the render path to cull chunks.
package geom

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Cell is a grid slot coordinate, mirroring grid.Cell without importing
// grid (geom has no other reason to depend on it).
type Cell struct{ I, J int }

// BuildSortIndex returns every (i,j) in an n×n grid, stably sorted by
// ascending squared distance from the grid center (n/2, n/2). It is
// computed once at world init and reused every frame for both render
// order and job dispatch priority, per spec.md §3's "Sort index".
func BuildSortIndex(n int) []Cell {
	cells := make([]Cell, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cells = append(cells, Cell{I: i, J: j})
		}
	}
	center := n / 2
	sqDist := func(c Cell) int {
		di := c.I - center
		dj := c.J - center
		return di*di + dj*dj
	}
	sort.SliceStable(cells, func(a, b int) bool {
		return sqDist(cells[a]) < sqDist(cells[b])
	})
	return cells
}

// FrustumTest implements spec.md §4.10's intentionally loose cone test: an
// AABB is considered visible if any of its 8 corners is either close to
// the camera (closer than the AABB's largest extent) or within a forward
// cone wider than the field of view by a fixed factor (fov/1.25).
func FrustumTest(camPos, camForward mgl32.Vec3, fovRadians float32, aabbMin, aabbMax mgl32.Vec3) bool {
	extent := aabbMax.Sub(aabbMin)
	maxExtent := extent.X()
	if extent.Y() > maxExtent {
		maxExtent = extent.Y()
	}
	if extent.Z() > maxExtent {
		maxExtent = extent.Z()
	}

	forward := camForward.Normalize()
	coneAngle := fovRadians / 1.25

	corners := [8]mgl32.Vec3{
		{aabbMin.X(), aabbMin.Y(), aabbMin.Z()},
		{aabbMax.X(), aabbMin.Y(), aabbMin.Z()},
		{aabbMin.X(), aabbMax.Y(), aabbMin.Z()},
		{aabbMax.X(), aabbMax.Y(), aabbMin.Z()},
		{aabbMin.X(), aabbMin.Y(), aabbMax.Z()},
		{aabbMax.X(), aabbMin.Y(), aabbMax.Z()},
		{aabbMin.X(), aabbMax.Y(), aabbMax.Z()},
		{aabbMax.X(), aabbMax.Y(), aabbMax.Z()},
	}

	for _, corner := range corners {
		toCorner := corner.Sub(camPos)
		dist := toCorner.Len()
		if dist < maxExtent {
			return true
		}
		if dist == 0 {
			return true
		}
		cos := forward.Dot(toCorner) / dist
		cos = clampFloat32(cos, -1, 1)
		angle := float32(math.Acos(float64(cos)))
		if angle < coneAngle {
			return true
		}
	}
	return false
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
