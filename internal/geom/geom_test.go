package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBuildSortIndexCoversEveryCellOnce(t *testing.T) {
	n := 5
	cells := BuildSortIndex(n)
	if len(cells) != n*n {
		t.Fatalf("len = %d, want %d", len(cells), n*n)
	}
	seen := make(map[Cell]bool)
	for _, c := range cells {
		if seen[c] {
			t.Fatalf("cell %v appears twice", c)
		}
		seen[c] = true
	}
}

func TestBuildSortIndexIsAscendingByDistance(t *testing.T) {
	n := 7
	cells := BuildSortIndex(n)
	center := n / 2
	sq := func(c Cell) int {
		di, dj := c.I-center, c.J-center
		return di*di + dj*dj
	}
	for i := 1; i < len(cells); i++ {
		if sq(cells[i]) < sq(cells[i-1]) {
			t.Fatalf("sort index not ascending at %d: %v (%d) before %v (%d)",
				i, cells[i-1], sq(cells[i-1]), cells[i], sq(cells[i]))
		}
	}
}

func TestFrustumConservativenessForChunkDirectlyAhead(t *testing.T) {
	camPos := mgl32.Vec3{0, 0, 0}
	camForward := mgl32.Vec3{0, 0, 1}
	fov := float32(math.Pi / 2) // 90 degrees

	// A chunk AABB straight ahead and small relative to distance must
	// register as visible: every corner direction is near camForward.
	aabbMin := mgl32.Vec3{-1, -1, 49}
	aabbMax := mgl32.Vec3{1, 1, 51}

	if !FrustumTest(camPos, camForward, fov, aabbMin, aabbMax) {
		t.Fatal("chunk directly ahead and inside the forward cone must be visible")
	}
}

func TestFrustumRejectsAABBBehindCamera(t *testing.T) {
	camPos := mgl32.Vec3{0, 0, 0}
	camForward := mgl32.Vec3{0, 0, 1}
	fov := float32(math.Pi / 4)

	aabbMin := mgl32.Vec3{-1, -1, -51}
	aabbMax := mgl32.Vec3{1, 1, -49}

	if FrustumTest(camPos, camForward, fov, aabbMin, aabbMax) {
		t.Fatal("chunk far behind the camera and outside the near-distance bound must be rejected")
	}
}

func TestFrustumAcceptsAABBContainingCamera(t *testing.T) {
	camPos := mgl32.Vec3{5, 5, 5}
	camForward := mgl32.Vec3{1, 0, 0}
	fov := float32(math.Pi / 4)

	aabbMin := mgl32.Vec3{0, 0, 0}
	aabbMax := mgl32.Vec3{10, 10, 10}

	if !FrustumTest(camPos, camForward, fov, aabbMin, aabbMax) {
		t.Fatal("an AABB the camera is inside of must be visible")
	}
}
