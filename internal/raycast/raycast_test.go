package raycast

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/block"
)

type voxelWorld map[[3]int]block.Kind

func (w voxelWorld) get(x, y, z int) block.Kind {
	if k, ok := w[[3]int{x, y, z}]; ok {
		return k
	}
	return block.Empty
}

// TestHitsStoneAlongAxis reproduces spec.md §8 scenario 5: a STONE block at
// (5,5,5), cast from (0.5,5.5,5.5) along +X for length 10 must land on
// current=(5,5,5), previous=(4,5,5).
func TestHitsStoneAlongAxis(t *testing.T) {
	w := voxelWorld{{5, 5, 5}: block.Stone}

	current, previous, hit := Cast(w.get, mgl32.Vec3{0.5, 5.5, 5.5}, mgl32.Vec3{1, 0, 0}, 10)

	if hit != block.Stone {
		t.Fatalf("hit = %v, want Stone", hit)
	}
	if current != [3]int{5, 5, 5} {
		t.Fatalf("current = %v, want (5,5,5)", current)
	}
	if previous != [3]int{4, 5, 5} {
		t.Fatalf("previous = %v, want (4,5,5)", previous)
	}
}

func TestMissReturnsEmpty(t *testing.T) {
	w := voxelWorld{}
	_, _, hit := Cast(w.get, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 10)
	if hit != block.Empty {
		t.Fatalf("hit = %v, want Empty", hit)
	}
}

func TestOriginInsideSolidHitsImmediately(t *testing.T) {
	w := voxelWorld{{2, 2, 2}: block.Stone}
	current, previous, hit := Cast(w.get, mgl32.Vec3{2.5, 2.5, 2.5}, mgl32.Vec3{1, 0, 0}, 10)
	if hit != block.Stone {
		t.Fatalf("hit = %v, want Stone", hit)
	}
	if current != [3]int{2, 2, 2} || previous != [3]int{2, 2, 2} {
		t.Fatalf("current/previous = %v/%v, want both (2,2,2) when origin starts inside solid", current, previous)
	}
}

// TestPreviousIsAlwaysAdjacentToCurrent checks the "sandwich" property: the
// previous cell returned on a hit must be a face neighbor of current, never
// a diagonal jump, across several cast directions.
func TestPreviousIsAlwaysAdjacentToCurrent(t *testing.T) {
	dirs := []mgl32.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
		{1, 1, 0}, {1, 1, 1}, {-1, 0.5, 0.3},
	}
	for _, d := range dirs {
		w := voxelWorld{{10, 10, 10}: block.Stone}
		current, previous, hit := Cast(w.get, mgl32.Vec3{5, 5, 5}, d, 50)
		if hit == block.Empty {
			continue
		}
		manhattan := 0
		for axis := 0; axis < 3; axis++ {
			diff := current[axis] - previous[axis]
			if diff < 0 {
				diff = -diff
			}
			manhattan += diff
		}
		if manhattan != 1 {
			t.Errorf("dir %v: previous %v is not a face neighbor of current %v", d, previous, current)
		}
	}
}

func TestDistanceBoundStopsBeforeTarget(t *testing.T) {
	w := voxelWorld{{20, 0, 0}: block.Stone}
	_, _, hit := Cast(w.get, mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 5)
	if hit != block.Empty {
		t.Fatalf("hit = %v, want Empty (target is beyond maxDist)", hit)
	}
}
