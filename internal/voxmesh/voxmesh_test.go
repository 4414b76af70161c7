package voxmesh

import (
	"testing"

	"voxelcore/internal/block"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []struct {
		x, y, z, u, v int
		dir           block.Direction
	}{
		{0, 0, 0, 0, 0, block.North},
		{32, 256, 32, 15, 15, block.Down},
		{17, 200, 5, 9, 2, block.East},
	}
	for _, c := range cases {
		p := Pack(c.x, c.y, c.z, c.u, c.v, c.dir)
		x, y, z, u, v, dir := Unpack(p)
		if x != c.x || y != c.y || z != c.z || u != c.u || v != c.v || dir != c.dir {
			t.Errorf("round trip of %+v = (%d,%d,%d,%d,%d,%v)", c, x, y, z, u, v, dir)
		}
	}
}

func TestPackPanicsOnOutOfRangeField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Pack did not panic on out-of-range y")
		}
	}()
	Pack(0, 1<<20, 0, 0, 0, block.North)
}

func TestPackPanicsOnOutOfRangeAtlasCoordinate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Pack did not panic on out-of-range u")
		}
	}()
	Pack(0, 0, 0, 1<<bitsU, 0, block.North)
}

func TestSharedIndicesPattern(t *testing.T) {
	got := SharedIndices(2)
	want := []uint32{0, 1, 2, 3, 2, 1, 4, 5, 6, 7, 6, 5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("indices[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// solidColumn is a Source over a dense array, used to exercise
// BuildChunkMesh without depending on the chunk package.
type solidColumn struct {
	cw, ch int
	voxels []block.Kind
}

func (s *solidColumn) idx(x, y, z int) int { return (x*s.ch+y)*s.cw + z }

func (s *solidColumn) At(x, y, z int) block.Kind {
	if x < 0 || x >= s.cw || y < 0 || y >= s.ch || z < 0 || z >= s.cw {
		return block.Empty
	}
	return s.voxels[s.idx(x, y, z)]
}

func newColumn(cw, ch int) *solidColumn {
	return &solidColumn{cw: cw, ch: ch, voxels: make([]block.Kind, cw*ch*cw)}
}

func (s *solidColumn) set(x, y, z int, k block.Kind) { s.voxels[s.idx(x, y, z)] = k }

func TestBuildChunkMeshSingleVoxelEmitsSixFaces(t *testing.T) {
	cw, ch := 4, 4
	c := newColumn(cw, ch)
	c.set(1, 1, 1, block.Stone)

	out := BuildChunkMesh(cw, ch, c, Neighbors{})
	if len(out.Opaque) != 6*4 {
		t.Fatalf("opaque vertex count = %d, want %d", len(out.Opaque), 6*4)
	}
	if len(out.Transparent) != 0 || len(out.Sprite) != 0 {
		t.Fatalf("unexpected transparent/sprite vertices: %d/%d", len(out.Transparent), len(out.Sprite))
	}
}

func TestBuildChunkMeshAdjacentOpaqueVoxelsHideSharedFace(t *testing.T) {
	cw, ch := 4, 4
	c := newColumn(cw, ch)
	c.set(1, 1, 1, block.Stone)
	c.set(2, 1, 1, block.Stone)

	out := BuildChunkMesh(cw, ch, c, Neighbors{})
	// 2 voxels * 6 faces - 2 shared faces (one per voxel) = 10 faces.
	want := 10 * 4
	if len(out.Opaque) != want {
		t.Fatalf("opaque vertex count = %d, want %d", len(out.Opaque), want)
	}
}

func TestBuildChunkMeshSpriteAlwaysEmitsFourPlanes(t *testing.T) {
	cw, ch := 2, 2
	c := newColumn(cw, ch)
	c.set(0, 0, 0, block.Bush)
	c.set(0, 1, 0, block.Stone) // neighbor presence must not affect sprite emission

	out := BuildChunkMesh(cw, ch, c, Neighbors{})
	if len(out.Sprite) != 4*4 {
		t.Fatalf("sprite vertex count = %d, want %d", len(out.Sprite), 4*4)
	}
}

func TestBuildChunkMeshNeighborChunkSuppressesBoundaryFace(t *testing.T) {
	cw, ch := 2, 2
	c := newColumn(cw, ch)
	c.set(cw-1, 0, 0, block.Stone) // touches +X boundary

	east := newColumn(cw, ch)
	east.set(0, 0, 0, block.Stone) // fills the adjacent voxel in the east neighbor

	withNeighbor := BuildChunkMesh(cw, ch, c, Neighbors{block.East: east})
	withoutNeighbor := BuildChunkMesh(cw, ch, c, Neighbors{})

	if len(withNeighbor.Opaque) >= len(withoutNeighbor.Opaque) {
		t.Fatalf("expected fewer faces with occluding neighbor: with=%d without=%d",
			len(withNeighbor.Opaque), len(withoutNeighbor.Opaque))
	}
}
