// Package grid implements the sliding chunk window (C3): an N×N matrix of
// chunk pointers that migrates by pointer shuffle, not reallocation, as the
// viewer crosses chunk boundaries.
package grid

import "voxelcore/internal/chunk"

// Cell is a grid slot coordinate.
type Cell struct{ I, J int }

// Grid is the N×N window of resident chunks plus the grid's world-space
// origin, in chunk units. Slot (i,j) covers world blocks starting at
// ((WorldX+i)*CW, (WorldZ+j)*CW), per spec.md §3.
type Grid struct {
	cells          [][]*chunk.Chunk // cells[i][j]
	N              int
	CW, CH         int
	WorldX, WorldZ int

	nextID uint64
}

// New allocates all N*N chunks up front with identities 1..N*N and never
// frees them until the Grid itself is discarded, per spec.md §3's
// lifecycle ("calloc'd ... never destroyed until shutdown").
func New(n, cw, ch, worldX, worldZ int) *Grid {
	g := &Grid{
		cells:  make([][]*chunk.Chunk, n),
		N:      n,
		CW:     cw,
		CH:     ch,
		WorldX: worldX,
		WorldZ: worldZ,
	}
	for i := 0; i < n; i++ {
		g.cells[i] = make([]*chunk.Chunk, n)
		for j := 0; j < n; j++ {
			g.nextID++
			x := (worldX + i) * cw
			z := (worldZ + j) * cw
			g.cells[i][j] = chunk.New(g.nextID, cw, ch, x, z)
		}
	}
	return g
}

// In reports whether (i,j) is a valid slot index.
func (g *Grid) In(i, j int) bool {
	return i >= 0 && i < g.N && j >= 0 && j < g.N
}

// Bordering reports whether (i,j) is in the outermost ring, which is kept
// resident for neighbor lookups only and is never meshed or drawn.
func (g *Grid) Bordering(i, j int) bool {
	return i == 0 || i == g.N-1 || j == 0 || j == g.N-1
}

// At returns the chunk at slot (i,j). The caller must have checked In.
func (g *Grid) At(i, j int) *chunk.Chunk {
	return g.cells[i][j]
}

// Neighbor returns the chunk at slot offset (di,dj) from (i,j), or nil if
// that slot is outside the grid.
func (g *Grid) Neighbor(i, j, di, dj int) *chunk.Chunk {
	ni, nj := i+di, j+dj
	if !g.In(ni, nj) {
		return nil
	}
	return g.cells[ni][nj]
}

// Slide implements spec.md §4.3's four-step relocation. It reports whether
// a slide actually happened (false means (newWorldX,newWorldZ) already
// matched the current origin — a no-op, not a refusal). Callers are
// responsible for checking worker idleness before calling Slide at all;
// spec.md §4.3's "refused while busy" lives in the caller (voxelworld),
// since only it knows worker state.
func (g *Grid) Slide(newWorldX, newWorldZ int) bool {
	di := newWorldX - g.WorldX
	dj := newWorldZ - g.WorldZ
	if di == 0 && dj == 0 {
		return false
	}

	n := g.N
	scratch := make([][]*chunk.Chunk, n)
	for i := range scratch {
		scratch[i] = make([]*chunk.Chunk, n)
	}

	// Step 1: copy pointers shifted by (-di, -dj); anything landing
	// outside the window is evicted.
	var evicted []*chunk.Chunk
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ni, nj := i-di, j-dj
			if g.In(ni, nj) {
				scratch[ni][nj] = g.cells[i][j]
			} else {
				evicted = append(evicted, g.cells[i][j])
			}
		}
	}

	// Step 2: refill holes in column-major order, paired with eviction
	// insertion order.
	k := 0
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			if scratch[i][j] == nil {
				scratch[i][j] = evicted[k]
				k++
			}
		}
	}

	// Step 3: each re-homed chunk resets flags and stored origin.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := scratch[i][j]
			wantX := (newWorldX + i) * g.CW
			wantZ := (newWorldZ + j) * g.CW
			if c.X != wantX || c.Z != wantZ {
				c.Relocate(wantX, wantZ)
			}
		}
	}

	// Step 4: commit.
	g.cells = scratch
	g.WorldX = newWorldX
	g.WorldZ = newWorldZ
	return true
}
