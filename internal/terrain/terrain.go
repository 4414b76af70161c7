// Package terrain implements the procedural terrain generator (C4): a
// deterministic, per-column block filler driven by fractal noise and fixed
// biome thresholds, plus two trivial noise variants used for deterministic
// tests (spec.md §6's CUBE/FLAT configuration constants).
//
// Generate's shape — walk a chunk-sized column, call back per block — is
// the teacher's Generator.PopulateChunk pattern (internal/world/
// generator.go), generalized from its single heightmap octave-noise call
// to spec.md §4.4's full height/biome/decoration/cloud pipeline.
package terrain

import (
	"math"

	"voxelcore/internal/block"
	"voxelcore/internal/noise"
)

// PlaceFunc writes one block into the caller-owned destination (typically
// a chunk's block array), per spec.md §4.4's closing sentence: "the caller
// decides where to write."
type PlaceFunc func(x, y, z int, k block.Kind)

// ColumnFiller generates the blocks of one CW×CH×CW chunk at chunk
// coordinates (cx, cz), in world chunk-units, calling place once per
// non-empty block at world block coordinates.
type ColumnFiller interface {
	Generate(cx, cz int, place PlaceFunc)
}

// Variant selects a ColumnFiller implementation, the enum-tagged dispatch
// spec.md §9 calls for in place of the original's function-pointer switch.
type Variant int

const (
	VariantFBM Variant = iota
	VariantCube
	VariantFlat
)

// New constructs the ColumnFiller named by variant. cw/ch are the chunk
// dimensions and seed feeds the FBM variant's noise permutation table.
func New(variant Variant, cw, ch int, seed uint64) ColumnFiller {
	switch variant {
	case VariantCube:
		return cubeFiller{cw: cw, ch: ch}
	case VariantFlat:
		return flatFiller{cw: cw, ch: ch}
	default:
		return NewGenerator(cw, ch, seed)
	}
}

// cubeFiller fills exactly one chunk (cx=0,cz=0) with a fixed pattern and
// leaves every other chunk empty — a deterministic single-chunk test
// pattern per spec.md §6's CUBE variant.
type cubeFiller struct{ cw, ch int }

func (f cubeFiller) Generate(cx, cz int, place PlaceFunc) {
	if cx != 0 || cz != 0 {
		return
	}
	for x := 0; x < f.cw; x++ {
		for z := 0; z < f.cw; z++ {
			place(cx*f.cw+x, 0, cz*f.cw+z, block.Stone)
		}
	}
}

// flatFiller produces the 3-layer flat world (bedrock/dirt/grass) named in
// spec.md §6's FLAT variant.
type flatFiller struct{ cw, ch int }

func (f flatFiller) Generate(cx, cz int, place PlaceFunc) {
	const (
		bedrockY = 0
		dirtTop  = 3
		grassY   = 4
	)
	for x := 0; x < f.cw; x++ {
		for z := 0; z < f.cw; z++ {
			wx, wz := cx*f.cw+x, cz*f.cw+z
			place(wx, bedrockY, wz, block.Bedrock)
			for y := 1; y <= dirtTop; y++ {
				place(wx, y, wz, block.Dirt)
			}
			place(wx, grassY, wz, block.Grass)
		}
	}
}

// Generator implements ColumnFiller with the fbm/turbulence pipeline of
// spec.md §4.4.
type Generator struct {
	cw, ch  int
	simplex *noise.Simplex3D
}

// NewGenerator builds the default FBM-driven terrain generator. seed is
// mixed into the simplex permutation table directly, matching the
// original's per-world seed (original_source/src/world.c).
func NewGenerator(cw, ch int, seed uint64) *Generator {
	return &Generator{cw: cw, ch: ch, simplex: noise.NewSimplex3D(seed)}
}

const (
	// fixed per spec.md's glossary: lacunarity is always 2, gain always 0.5.
	lacunarity = 2.0
	gain       = 0.5
)

func (g *Generator) fbm(s, t float64, octaves int) float64 {
	return noise.FBM(g.simplex, s, 0, t, octaves, gain, lacunarity)
}

func (g *Generator) turbulence(s, t float64, octaves int) float64 {
	return noise.Turbulence(g.simplex, s, 0, t, octaves, gain, lacunarity)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// columnKinds is the step-4 surface-selection outcome for one column.
type columnKinds struct {
	top, bottom block.Kind
	isGrass     bool
}

// Generate implements ColumnFiller for one chunk at chunk coords (cx, cz).
func (g *Generator) Generate(cx, cz int, place PlaceFunc) {
	for lx := 0; lx < g.cw; lx++ {
		for lz := 0; lz < g.cw; lz++ {
			s := float64(cx*g.cw + lx)
			t := float64(cz*g.cw + lz)
			g.column(s, t, lx, lz, place)
		}
	}
}

func (g *Generator) column(s, t float64, lx, lz int, place PlaceFunc) {
	// Step 1: base height.
	h0raw := g.fbm(s*0.005, t*0.005, 6) * 50
	h0 := math.Pow(math.Max(h0raw, 0), 1.3) + 30
	h0 = clamp(h0, 0, float64(g.ch-1))

	// Step 2: low-land variation.
	low := false
	if h0 < 40 {
		h0 += g.fbm(-s*0.01, t*0.01, 6) * 12
		h0 = clamp(h0, 0, float64(g.ch-1))
		low = true
	}

	// Step 3: biome offset.
	beta0 := g.fbm(s*0.2, t*0.2, 6)

	// Step 4: surface selection.
	beta := clamp(beta0*8, -5, 5)
	h := h0 + beta
	hBeach := h0 + beta0

	var ck columnKinds
	switch {
	case hBeach < 31:
		ck = columnKinds{top: block.Sand, bottom: block.Sand}
	case h < 61:
		ck = columnKinds{top: block.Grass, bottom: block.Dirt, isGrass: true}
	case h < 132:
		ck = columnKinds{top: block.Stone, bottom: block.Stone}
	default:
		ck = columnKinds{top: block.Snow, bottom: block.Stone}
	}

	surfaceY := int(math.Ceil(h0))
	if surfaceY >= g.ch {
		surfaceY = g.ch - 1
	}

	// Step 5: column fill.
	wx, wz := int(s), int(t)
	for y := 0; y < surfaceY; y++ {
		place(wx, y, wz, ck.bottom)
	}
	place(wx, surfaceY, wz, ck.top)
	for y := surfaceY + 1; y < 30 && y < g.ch; y++ {
		place(wx, y, wz, block.Water)
	}

	// Step 6: decoration.
	nearEdge := lx < 3 || lx >= g.cw-3 || lz < 3 || lz >= g.cw-3
	if low && ck.isGrass && !nearEdge {
		g.decorate(s, t, wx, wz, surfaceY, place)
	}

	// Step 7: clouds.
	if h0 <= 130 {
		g.clouds(s, t, wx, wz, place)
	}
}

func (g *Generator) decorate(s, t float64, wx, wz, surfaceY int, place PlaceFunc) {
	p := g.fbm(s*0.2, t*0.2, 3)*0.5 + 0.5

	switch {
	case p > 0.8:
		g.placeTree(wx, wz, surfaceY, p, place)
	case p > 0.55:
		if surfaceY+1 < g.ch {
			place(wx, surfaceY+1, wz, block.Bush)
		}
	case p > 0.52:
		if surfaceY+1 < g.ch {
			place(wx, surfaceY+1, wz, flowerKind(p))
		}
	}
}

var flowers = [4]block.Kind{block.Bluebell, block.Gardenia, block.Lavender, block.Rose}

func flowerKind(p float64) block.Kind {
	idx := int(math.Floor(p*1000)) % 4
	if idx < 0 {
		idx += 4
	}
	return flowers[idx]
}

// placeTree emits a log column of height 3+floor(p*2) above the surface,
// then a 3x3x2 leaf shell around and above its top, never overwriting a
// log cell (spec.md §8 scenario 6).
func (g *Generator) placeTree(wx, wz, surfaceY int, p float64, place PlaceFunc) {
	logHeight := 3 + int(math.Floor(p*2))
	topY := surfaceY + logHeight
	for y := surfaceY + 1; y <= topY && y < g.ch; y++ {
		place(wx, y, wz, block.Log)
	}

	isLogCell := func(x, y, z int) bool {
		return x == wx && z == wz && y >= surfaceY+1 && y <= topY
	}

	for dy := 0; dy <= 1; dy++ {
		y := topY + dy
		if y < 0 || y >= g.ch {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				x, z := wx+dx, wz+dz
				if isLogCell(x, y, z) {
					continue
				}
				place(x, y, z, block.Leaves)
			}
		}
	}
}

func (g *Generator) clouds(s, t float64, wx, wz int, place PlaceFunc) {
	c := g.turbulence(s*0.015, t*0.015, 6)
	var r int
	switch {
	case c > 0.9:
		r = 2
	case c > 0.7:
		r = 1
	case c > 0.6:
		r = 0
	default:
		return
	}
	for k := -r; k <= r; k++ {
		y := 155 + k
		if y < 0 || y >= g.ch {
			continue
		}
		place(wx, y, wz, block.Cloud)
	}
}
